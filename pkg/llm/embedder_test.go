package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carbaz/ai-technical-challenge/pkg/llm"
)

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Provider: "ollama",
		Model:    "nomic-embed-text:latest",
		BaseURL:  "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.NotNil(t, emb)

	emb, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Provider: "openai",
		APIKey:   "sk-test",
		BaseURL:  "http://localhost:8080/v1",
	})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	_, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{Provider: "cohere"})
	assert.Error(t, err)
}
