package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Carbaz/ai-technical-challenge/pkg/llm"
)

type MockModel struct {
	mock.Mock
}

func (m *MockModel) GenerateJSON(ctx context.Context, prompt, path string) (string, error) {
	args := m.Called(ctx, prompt, path)
	return args.String(0), args.Error(1)
}

func newChunker(model llm.Model, retries int) *llm.Chunker {
	return llm.NewChunker(model, llm.ChunkerConfig{
		ChunkSize:     500,
		ChunkOverlap:  50,
		RateLimit:     1000,
		MaxRetries:    retries,
		RetryInterval: time.Millisecond,
	})
}

func TestChunkFile(t *testing.T) {
	model := new(MockModel)
	model.On("GenerateJSON", mock.Anything, llm.ChunkPrompt(500, 50), "docs/a.pdf").
		Return(`{"chunks": [{"page_content": "one"}, {"page_content": "two"}]}`, nil).Once()

	chunks, err := newChunker(model, 2).ChunkFile(context.Background(), "docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, chunks)
	model.AssertNumberOfCalls(t, "GenerateJSON", 1)
}

func TestChunkFileRetriesSchemaErrors(t *testing.T) {
	model := new(MockModel)
	model.On("GenerateJSON", mock.Anything, mock.Anything, "a.pdf").Return(`["not", "an", "object"]`, nil).Once()
	model.On("GenerateJSON", mock.Anything, mock.Anything, "a.pdf").Return(`{"chunks": [{"page_content": "ok"}]}`, nil).Once()

	chunks, err := newChunker(model, 2).ChunkFile(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, chunks)
	model.AssertNumberOfCalls(t, "GenerateJSON", 2)
}

func TestChunkFileGivesUp(t *testing.T) {
	model := new(MockModel)
	model.On("GenerateJSON", mock.Anything, mock.Anything, "a.pdf").Return(`{"items": []}`, nil)

	_, err := newChunker(model, 2).ChunkFile(context.Background(), "a.pdf")
	assert.ErrorIs(t, err, llm.ErrSchema)
	model.AssertNumberOfCalls(t, "GenerateJSON", 3)
}

func TestChunkFileDoesNotRetryUnreadableFiles(t *testing.T) {
	model := new(MockModel)
	model.On("GenerateJSON", mock.Anything, mock.Anything, "gone.pdf").Return("", llm.ErrFileUnreadable)

	_, err := newChunker(model, 5).ChunkFile(context.Background(), "gone.pdf")
	assert.ErrorIs(t, err, llm.ErrFileUnreadable)
	model.AssertNumberOfCalls(t, "GenerateJSON", 1)
}

func TestChunkFileTransientError(t *testing.T) {
	model := new(MockModel)
	model.On("GenerateJSON", mock.Anything, mock.Anything, "a.pdf").Return("", errors.New("503 unavailable")).Once()
	model.On("GenerateJSON", mock.Anything, mock.Anything, "a.pdf").Return(`{"chunks": []}`, nil).Once()

	chunks, err := newChunker(model, 1).ChunkFile(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestParseChunks(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "valid", raw: `{"chunks": [{"page_content": "a"}, {"page_content": ""}]}`, want: []string{"a", ""}},
		{name: "extra fields", raw: `{"chunks": [{"page_content": "a", "score": 1}], "model": "x"}`, want: []string{"a"}},
		{name: "empty list", raw: `{"chunks": []}`, want: []string{}},
		{name: "not json", raw: `chunks: a, b`, wantErr: true},
		{name: "missing chunks", raw: `{}`, wantErr: true},
		{name: "missing content", raw: `{"chunks": [{"text": "a"}]}`, wantErr: true},
		{name: "wrong type", raw: `{"chunks": [{"page_content": 3}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := llm.ParseChunks(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, llm.ErrSchema)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunkPrompt(t *testing.T) {
	prompt := llm.ChunkPrompt(800, 80)
	assert.Contains(t, prompt, "up to 800 characters")
	assert.Contains(t, prompt, "up to 80 characters")
	assert.Contains(t, prompt, `"page_content"`)
}

func TestGeminiModelUnreadableFile(t *testing.T) {
	model, err := llm.NewGeminiModel(context.Background(), llm.GeminiConfig{APIKey: "test-key"})
	require.NoError(t, err)
	defer model.Close()

	_, err = model.GenerateJSON(context.Background(), "prompt", "/does/not/exist.pdf")
	assert.ErrorIs(t, err, llm.ErrFileUnreadable)
}
