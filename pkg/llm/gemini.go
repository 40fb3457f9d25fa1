package llm

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// chunkSchema constrains the model answer to {"chunks": [{"page_content": ...}]}.
var chunkSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"chunks": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"page_content": {Type: genai.TypeString},
				},
				Required: []string{"page_content"},
			},
		},
	},
	Required: []string{"chunks"},
}

type GeminiConfig struct {
	APIKey string
	// BaseURL overrides the Gemini API endpoint, as "host:port" or
	// "https://host[:port]". OpenAI style base URLs with a path are rejected.
	BaseURL      string
	Model        string
	PollInterval time.Duration
}

// GeminiModel uploads the file to the Gemini Files API and asks the model
// for a JSON answer constrained by chunkSchema.
type GeminiModel struct {
	config GeminiConfig
	client *genai.Client
}

func NewGeminiModel(ctx context.Context, config GeminiConfig) (*GeminiModel, error) {
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		endpoint, err := GeminiEndpoint(config.BaseURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiModel{config: config, client: client}, nil
}

func (g *GeminiModel) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiModel) GenerateJSON(ctx context.Context, prompt, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileUnreadable, err)
	}
	defer f.Close()

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	file, err := g.client.UploadFile(ctx, "", f, &genai.UploadFileOptions{
		DisplayName: filepath.Base(path),
		MIMEType:    mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("gemini upload: %w", err)
	}
	defer func() {
		_ = g.client.DeleteFile(context.WithoutCancel(ctx), file.Name)
	}()

	if file, err = g.waitActive(ctx, file); err != nil {
		return "", err
	}

	model := g.client.GenerativeModel(g.config.Model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = chunkSchema

	resp, err := model.GenerateContent(ctx,
		genai.FileData{MIMEType: file.MIMEType, URI: file.URI},
		genai.Text(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response", ErrSchema)
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

// waitActive polls an uploaded file until the service has processed it.
func (g *GeminiModel) waitActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.config.PollInterval):
		}
		var err error
		if file, err = g.client.GetFile(ctx, file.Name); err != nil {
			return nil, fmt.Errorf("gemini file status: %w", err)
		}
	}
	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("gemini could not process %s", file.DisplayName)
	}
	return file, nil
}

var ErrInvalidEndpoint = errors.New("invalid gemini endpoint")

// GeminiEndpoint turns a configured base URL into the host:port form the
// Gemini client dials.
func GeminiEndpoint(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		if _, _, err := net.SplitHostPort(raw); err != nil {
			return "", fmt.Errorf("%w %q: %w", ErrInvalidEndpoint, raw, err)
		}
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidEndpoint, raw, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w %q: missing host", ErrInvalidEndpoint, raw)
	}
	if strings.Trim(u.Path, "/") != "" {
		return "", fmt.Errorf("%w %q: path not allowed, expected a Gemini API host", ErrInvalidEndpoint, raw)
	}

	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
