package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. FCM_APA_CHUNK_SIZE.
const EnvPrefix = "FCM_APA"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log       LogConfig       `yaml:"log"`
	PDF       PDFConfig       `yaml:"pdf"`
	Processor ProcessorConfig `yaml:"processor"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PDFConfig struct {
	ProcessingLevel string `yaml:"processing_level"`
	OCRLanguage     string `yaml:"ocr_language"`
	OCRDebug        bool   `yaml:"ocr_debug"`
	OCRDebugDir     string `yaml:"ocr_debug_dir"`
	Workers         int    `yaml:"workers"`
}

type ProcessorConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	BatchSize int    `yaml:"batch_size"`
}

// LLMConfig configures the model used for semantic chunking.
type LLMConfig struct {
	Model string `yaml:"model"`
	// BaseURL overrides the Gemini API endpoint (host:port or https://host).
	// It is not an OpenAI compatible base URL.
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	RateLimit  float64       `yaml:"rate_limit"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Backend   string `yaml:"backend"`
	URL       string `yaml:"url"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	SSLMode   string `yaml:"ssl_mode"`
	Path      string `yaml:"path"`
	TableName string `yaml:"table_name"`
	VectorDim int    `yaml:"vector_dim"`
	BatchSize int    `yaml:"batch_size"`
}

// envOverrides mirrors the settings that can be set from the environment.
// Empty strings and nil pointers mean "not set".
type envOverrides struct {
	LogLevel           string `envconfig:"LOG_LEVEL"`
	LogFormat          string `envconfig:"LOG_FORMAT"`
	PDFProcessingLevel string `envconfig:"PDF_PROCESSING_LEVEL"`
	OCRLanguage        string `envconfig:"OCR_LANGUAGE"`
	OCRDebug           string `envconfig:"OCR_DEBUG"`
	OCRDebugDir        string `envconfig:"OCR_DEBUG_DIR"`
	Workers            *int   `envconfig:"WORKERS"`
	ChunkSize          *int   `envconfig:"CHUNK_SIZE"`
	ChunkOverlap       *int   `envconfig:"CHUNK_OVERLAP"`
	EmbeddingProvider  string `envconfig:"EMBEDDING_PROVIDER"`
	EmbeddingModel     string `envconfig:"EMBEDDING_MODEL"`
	EmbeddingURL       string `envconfig:"EMBEDDING_URL"`
	EmbeddingAPIKey    string `envconfig:"EMBEDDING_API_KEY"`
	LLMModel           string `envconfig:"LLM_MODEL"`
	LLMAPIURL          string `envconfig:"LLM_API_URL"`
	LLMAPIKey          string `envconfig:"LLM_API_KEY"`
	StoreBackend       string `envconfig:"VECTORSTORE_BACKEND"`
	StoreURL           string `envconfig:"VECTORSTORE_URL"`
	StoreHost          string `envconfig:"VECTORSTORE_HOST"`
	StorePort          *int   `envconfig:"VECTORSTORE_PORT"`
	StoreUser          string `envconfig:"VECTORSTORE_USER"`
	StorePassword      string `envconfig:"VECTORSTORE_PASSWORD"`
	StoreDatabase      string `envconfig:"VECTORSTORE_DATABASE"`
	StorePath          string `envconfig:"VECTORSTORE_PATH"`
	StoreTable         string `envconfig:"VECTORSTORE_TABLE"`
	VectorDim          *int   `envconfig:"VECTOR_DIM"`
}

// LoadConfig reads the YAML file at path (or the first default location that
// exists), applies .env and FCM_APA_* environment overrides and fills in
// defaults. Callers should run Check before using the result.
func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/ragingest/config.yaml"),
			"/etc/ragingest/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	config := newDefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Variables already present in the environment win over .env
	_ = godotenv.Load(".env")

	if err := mergeWithEnv(config); err != nil {
		return nil, err
	}

	applyDefaults(config)

	return config, nil
}

// newDefaultConfig returns the numeric defaults. They are set before the file
// and the environment are read so that an explicit 0 is kept.
func newDefaultConfig() *Config {
	return &Config{
		PDF:       PDFConfig{Workers: 4},
		Processor: ProcessorConfig{ChunkSize: 1000, ChunkOverlap: 100},
		Pipeline:  PipelineConfig{Workers: 4},
		Embedding: EmbeddingConfig{BatchSize: 512},
		LLM: LLMConfig{
			RateLimit:  1.0,
			MaxRetries: 3,
			Timeout:    5 * time.Minute,
		},
		Store: StoreConfig{
			Port:      5432,
			VectorDim: 1536,
			BatchSize: 100,
		},
	}
}

// applyDefaults fills in the string settings left empty, where empty is never
// a valid value.
func applyDefaults(config *Config) {
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	if config.PDF.ProcessingLevel == "" {
		config.PDF.ProcessingLevel = "MEDIUM"
	}
	if config.PDF.OCRLanguage == "" {
		config.PDF.OCRLanguage = "eng"
	}
	if config.PDF.OCRDebugDir == "" {
		config.PDF.OCRDebugDir = "ocr_debug"
	}

	if config.Embedding.Provider == "" {
		config.Embedding.Provider = "openai"
	}
	if config.Embedding.Model == "" {
		switch config.Embedding.Provider {
		case "ollama":
			config.Embedding.Model = "nomic-embed-text:latest"
		default:
			config.Embedding.Model = "text-embedding-3-small"
		}
	}

	if config.LLM.Model == "" {
		config.LLM.Model = "gemini-1.5-flash"
	}

	if config.Store.Backend == "" {
		config.Store.Backend = "pgvector"
	}
	if config.Store.SSLMode == "" {
		config.Store.SSLMode = "disable"
	}
	if config.Store.TableName == "" {
		config.Store.TableName = "embeddings"
	}
}

func mergeWithEnv(config *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	setString(&config.Log.Level, env.LogLevel)
	setString(&config.Log.Format, env.LogFormat)
	setString(&config.PDF.ProcessingLevel, env.PDFProcessingLevel)
	setString(&config.PDF.OCRLanguage, env.OCRLanguage)
	setString(&config.PDF.OCRDebugDir, env.OCRDebugDir)
	if env.OCRDebug != "" {
		debug, err := strconv.ParseBool(env.OCRDebug)
		if err != nil {
			return fmt.Errorf("%w: %s_OCR_DEBUG: %w", ErrInvalidConfig, EnvPrefix, err)
		}
		config.PDF.OCRDebug = debug
	}
	setInt(&config.Pipeline.Workers, env.Workers)
	setInt(&config.Processor.ChunkSize, env.ChunkSize)
	setInt(&config.Processor.ChunkOverlap, env.ChunkOverlap)

	setString(&config.Embedding.Provider, env.EmbeddingProvider)
	setString(&config.Embedding.Model, env.EmbeddingModel)
	setString(&config.Embedding.BaseURL, env.EmbeddingURL)
	setString(&config.Embedding.APIKey, env.EmbeddingAPIKey)

	setString(&config.LLM.Model, env.LLMModel)
	setString(&config.LLM.BaseURL, env.LLMAPIURL)
	setString(&config.LLM.APIKey, env.LLMAPIKey)

	setString(&config.Store.Backend, env.StoreBackend)
	setString(&config.Store.URL, env.StoreURL)
	setString(&config.Store.Host, env.StoreHost)
	setInt(&config.Store.Port, env.StorePort)
	setString(&config.Store.User, env.StoreUser)
	setString(&config.Store.Password, env.StorePassword)
	setString(&config.Store.Database, env.StoreDatabase)
	setString(&config.Store.Path, env.StorePath)
	setString(&config.Store.TableName, env.StoreTable)
	setInt(&config.Store.VectorDim, env.VectorDim)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// DSN returns the PostgreSQL connection string, built from the individual
// connection settings when no URL is configured.
func (s StoreConfig) DSN() string {
	if s.URL != "" {
		return s.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", s.Host, s.Port),
		Path:     "/" + s.Database,
		RawQuery: url.Values{"sslmode": {s.SSLMode}}.Encode(),
	}
	if s.User != "" {
		u.User = url.UserPassword(s.User, s.Password)
	}
	return u.String()
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.Embedding.APIKey = mask(c.Embedding.APIKey)
	c.LLM.APIKey = mask(c.LLM.APIKey)
	c.Store.Password = mask(c.Store.Password)
	c.Store.URL = mask(c.Store.URL)
	return c
}
