// Package embedding wraps frozen text encoders behind a single call
// contract: text in, fixed-length vector out, no side effects.
//
// Backends:
//   - hash:   deterministic feature hashing, for development and tests
//   - http:   a sentence-transformers style service ({text, model} -> {embedding})
//   - openai: any OpenAI-compatible embeddings endpoint
//   - onnx:   a local BERT export, mean-pooled over token states (requires cgo)
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	ENCODER_TYPE_HASH   = "hash"
	ENCODER_TYPE_HTTP   = "http"
	ENCODER_TYPE_OPENAI = "openai"
	ENCODER_TYPE_ONNX   = "onnx"
)

// ErrNoTokens is returned by an encoder when tokenization leaves nothing to
// encode.
var ErrNoTokens = errors.New("text produced no tokens")

// Encoder is a frozen text encoder.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}

// EncodingError wraps any failure to produce a usable vector for one record.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding failed: %v", e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

////////////////////////////////////////////////////////////////////////////////

// Config selects and configures an encoder backend.
type Config struct {
	Type       string `yaml:"type"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`

	// http and openai
	URL            string        `yaml:"url"`
	Token          string        `yaml:"token"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RateLimit      float64       `yaml:"rate_limit"` // requests per second, 0 disables

	// onnx
	ModelPath   string `yaml:"model_path"`
	VocabPath   string `yaml:"vocab_path"`
	LibraryPath string `yaml:"library_path"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// DefaultConfig matches bert-base-uncased, the encoder the corpus was built with.
func DefaultConfig() Config {
	return Config{
		Type:           ENCODER_TYPE_HASH,
		Model:          "bert-base-uncased",
		Dimensions:     768,
		URL:            "http://localhost:8001",
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		MaxTokens:      512,
	}
}

// New builds the encoder selected by cfg.Type.
func New(cfg Config) (Encoder, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("invalid embedding dimensions: %d", cfg.Dimensions)
	}

	switch cfg.Type {
	case ENCODER_TYPE_HASH:
		return NewHashEncoder(cfg.Dimensions), nil
	case ENCODER_TYPE_HTTP:
		return NewHTTPEncoder(cfg), nil
	case ENCODER_TYPE_OPENAI:
		enc, err := NewOpenAIEncoder(cfg)
		if err != nil {
			return nil, err
		}
		return enc, nil
	case ENCODER_TYPE_ONNX:
		enc, err := NewONNXEncoder(cfg)
		if err != nil {
			return nil, err
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unsupported encoder type: %s", cfg.Type)
	}
}
