package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finsight/newsdesk/embed"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements embed.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	dim      int
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *embed.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		dim:      config.Dim,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns embed.Embedder interface to enforce abstraction.
func NewEmbedder(config *embed.Config) (embed.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
// Any transport or protocol failure is reported as embed.ErrUnavailable so
// callers can degrade to the lexical fallback.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %w", embed.ErrUnavailable, err)
	}
	if len(vectors) != len(texts) {
		e.logger.Error("embedding service returned wrong result count",
			"want", len(texts), "got", len(vectors))
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			embed.ErrUnavailable, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != e.dim {
			return nil, fmt.Errorf("%w: text %d has %d dimensions, expected %d",
				embed.ErrDimensionMismatch, i, len(v), e.dim)
		}
	}

	return vectors, nil
}

// Dim reports the configured embedding dimension.
func (e *Embedder) Dim() int {
	return e.dim
}
