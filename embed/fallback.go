package embed

import (
	"context"
	"log/slog"
	"sync"
)

// Fallback wraps a primary (pretrained) embedder and a secondary
// (corpus-fitted) one. The first failure of the primary demotes the wrapper
// to the secondary for the rest of its lifetime; the failure is logged and
// never surfaced to callers. Demotion is sticky so a flapping service cannot
// mix vector spaces within one run.
type Fallback struct {
	primary   Embedder
	secondary Embedder
	logger    *slog.Logger

	mu      sync.Mutex
	demoted bool
}

var _ Embedder = (*Fallback)(nil)

// FallbackOption configures a Fallback.
type FallbackOption func(*Fallback)

// WithLogger sets the logger used to report demotion.
func WithLogger(logger *slog.Logger) FallbackOption {
	return func(f *Fallback) {
		f.logger = logger
	}
}

// NewFallback creates a Fallback over the given primary and secondary
// embedders. Both must be non-nil.
func NewFallback(primary, secondary Embedder, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    slog.Default().With("component", "embed-fallback"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// EmbedText generates an embedding for a single text string.
func (f *Fallback) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates embeddings for multiple texts, demoting to the
// secondary embedder if the primary fails.
func (f *Fallback) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if !f.isDemoted() {
		vectors, err := f.primary.EmbedTexts(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		f.demote(err)
	}
	return f.secondary.EmbedTexts(ctx, texts)
}

// Dim reports the dimension of the currently active embedder.
func (f *Fallback) Dim() int {
	if f.isDemoted() {
		return f.secondary.Dim()
	}
	return f.primary.Dim()
}

// Demoted reports whether the wrapper has switched to the secondary embedder.
func (f *Fallback) Demoted() bool {
	return f.isDemoted()
}

// Secondary returns the fallback embedder, e.g. for corpus fitting.
func (f *Fallback) Secondary() Embedder {
	return f.secondary
}

func (f *Fallback) isDemoted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.demoted
}

func (f *Fallback) demote(cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.demoted {
		return
	}
	f.demoted = true
	f.logger.Warn("primary embedder failed, switching to lexical fallback", "err", cause)
}
