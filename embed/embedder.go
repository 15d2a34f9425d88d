package embed

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dim reports the dimension of the vectors this embedder produces.
	Dim() int
}

// CorpusFitter is implemented by embedders that derive their model from the
// local document corpus rather than from pretrained weights.
type CorpusFitter interface {
	// Fit builds the model from the given corpus, replacing any prior state.
	Fit(corpus []string) error

	// Ready reports whether the model has been fitted.
	Ready() bool
}
