package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/finsight/newsdesk/embed/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackUsesPrimaryWhileHealthy(t *testing.T) {
	primary := mock.NewMockEmbedder()
	secondary := mock.NewMockEmbedder()

	f := NewFallback(primary, secondary)

	_, err := f.EmbedTexts(context.Background(), []string{"hello"})
	require.NoError(t, err)

	assert.Equal(t, 1, primary.CallCount())
	assert.Equal(t, 0, secondary.CallCount())
	assert.False(t, f.Demoted())
}

func TestFallbackDemotesOnPrimaryFailure(t *testing.T) {
	primary := mock.NewMockEmbedder()
	primary.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, ErrUnavailable
	}
	secondary := mock.NewMockEmbedder()

	f := NewFallback(primary, secondary)

	// The failure is absorbed, not surfaced.
	vectors, err := f.EmbedTexts(context.Background(), []string{"hello"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.True(t, f.Demoted())
}

func TestFallbackDemotionIsSticky(t *testing.T) {
	primaryCalls := 0
	primary := mock.NewMockEmbedder()
	primary.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		primaryCalls++
		return nil, errors.New("connection refused")
	}
	secondary := mock.NewMockEmbedder()

	f := NewFallback(primary, secondary)

	_, err := f.EmbedTexts(context.Background(), []string{"one"})
	require.NoError(t, err)
	_, err = f.EmbedTexts(context.Background(), []string{"two"})
	require.NoError(t, err)

	// A demoted wrapper never goes back to the primary, even if it would
	// succeed now.
	assert.Equal(t, 1, primaryCalls)
	assert.Equal(t, 2, secondary.CallCount())
}

func TestFallbackSurfacesSecondaryErrors(t *testing.T) {
	primary := mock.NewMockEmbedder()
	primary.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, ErrUnavailable
	}
	secondaryErr := errors.New("model not fitted")
	secondary := mock.NewMockEmbedder()
	secondary.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, secondaryErr
	}

	f := NewFallback(primary, secondary)

	_, err := f.EmbedTexts(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, secondaryErr)
}

func TestFallbackDimTracksActiveEmbedder(t *testing.T) {
	primary := mock.NewMockEmbedder()
	primary.Dimension = 768
	primary.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, ErrUnavailable
	}
	secondary := mock.NewMockEmbedder()
	secondary.Dimension = 256

	f := NewFallback(primary, secondary)
	assert.Equal(t, 768, f.Dim())

	_, err := f.EmbedTexts(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, 256, f.Dim())
}

func TestFallbackEmbedTextDelegates(t *testing.T) {
	primary := mock.NewMockEmbedder()
	secondary := mock.NewMockEmbedder()

	f := NewFallback(primary, secondary)

	vec, err := f.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, primary.Dim())
}
