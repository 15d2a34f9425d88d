package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateArticle(t *testing.T) {
	t.Run("valid article", func(t *testing.T) {
		err := ValidateArticle(&Article{Title: "HDFC Bank profit rises", Content: "Quarterly results."})
		assert.NoError(t, err)
	})

	t.Run("title only is valid", func(t *testing.T) {
		err := ValidateArticle(&Article{Title: "Oil prices fall"})
		assert.NoError(t, err)
	})

	t.Run("content only is valid", func(t *testing.T) {
		err := ValidateArticle(&Article{Content: "Crude slipped two percent."})
		assert.NoError(t, err)
	})

	t.Run("nil article", func(t *testing.T) {
		err := ValidateArticle(nil)
		assert.ErrorIs(t, err, ErrInvalidArticle)
	})

	t.Run("empty title and content", func(t *testing.T) {
		err := ValidateArticle(&Article{Date: "2024-01-01", Source: "wire"})
		assert.ErrorIs(t, err, ErrInvalidArticle)
		assert.ErrorIs(t, err, ErrEmptyArticleText)
	})
}

func TestValidateEntityTags(t *testing.T) {
	t.Run("valid tags", func(t *testing.T) {
		err := ValidateEntityTags(&EntityTags{ArticleId: 7, Companies: []string{"HDFC Bank"}})
		assert.NoError(t, err)
	})

	t.Run("empty tag sets are valid", func(t *testing.T) {
		err := ValidateEntityTags(&EntityTags{ArticleId: 7})
		assert.NoError(t, err)
	})

	t.Run("nil tags", func(t *testing.T) {
		err := ValidateEntityTags(nil)
		assert.ErrorIs(t, err, ErrInvalidEntityTags)
	})

	t.Run("missing article id", func(t *testing.T) {
		err := ValidateEntityTags(&EntityTags{Companies: []string{"TCS"}})
		assert.ErrorIs(t, err, ErrInvalidEntityTags)
		assert.ErrorIs(t, err, ErrMissingArticleId)
	})
}
