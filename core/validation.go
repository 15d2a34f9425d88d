// Copyright 2025 Finsight Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateArticle validates an Article according to domain rules.
//
// Validation rules:
//   - Title and Content must not both be empty
//
// NOT validated (populated by storage):
//   - ID (0 is valid; the store assigns one on insert)
//   - Timestamps (set by the store)
func ValidateArticle(article *Article) error {
	if article == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}

	if article.Title == "" && article.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyArticleText)
	}

	return nil
}

// ValidateEntityTags validates EntityTags according to domain rules.
//
// Validation rules:
//   - ArticleId must reference an article
func ValidateEntityTags(tags *EntityTags) error {
	if tags == nil {
		return fmt.Errorf("%w: tags are nil", ErrInvalidEntityTags)
	}

	if tags.ArticleId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntityTags, ErrMissingArticleId)
	}

	return nil
}
