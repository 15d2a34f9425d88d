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

import "errors"

// Domain validation errors
var (
	// ErrInvalidArticle indicates an Article failed validation.
	ErrInvalidArticle = errors.New("invalid article")

	// ErrEmptyArticleText indicates both Title and Content are empty.
	ErrEmptyArticleText = errors.New("article title and content cannot both be empty")

	// ErrInvalidEntityTags indicates EntityTags failed validation.
	ErrInvalidEntityTags = errors.New("invalid entity tags")

	// ErrMissingArticleId indicates a record that requires an article reference
	// carries none.
	ErrMissingArticleId = errors.New("article id is required")
)
