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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrDimensionMismatch indicates a vector's dimension disagrees with the
	// dimension already established for its namespace. This is a fatal
	// configuration error, never a silent truncation.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrMalformedRecord indicates a persisted record could not be decoded.
	// Bulk loads skip such records with a warning instead of failing.
	ErrMalformedRecord = errors.New("malformed persisted record")

	// ErrInvalidNamespace indicates a vector namespace that cannot be used
	// as a key segment.
	ErrInvalidNamespace = errors.New("invalid vector namespace")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrTransactionFailed indicates that a transaction failed.
	ErrTransactionFailed = errors.New("transaction failed")
)
