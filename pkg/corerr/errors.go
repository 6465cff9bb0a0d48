// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package corerr defines the error taxonomy shared by every core
// component: a typed kind, a user-facing solution hint, an optional
// docs URL, and a wrapped cause.
package corerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error so callers can branch with errors.As + a
// type switch instead of string matching.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindSecurity   Kind = "SECURITY"
	KindStorage    Kind = "STORAGE"
	KindRetrieval  Kind = "RETRIEVAL"
	KindEmbedding  Kind = "EMBEDDING"
	KindReadOnly   Kind = "READ_ONLY"
	KindParsing    Kind = "PARSING"
	KindIndexing   Kind = "INDEXING"
)

// Storage subkinds carried in Error.Code when Kind == KindStorage.
const (
	CodeQdrantConnection      = "QDRANT_CONNECTION"
	CodeCollectionNotFound    = "COLLECTION_NOT_FOUND"
	CodeMemoryNotFound        = "MEMORY_NOT_FOUND"
	CodePoolExhausted         = "POOL_EXHAUSTED"
	CodeHealthCheckFailed     = "HEALTH_CHECK_FAILED"
	CodeConnectionCreateFail  = "CONNECTION_CREATION_FAILED"
)

// Error is the core error type. Every user-facing error carries a
// Solution; DocsURL is optional.
type Error struct {
	Kind     Kind
	Code     string
	Message  string
	Solution string
	DocsURL  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithCause attaches an underlying error and returns the receiver for chaining.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDocsURL attaches a docs URL and returns the receiver for chaining.
func (e *Error) WithDocsURL(url string) *Error {
	e.DocsURL = url
	return e
}

func NewValidationError(message string) *Error {
	return &Error{
		Kind:     KindValidation,
		Message:  message,
		Solution: "Check the input and retry; validation errors are never retried automatically.",
	}
}

func NewSecurityError(message string) *Error {
	return &Error{
		Kind:     KindSecurity,
		Message:  message,
		Solution: "Content matched an injection signature and was rejected; sanitize the input before resubmitting.",
	}
}

func NewRetrievalError(message string) *Error {
	return &Error{
		Kind:     KindRetrieval,
		Message:  message,
		Solution: "The query reached the store but failed semantically; check projection/paging arguments.",
	}
}

func NewEmbeddingError(message string) *Error {
	return &Error{
		Kind:     KindEmbedding,
		Message:  message,
		Solution: "The embedding service failed; check its availability and retry.",
	}
}

func NewReadOnlyError(operation string) *Error {
	return &Error{
		Kind:     KindReadOnly,
		Message:  fmt.Sprintf("write attempted while read-only: %s", operation),
		Solution: "Disable advanced.read_only_mode to allow writes, or route this operation elsewhere.",
	}
}

func NewParsingError(message string) *Error {
	return &Error{
		Kind:     KindParsing,
		Message:  message,
		Solution: "The source file failed to parse; indexing continues for the rest of the project.",
	}
}

func NewIndexingError(message string) *Error {
	return &Error{
		Kind:     KindIndexing,
		Message:  message,
		Solution: "Re-run indexing for the affected project; check logs for the failing file.",
	}
}

// Storage error constructors.

// NewStorageError is the generic KindStorage constructor for
// side-store failures (relational or vector) that don't warrant one
// of the more specific constructors below.
func NewStorageError(message string) *Error {
	return &Error{
		Kind:     KindStorage,
		Message:  message,
		Solution: "Check the side-store's connectivity and logs; the operation did not complete.",
	}
}

func NewQdrantConnectionError(url string, reason error) *Error {
	return &Error{
		Kind:     KindStorage,
		Code:     CodeQdrantConnection,
		Message:  fmt.Sprintf("cannot reach vector store at %s", url),
		Solution: "Start the vector store container, verify qdrant_url, and inspect its logs.",
		DocsURL:  "https://qdrant.tech/documentation/guides/installation/",
		Cause:    reason,
	}
}

func NewCollectionNotFoundError(name string) *Error {
	return &Error{
		Kind:     KindStorage,
		Code:     CodeCollectionNotFound,
		Message:  fmt.Sprintf("collection %q does not exist", name),
		Solution: "Run collection setup before querying, or check the configured collection name.",
	}
}

// IsMemoryNotFound reports whether err is (or wraps) a "record not
// found" storage error, letting callers distinguish absence from
// failure without string matching.
func IsMemoryNotFound(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindStorage && e.Code == CodeMemoryNotFound
}

func NewMemoryNotFoundError(id string) *Error {
	return &Error{
		Kind:     KindStorage,
		Code:     CodeMemoryNotFound,
		Message:  fmt.Sprintf("record %q not found", id),
		Solution: "Verify the id and project scope; the record may have been deleted.",
	}
}

func NewPoolExhaustedError(active, maxSize int, timeout float64) *Error {
	return &Error{
		Kind:    KindStorage,
		Code:    CodePoolExhausted,
		Message: fmt.Sprintf("pool exhausted: %d/%d active, waited %.1fs", active, maxSize, timeout),
		Solution: "Increase qdrant_pool_size / max_size, or reduce concurrent load; all connections were in use past the acquire timeout.",
	}
}

func NewHealthCheckFailedError(reason string, attempt int) *Error {
	return &Error{
		Kind:     KindStorage,
		Code:     CodeHealthCheckFailed,
		Message:  fmt.Sprintf("health check failed on attempt %d: %s", attempt, reason),
		Solution: "Check vector store connectivity and resource limits; a replacement connection was also unhealthy.",
	}
}

func NewConnectionCreationFailedError(url string, reason error) *Error {
	return &Error{
		Kind:     KindStorage,
		Code:     CodeConnectionCreateFail,
		Message:  fmt.Sprintf("failed to create connection to %s", url),
		Solution: "Check network reachability and credentials for the vector store.",
		Cause:    reason,
	}
}
