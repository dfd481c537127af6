package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a malformed or empty query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNoUserTurn signals a conversation without any user message.
	ErrNoUserTurn = errors.New("conversation has no user turn")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a text generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrStoreUnavailable signals that the passage store could not serve a query.
	ErrStoreUnavailable = errors.New("passage store unavailable")
	// ErrRetrievalFailed signals that every retrieval signal failed.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrKeywordSearchNotSupported signals that the backend lacks keyword search.
	ErrKeywordSearchNotSupported = errors.New("keyword search not supported by backend")
)
