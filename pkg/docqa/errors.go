package docqa

import (
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/usecase/retrieval"
)

// NoContext is the Context value of a retrieval that found nothing usable.
const NoContext = retrieval.NoContext

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrStoreUnavailable       = domain.ErrStoreUnavailable
	ErrRetrievalFailed        = domain.ErrRetrievalFailed
)
