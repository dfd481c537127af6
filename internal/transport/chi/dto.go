package chi

import (
	"github.com/kailas-cloud/docqa/internal/domain/chat"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/usecase/normalize"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeNoUserTurn         ErrorCode = "no_user_turn"
	CodeInvalidQuery       ErrorCode = "invalid_query"
	CodeVectorDimMismatch  ErrorCode = "vector_dim_mismatch"
	CodeEmbeddingProvider  ErrorCode = "embedding_provider_error"
	CodeGenerationProvider ErrorCode = "generation_provider_error"
	CodeStoreUnavailable   ErrorCode = "store_unavailable"
	CodeRetrievalFailed    ErrorCode = "retrieval_failed"
	CodeNotImplemented     ErrorCode = "not_implemented"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Message is one conversation turn on the wire.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

// ScopeRequest restricts retrieval to documents and source tags.
type ScopeRequest struct {
	DocumentIDs []string `json:"document_ids,omitempty" validate:"omitempty,max=100,dive,required"`
	Sources     []string `json:"sources,omitempty" validate:"omitempty,max=20,dive,required"`
}

// RetrieveRequest is the body of POST /v1/retrieve.
type RetrieveRequest struct {
	Messages []Message   `json:"messages" validate:"required,min=1,max=100,dive"`
	Scope    ScopeRequest `json:"scope"`
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Messages []Message `json:"messages" validate:"required,min=1,max=100,dive"`
}

// NormalizeRequest is the body of POST /v1/normalize.
type NormalizeRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query       string   `json:"query" validate:"required,max=2000"`
	Sources     []string `json:"sources,omitempty" validate:"omitempty,max=20,dive,required"`
	DocumentIDs []string `json:"document_ids,omitempty" validate:"omitempty,max=100,dive,required"`
	TopK        int      `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`
}

// PassageItem is a scored passage on the wire.
type PassageItem struct {
	ID          string  `json:"id"`
	DocumentID  string  `json:"document_id,omitempty"`
	Text        string  `json:"text"`
	Section     string  `json:"section,omitempty"`
	Page        int     `json:"page,omitempty"`
	Source      string  `json:"source,omitempty"`
	Semantic    float64 `json:"semantic_score"`
	Lexical     float64 `json:"lexical_score"`
	Score       float64 `json:"score"`
	HasSemantic bool    `json:"semantic_hit"`
	HasLexical  bool    `json:"lexical_hit"`
}

// RetrieveResponse is the body returned by POST /v1/retrieve.
type RetrieveResponse struct {
	Context     string                 `json:"context"`
	Outcome     string                 `json:"outcome"`
	Query       string                 `json:"query"`
	Original    string                 `json:"original"`
	Corrections []normalize.Correction `json:"corrections"`
	Passages    []PassageItem          `json:"passages"`
}

// ChatResponse is the body returned by POST /v1/chat.
type ChatResponse struct {
	Reply   string `json:"reply"`
	Outcome string `json:"outcome"`
	Query   string `json:"query,omitempty"`
	Failed  bool   `json:"failed,omitempty"`
}

// NormalizeResponse is the body returned by POST /v1/normalize.
type NormalizeResponse struct {
	Original    string                 `json:"original"`
	Query       string                 `json:"query"`
	Corrections []normalize.Correction `json:"corrections"`
}

// SearchResponse is the body returned by POST /v1/search.
type SearchResponse struct {
	Items []PassageItem `json:"items"`
	Total int           `json:"total"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func turnsFromMessages(msgs []Message) []chat.Turn {
	turns := make([]chat.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = chat.Turn{Role: chat.Role(m.Role), Content: m.Content}
	}
	return turns
}

func passageItems(ps []passage.Scored) []PassageItem {
	items := make([]PassageItem, len(ps))
	for i, p := range ps {
		items[i] = PassageItem{
			ID:          p.ID,
			DocumentID:  p.DocumentID,
			Text:        p.Text,
			Section:     p.Section,
			Page:        p.Page,
			Source:      p.Source,
			Semantic:    p.Semantic,
			Lexical:     p.Lexical,
			Score:       p.Combined,
			HasSemantic: p.HasSemantic,
			HasLexical:  p.HasLexical,
		}
	}
	return items
}

func corrections(cs []normalize.Correction) []normalize.Correction {
	if cs == nil {
		return []normalize.Correction{}
	}
	return cs
}
