package domain

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/chat"
)

// Generator is the black-box text completion collaborator. It receives the
// cited context string and the conversation and returns free text.
type Generator interface {
	Generate(ctx context.Context, contextText string, turns []chat.Turn) (string, error)
}
