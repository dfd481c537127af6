// Package answer forwards retrieved context and the conversation to the
// generation collaborator.
package answer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chat"
	"github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/usecase/retrieval"
)

// Fixed replies.
const (
	ClarifyReply = "I couldn't understand your question. Could you please rephrase it?"
	ErrorReply   = "Sorry, I encountered an error. Please try again."
)

// Retriever builds the cited context for a conversation.
type Retriever interface {
	RetrieveAndFormat(ctx context.Context, turns []chat.Turn) (retrieval.Result, error)
}

// Reply is the assistant answer. Failed is set when the generator errored
// and Text holds ErrorReply.
type Reply struct {
	Text      string
	Retrieval retrieval.Result
	Failed    bool
}

// Service answers conversations from retrieved documentation.
type Service struct {
	retriever Retriever
	generator domain.Generator
	logger    *zap.Logger
}

// New creates an answer service.
func New(r Retriever, g domain.Generator, log *zap.Logger) *Service {
	return &Service{retriever: r, generator: g, logger: log}
}

// Answer retrieves context for the latest user turn and asks the generator
// for a reply. A conversation without a usable user turn gets ClarifyReply
// and a generator failure gets ErrorReply; neither is returned as an error.
func (s *Service) Answer(ctx context.Context, turns []chat.Turn) (Reply, error) {
	log := logger.OrFallback(ctx, s.logger)

	res, err := s.retriever.RetrieveAndFormat(ctx, turns)
	if err != nil {
		if errors.Is(err, domain.ErrNoUserTurn) || errors.Is(err, domain.ErrInvalidQuery) {
			return Reply{Text: ClarifyReply, Retrieval: res}, nil
		}
		return Reply{}, err
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, res.Context, turns)
	if err != nil {
		log.Error("Answer generation failed",
			zap.String("outcome", string(res.Outcome)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return Reply{Text: ErrorReply, Retrieval: res, Failed: true}, nil
	}

	log.Info("Answer generated",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("passages", len(res.Passages)),
		zap.Duration("duration", time.Since(start)),
	)
	return Reply{Text: text, Retrieval: res}, nil
}
