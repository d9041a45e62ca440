package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/internal/metrics"
	"github.com/xiaot623/gogo/moodlog/internal/observability"
)

// AnalyzeInput is one journal entry submitted for analysis.
type AnalyzeInput struct {
	SessionToken string
	Text         string
	Client       domain.ClientMetadata
}

// AnalysisResult is the classification plus what was recorded for it.
// ConversationID is empty and Persisted false when the writes failed.
type AnalysisResult struct {
	Classification   domain.Classification
	ProcessingTimeMs int64
	ConversationID   string
	Session          *domain.Session
	Persisted        bool
}

// Analyze classifies a journal entry and records it in the ledger and the
// session aggregate. Persistence failures are logged and do not fail the call.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*AnalysisResult, error) {
	logger := observability.LoggerFromContext(ctx)

	text, err := domain.NormalizeText(in.Text, s.config.MaxTextLength)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cls, err := s.classifier.Classify(ctx, text, s.config.ClassifierTimeout)
	took := time.Since(start)
	if err != nil {
		s.metrics.ObserveClassifierError(domain.ErrorCode(err), took)
		logger.Warn("classification failed", "error", err, "duration_ms", took.Milliseconds())
		return nil, fmt.Errorf("classify: %w", err)
	}
	s.metrics.ObserveAnalysis(string(cls.Sentiment), took)

	// An abandoned request must not leave writes behind.
	if err := ctx.Err(); err != nil {
		logger.Info("request abandoned after classification, not persisting", "error", err)
		return nil, fmt.Errorf("analyze: %w", err)
	}

	result := &AnalysisResult{
		Classification:   *cls,
		ProcessingTimeMs: took.Milliseconds(),
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PersistTimeout)
	defer cancel()
	s.persist(persistCtx, logger, in, text, result)

	return result, nil
}

func (s *Service) persist(ctx context.Context, logger *slog.Logger, in AnalyzeInput, text string, result *AnalysisResult) {
	conv, err := s.ledger.Append(ctx, domain.ConversationInput{
		SessionToken:     in.SessionToken,
		Text:             text,
		Classification:   result.Classification,
		ProcessingTimeMs: result.ProcessingTimeMs,
		Client:           in.Client,
	})
	if err != nil {
		s.metrics.PersistenceFailed(metrics.StageLedger)
		logger.Error("failed to record conversation", "error", fmt.Errorf("%w: %w", domain.ErrPersistence, err))
		return
	}
	result.ConversationID = conv.ID

	session, err := s.aggregates.UpsertAndRecord(ctx, domain.SessionUpdate{
		Token:            in.SessionToken,
		Sentiment:        conv.Sentiment,
		ProcessingTimeMs: conv.ProcessingTimeMs,
		Client:           in.Client,
		At:               conv.CreatedAt,
	})
	if err != nil {
		s.metrics.PersistenceFailed(metrics.StageSession)
		logger.Error("failed to update session", "conversation_id", conv.ID, "error", fmt.Errorf("%w: %w", domain.ErrPersistence, err))
		return
	}
	result.Session = session
	result.Persisted = true
}
