package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// RecentTrendSize is how many conversations recentTrends holds.
const RecentTrendSize = 7

// Analytics summarizes a session over the last windowDays days.
func (s *Service) Analytics(ctx context.Context, sessionToken string, windowDays int) (*domain.Analytics, error) {
	if windowDays < 1 {
		return nil, domain.NewValidationError("days must be a positive integer")
	}

	until := s.now()
	since := until.AddDate(0, 0, -windowDays)

	var (
		breakdown map[domain.Sentiment]domain.SentimentStat
		recent    []domain.Conversation
		session   *domain.Session
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		breakdown, err = s.ledger.AggregateBySentiment(gctx, sessionToken, since)
		return err
	})
	g.Go(func() error {
		var err error
		recent, _, err = s.ledger.List(gctx, sessionToken, RecentTrendSize, 0)
		return err
	})
	g.Go(func() error {
		var err error
		session, err = s.aggregates.Get(gctx, sessionToken)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	trends := make([]domain.TrendPoint, 0, len(recent))
	for _, c := range recent {
		trends = append(trends, domain.TrendPoint{
			Sentiment:       c.Sentiment,
			ConfidenceScore: c.ConfidenceScore,
			Timestamp:       c.CreatedAt,
		})
	}

	analytics := &domain.Analytics{
		SentimentBreakdown: breakdown,
		RecentTrends:       trends,
		Period:             domain.Period{Days: windowDays, Since: since, Until: until},
	}
	if session != nil {
		stats := session.Stats()
		analytics.SessionStats = &stats
	}
	return analytics, nil
}
