// Package service implements the moodlog use cases on top of the ledger,
// the session aggregates and the classifier gateway.
package service

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/moodlog/internal/adapter/classifier"
	"github.com/xiaot623/gogo/moodlog/internal/aggregate"
	"github.com/xiaot623/gogo/moodlog/internal/config"
	"github.com/xiaot623/gogo/moodlog/internal/ledger"
	"github.com/xiaot623/gogo/moodlog/internal/metrics"
	"github.com/xiaot623/gogo/moodlog/internal/repository"
)

type Service struct {
	store      repository.Store
	classifier classifier.Classifier
	ledger     *ledger.Ledger
	aggregates *aggregate.Aggregates
	metrics    *metrics.Metrics
	config     *config.Config
	now        func() time.Time
}

func New(store repository.Store, cls classifier.Classifier, m *metrics.Metrics, cfg *config.Config) *Service {
	return &Service{
		store:      store,
		classifier: cls,
		ledger:     ledger.New(store, cfg.MaxTextLength),
		aggregates: aggregate.New(store),
		metrics:    m,
		config:     cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Component states reported by Health.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// HealthReport is the state of the service dependencies.
type HealthReport struct {
	Classifier string
	Database   string
}

// Healthy reports whether every dependency is reachable.
func (r HealthReport) Healthy() bool {
	return r.Classifier == StatusOK && r.Database == StatusOK
}

// Health checks the classifier and the database.
func (s *Service) Health(ctx context.Context) HealthReport {
	report := HealthReport{Classifier: StatusOK, Database: StatusOK}
	if err := s.classifier.Health(ctx); err != nil {
		report.Classifier = StatusUnavailable
	}
	if err := s.store.Ping(ctx); err != nil {
		report.Database = StatusUnavailable
	}
	return report
}
