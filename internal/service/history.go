package service

import (
	"context"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// History paging bounds.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// History returns one page of a session's conversations, newest first.
// A limit above MaxHistoryLimit is clamped.
func (s *Service) History(ctx context.Context, sessionToken string, page, limit int) (*domain.HistoryPage, error) {
	if page < 1 {
		return nil, domain.NewValidationError("page must be a positive integer")
	}
	if limit < 1 {
		return nil, domain.NewValidationError("limit must be a positive integer")
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	items, total, err := s.ledger.List(ctx, sessionToken, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return &domain.HistoryPage{
		Data: items,
		Pagination: domain.Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: (total + int64(limit) - 1) / int64(limit),
		},
	}, nil
}
