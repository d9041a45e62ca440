package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xiaot623/gogo/moodlog/internal/config"
	"github.com/xiaot623/gogo/moodlog/policy"
)

// New creates the classifier selected by CLASSIFIER_MODE.
func New(ctx context.Context, cfg *config.Config) (Classifier, error) {
	if cfg.ClassifierMode == config.ClassifierLocal {
		slog.Info("CLASSIFIER_MODE=local, using in-process classifier")
		engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
		if err != nil {
			return nil, fmt.Errorf("init recommendation policy: %w", err)
		}
		return NewLocalClient(engine), nil
	}
	return NewClient(cfg.ClassifierURL), nil
}
