package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/internal/dto"
)

type refresher interface {
	RefreshAll(ctx context.Context) (*dto.WidgetRefreshResult, error)
}

// refreshTick returns the cron job body: one bounded RefreshAll run per tick.
func refreshTick(parent context.Context, widgets refresher, timeout time.Duration, logr *zap.Logger) func() {
	return func() {
		if parent.Err() != nil {
			return
		}
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		start := time.Now()
		result, err := widgets.RefreshAll(ctx)
		if err != nil {
			logr.Error("widget refresh run failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return
		}
		logr.Info("widget refresh run finished",
			zap.Int("owners", result.Owners),
			zap.Int("refreshed", result.Refreshed),
			zap.Int("failed", result.Failed),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
