package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/grocery-store/internal/repository"
	"go.uber.org/zap"
)

// RunTokenCleanup deletes expired refresh-token rows every interval until ctx ends.
func RunTokenCleanup(ctx context.Context, tokens repository.TokenRepository, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokens.DeleteExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("failed to delete expired refresh tokens", zap.Error(err))
				}
				continue
			}
			if removed > 0 {
				logger.Info("expired refresh tokens deleted", zap.Int64("count", removed))
			}
		}
	}
}
