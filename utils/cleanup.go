package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger deletes expired session rows.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StartSessionCleaner periodically purges expired sessions until ctx is
// done. It is best-effort and logs failures.
func StartSessionCleaner(ctx context.Context, interval time.Duration, p Purger) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purgeOnce(ctx, p)
			}
		}
	}()
}

func purgeOnce(ctx context.Context, p Purger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	n, err := p.PurgeExpired(ctx)
	if err != nil {
		Logger.Warn("session cleaner purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		Logger.Debug("session cleaner purged rows", zap.Int64("rows", n))
	}
}
