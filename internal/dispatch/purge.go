package dispatch

import (
	"context"
	"time"

	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

// RunPurger sweeps expired records every interval until ctx is done.
func RunPurger(ctx context.Context, p Purger, interval time.Duration, logger *logging.Logger) {
	if p == nil || interval <= 0 {
		return
	}
	if logger == nil {
		logger = logging.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := p.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("job purge failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Debug("purged expired jobs", "count", removed)
			}
		}
	}
}
