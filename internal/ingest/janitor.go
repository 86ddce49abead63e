package ingest

import (
	"context"
	"log/slog"
	"time"

	"newssignal/backend-go/internal/store"
)

// RunJanitor prunes articles older than retention every interval until ctx
// is done.
func RunJanitor(ctx context.Context, st *store.Store, interval, retention time.Duration, logger *slog.Logger) {
	if retention <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.Prune(now.Add(-retention)); n > 0 {
				logger.Info("pruned expired articles", "removed", n, "remaining", st.Len())
			}
		}
	}
}
