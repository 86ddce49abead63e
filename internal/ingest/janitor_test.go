package ingest

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/store"
)

func TestRunJanitorPrunesExpired(t *testing.T) {
	st := store.New()
	now := time.Now().UTC()
	st.Upsert(models.Article{ID: "old", Title: "old", Timestamp: now.Add(-48 * time.Hour)})
	st.Upsert(models.Article{ID: "new", Title: "new", Timestamp: now})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunJanitor(ctx, st, 5*time.Millisecond, 24*time.Hour, slog.Default())
		close(done)
	}()

	require.Eventually(t, func() bool { return st.Len() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	_, ok := st.Get("new")
	assert.True(t, ok)
}
