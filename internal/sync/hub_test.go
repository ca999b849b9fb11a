package syncx_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/learnhub-io/learnhub-portal/internal/db"
	syncx "github.com/learnhub-io/learnhub-portal/internal/sync"
)

func newTestHub(t *testing.T) *syncx.Hub {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return syncx.NewHub(syncx.NewEventRepo(dbh))
}

func TestPublishCarriesLogOffset(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(t)

	live, cancel := hub.Subscribe("u1")
	defer cancel()

	hub.Publish(ctx, syncx.EventAttemptGraded, "u1", map[string]int{"score": 7})
	hub.Publish(ctx, syncx.EventSubscriptionState, "u1", map[string]bool{"active": true})

	first := <-live
	second := <-live
	if first.Offset == 0 || second.Offset == 0 {
		t.Fatalf("live events missing offsets: %d, %d", first.Offset, second.Offset)
	}
	if second.Offset <= first.Offset {
		t.Fatalf("offsets not increasing: %d then %d", first.Offset, second.Offset)
	}

	// A client resuming from the first offset must only see the second event.
	missed, err := hub.Missed(ctx, "u1", first.Offset)
	if err != nil {
		t.Fatalf("missed: %v", err)
	}
	if len(missed) != 1 || missed[0].Offset != second.Offset {
		t.Fatalf("missed = %+v, want only offset %d", missed, second.Offset)
	}
}

func TestMissedScopedToUser(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub(t)

	hub.Publish(ctx, syncx.EventCurriculumUnlock, "u1", map[string]int{"week": 2})
	hub.Publish(ctx, syncx.EventCurriculumUnlock, "u2", map[string]int{"week": 3})

	missed, err := hub.Missed(ctx, "u2", 0)
	if err != nil {
		t.Fatalf("missed: %v", err)
	}
	if len(missed) != 1 || missed[0].Key != "u2" {
		t.Fatalf("missed = %+v, want one u2 event", missed)
	}
}
