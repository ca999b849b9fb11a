package progress_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/learnhub-io/learnhub-portal/internal/progress"
)

// recordingStore wraps the in-memory store and remembers every persisted
// progress value, in order.
type recordingStore struct {
	progress.Store

	mu     sync.Mutex
	writes []int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: progress.NewInMemoryStore()}
}

func (r *recordingStore) Upsert(ctx context.Context, rp progress.ResourceProgress) error {
	r.mu.Lock()
	r.writes = append(r.writes, rp.Progress)
	r.mu.Unlock()
	return r.Store.Upsert(ctx, rp)
}

func (r *recordingStore) persisted() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.writes...)
}

func TestVideoUniqueSeconds(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	tr := progress.NewTracker(store, progress.WithSynchronousPersist())

	res := progress.Resource{ID: "v1", Type: progress.TypeVideo, DurationSec: 100}
	if _, err := tr.Open(ctx, "u1", res); err != nil {
		t.Fatalf("open: %v", err)
	}

	// 10 distinct seconds, some replayed: replays must not count.
	for _, sec := range []int{0, 1, 2, 3, 4, 2, 3, 5, 6, 7, 8, 9, 0} {
		if _, err := tr.VideoSample(ctx, "u1", sec); err != nil {
			t.Fatalf("sample %d: %v", sec, err)
		}
	}
	rp, err := tr.Snapshot("u1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if rp.Progress != 10 {
		t.Fatalf("progress = %d, want 10", rp.Progress)
	}
	if rp.Completed {
		t.Fatal("completed at 10 percent")
	}
}

func TestVideoCompletionAndCap(t *testing.T) {
	ctx := context.Background()
	tr := progress.NewTracker(newRecordingStore(), progress.WithSynchronousPersist())

	res := progress.Resource{ID: "v1", Type: progress.TypeVideo, DurationSec: 10}
	if _, err := tr.Open(ctx, "u1", res); err != nil {
		t.Fatalf("open: %v", err)
	}
	// Watch past the nominal end (players can report duration+epsilon).
	var rp progress.ResourceProgress
	var err error
	for sec := 0; sec <= 11; sec++ {
		if rp, err = tr.VideoSample(ctx, "u1", sec); err != nil {
			t.Fatalf("sample %d: %v", sec, err)
		}
	}
	if rp.Progress != 100 {
		t.Fatalf("progress = %d, want capped at 100", rp.Progress)
	}
	if !rp.Completed {
		t.Fatal("not completed at 100 percent")
	}
}

func TestPDFDwellGate(t *testing.T) {
	ctx := context.Background()
	tr := progress.NewTracker(newRecordingStore(), progress.WithSynchronousPersist())

	// 500 words need ceil(500/2.5) = 200 seconds of dwell.
	res := progress.Resource{
		ID:           "p1",
		Type:         progress.TypePDF,
		PageCount:    2,
		WordsPerPage: []int{500, 0},
	}
	if _, err := tr.Open(ctx, "u1", res); err != nil {
		t.Fatalf("open: %v", err)
	}

	var rp progress.ResourceProgress
	var err error
	for i := 0; i < 199; i++ {
		if rp, err = tr.PDFHeartbeat(ctx, "u1", 1); err != nil {
			t.Fatalf("heartbeat: %v", err)
		}
	}
	if rp.Progress != 0 {
		t.Fatalf("progress = %d before dwell threshold, want 0", rp.Progress)
	}
	if rp, err = tr.PDFHeartbeat(ctx, "u1", 1); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if rp.Progress != 50 {
		t.Fatalf("progress = %d at dwell threshold, want 50", rp.Progress)
	}

	// A page with no words still needs the 3-second floor.
	for i := 0; i < 2; i++ {
		if rp, err = tr.PDFHeartbeat(ctx, "u1", 2); err != nil {
			t.Fatalf("heartbeat p2: %v", err)
		}
	}
	if rp.Progress != 50 {
		t.Fatalf("progress = %d before floor, want 50", rp.Progress)
	}
	if rp, err = tr.PDFHeartbeat(ctx, "u1", 2); err != nil {
		t.Fatalf("heartbeat p2: %v", err)
	}
	if rp.Progress != 100 || !rp.Completed {
		t.Fatalf("progress = %d completed=%v, want 100 completed", rp.Progress, rp.Completed)
	}
}

func TestPDFDwellResetsOnPageChange(t *testing.T) {
	ctx := context.Background()
	tr := progress.NewTracker(newRecordingStore(), progress.WithSynchronousPersist())

	res := progress.Resource{
		ID:           "p1",
		Type:         progress.TypePDF,
		PageCount:    2,
		WordsPerPage: []int{5, 5}, // under the 3s floor: ceil(5/2.5) = 2
	}
	if _, err := tr.Open(ctx, "u1", res); err != nil {
		t.Fatalf("open: %v", err)
	}

	// Flipping back and forth never accumulates 3 consecutive seconds.
	var rp progress.ResourceProgress
	var err error
	for i := 0; i < 10; i++ {
		page := 1 + i%2
		if rp, err = tr.PDFHeartbeat(ctx, "u1", page); err != nil {
			t.Fatalf("heartbeat: %v", err)
		}
	}
	if rp.Progress != 0 {
		t.Fatalf("progress = %d after page flipping, want 0", rp.Progress)
	}

	// Settled on page 1 the dwell restarts from zero.
	for i := 0; i < 3; i++ {
		if rp, err = tr.PDFHeartbeat(ctx, "u1", 1); err != nil {
			t.Fatalf("heartbeat: %v", err)
		}
	}
	if rp.Progress != 50 {
		t.Fatalf("progress = %d after settling, want 50", rp.Progress)
	}
}

func TestPersistsOnlyOnIncrease(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	tr := progress.NewTracker(store, progress.WithSynchronousPersist())

	res := progress.Resource{
		ID:           "p1",
		Type:         progress.TypePDF,
		PageCount:    10,
		WordsPerPage: []int{5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
	}
	if _, err := tr.Open(ctx, "u1", res); err != nil {
		t.Fatalf("open: %v", err)
	}

	// View 5 pages at 3 seconds each, with extra lingering in between.
	for page := 1; page <= 5; page++ {
		for i := 0; i < 6; i++ {
			if _, err := tr.PDFHeartbeat(ctx, "u1", page); err != nil {
				t.Fatalf("heartbeat: %v", err)
			}
		}
	}

	writes := store.persisted()
	want := []int{10, 20, 30, 40, 50}
	if len(writes) != len(want) {
		t.Fatalf("writes = %v, want exactly one per page: %v", writes, want)
	}
	for i := range want {
		if writes[i] != want[i] {
			t.Fatalf("writes = %v, want strictly increasing %v", writes, want)
		}
	}
}

func TestReopenReseedsFromStore(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	tr := progress.NewTracker(store, progress.WithSynchronousPersist())

	res := progress.Resource{ID: "v1", Type: progress.TypeVideo, DurationSec: 10}
	if _, err := tr.Open(ctx, "u1", res); err != nil {
		t.Fatalf("open: %v", err)
	}
	for sec := 0; sec < 5; sec++ {
		if _, err := tr.VideoSample(ctx, "u1", sec); err != nil {
			t.Fatalf("sample: %v", err)
		}
	}
	tr.Close("u1")

	rp, err := tr.Open(ctx, "u1", res)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if rp.Progress != 50 {
		t.Fatalf("reopened progress = %d, want 50", rp.Progress)
	}
	// Re-watching the same span persists nothing new.
	before := len(store.persisted())
	for sec := 0; sec < 5; sec++ {
		if _, err := tr.VideoSample(ctx, "u1", sec); err != nil {
			t.Fatalf("sample: %v", err)
		}
	}
	if got := len(store.persisted()); got != before {
		t.Fatalf("rewatch issued %d extra writes", got-before)
	}
}

func TestQuizResultMastery(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	tr := progress.NewTracker(store, progress.WithSynchronousPersist())

	// 7/10 is below mastery: plain percentage.
	rp, err := tr.QuizResult(ctx, "u1", "qz1", 7, 10)
	if err != nil {
		t.Fatalf("quiz result: %v", err)
	}
	if rp.Progress != 70 || rp.Completed {
		t.Fatalf("progress = %d completed=%v, want 70 not completed", rp.Progress, rp.Completed)
	}

	// 8/10 reaches mastery: jumps to 100 and completes.
	rp, err = tr.QuizResult(ctx, "u1", "qz1", 8, 10)
	if err != nil {
		t.Fatalf("quiz result: %v", err)
	}
	if rp.Progress != 100 || !rp.Completed {
		t.Fatalf("progress = %d completed=%v, want 100 completed", rp.Progress, rp.Completed)
	}

	// A later worse score never lowers the stored value.
	rp, err = tr.QuizResult(ctx, "u1", "qz1", 2, 10)
	if err != nil {
		t.Fatalf("quiz result: %v", err)
	}
	if rp.Progress != 100 {
		t.Fatalf("progress = %d after worse score, want 100", rp.Progress)
	}

	if _, err := tr.QuizResult(ctx, "u1", "qz1", 1, 0); err == nil {
		t.Fatal("zero total accepted")
	}
}

func TestSampleWithoutOpen(t *testing.T) {
	tr := progress.NewTracker(newRecordingStore())
	if _, err := tr.VideoSample(context.Background(), "u1", 1); !errors.Is(err, progress.ErrNoOpenResource) {
		t.Fatalf("sample without open: %v, want ErrNoOpenResource", err)
	}
}
