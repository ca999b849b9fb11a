package progress

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"sync"
	"time"
)

var ErrNoOpenResource = errors.New("no open resource")

// Resource describes the asset being consumed, as supplied by the
// library (and, for PDFs, the text/geometry provider).
type Resource struct {
	ID           string
	Type         string
	DurationSec  int   // video: total duration
	PageCount    int   // pdf: total pages
	WordsPerPage []int // pdf: word count per page, index 0 = page 1
}

const (
	completionThreshold = 90 // video/pdf percent at which completed flips
	masteryThreshold    = 80 // quiz percent treated as fully mastered
	readWordsPerSecond  = 2.5
	minDwellSeconds     = 3
)

// session is the in-memory state for one user's active resource. All
// counters reset when the user opens a different resource.
type session struct {
	res     Resource
	seconds map[int]struct{} // video marks recorded
	pages   map[int]struct{} // pdf pages viewed
	curPage int
	dwell   int // seconds on curPage since it became current

	lastPersisted int
}

// Tracker converts raw consumption signals into persisted completion
// percentages without double-counting. Persistence is fire-and-forget:
// a failed write is logged and superseded by the next increase.
type Tracker struct {
	store Store
	logf  func(format string, args ...interface{})
	sync  bool // persist inline instead of in a goroutine (tests)

	mu       sync.Mutex
	sessions map[string]*session // key: userID
}

type TrackerOption func(*Tracker)

// WithLogf overrides the failure logger.
func WithLogf(f func(format string, args ...interface{})) TrackerOption {
	return func(t *Tracker) { t.logf = f }
}

// WithSynchronousPersist makes persistence inline; used by tests to
// observe writes deterministically.
func WithSynchronousPersist() TrackerOption {
	return func(t *Tracker) { t.sync = true }
}

func NewTracker(store Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:    store,
		logf:     log.Printf,
		sessions: map[string]*session{},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Open makes res the user's active resource: all in-memory counters are
// dropped and reseeded from the persisted record, if any.
func (t *Tracker) Open(ctx context.Context, userID string, res Resource) (ResourceProgress, error) {
	s := &session{
		res:     res,
		seconds: map[int]struct{}{},
		pages:   map[int]struct{}{},
	}
	rp, err := t.store.Get(ctx, userID, res.ID)
	switch {
	case err == nil:
		s.lastPersisted = rp.Progress
		for _, sec := range rp.Metadata.SecondsWatched {
			s.seconds[sec] = struct{}{}
		}
		for _, p := range rp.Metadata.PagesViewed {
			s.pages[p] = struct{}{}
		}
	case errors.Is(err, ErrNotFound):
		rp = t.snapshot(userID, s)
	default:
		return ResourceProgress{}, err
	}

	t.mu.Lock()
	t.sessions[userID] = s
	t.mu.Unlock()
	return rp, nil
}

// Close drops the user's in-memory state. In-flight persists complete on
// their own; no new ones are issued.
func (t *Tracker) Close(userID string) {
	t.mu.Lock()
	delete(t.sessions, userID)
	t.mu.Unlock()
}

// VideoSample records the player position at the 1-second sampling tick.
// Each distinct whole-second mark counts once, so replays and seeks
// never double-count.
func (t *Tracker) VideoSample(ctx context.Context, userID string, second int) (ResourceProgress, error) {
	t.mu.Lock()
	s, ok := t.sessions[userID]
	if !ok || s.res.Type != TypeVideo {
		t.mu.Unlock()
		return ResourceProgress{}, ErrNoOpenResource
	}
	if _, seen := s.seconds[second]; !seen && second >= 0 {
		s.seconds[second] = struct{}{}
		t.maybePersistLocked(ctx, userID, s)
	}
	rp := t.snapshot(userID, s)
	t.mu.Unlock()
	return rp, nil
}

// PDFHeartbeat is the 1-second sampling tick while a PDF is open; page
// is the currently displayed page (1-based). The dwell timer resets
// whenever the displayed page changes; a page is viewed once dwell on it
// reaches max(3, ceil(words/2.5)) seconds. Earned viewed status is
// never taken back.
func (t *Tracker) PDFHeartbeat(ctx context.Context, userID string, page int) (ResourceProgress, error) {
	t.mu.Lock()
	s, ok := t.sessions[userID]
	if !ok || s.res.Type != TypePDF {
		t.mu.Unlock()
		return ResourceProgress{}, ErrNoOpenResource
	}
	if page != s.curPage {
		s.curPage = page
		s.dwell = 0
	}
	s.dwell++
	if _, viewed := s.pages[page]; !viewed && page >= 1 && page <= s.res.PageCount {
		if s.dwell >= dwellThreshold(wordsOnPage(s.res, page)) {
			s.pages[page] = struct{}{}
			t.maybePersistLocked(ctx, userID, s)
		}
	}
	rp := t.snapshot(userID, s)
	t.mu.Unlock()
	return rp, nil
}

// QuizResult feeds the quiz variant from the engine's finish event; at
// or above the mastery threshold the resource counts as fully complete.
// No open session is required.
func (t *Tracker) QuizResult(ctx context.Context, userID, resourceID string, score, total int) (ResourceProgress, error) {
	if total <= 0 {
		return ResourceProgress{}, errors.New("total must be positive")
	}
	pct := float64(score) / float64(total) * 100
	rp := ResourceProgress{
		UserID:     userID,
		ResourceID: resourceID,
		Type:       TypeQuiz,
		Metadata: Metadata{
			Score:          &score,
			TotalQuestions: total,
		},
		LastUpdated: time.Now().Unix(),
	}
	if pct >= masteryThreshold {
		rp.Progress = 100
		rp.Completed = true
	} else {
		rp.Progress = int(math.Round(pct))
	}

	prev, err := t.store.Get(ctx, userID, resourceID)
	if err == nil && prev.Progress >= rp.Progress {
		return prev, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return ResourceProgress{}, err
	}
	t.persist(ctx, rp)
	return rp, nil
}

// Snapshot reports the active resource's current state without recording
// anything.
func (t *Tracker) Snapshot(userID string) (ResourceProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[userID]
	if !ok {
		return ResourceProgress{}, ErrNoOpenResource
	}
	return t.snapshot(userID, s), nil
}

// maybePersistLocked issues a write only when the freshly computed value
// exceeds the last persisted one, which keeps writes strictly
// increasing per resource.
func (t *Tracker) maybePersistLocked(ctx context.Context, userID string, s *session) {
	rp := t.snapshot(userID, s)
	if rp.Progress <= s.lastPersisted {
		return
	}
	s.lastPersisted = rp.Progress
	t.persist(ctx, rp)
}

func (t *Tracker) persist(ctx context.Context, rp ResourceProgress) {
	if t.sync {
		if err := t.store.Upsert(ctx, rp); err != nil {
			t.logf("progress: persist %s/%s failed: %v", rp.UserID, rp.ResourceID, err)
		}
		return
	}
	go func() {
		if err := t.store.Upsert(context.Background(), rp); err != nil {
			t.logf("progress: persist %s/%s failed: %v", rp.UserID, rp.ResourceID, err)
		}
	}()
}

func (t *Tracker) snapshot(userID string, s *session) ResourceProgress {
	rp := ResourceProgress{
		UserID:      userID,
		ResourceID:  s.res.ID,
		Type:        s.res.Type,
		LastUpdated: time.Now().Unix(),
	}
	switch s.res.Type {
	case TypeVideo:
		rp.Metadata.DurationSec = s.res.DurationSec
		rp.Metadata.SecondsWatched = sortedKeys(s.seconds)
		if s.res.DurationSec > 0 {
			rp.Progress = pct(len(s.seconds), s.res.DurationSec)
		}
	case TypePDF:
		rp.Metadata.PageCount = s.res.PageCount
		rp.Metadata.PagesViewed = sortedKeys(s.pages)
		if s.res.PageCount > 0 {
			rp.Progress = pct(len(s.pages), s.res.PageCount)
		}
	}
	rp.Completed = rp.Progress >= completionThreshold
	return rp
}

func pct(n, total int) int {
	p := int(math.Round(float64(n) / float64(total) * 100))
	if p > 100 {
		p = 100
	}
	return p
}

func dwellThreshold(words int) int {
	sec := int(math.Ceil(float64(words) / readWordsPerSecond))
	if sec < minDwellSeconds {
		return minDwellSeconds
	}
	return sec
}

func wordsOnPage(res Resource, page int) int {
	if page < 1 || page > len(res.WordsPerPage) {
		return 0
	}
	return res.WordsPerPage[page-1]
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
