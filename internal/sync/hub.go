package syncx

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub fans push events out to connected clients, keyed by user id.
// Subscribers receive whole events and replace local state with the
// payload; no partial reconciliation happens client-side.
type Hub struct {
	repo *EventRepo

	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // userID -> subscriber channels
}

func NewHub(repo *EventRepo) *Hub {
	return &Hub{repo: repo, subs: map[string]map[chan Event]struct{}{}}
}

// Publish appends the event to the durable log and delivers it to live
// subscribers of that user. Slow subscribers are skipped; they catch up
// from the log on reconnect.
func (h *Hub) Publish(ctx context.Context, typ, userID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("sync: marshal %s event: %v", typ, err)
		return
	}
	e := Event{Type: typ, Key: userID, DataJSON: string(data), CreatedAt: time.Now().Unix()}
	offset, err := h.repo.Append(ctx, e)
	if err != nil {
		log.Printf("sync: append %s event: %v", typ, err)
	} else {
		e.Offset = offset
	}
	h.mu.Lock()
	for ch := range h.subs[userID] {
		select {
		case ch <- e:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe registers a live channel for userID. The returned cancel
// func must be called on disconnect.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = map[chan Event]struct{}{}
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if set := h.subs[userID]; set != nil {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Missed replays logged events after offset for the user.
func (h *Hub) Missed(ctx context.Context, userID string, offset int64) ([]Event, error) {
	return h.repo.Since(ctx, userID, offset, 100)
}
