package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/learnhub-io/learnhub-portal/internal/auth"
	syncx "github.com/learnhub-io/learnhub-portal/internal/sync"
)

// EventsHandler streams push events to the client over SSE. The client
// passes its last seen offset via Last-Event-ID (or ?after=) and gets a
// replay of missed events before the live stream.
func EventsHandler(hub *syncx.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		userID := auth.SubjectFromContext(r.Context())

		after := int64(0)
		if v := r.Header.Get("Last-Event-ID"); v != "" {
			after, _ = strconv.ParseInt(v, 10, 64)
		} else if v := r.URL.Query().Get("after"); v != "" {
			after, _ = strconv.ParseInt(v, 10, 64)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		// subscribe before replaying so nothing falls between
		live, cancel := hub.Subscribe(userID)
		defer cancel()

		missed, err := hub.Missed(r.Context(), userID, after)
		if err == nil {
			for _, e := range missed {
				writeSSE(w, e)
				after = e.Offset
			}
		}
		flusher.Flush()

		keepalive := time.NewTicker(25 * time.Second)
		defer keepalive.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-keepalive.C:
				fmt.Fprint(w, ": keepalive\n\n")
				flusher.Flush()
			case e := <-live:
				if e.Offset != 0 && e.Offset <= after {
					continue
				}
				writeSSE(w, e)
				flusher.Flush()
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, e syncx.Event) {
	if e.Offset != 0 {
		fmt.Fprintf(w, "id: %d\n", e.Offset)
	}
	fmt.Fprintf(w, "event: %s\n", e.Type)
	fmt.Fprintf(w, "data: %s\n\n", e.DataJSON)
}
