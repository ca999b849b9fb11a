package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub-io/learnhub-portal/internal/auth"
	"github.com/learnhub-io/learnhub-portal/internal/library"
	"github.com/learnhub-io/learnhub-portal/internal/progress"
)

// OpenResourceHandler makes the resource the user's active one and
// returns the seeded progress snapshot.
func OpenResourceHandler(tracker *progress.Tracker, lib library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := lib.Get(r.Context(), chi.URLParam(r, "resourceID"))
		if err != nil {
			if errors.Is(err, library.ErrResourceNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		rp, err := tracker.Open(r.Context(), auth.SubjectFromContext(r.Context()), progress.Resource{
			ID:           res.ID,
			Type:         res.Type,
			DurationSec:  res.DurationSec,
			PageCount:    res.PageCount,
			WordsPerPage: res.WordsPerPage,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rp)
	}
}

type videoSampleReq struct {
	Second int `json:"second" validate:"gte=0"`
}

// VideoSampleHandler is the 1-second playback sampling tick.
func VideoSampleHandler(tracker *progress.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req videoSampleReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		rp, err := tracker.VideoSample(r.Context(), auth.SubjectFromContext(r.Context()), req.Second)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, rp)
	}
}

type pdfHeartbeatReq struct {
	Page int `json:"page" validate:"gte=1"`
}

// PDFHeartbeatHandler is the 1-second dwell tick carrying the displayed
// page.
func PDFHeartbeatHandler(tracker *progress.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pdfHeartbeatReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		rp, err := tracker.PDFHeartbeat(r.Context(), auth.SubjectFromContext(r.Context()), req.Page)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, rp)
	}
}

func CloseResourceHandler(tracker *progress.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracker.Close(auth.SubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}

func MyProgressHandler(store progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rps, err := store.ListForUser(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rps)
	}
}
