package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub-io/learnhub-portal/internal/auth"
	"github.com/learnhub-io/learnhub-portal/internal/library"
)

// ProGate answers whether a user currently has pro access. Satisfied by
// billing.Service.
type ProGate interface {
	ProActive(ctx context.Context, userID string) bool
}

func ListResourcesHandler(store library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rs)
	}
}

// GetResourceHandler enforces pro gating: pro-only resources need an
// active subscription.
func GetResourceHandler(store library.Store, gate ProGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.Get(r.Context(), chi.URLParam(r, "resourceID"))
		if err != nil {
			if errors.Is(err, library.ErrResourceNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if res.ProOnly && !gate.ProActive(r.Context(), auth.SubjectFromContext(r.Context())) {
			http.Error(w, "pro subscription required", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// PDFInfoHandler serves the geometry the dwell-time formula consumes.
func PDFInfoHandler(store library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := store.PDFInfo(r.Context(), chi.URLParam(r, "resourceID"))
		if err != nil {
			if errors.Is(err, library.ErrResourceNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

type putResourceReq struct {
	ID           string `json:"id"`
	Type         string `json:"type" validate:"required,oneof=video pdf quiz article"`
	Title        string `json:"title" validate:"required"`
	URL          string `json:"url"`
	DurationSec  int    `json:"duration_sec"`
	PageCount    int    `json:"page_count"`
	WordsPerPage []int  `json:"words_per_page"`
	QuizID       string `json:"quiz_id"`
	WeekNumber   int    `json:"week_number"`
	ProOnly      bool   `json:"pro_only"`
}

func PutResourceHandler(store library.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req putResourceReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		res, err := store.Put(r.Context(), library.Resource{
			ID:           req.ID,
			Type:         req.Type,
			Title:        req.Title,
			URL:          req.URL,
			DurationSec:  req.DurationSec,
			PageCount:    req.PageCount,
			WordsPerPage: req.WordsPerPage,
			QuizID:       req.QuizID,
			WeekNumber:   req.WeekNumber,
			ProOnly:      req.ProOnly,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}
