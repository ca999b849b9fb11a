package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub-io/learnhub-portal/internal/auth"
	"github.com/learnhub-io/learnhub-portal/internal/cohort"
)

func cohortError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cohort.ErrCohortNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, cohort.ErrNotMember):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type putCohortReq struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	StartDate int64  `json:"start_date" validate:"gt=0"`
	Weeks     int    `json:"weeks" validate:"gt=0"`
	MentorID  string `json:"mentor_id"`
}

func PutCohortHandler(store cohort.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req putCohortReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		c := cohort.Cohort{
			ID:        req.ID,
			Name:      req.Name,
			StartDate: req.StartDate,
			Weeks:     req.Weeks,
			MentorID:  req.MentorID,
		}
		saved, err := store.Put(r.Context(), c)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

func MyCohortsHandler(svc *cohort.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := svc.Cohorts(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			cohortError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	}
}

func EnrollHandler(svc *cohort.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "cohortID")
		if err := svc.Enroll(r.Context(), id, auth.SubjectFromContext(r.Context())); err != nil {
			cohortError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"cohort_id": id, "status": "enrolled"})
	}
}

func CohortDashboardHandler(svc *cohort.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.DashboardFor(r.Context(), chi.URLParam(r, "cohortID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			cohortError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
