package http

import (
	"errors"
	"net/http"

	"github.com/learnhub-io/learnhub-portal/internal/auth"
	"github.com/learnhub-io/learnhub-portal/internal/billing"
)

func SubscriptionStatusHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := svc.Status(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			if errors.Is(err, billing.ErrNoSubscription) {
				writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

type subscribeReq struct {
	Plan string `json:"plan" validate:"required,oneof=pro_monthly pro_yearly"`
}

func SubscribeHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscribeReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		sub, err := svc.Subscribe(r.Context(), auth.SubjectFromContext(r.Context()), req.Plan)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

func CancelSubscriptionHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := svc.Cancel(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			if errors.Is(err, billing.ErrNoSubscription) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}
