package http

import (
	"net/http"

	"github.com/learnhub-io/learnhub-portal/internal/assist"
)

type explainReq struct {
	Prompt string `json:"prompt" validate:"required,max=4000"`
}

func ExplainHandler(client *assist.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			http.Error(w, "assistant not configured", http.StatusServiceUnavailable)
			return
		}
		var req explainReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		answer, err := client.Explain(r.Context(), req.Prompt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
	}
}
