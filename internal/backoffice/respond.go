package backoffice

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/landledger/backoffice/internal/apperr"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[backoffice] encode response: %v", err)
	}
}

// writeError maps the error taxonomy onto HTTP. Auth and not-found answers
// from the land service pass through; other upstream failures become 502.
func writeError(w http.ResponseWriter, err error) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Message, Field: ve.Field})
		return
	}

	var ue *apperr.UpstreamError
	if errors.As(err, &ue) {
		status := http.StatusBadGateway
		switch ue.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict:
			status = ue.StatusCode
		}
		writeJSON(w, status, errorBody{Error: ue.Message})
		return
	}

	log.Printf("[backoffice] internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

// addServerTiming reports how long the land service took for this request.
func addServerTiming(w http.ResponseWriter, name string, start time.Time) {
	ms := float64(time.Since(start).Microseconds()) / 1000
	w.Header().Add("Server-Timing", fmt.Sprintf("%s;dur=%.1f", name, ms))
}
