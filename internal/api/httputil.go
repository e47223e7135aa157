package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/fpang/cartoonaf/internal/filter"
	"github.com/fpang/cartoonaf/internal/gallery"
	"github.com/fpang/cartoonaf/internal/objectstore"
	"github.com/fpang/cartoonaf/internal/pipeline"
)

// errorBody is the JSON shape of every non-2xx answer. RequestID matches the
// requestId field of the pipeline logs for the same call.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Int("status", status).Msg("Failed to write JSON response")
	}
}

// httpError answers with clientMsg. A non-nil cause is logged at error level
// and kept out of the body, since it may carry bucket keys or SDK output.
func httpError(w http.ResponseWriter, r *http.Request, status int, clientMsg string, cause error) {
	reqID := middleware.GetReqID(r.Context())
	if cause != nil {
		log.Error().
			Err(cause).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("requestId", reqID).
			Msg("Request failed")
	}
	respondJSON(w, status, errorBody{Error: clientMsg, RequestID: reqID})
}

// StatusFor maps a pipeline or gallery error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest),
		errors.Is(err, filter.ErrUnknownFilter),
		errors.Is(err, gallery.ErrEmptyPrefix):
		return http.StatusBadRequest
	case errors.Is(err, objectstore.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Filter and gallery
// rejections echo the message; server faults get a generic one.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		httpError(w, r, status, "internal error", err)
		return
	}
	log.Warn().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("Request rejected")
	httpError(w, r, status, err.Error(), nil)
}
