package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskboard/internal/common"
)

// envelope is the JSON body of every API response. Mutations carry
// error/success/message, reads carry the entity plus error.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeRead answers a successful read: {<key>: v, error: null}.
func writeRead(w http.ResponseWriter, key string, v any) {
	writeJSON(w, http.StatusOK, envelope{key: v, "error": nil})
}

// writeSuccess answers a successful mutation. extra adds entity fields
// next to the envelope keys.
func writeSuccess(w http.ResponseWriter, status int, message string, extra envelope) {
	body := envelope{"error": nil, "success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), envelope{"error": errorMessage(err), "success": false})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrAuth), errors.Is(err, common.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// errorMessage is the text shown next to the action that failed. Only
// validation errors carry detail; everything else is its sentinel text so
// storage internals never reach the caller.
func errorMessage(err error) string {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, sentinel := range []error{
		common.ErrAuth,
		common.ErrNotAuthenticated,
		common.ErrNotFound,
		common.ErrConflict,
		common.ErrRateLimited,
		common.ErrValidation,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return common.ErrStorage.Error()
}
