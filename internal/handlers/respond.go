// Package handlers is the thin HTTP layer: decode, delegate, encode.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ocx/judgeflow/internal/fault"
)

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps error kinds to status codes: validation 400, missing rows
// 404, provider timeouts 504, other provider failures 502, everything else
// 500.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError

	var pe *fault.ProviderError
	switch {
	case fault.IsValidation(err):
		code = http.StatusBadRequest
	case errors.Is(err, fault.ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &pe):
		if pe.Timeout {
			code = http.StatusGatewayTimeout
		} else {
			code = http.StatusBadGateway
		}
	}

	writeJSON(w, code, map[string]string{"error": err.Error()})
}
