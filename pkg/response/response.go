// Package response implements the JSON envelope shared by every
// endpoint: {"status": "success", "data": ..., "meta": ...} on
// success, {"status": "error", "message": ..., "detail": ...}
// otherwise.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/kraxel-io/kraxel-api/pkg/apperrors"
)

// Envelope is the wire shape of every API response.
type Envelope struct {
	Status  string         `json:"status"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
	Message string         `json:"message,omitempty"`
	Detail  string         `json:"detail,omitempty"`
}

// OK writes a success envelope with optional meta.
func OK(w http.ResponseWriter, data any, meta map[string]any) {
	writeJSON(w, http.StatusOK, Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	})
}

// Error writes an error envelope with the given status.
func Error(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, Envelope{
		Status:  "error",
		Message: message,
		Detail:  detail,
	})
}

// FromError maps an error to the envelope. AppErrors keep their status
// and message; anything else becomes an opaque 500.
func FromError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.As(err); ok {
		detail := ""
		if appErr.Cause != nil {
			detail = appErr.Cause.Error()
		}
		Error(w, appErr.HTTPStatus(), appErr.Message, detail)
		return
	}
	Error(w, http.StatusInternalServerError, "Internal server error", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
