// internal/app/features/errors/render.go

// Package errors renders classified errors as the service's JSON error
// envelope: {"error":{"kind":"...","message":"..."}}.
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/AbnetS/bidir-group/internal/app/system/apperr"
)

type envelope struct {
	Error body `json:"error"`
}

type body struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its HTTP status and envelope. Internal details stay
// in the logs; the caller sees only the classified message.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	WriteJSON(w, apperr.StatusCode(err), envelope{Error: body{
		Kind:    kind,
		Message: apperr.MessageOf(err),
	}})
}

// Forbidden writes the standard permission-denied envelope.
func Forbidden(w http.ResponseWriter) {
	WriteJSON(w, http.StatusForbidden, envelope{Error: body{
		Kind:    apperr.Forbidden,
		Message: "You Don't have enough permissions to complete this action",
	}})
}
