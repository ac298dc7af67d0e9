package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/msomdec/passgate/internal/domain"
)

// errorKinds maps each caller-visible error kind to its status and the
// message used when the error carries no detail of its own.
var errorKinds = []struct {
	kind     error
	status   int
	fallback string
}{
	{domain.ErrInvalidInput, http.StatusBadRequest, "Invalid request"},
	{domain.ErrOTPExpired, http.StatusBadRequest, "OTP has expired"},
	{domain.ErrOTPInvalid, http.StatusBadRequest, "Invalid OTP"},
	{domain.ErrTokenExpired, http.StatusUnauthorized, "Token expired. Please login again."},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "Invalid authentication token"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "Not found"},
	{domain.ErrConflict, http.StatusConflict, "Conflict"},
}

// writeError maps err onto the error taxonomy. Anything outside it is logged
// in full and reported as an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			writeMessage(w, k.status, publicMessage(err, k.kind, k.fallback))
			return
		}
	}
	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}

// publicMessage returns the detail that follows the kind's own text in err,
// dropping the internal context wrapped around it.
func publicMessage(err, kind error, fallback string) string {
	msg := err.Error()
	prefix := kind.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		msg = msg[i+len(prefix):]
	} else {
		return fallback
	}
	if msg == "" {
		return fallback
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
