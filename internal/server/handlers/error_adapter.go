package handlers

import (
	"net/http"

	apperrors "github.com/cataloro/cataloro/internal/errors"
)

// ErrorResponder writes the response for a handler failure.
type ErrorResponder func(http.ResponseWriter, *http.Request, error)

var httpErrorResponder ErrorResponder = apperrors.RespondWithError

// SetHTTPErrorResponder lets the server package inject its centralized
// error handler so handlers and router share one response path. A nil
// responder restores the default.
func SetHTTPErrorResponder(responder ErrorResponder) {
	if responder == nil {
		ResetHTTPErrorResponder()
		return
	}
	httpErrorResponder = responder
}

// ResetHTTPErrorResponder restores the default responder (useful for tests).
func ResetHTTPErrorResponder() {
	httpErrorResponder = apperrors.RespondWithError
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	httpErrorResponder(w, r, err)
}
