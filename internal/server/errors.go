package server

import (
	"net/http"

	apperrors "github.com/cataloro/cataloro/internal/errors"
)

// HandleError is the central responder every handler and middleware routes
// errors through.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
