package services

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/EO-DataHub/eodhp-scim-services/internal/authn"
	"github.com/EO-DataHub/eodhp-scim-services/models"
)

// ErrInvalidPayload is returned when a request body is not a JSON object.
var ErrInvalidPayload = errors.New("invalid request payload")

const internalErrorDetail = "Internal server error"

// Client-facing wording for the errors a request can fail with. Anything else is
// reported as an internal error so storage details never leak.
var errorDetails = []struct {
	err    error
	detail string
}{
	{authn.ErrUnauthenticated, "Missing or invalid Authorization header"},
	{authn.ErrForbidden, "Invalid bearer token"},
	{ErrInvalidPayload, "Invalid request payload"},
}

func WriteResponse(w http.ResponseWriter, statusCode int, response interface{}, location ...string) {

	w.Header().Set("Content-Type", "application/json")

	// We don't want to cache API responses so the client receives most curent data
	w.Header().Set("Cache-Control", "max-age=0")

	// Conditionally set the Location header if provided
	if len(location) > 0 && location[0] != "" {
		w.Header().Set("Location", location[0])
	}

	w.WriteHeader(statusCode)

	if response != nil {
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
	}
}

// HandleErrResponse writes a {"detail": ...} error body for err.
func HandleErrResponse(w http.ResponseWriter, statusCode int, err error) {
	WriteResponse(w, statusCode, models.ErrorResponse{Detail: ErrorDetail(err)})
}

// ErrorDetail returns the client-facing message for err.
func ErrorDetail(err error) string {
	for _, e := range errorDetails {
		if errors.Is(err, e.err) {
			return e.detail
		}
	}
	return internalErrorDetail
}
