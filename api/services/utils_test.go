package services

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EO-DataHub/eodhp-scim-services/internal/authn"
	"github.com/stretchr/testify/assert"
)

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "Missing or invalid Authorization header", ErrorDetail(authn.ErrUnauthenticated))
	assert.Equal(t, "Invalid bearer token", ErrorDetail(authn.ErrForbidden))
	assert.Equal(t, "Invalid request payload", ErrorDetail(fmt.Errorf("%w: eof", ErrInvalidPayload)))
	assert.Equal(t, "Internal server error", ErrorDetail(errors.New("open /data/users.json: permission denied")))
}

func TestWriteResponse_Location(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteResponse(rr, http.StatusCreated, map[string]string{"id": "x"}, "/scim/v2/Users/x")

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/scim/v2/Users/x", rr.Header().Get("Location"))
	assert.JSONEq(t, `{"id":"x"}`, rr.Body.String())
}

func TestWriteResponse_NoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteResponse(rr, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Location"))
}
