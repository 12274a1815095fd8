package authn

import (
	"crypto/subtle"
	"errors"
	"strings"
)

const bearerPrefix = "Bearer "

var (
	// ErrUnauthenticated means the Authorization header is missing or not a bearer token.
	ErrUnauthenticated = errors.New("missing or invalid Authorization header")

	// ErrForbidden means a bearer token was presented but does not match the secret.
	ErrForbidden = errors.New("invalid bearer token")
)

// Verify checks an Authorization header value against the shared secret.
func Verify(header, secret string) error {
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return ErrUnauthenticated
	}

	token := strings.TrimPrefix(header, bearerPrefix)
	if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return ErrForbidden
	}
	return nil
}
