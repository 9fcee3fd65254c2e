package auth

import (
	"crypto/subtle"
	"fmt"
)

// ClientName identifies callers holding the configured API token.
const ClientName = "api"

// Auth checks bearer tokens against the single configured API token.
// An empty configured token disables the API.
type Auth struct {
	token string
}

func New(token string) *Auth {
	return &Auth{token: token}
}

func (a *Auth) AuthenticateByToken(token string) (string, error) {
	if a.token == "" {
		return "", fmt.Errorf("api token not configured")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
		return "", fmt.Errorf("token mismatch")
	}
	return ClientName, nil
}
