package auth

import (
	"errors"
	"net/http"
	"os"
	"strings"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims identifies the caller behind an authenticated request.
type Claims struct {
	Subject string
	Token   string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Claims, error)
}

// TokenAuthenticator checks bearer tokens against a static token table.
// With no tokens configured every request is rejected.
type TokenAuthenticator struct {
	// Tokens maps bearer token to subject.
	Tokens map[string]string
}

// NewAuthenticatorFromEnv builds an authenticator from AEGIS_API_TOKEN.
// The token authenticates as the "operator" subject.
func NewAuthenticatorFromEnv() *TokenAuthenticator {
	tokens := map[string]string{}
	if token := os.Getenv("AEGIS_API_TOKEN"); token != "" {
		tokens[token] = "operator"
	}
	return &TokenAuthenticator{Tokens: tokens}
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (Claims, error) {
	bearer, err := extractBearer(r)
	if err != nil {
		return Claims{}, err
	}

	if subject, ok := a.Tokens[bearer]; ok {
		return Claims{Subject: subject, Token: bearer}, nil
	}
	return Claims{}, ErrInvalidToken
}

func extractBearer(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingBearer
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
