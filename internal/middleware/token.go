package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"
)

var (
	// ErrInactiveToken is returned when the authorization server reports the token as inactive.
	ErrInactiveToken = errors.New("token is not active")
	// ErrIntrospectionUnavailable is returned when the introspection endpoint could not give an answer.
	ErrIntrospectionUnavailable = errors.New("token introspection unavailable")
)

// TokenVerifier validates a raw bearer token and returns its claims.
//
// Implementations must never return an active TokenInfo together with an error.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*TokenInfo, error)
}

// TokenInfo holds the verified claims of a bearer token (RFC 7662 shaped).
type TokenInfo struct {
	Active    bool     `json:"active"`
	Scope     string   `json:"scope,omitempty"`
	ClientID  string   `json:"client_id,omitempty"`
	Username  string   `json:"username,omitempty"`
	TokenType string   `json:"token_type,omitempty"`
	Exp       int64    `json:"exp,omitempty"`
	Iat       int64    `json:"iat,omitempty"`
	Nbf       int64    `json:"nbf,omitempty"`
	Sub       string   `json:"sub,omitempty"`
	Aud       Audience `json:"aud,omitempty"`
	Iss       string   `json:"iss,omitempty"`
	Jti       string   `json:"jti,omitempty"`
}

// Scopes splits the space separated scope claim.
func (t *TokenInfo) Scopes() []string {
	return strings.Fields(t.Scope)
}

// Expired reports whether the exp claim is set and not after now.
func (t *TokenInfo) Expired(now time.Time) bool {
	if t.Exp == 0 {
		return false
	}

	return !now.Before(time.Unix(t.Exp, 0))
}

// Audience is the aud claim, which may be sent either as a single string or as a list.
type Audience []string

// UnmarshalJSON accepts both a JSON string and a JSON array of strings.
func (a *Audience) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*a = nil
		} else {
			*a = Audience{single}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*a = list

	return nil
}

// Contains reports whether aud includes the given audience.
func (a Audience) Contains(aud string) bool {
	return slices.Contains(a, aud)
}
