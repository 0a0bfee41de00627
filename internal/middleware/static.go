package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"strings"
)

// StaticToken is the grant attached to a fixed bearer token.
type StaticToken struct {
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes"`
	// Subject defaults to ClientID.
	Subject string `json:"sub,omitempty"`
	// Audience defaults to the configured expected audience.
	Audience Audience `json:"aud,omitempty"`
	// ExpiresAt is an optional unix timestamp.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

type staticEntry struct {
	digest [sha256.Size]byte
	info   TokenInfo
}

// StaticVerifier accepts a fixed set of tokens loaded from configuration.
type StaticVerifier struct {
	entries []staticEntry
}

// NewStaticVerifier indexes cfg.StaticTokens. Tokens are kept only as digests.
func NewStaticVerifier(cfg OAuthConfig) *StaticVerifier {
	v := &StaticVerifier{entries: make([]staticEntry, 0, len(cfg.StaticTokens))}
	for token, grant := range cfg.StaticTokens {
		if token == "" {
			continue
		}
		info := TokenInfo{
			Active:    true,
			Scope:     strings.Join(grant.Scopes, " "),
			ClientID:  grant.ClientID,
			TokenType: "Bearer",
			Exp:       grant.ExpiresAt,
			Sub:       grant.Subject,
			Aud:       grant.Audience,
			Iss:       cfg.IssuerURL,
		}
		if info.Sub == "" {
			info.Sub = grant.ClientID
		}
		if len(info.Aud) == 0 && cfg.ExpectedAudience() != "" {
			info.Aud = Audience{cfg.ExpectedAudience()}
		}
		v.entries = append(v.entries, staticEntry{digest: sha256.Sum256([]byte(token)), info: info})
	}

	return v
}

// Verify compares token against every configured token in constant time.
func (v *StaticVerifier) Verify(_ context.Context, token string) (*TokenInfo, error) {
	digest := sha256.Sum256([]byte(token))

	var match *TokenInfo
	for i := range v.entries {
		if subtle.ConstantTimeCompare(digest[:], v.entries[i].digest[:]) == 1 {
			info := v.entries[i].info
			match = &info
		}
	}
	if match == nil {
		return nil, ErrInactiveToken
	}

	return match, nil
}
