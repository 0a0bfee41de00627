package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultIntrospectionTimeout bounds a single introspection round trip.
const DefaultIntrospectionTimeout = 5 * time.Second

// maxIntrospectionResponseSize caps the body read from the authorization server.
const maxIntrospectionResponseSize = 1 << 20

// introspectionResponse is the RFC 7662 response body. Active is a pointer so a
// missing field can be told apart from "active": false.
type introspectionResponse struct {
	Active    *bool       `json:"active"`
	Scope     string      `json:"scope"`
	ClientID  string      `json:"client_id"`
	Username  string      `json:"username"`
	TokenType string      `json:"token_type"`
	Exp       numericDate `json:"exp"`
	Iat       numericDate `json:"iat"`
	Nbf       numericDate `json:"nbf"`
	Sub       string      `json:"sub"`
	Aud       Audience    `json:"aud"`
	Iss       string      `json:"iss"`
	Jti       string      `json:"jti"`
}

// numericDate is a seconds-since-epoch claim. Some servers send fractional
// seconds, which are truncated.
type numericDate int64

func (d *numericDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = 0
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*d = numericDate(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return err
	}
	*d = numericDate(math.Trunc(f))

	return nil
}

func (r introspectionResponse) tokenInfo() *TokenInfo {
	return &TokenInfo{
		Active:    *r.Active,
		Scope:     r.Scope,
		ClientID:  r.ClientID,
		Username:  r.Username,
		TokenType: r.TokenType,
		Exp:       int64(r.Exp),
		Iat:       int64(r.Iat),
		Nbf:       int64(r.Nbf),
		Sub:       r.Sub,
		Aud:       r.Aud,
		Iss:       r.Iss,
		Jti:       r.Jti,
	}
}

// Introspector verifies opaque tokens against an RFC 7662 introspection endpoint,
// authenticating as a confidential client.
type Introspector struct {
	endpoint     string
	clientID     string
	clientSecret string
	timeout      time.Duration
	client       *http.Client

	group singleflight.Group
}

// NewIntrospector creates an Introspector from the OAuth configuration.
// A nil client falls back to http.DefaultClient.
func NewIntrospector(cfg OAuthConfig, client *http.Client) *Introspector {
	if client == nil {
		client = http.DefaultClient
	}
	timeout := cfg.IntrospectionTimeout
	if timeout <= 0 {
		timeout = DefaultIntrospectionTimeout
	}

	return &Introspector{
		endpoint:     cfg.IntrospectionURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		timeout:      timeout,
		client:       client,
	}
}

// Verify introspects token. Concurrent calls for the same token share a single
// round trip; each caller stops waiting as soon as its own context is done.
func (i *Introspector) Verify(ctx context.Context, token string) (*TokenInfo, error) {
	sum := sha256.Sum256([]byte(token))
	key := hex.EncodeToString(sum[:])

	// The shared call outlives any single caller but is still bounded by i.timeout.
	ch := i.group.DoChan(key, func() (any, error) {
		return i.introspect(context.WithoutCancel(ctx), token)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		info := res.Val.(*TokenInfo)
		if !info.Active {
			return nil, ErrInactiveToken
		}
		return info, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrIntrospectionUnavailable, ctx.Err())
	}
}

func (i *Introspector) introspect(ctx context.Context, token string) (*TokenInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	form := url.Values{
		"token":           {token},
		"token_type_hint": {"access_token"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrIntrospectionUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if i.clientID != "" {
		req.SetBasicAuth(url.QueryEscape(i.clientID), url.QueryEscape(i.clientSecret))
	}

	resp, err := i.client.Do(req)
	if err != nil {
		zap.L().Warn("Token introspection request failed", zap.String("endpoint", i.endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrIntrospectionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		zap.L().Warn("Token introspection returned unexpected status",
			zap.String("endpoint", i.endpoint), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: unexpected status %d", ErrIntrospectionUnavailable, resp.StatusCode)
	}

	var body introspectionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIntrospectionResponseSize)).Decode(&body); err != nil {
		zap.L().Warn("Failed to decode introspection response", zap.Error(err))
		return nil, fmt.Errorf("%w: decoding response: %w", ErrIntrospectionUnavailable, err)
	}
	if body.Active == nil {
		return nil, fmt.Errorf("%w: response has no active field", ErrIntrospectionUnavailable)
	}

	return body.tokenInfo(), nil
}
