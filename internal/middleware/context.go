package middleware

import (
	"context"
)

// contextKey is a custom type for context keys to avoid collisions with
// other packages that might use string keys.
type contextKey struct{ name string }

var (
	tokenCtxKey     = &contextKey{"token"}
	tokenInfoCtxKey = &contextKey{"token-info"}
)

// WithToken sets the raw bearer token into the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey, token)
}

// Token gets the token from the context.
//
// Returns empty string if no token is found.
func Token(ctx context.Context) string {
	token, ok := ctx.Value(tokenCtxKey).(string)
	if ok {
		return token
	}

	return ""
}

// WithTokenInfo attaches verified token claims to the context.
func WithTokenInfo(ctx context.Context, info *TokenInfo) context.Context {
	return context.WithValue(ctx, tokenInfoCtxKey, info)
}

// TokenInfoFromContext returns the claims verified by the OAuth middleware, if any.
func TokenInfoFromContext(ctx context.Context) (*TokenInfo, bool) {
	info, ok := ctx.Value(tokenInfoCtxKey).(*TokenInfo)
	return info, ok && info != nil
}
