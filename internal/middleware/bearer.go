package middleware

import (
	"net/http"
	"strings"
)

const bearerScheme = "bearer "

// ExtractBearerToken returns the token carried by an Authorization header value.
//
// The scheme is matched case-insensitively and must be followed by exactly one space.
// Missing headers, other schemes and empty tokens all report false.
func ExtractBearerToken(header string) (string, bool) {
	if len(header) < len(bearerScheme) || !strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		return "", false
	}

	rest := header[len(bearerScheme):]
	// "Bearer  token" has an empty scheme separator followed by garbage.
	if strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "\t") {
		return "", false
	}

	token := strings.TrimSpace(rest)
	if token == "" {
		return "", false
	}

	return token, true
}

// extractToken extracts the Bearer token from the Authorization header.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}

	token, ok := ExtractBearerToken(authHeader)
	if !ok {
		return "", errMalformedToken
	}

	return token, nil
}
