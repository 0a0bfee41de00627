package middleware

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultSigningMethod is the JWT algorithm accepted when none is configured.
const DefaultSigningMethod = "RS256"

var errInvalidJWT = errors.New("invalid JWT")

// JWTVerifier verifies self-contained access tokens, either against a JWKS
// endpoint or against a single configured public key.
type JWTVerifier struct {
	issuer  string
	methods []string
	keyFunc jwt.Keyfunc
}

// NewJWTVerifier loads the JWKS from cfg.JwksURL, or parses cfg.PublicKey when
// no JWKS URL is set. The JWKS wins when both are configured.
func NewJWTVerifier(ctx context.Context, cfg OAuthConfig) (*JWTVerifier, error) {
	method := cfg.Algorithm
	if method == "" {
		method = DefaultSigningMethod
	}
	if jwt.GetSigningMethod(method) == nil || strings.HasPrefix(method, "HS") || method == "none" {
		return nil, fmt.Errorf("unsupported JWT algorithm %q", method)
	}
	v := &JWTVerifier{issuer: cfg.IssuerURL, methods: []string{method}}

	switch {
	case cfg.JwksURL != "":
		var override keyfunc.Override
		if cfg.InsecureTLS {
			tr := &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
			override.Client = &http.Client{Transport: tr}
		}
		jwks, err := keyfunc.NewDefaultOverrideCtx(ctx, []string{cfg.JwksURL}, override)
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client: %w", err)
		}
		zap.L().Info("Initialized JWKS", zap.String("jwksURL", cfg.JwksURL))
		v.keyFunc = jwks.Keyfunc
	case cfg.PublicKey != "":
		key, err := parsePublicKey(method, []byte(cfg.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse JWT public key: %w", err)
		}
		zap.L().Info("Using static JWT public key", zap.String("algorithm", method))
		v.keyFunc = func(*jwt.Token) (any, error) { return key, nil }
	default:
		return nil, fmt.Errorf("JWKS URL cannot be empty when no public key is configured")
	}

	return v, nil
}

// parsePublicKey reads a PEM encoded key of the family matching method.
func parsePublicKey(method string, pem []byte) (any, error) {
	switch {
	case strings.HasPrefix(method, "RS"), strings.HasPrefix(method, "PS"):
		return jwt.ParseRSAPublicKeyFromPEM(pem)
	case strings.HasPrefix(method, "ES"):
		return jwt.ParseECPublicKeyFromPEM(pem)
	case method == "EdDSA":
		return jwt.ParseEdPublicKeyFromPEM(pem)
	default:
		return nil, fmt.Errorf("no public key type for algorithm %q", method)
	}
}

// Verify checks the token signature and issuer and maps its claims to a TokenInfo.
// Expiry, scope and audience are left to the middleware.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*TokenInfo, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse(tokenString, v.keyFunc, opts...)
	if err != nil {
		zap.L().Debug("Failed to parse token", zap.Error(err))
		return nil, errInvalidJWT
	}
	if !token.Valid {
		return nil, errInvalidJWT
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		zap.L().Error("Invalid claims type")
		return nil, errInvalidJWT
	}

	return claimsToTokenInfo(claims), nil
}

func claimsToTokenInfo(claims jwt.MapClaims) *TokenInfo {
	info := &TokenInfo{
		Active:    true,
		Scope:     scopeClaim(claims["scope"]),
		ClientID:  stringClaim(claims, "client_id"),
		Username:  stringClaim(claims, "username"),
		TokenType: "Bearer",
		Jti:       stringClaim(claims, "jti"),
	}
	info.Sub, _ = claims.GetSubject()
	info.Iss, _ = claims.GetIssuer()
	if aud, err := claims.GetAudience(); err == nil {
		info.Aud = Audience(aud)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.Exp = exp.Unix()
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.Iat = iat.Unix()
	}
	if nbf, err := claims.GetNotBefore(); err == nil && nbf != nil {
		info.Nbf = nbf.Unix()
	}

	return info
}

// scopeClaim normalizes the scope claim, which providers send either as a
// space separated string or as a list.
func scopeClaim(raw any) string {
	switch scope := raw.(type) {
	case string:
		return scope
	case []any:
		scopes := make([]string, 0, len(scope))
		for _, s := range scope {
			if str, ok := s.(string); ok {
				scopes = append(scopes, str)
			}
		}
		return strings.Join(scopes, " ")
	default:
		return ""
	}
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}
