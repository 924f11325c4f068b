// Package auth verifies bearer tokens issued by an external identity
// provider. Registration, activation and login live outside this service;
// all it needs is the provider's JWKS endpoint.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"packtree/internal/domain"
)

// JWTVerifier validates bearer tokens and extracts the subject.
type JWTVerifier interface {
	VerifyToken(tokenString string) (subject string, err error)
	Close() error
}

// JWKSVerifier implements JWTVerifier against a remote JWKS endpoint.
// Keys are cached and refreshed by keyfunc based on HTTP cache headers.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from jwksURL.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &JWKSVerifier{
		jwks:   jwks,
		logger: logger,
	}, nil
}

// VerifyToken validates a token and returns its subject claim.
func (v *JWKSVerifier) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, v.jwks.Keyfunc)
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	// Asymmetric algorithms only; anything else is an algorithm confusion
	// attempt or a misconfigured issuer.
	switch token.Method.Alg() {
	case "RS256", "ES256":
	default:
		v.logger.Warn("token uses unexpected algorithm", "algorithm", token.Method.Alg())
		return "", domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}

	return claims.Subject, nil
}

// Close releases verifier resources. keyfunc manages its own refresh
// lifecycle, so this is a no-op kept for shutdown symmetry.
func (v *JWKSVerifier) Close() error {
	return nil
}
