package token

import (
	"errors"
	"fmt"
	"time"

	"wework-hub/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// VisitorTokenConfig holds visitor cookie signing configuration.
type VisitorTokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// visitorClaims carries only the visitor ID as subject. Upstream credentials
// and profile data never enter the token.
type visitorClaims struct {
	jwt.RegisteredClaims
}

// VisitorTokenIssuer signs and verifies the visitor cookie.
// Implements domain.VisitorTokenIssuer.
type VisitorTokenIssuer struct {
	cfg VisitorTokenConfig
}

// NewVisitorTokenIssuer creates a new visitor token issuer.
func NewVisitorTokenIssuer(cfg VisitorTokenConfig) *VisitorTokenIssuer {
	return &VisitorTokenIssuer{cfg: cfg}
}

// Issue generates a signed HS256 token for visitorID.
func (i *VisitorTokenIssuer) Issue(visitorID string) (string, error) {
	if len(i.cfg.Secret) == 0 {
		return "", fmt.Errorf("%w: secret not configured", domain.ErrTokenInvalid)
	}
	now := time.Now()
	claims := visitorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   visitorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.cfg.Secret))
}

// Parse verifies tokenStr and returns the visitor ID and the token expiry.
func (i *VisitorTokenIssuer) Parse(tokenStr string) (domain.VisitorToken, error) {
	if tokenStr == "" {
		return domain.VisitorToken{}, domain.ErrTokenInvalid
	}
	claims := &visitorClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return []byte(i.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.VisitorToken{}, fmt.Errorf("%w: expired", domain.ErrTokenInvalid)
		}
		return domain.VisitorToken{}, fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return domain.VisitorToken{}, fmt.Errorf("%w: missing subject", domain.ErrTokenInvalid)
	}
	return domain.VisitorToken{VisitorID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
