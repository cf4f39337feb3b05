package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/backoffice/admin-api/internal/core/domain"
	"github.com/backoffice/admin-api/internal/pkg/clock"
)

// DefaultTokenTTL applies when the issuer is built with a non-positive TTL.
const DefaultTokenTTL = 24 * time.Hour

var errEmptySecret = errors.New("jwt signing secret must be provided")

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer implements ports.TokenIssuer with HS256-signed JWTs. Verification
// is purely computational: signature plus expiry, no store lookup.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	parser *jwt.Parser
}

// NewJWTIssuer builds an issuer around secret. The secret is copied and never
// read from global state.
func NewJWTIssuer(secret string, ttl time.Duration, clk clock.Clock) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clk == nil {
		clk = clock.System()
	}
	return &JWTIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(clk.Now),
		),
	}, nil
}

// TTL returns how long issued tokens stay valid.
func (i *JWTIssuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for identity valid from now until now+TTL.
func (i *JWTIssuer) Issue(identity *domain.Identity) (domain.Token, error) {
	if identity == nil || identity.ID == "" {
		return domain.Token{}, fmt.Errorf("issue token: %w", domain.ErrInvalidInput)
	}

	now := i.clock.Now()
	claims := tokenClaims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.Token{
		Value:     signed,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify checks signature and expiry and returns the token's principal.
// Failures are exactly one of domain.ErrTokenMalformed, ErrTokenInvalid or
// ErrTokenExpired.
func (i *JWTIssuer) Verify(token string) (domain.Principal, error) {
	claims := &tokenClaims{}
	_, err := i.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) && i.tampered(token) {
			return domain.Principal{}, domain.ErrTokenInvalid
		}
		return domain.Principal{}, classify(err)
	}
	if claims.Subject == "" {
		return domain.Principal{}, domain.ErrTokenMalformed
	}
	return domain.Principal{Subject: claims.Subject, Role: claims.Role}, nil
}

// classify maps jwt parser errors onto the domain taxonomy. The parser only
// validates claims after the signature checks out, so expiry is never
// reported for a tampered token.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return domain.ErrTokenMalformed
	default:
		return domain.ErrTokenInvalid
	}
}

// tampered reports whether raw carries an HS256-sized signature that is not
// the exact encoding this issuer produces for its header and claims. Strict
// decoding turns some single-character edits into parse errors; those are
// still alterations of a signed token, not garbage input.
func (i *JWTIssuer) tampered(raw string) bool {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || len(sig) != sha256.Size {
		return false
	}
	if base64.RawURLEncoding.EncodeToString(sig) != parts[2] {
		return true
	}
	return jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, i.secret) != nil
}
