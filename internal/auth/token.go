package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/jobportal/profile-sync/internal/domain"
)

// ErrInvalidToken is returned by Verify for any token it cannot trust.
var ErrInvalidToken = errors.New("invalid token")

// Claims describes the JWT payload.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies signed identity tokens. The signing key is fixed at
// construction.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenCodec builds a codec for the given HMAC secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		now:    time.Now,
		// Expiry is enforced by the gate, not here.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// WithClock overrides the time source used for iat/exp.
func (tc *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	tc.now = now
	return tc
}

// Issue signs a token for identity.ID and identity.Role that expires ttl after issuance.
// A negative ttl yields a token that is already expired.
func (tc *TokenCodec) Issue(identity domain.Identity, ttl time.Duration) (string, domain.Identity, error) {
	if identity.ID == "" || !identity.Role.Valid() {
		return "", domain.Identity{}, fmt.Errorf("issue token: incomplete identity")
	}

	issuedAt := tc.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl).Truncate(time.Second)

	claims := &Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.secret)
	if err != nil {
		return "", domain.Identity{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, domain.Identity{
		ID:        identity.ID,
		Role:      identity.Role,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks signature, encoding and required claims and returns the embedded identity.
// It does not check expiry.
func (tc *TokenCodec) Verify(tokenStr string) (domain.Identity, error) {
	parsed, err := tc.parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return tc.secret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	switch {
	case claims.Subject == "":
		return domain.Identity{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	case !claims.Role.Valid():
		return domain.Identity{}, fmt.Errorf("%w: missing or unknown role", ErrInvalidToken)
	case claims.IssuedAt == nil:
		return domain.Identity{}, fmt.Errorf("%w: missing iat", ErrInvalidToken)
	case claims.ExpiresAt == nil:
		return domain.Identity{}, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}

	return domain.Identity{
		ID:        claims.Subject,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
