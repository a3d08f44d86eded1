package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/profile-sync/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenCodec_IssueVerify(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	codec := NewTokenCodec("secret").WithClock(fixedClock(now))

	token, issued, err := codec.Issue(domain.Identity{ID: "u1", Role: domain.RoleJobSeeker}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now, issued.IssuedAt)
	assert.Equal(t, now.Add(time.Hour), issued.ExpiresAt)

	got, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, domain.RoleJobSeeker, got.Role)
	assert.True(t, got.ExpiresAt.Equal(issued.ExpiresAt))
	assert.True(t, got.IssuedAt.Equal(issued.IssuedAt))
}

func TestTokenCodec_VerifyIgnoresExpiry(t *testing.T) {
	codec := NewTokenCodec("secret")

	token, issued, err := codec.Issue(domain.Identity{ID: "u1", Role: domain.RoleJobSeeker}, -time.Second)
	require.NoError(t, err)
	assert.True(t, issued.Expired(time.Now()))

	got, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestTokenCodec_RejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenCodec("secret-a").Issue(domain.Identity{ID: "u1", Role: domain.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenCodec("secret-b").Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenCodec_RejectsTamperedPayload(t *testing.T) {
	codec := NewTokenCodec("secret")
	token, _, err := codec.Issue(domain.Identity{ID: "u1", Role: domain.RoleJobSeeker}, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged, _, err := NewTokenCodec("other").Issue(domain.Identity{ID: "u1", Role: domain.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	parts[1] = strings.Split(forged, ".")[1]

	_, err = codec.Verify(strings.Join(parts, "."))
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenCodec_RejectsMalformed(t *testing.T) {
	codec := NewTokenCodec("secret")
	for _, token := range []string{"", "abc", "a.b.c", "Bearer x"} {
		_, err := codec.Verify(token)
		assert.True(t, errors.Is(err, ErrInvalidToken), "token %q", token)
	}
}

func TestTokenCodec_RejectsMissingClaims(t *testing.T) {
	codec := NewTokenCodec("secret")
	now := time.Now()

	cases := map[string]*Claims{
		"no subject": {Role: domain.RoleJobSeeker, RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}},
		"unknown role": {Role: "superuser", RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}},
		"no exp": {Role: domain.RoleJobSeeker, RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", IssuedAt: jwt.NewNumericDate(now),
		}},
		"no iat": {Role: domain.RoleJobSeeker, RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}},
	}

	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
			require.NoError(t, err)
			_, err = codec.Verify(signed)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{Role: domain.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Subject: "u1", IssuedAt: jwt.NewNumericDate(time.Now()), ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenCodec("secret").Verify(signed)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenCodec_IssueRequiresIdentity(t *testing.T) {
	_, _, err := NewTokenCodec("secret").Issue(domain.Identity{Role: domain.RoleAdmin}, time.Hour)
	assert.Error(t, err)
	_, _, err = NewTokenCodec("secret").Issue(domain.Identity{ID: "u1", Role: "root"}, time.Hour)
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)
	hashed, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.True(t, h.Matches(hashed, "hunter22"))
	assert.False(t, h.Matches(hashed, "hunter23"))
}
