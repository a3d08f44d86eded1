package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jobportal/profile-sync/internal/domain"
	"github.com/jobportal/profile-sync/internal/observability"
	apperrors "github.com/jobportal/profile-sync/pkg/util"
)

const (
	identityKey    = "auth_identity"
	targetOwnerKey = "auth_target_owner"

	// OwnerQueryParam selects another user's record on ownership-restricted routes.
	OwnerQueryParam = "ownerId"
)

// Gate authenticates bearer tokens and enforces route policies. It holds no per-request
// state and never touches the profile store.
type Gate struct {
	codec   *TokenCodec
	now     func() time.Time
	metrics *observability.Metrics
}

// NewGate constructs the gate.
func NewGate(codec *TokenCodec, metrics *observability.Metrics) *Gate {
	return &Gate{codec: codec, now: time.Now, metrics: metrics}
}

// WithClock overrides the time source used for the expiry check.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Authenticate extracts and verifies the bearer token from an Authorization header value.
func (g *Gate) Authenticate(header string) (domain.Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return domain.Identity{}, apperrors.NewMissingToken()
	}

	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return domain.Identity{}, apperrors.NewInvalidToken("invalid authorization header")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, apperrors.NewMissingToken()
	}

	identity, err := g.codec.Verify(token)
	if err != nil {
		return domain.Identity{}, apperrors.NewInvalidToken("invalid token")
	}
	if identity.Expired(g.now()) {
		return domain.Identity{}, apperrors.NewTokenExpired()
	}
	return identity, nil
}

// Require returns middleware enforcing policy. The target owner is taken from the
// ownerId query parameter and defaults to the caller.
func (g *Gate) Require(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := g.Authenticate(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			g.reject(err)
			return err
		}

		target := c.Query(OwnerQueryParam)
		if target == "" {
			target = identity.ID
		}
		if err := Check(identity, policy, target); err != nil {
			g.reject(err)
			return err
		}

		c.Locals(identityKey, identity)
		c.Locals(targetOwnerKey, target)
		return c.Next()
	}
}

func (g *Gate) reject(err error) {
	g.metrics.RecordAuthRejection(apperrors.ToDomainError(err).Code)
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}

// TargetOwnerFromContext returns the owner id the gate authorized for this request.
func TargetOwnerFromContext(c *fiber.Ctx) string {
	target, _ := c.Locals(targetOwnerKey).(string)
	return target
}
