package in

import (
	"strings"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/net/http"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthConfig carries the front door's authentication material.
type AuthConfig struct {
	// APIKeys maps API key values to their owning user id.
	APIKeys map[string]uuid.UUID

	// SessionSecret verifies HS256 web session tokens.
	SessionSecret string
}

const localsUserID = "auth_user_id"

// WithAuth authenticates the request by API key or web session token and stores
// the resolved user id in locals. Unauthenticated requests are refused; the
// payment-gated endpoint carries its own authorization and skips this middleware.
func WithAuth(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key := c.Get(http.HeaderAPIKey); key != "" {
			for candidate, userID := range cfg.APIKeys {
				if pkg.SecureCompare(key, candidate) {
					c.Locals(localsUserID, userID)

					return c.Next()
				}
			}

			return http.Unauthorized(c, cn.ErrUnauthorized.Error(), "The provided API key is not valid.")
		}

		header := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(header, "Bearer ") && cfg.SessionSecret != "" {
			userID, err := parseSessionToken(strings.TrimPrefix(header, "Bearer "), cfg.SessionSecret)
			if err == nil {
				c.Locals(localsUserID, userID)

				return c.Next()
			}
		}

		return http.Unauthorized(c, cn.ErrUnauthorized.Error(), "The request lacks valid authentication credentials. Please provide a valid API key or session token and try again.")
	}
}

func parseSessionToken(token, secret string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(subject)
}

// AuthenticatedUser returns the user id resolved by WithAuth.
func AuthenticatedUser(c *fiber.Ctx) uuid.UUID {
	if userID, ok := c.Locals(localsUserID).(uuid.UUID); ok {
		return userID
	}

	return uuid.Nil
}

// IdentityKey derives the rate-limit key: the authenticated user when present,
// the client IP otherwise.
func IdentityKey(c *fiber.Ctx) string {
	if userID := AuthenticatedUser(c); userID != uuid.Nil {
		return userID.String()
	}

	return c.IP()
}
