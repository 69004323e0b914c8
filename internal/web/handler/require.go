package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
)

// Require builds a route middleware that rejects the request with 403 unless
// the expanded permission set of the current identity passes the check.
func Require(check func(perm.Permissions) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !check(Permissions(c)) {
			identity, _ := CurrentIdentity(c)
			log.Warn().
				Str("username", identity.Username).
				Str("path", c.Path()).
				Msg("permission denied")

			return fiber.ErrForbidden
		}

		return c.Next()
	}
}
