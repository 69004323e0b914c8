// Package handler holds the pieces shared by every web handler: the locals
// contract filled by the access gate and the session cookie helpers.
package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
)

// CurrentIdentity returns the identity the access gate attached to the
// request, or false when the request is unauthenticated.
func CurrentIdentity(c *fiber.Ctx) (models.Identity, bool) {
	identity, ok := c.Locals(LocalsIdentityKey).(models.Identity)
	return identity, ok
}

// Permissions returns the expanded permission set of the current identity.
// Unauthenticated requests get the zero value, which denies everything.
func Permissions(c *fiber.Ctx) perm.Permissions {
	p, ok := c.Locals(LocalsPermissionsKey).(perm.Permissions)
	if !ok {
		return perm.Permissions{}
	}

	return p
}

// Attach stores the identity and its expanded permissions in fiber.Locals.
func Attach(c *fiber.Ctx, identity models.Identity) {
	c.Locals(LocalsIdentityKey, identity)
	c.Locals(LocalsPermissionsKey, identity.Permissions())
}

// SetSessionCookie sets the login cookie for the given session ID.
func SetSessionCookie(c *fiber.Ctx, cfg *config.Config, sessionID string) {
	cookie := &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		MaxAge:   int(cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax", // TODO: make this configurable
	}

	if cfg.DevMode {
		cookie.Secure = false
	}

	c.Cookie(cookie)
}

// ClearSessionCookie expires the login cookie.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
