// Package gate implements the access gate applied to every request. It is
// the single place where the three runtime access modes meet: anonymous open
// access while the directory is disabled, session-backed directory login
// while it is enabled, and the administrator-only lockout during
// maintenance.
package gate

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/identity"
	"github.com/GoParcAdmin/GoParcAdmin/internal/settings"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler/login"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler/maintenance"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/session"
)

// skipPrefixes are served without any access decision.
var skipPrefixes = []string{"/static", "/healthz", "/metrics", "/favicon.ico"}

// New builds the access gate middleware. The runtime settings are read once
// per request, so toggling the directory or maintenance mode takes effect on
// the next request without a restart.
func New(settingsSvc *settings.Service, resolver *identity.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := strings.ToLower(c.Path())

		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		// logout must always work, whatever the access mode
		if strings.HasPrefix(path, "/logout") {
			return c.Next()
		}

		// the login path always reaches the authentication chain: a real
		// administrator must be able to sign in while the directory is
		// disabled or maintenance is on
		if strings.HasPrefix(path, login.Path) {
			return c.Next()
		}

		current := settingsSvc.Current()

		var (
			sessData session.Data
			authed   bool
		)

		if cookie := c.Cookies(handler.SessionCookieName); cookie != "" {
			if err := sessData.Read(cookie); err == nil && sessData.Identity.ID > 0 {
				authed = true
			}
		}

		if current.MaintenanceMode {
			// only a real administrator passes; the synthetic anonymous
			// identity is locked out regardless of the tags it carries
			if authed && sessData.Identity.Source != models.SourceAnonymous &&
				sessData.Identity.Permissions().IsAdmin() {
				handler.Attach(c, sessData.Identity)
				return c.Next()
			}

			return maintenance.Render(c, current.MaintenanceMessage)
		}

		if !current.LDAPEnabled {
			// open access: every request runs as the anonymous identity,
			// no session required
			anon, err := resolver.ResolveAnonymous()
			if err != nil {
				log.Error().Err(err).Msg("failed to resolve anonymous identity")
				return fiber.ErrInternalServerError
			}

			handler.Attach(c, *anon)

			return c.Next()
		}

		// directory mode: a session is required
		if authed {
			handler.Attach(c, sessData.Identity)

			return c.Next()
		}

		return c.Redirect(login.Path)
	}
}
