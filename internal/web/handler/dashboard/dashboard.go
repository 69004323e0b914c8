package dashboard

import (
	"fmt"
	"html"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler"
)

// Path is the path to the dashboard page.
const Path = "/dashboard"

// Service is the dashboard handler service.
type Service struct {
	cfg *config.Config
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config) {
	if app == nil || cfg == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg

	app.Get(Path, s.Get)
}

// Get renders the dashboard with the current identity and its effective
// permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	identity, ok := handler.CurrentIdentity(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	perms := handler.Permissions(c)

	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n")
	fmt.Fprintf(&b, "<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n",
		html.EscapeString(s.cfg.Title))
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(s.cfg.Title))

	name := identity.DisplayName
	if name == "" {
		name = identity.Username
	}

	fmt.Fprintf(&b, "<p>Signed in as <strong>%s</strong> (%s)</p>\n",
		html.EscapeString(name), html.EscapeString(string(identity.Source)))

	if identity.Source == models.SourceAnonymous {
		b.WriteString("<p class=\"warning\">Directory authentication is disabled: everyone has full access.</p>\n")
	}

	b.WriteString("<ul>\n")

	for _, tag := range identity.Roles {
		fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(string(tag)))
	}

	b.WriteString("</ul>\n")

	if perms.IsAdmin() {
		b.WriteString("<p><a href=\"/admin/settings\">Settings</a> | <a href=\"/admin/whitelist\">Whitelist</a></p>\n")
	}

	b.WriteString("<p><a href=\"/logout\">Sign out</a></p>\n</body>\n</html>")

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.SendString(b.String())
}
