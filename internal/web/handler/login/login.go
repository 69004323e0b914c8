package login

import (
	"errors"
	"fmt"
	"html"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
	"github.com/GoParcAdmin/GoParcAdmin/internal/identity"
	"github.com/GoParcAdmin/GoParcAdmin/internal/settings"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler/dashboard"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler/maintenance"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = "/login"

	// genericFailure is the single message shown for every credential
	// failure. A wrong password and a missing whitelist entry must be
	// indistinguishable from outside; the audit log keeps the real cause.
	genericFailure = "Invalid username or password"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>%s - Login</title></head>
<body>
<h1>%s</h1>
%s<form method="post" action="/login">
<label>Username <input type="text" name="username" autofocus></label>
<label>Password <input type="password" name="password"></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>`

// credentials is the login form payload.
type credentials struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// Service is the login handler service.
type Service struct {
	cfg      *config.Config
	chain    *identity.Chain
	settings *settings.Service
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, chain *identity.Chain, settingsSvc *settings.Service) error {
	if app == nil || cfg == nil || chain == nil || settingsSvc == nil {
		return errors.New("app, cfg, chain or settings is nil")
	}

	s.cfg = cfg
	s.chain = chain
	s.settings = settingsSvc

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, s.Get)
		router.Post(handler.RootPath, s.Post)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.renderForm(c, "")
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	creds := new(credentials)

	if err := c.BodyParser(creds); err != nil {
		return s.renderForm(c, genericFailure)
	}

	resolved, err := s.chain.Authenticate(creds.Username, creds.Password)

	switch {
	case err == nil:
		// fall through to session creation
	case errors.Is(err, identity.ErrMaintenanceLockout):
		return maintenance.Render(c, s.settings.Current().MaintenanceMessage)
	case errors.Is(err, identity.ErrDirectoryUnavailable):
		return fiber.NewError(fiber.StatusInternalServerError, "directory unavailable, try again later")
	default:
		// one message for every credential failure
		return s.renderForm(c, genericFailure)
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return fiber.ErrInternalServerError
	}

	userSession := &session.Data{
		Identity: *resolved,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return fiber.ErrInternalServerError
	}

	handler.SetSessionCookie(c, s.cfg, sessionID)

	return c.Redirect(dashboard.Path)
}

func (s *Service) renderForm(c *fiber.Ctx, errorMessage string) error {
	var errorBlock string
	if errorMessage != "" {
		errorBlock = fmt.Sprintf("<p class=\"error\">%s</p>\n", html.EscapeString(errorMessage))
	}

	title := html.EscapeString(s.cfg.Title)

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.SendString(fmt.Sprintf(pageTemplate, title, title, errorBlock))
}
