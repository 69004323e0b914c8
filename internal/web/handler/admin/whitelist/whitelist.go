// Package whitelist implements the administrative page for the login
// whitelist: who may authenticate through the directory, with disable,
// reactivate and permanent removal actions.
package whitelist

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler"
	"github.com/GoParcAdmin/GoParcAdmin/internal/whitelist"
)

// Path is the path to the whitelist administration page.
const Path = handler.RootPath + "admin/whitelist"

// addForm is the payload for adding a whitelist entry.
type addForm struct {
	Username    string `form:"username"     validate:"required"`
	DisplayName string `form:"display_name"`
	Email       string `form:"email"        validate:"omitempty,email"`
}

// Service is the whitelist administration handler service.
type Service struct {
	cfg       *config.Config
	whitelist *whitelist.Service
	validator *validator.Validate
}

// Handler is the whitelist administration handler.
var Handler = Service{}

// Init initializes the whitelist administration handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, whitelistSvc *whitelist.Service) {
	if app == nil || cfg == nil || whitelistSvc == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.whitelist = whitelistSvc
	s.validator = validator.New()

	manage := handler.Require(perm.Permissions.CanManageUsers)

	app.Get(Path, manage, s.List)
	app.Post(Path, manage, s.Add)
	app.Post(Path+"/:username/disable", manage, s.action("disable", s.whitelistDisable))
	app.Post(Path+"/:username/activate", manage, s.action("activate", s.whitelistActivate))
	app.Post(Path+"/:username/delete", manage, s.action("delete", s.whitelistDelete))
}

// List renders the whitelist, active and disabled entries alike.
func (s *Service) List(c *fiber.Ctx) error {
	entries, err := s.whitelist.ListAll()
	if err != nil {
		log.Error().Err(err).Msg("failed to list whitelist")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list whitelist")
	}

	return s.render(c, entries)
}

// Add creates or reactivates a whitelist entry.
func (s *Service) Add(c *fiber.Ctx) error {
	payload := new(addForm)

	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form data")
	}

	if err := s.validator.Struct(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form data")
	}

	identity, _ := handler.CurrentIdentity(c)

	if _, err := s.whitelist.Add(payload.Username, payload.DisplayName, payload.Email, &identity); err != nil {
		if errors.Is(err, whitelist.ErrUsernameEmpty) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		log.Error().Err(err).Msg("failed to add whitelist entry")

		return fiber.NewError(fiber.StatusInternalServerError, "failed to add whitelist entry")
	}

	return c.Redirect(Path)
}

// action wraps the per-entry mutations sharing the same shape.
func (s *Service) action(name string, mutate func(string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := c.Params("username")

		if err := mutate(username); err != nil {
			if errors.Is(err, whitelist.ErrNotFound) {
				return fiber.ErrNotFound
			}

			log.Error().Err(err).Str("action", name).Str("username", username).
				Msg("whitelist mutation failed")

			return fiber.NewError(fiber.StatusInternalServerError, "whitelist update failed")
		}

		return c.Redirect(Path)
	}
}

func (s *Service) whitelistDisable(username string) error { return s.whitelist.Disable(username) }

func (s *Service) whitelistActivate(username string) error { return s.whitelist.Reactivate(username) }

func (s *Service) whitelistDelete(username string) error {
	return s.whitelist.RemovePermanently(username)
}

func (s *Service) render(c *fiber.Ctx, entries []whitelist.Record) error {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n")
	fmt.Fprintf(&b, "<head><meta charset=\"utf-8\"><title>%s - Whitelist</title></head>\n<body>\n",
		html.EscapeString(s.cfg.Title))
	b.WriteString("<h1>Login whitelist</h1>\n")
	b.WriteString("<table>\n<tr><th>Username</th><th>Name</th><th>Email</th><th>State</th><th>Last login</th><th></th></tr>\n")

	for _, entry := range entries {
		state := "active"
		if !entry.Active {
			state = "disabled"
		}

		lastLogin := "never"
		if entry.LastLoginAt != nil {
			lastLogin = entry.LastLoginAt.Format("2006-01-02 15:04")
		}

		toggle := "disable"
		if !entry.Active {
			toggle = "activate"
		}

		fmt.Fprintf(&b,
			"<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td>"+
				"<td><form method=\"post\" action=\"%s/%s/%s\"><button type=\"submit\">%s</button></form>"+
				"<form method=\"post\" action=\"%s/%s/delete\"><button type=\"submit\">delete</button></form></td></tr>\n",
			html.EscapeString(entry.Username),
			html.EscapeString(entry.DisplayName),
			html.EscapeString(entry.Email),
			state,
			lastLogin,
			Path, html.EscapeString(entry.Username), toggle, toggle,
			Path, html.EscapeString(entry.Username))
	}

	b.WriteString("</table>\n")

	fmt.Fprintf(&b, "<h2>Add user</h2>\n<form method=\"post\" action=\"%s\">\n", Path)
	b.WriteString("<label>Username <input type=\"text\" name=\"username\"></label>\n")
	b.WriteString("<label>Name <input type=\"text\" name=\"display_name\"></label>\n")
	b.WriteString("<label>Email <input type=\"email\" name=\"email\"></label>\n")
	b.WriteString("<button type=\"submit\">Add</button>\n</form>\n</body>\n</html>")

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.SendString(b.String())
}
