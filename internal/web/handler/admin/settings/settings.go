// Package settings implements the administrative page for the runtime
// access configuration: the directory connection, the login switch and
// maintenance mode. Changes apply on the next request, no restart needed.
package settings

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/directory"
	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
	"github.com/GoParcAdmin/GoParcAdmin/internal/settings"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler"
)

const (
	// Path is the path to the access settings page.
	Path = handler.RootPath + "admin/settings"

	// TestPath is the path of the directory connection test action.
	TestPath = Path + "/test"

	// MaintenancePath is the path of the maintenance mode toggle.
	MaintenancePath = Path + "/maintenance"
)

// form is the access settings form payload.
type form struct {
	LDAPEnabled        bool   `form:"ldap_enabled"`
	LDAPHost           string `form:"ldap_host"            validate:"required_if=LDAPEnabled true"`
	LDAPPort           int    `form:"ldap_port"            validate:"omitempty,min=1,max=65535"`
	LDAPEncryption     string `form:"ldap_encryption"      validate:"omitempty,oneof=tls ssl"`
	LDAPBaseDN         string `form:"ldap_base_dn"         validate:"required_if=LDAPEnabled true"`
	LDAPSearchDN       string `form:"ldap_search_dn"`
	LDAPSearchPassword string `form:"ldap_search_password"`
	LDAPUIDKey         string `form:"ldap_uid_key"`
}

// maintenanceForm is the maintenance toggle payload.
type maintenanceForm struct {
	Enabled bool   `form:"enabled"`
	Message string `form:"message"`
}

// Service is the access settings handler service.
type Service struct {
	cfg       *config.Config
	settings  *settings.Service
	newClient directory.Factory
	validator *validator.Validate
}

// Handler is the access settings handler.
var Handler = Service{}

// Init initializes the access settings handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, settingsSvc *settings.Service, newClient directory.Factory) {
	if app == nil || cfg == nil || settingsSvc == nil || newClient == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.settings = settingsSvc
	s.newClient = newClient
	s.validator = validator.New()

	requireAdmin := handler.Require(perm.Permissions.IsAdmin)

	app.Get(Path, requireAdmin, s.Get)
	app.Post(Path, requireAdmin, s.Post)
	app.Post(TestPath, requireAdmin, s.Test)
	app.Post(MaintenancePath, requireAdmin, s.Maintenance)
}

// Get handles the access settings page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	row, err := s.settings.CurrentRow()
	if err != nil {
		log.Error().Err(err).Msg("failed to load runtime settings")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load settings")
	}

	if row == nil {
		// fresh database: the form starts from the fail-open defaults
		row = &models.RuntimeSettings{}
	}

	return s.render(c, row, "")
}

// Post handles the access settings form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	payload := new(form)

	if err := c.BodyParser(payload); err != nil {
		log.Error().Err(err).Msg("failed to parse access settings form")
		return fiber.NewError(fiber.StatusBadRequest, "invalid form data")
	}

	if err := s.validator.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		errors.As(err, &validationErrors)

		messages := make([]string, len(validationErrors))
		for i, ve := range validationErrors {
			messages[i] = "Field '" + ve.Field() + "' failed validation tag '" + ve.Tag() + "'"
		}

		log.Warn().Err(err).Msg("validation failed for access settings")

		return fiber.NewError(fiber.StatusBadRequest, strings.Join(messages, "; "))
	}

	row, err := s.settings.CurrentRow()
	if err != nil {
		log.Error().Err(err).Msg("failed to load runtime settings")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load settings")
	}

	if row == nil {
		row = &models.RuntimeSettings{}
	}

	row.LDAPEnabled = payload.LDAPEnabled
	row.LDAPHost = payload.LDAPHost
	row.LDAPPort = payload.LDAPPort
	row.LDAPEncryption = payload.LDAPEncryption
	row.LDAPBaseDN = payload.LDAPBaseDN
	row.LDAPSearchDN = payload.LDAPSearchDN
	row.LDAPUIDKey = payload.LDAPUIDKey

	// an empty password keeps the stored one, so the form never has to
	// echo the secret back
	if payload.LDAPSearchPassword != "" {
		row.LDAPSearchPassword = payload.LDAPSearchPassword
	}

	if err = s.settings.Update(*row); err != nil {
		log.Error().Err(err).Msg("failed to save access settings")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
	}

	identity, _ := handler.CurrentIdentity(c)
	log.Info().
		Str("changed_by", identity.Username).
		Bool("ldap_enabled", row.LDAPEnabled).
		Msg("access settings saved")

	return s.render(c, row, "Settings saved")
}

// Test verifies the effective directory connection with the stored
// configuration. It never touches user credentials.
func (s *Service) Test(c *fiber.Ctx) error {
	client := s.newClient(s.settings.Directory())

	if err := client.TestConnection(); err != nil {
		log.Warn().Err(err).Msg("directory connection test failed")

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"status": "error",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// Maintenance toggles maintenance mode.
func (s *Service) Maintenance(c *fiber.Ctx) error {
	payload := new(maintenanceForm)

	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form data")
	}

	if err := s.settings.SetMaintenance(payload.Enabled, payload.Message); err != nil {
		log.Error().Err(err).Msg("failed to toggle maintenance mode")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
	}

	identity, _ := handler.CurrentIdentity(c)
	log.Info().
		Str("changed_by", identity.Username).
		Bool("enabled", payload.Enabled).
		Msg("maintenance mode toggled")

	return c.Redirect(Path)
}

func (s *Service) render(c *fiber.Ctx, row *models.RuntimeSettings, notice string) error {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n")
	fmt.Fprintf(&b, "<head><meta charset=\"utf-8\"><title>%s - Settings</title></head>\n<body>\n",
		html.EscapeString(s.cfg.Title))
	b.WriteString("<h1>Access settings</h1>\n")

	if notice != "" {
		fmt.Fprintf(&b, "<p class=\"notice\">%s</p>\n", html.EscapeString(notice))
	}

	checked := func(v bool) string {
		if v {
			return " checked"
		}
		return ""
	}

	fmt.Fprintf(&b, "<form method=\"post\" action=\"%s\">\n", Path)
	fmt.Fprintf(&b, "<label>Enable directory login <input type=\"checkbox\" name=\"ldap_enabled\" value=\"true\"%s></label>\n", checked(row.LDAPEnabled))
	fmt.Fprintf(&b, "<label>Host <input type=\"text\" name=\"ldap_host\" value=\"%s\"></label>\n", html.EscapeString(row.LDAPHost))
	fmt.Fprintf(&b, "<label>Port <input type=\"number\" name=\"ldap_port\" value=\"%d\"></label>\n", row.LDAPPort)
	fmt.Fprintf(&b, "<label>Encryption <input type=\"text\" name=\"ldap_encryption\" value=\"%s\"></label>\n", html.EscapeString(row.LDAPEncryption))
	fmt.Fprintf(&b, "<label>Base DN <input type=\"text\" name=\"ldap_base_dn\" value=\"%s\"></label>\n", html.EscapeString(row.LDAPBaseDN))
	fmt.Fprintf(&b, "<label>Search DN <input type=\"text\" name=\"ldap_search_dn\" value=\"%s\"></label>\n", html.EscapeString(row.LDAPSearchDN))
	b.WriteString("<label>Search password <input type=\"password\" name=\"ldap_search_password\" placeholder=\"unchanged\"></label>\n")
	fmt.Fprintf(&b, "<label>UID attribute <input type=\"text\" name=\"ldap_uid_key\" value=\"%s\"></label>\n", html.EscapeString(row.LDAPUIDKey))
	b.WriteString("<button type=\"submit\">Save</button>\n</form>\n")

	fmt.Fprintf(&b, "<form method=\"post\" action=\"%s\"><button type=\"submit\">Test directory connection</button></form>\n", TestPath)

	fmt.Fprintf(&b, "<h2>Maintenance</h2>\n<form method=\"post\" action=\"%s\">\n", MaintenancePath)
	fmt.Fprintf(&b, "<label>Enabled <input type=\"checkbox\" name=\"enabled\" value=\"true\"%s></label>\n", checked(row.MaintenanceMode))
	fmt.Fprintf(&b, "<label>Message <input type=\"text\" name=\"message\" value=\"%s\"></label>\n", html.EscapeString(row.MaintenanceMessage))
	b.WriteString("<button type=\"submit\">Apply</button>\n</form>\n</body>\n</html>")

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.SendString(b.String())
}
