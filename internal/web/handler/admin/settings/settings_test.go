package settings

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/directory"
	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
	settingssvc "github.com/GoParcAdmin/GoParcAdmin/internal/settings"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler"
)

type stubDirectory struct {
	err error
}

func (s stubDirectory) VerifyCredentials(string, string) (*directory.Record, error) {
	return nil, s.err
}

func (s stubDirectory) FindUser(string) (*directory.Record, error) { return nil, s.err }

func (s stubDirectory) TestConnection() error { return s.err }

type env struct {
	app      *fiber.App
	settings *settingssvc.Service
	dir      *stubDirectory
}

func setup(t *testing.T, tags ...perm.Tag) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(&models.RuntimeSettings{}))

	e := &env{
		app:      fiber.New(),
		settings: settingssvc.NewService(db, config.Directory{}),
		dir:      &stubDirectory{},
	}

	// stand in for the access gate
	e.app.Use(func(c *fiber.Ctx) error {
		handler.Attach(c, models.Identity{
			ID:       1,
			Username: "admin",
			Source:   models.SourceBuiltin,
			Roles:    models.RoleList(tags),
		})

		return c.Next()
	})

	Handler.Init(e.app, &config.Config{Title: "GoParcAdmin"}, e.settings,
		func(directory.Config) directory.Client { return e.dir })

	return e
}

func (e *env) request(t *testing.T, method, target string, form url.Values) *http.Response {
	t.Helper()

	var reader io.Reader
	if form != nil {
		reader = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, target, reader)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestGetRequiresAdmin(t *testing.T) {
	e := setup(t, perm.TagModifier)

	resp := e.request(t, http.MethodGet, Path, nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetRendersEmptyFormOnFreshDatabase(t *testing.T) {
	e := setup(t, perm.TagAdmin)

	resp := e.request(t, http.MethodGet, Path, nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "ldap_host")
}

func TestPostSavesSettings(t *testing.T) {
	e := setup(t, perm.TagAdmin)

	form := url.Values{
		"ldap_enabled":         {"true"},
		"ldap_host":            {"ldap.ville.example"},
		"ldap_port":            {"636"},
		"ldap_encryption":      {"ssl"},
		"ldap_base_dn":         {"ou=people,dc=ville,dc=example"},
		"ldap_search_dn":       {"cn=reader,dc=ville,dc=example"},
		"ldap_search_password": {"hunter2"},
		"ldap_uid_key":         {"uid"},
	}

	resp := e.request(t, http.MethodPost, Path, form)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	current := e.settings.Current()
	assert.True(t, current.LDAPEnabled)
	assert.Equal(t, "ldap.ville.example", current.LDAPHost)
	assert.Equal(t, 636, current.LDAPPort)
	assert.Equal(t, "hunter2", current.LDAPSearchPassword)
}

func TestPostEmptyPasswordKeepsStoredOne(t *testing.T) {
	e := setup(t, perm.TagAdmin)

	require.NoError(t, e.settings.Update(models.RuntimeSettings{
		LDAPSearchPassword: "hunter2",
	}))

	form := url.Values{
		"ldap_enabled": {"true"},
		"ldap_host":    {"ldap.ville.example"},
		"ldap_base_dn": {"ou=people,dc=ville,dc=example"},
	}

	resp := e.request(t, http.MethodPost, Path, form)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hunter2", e.settings.Current().LDAPSearchPassword)
}

func TestPostValidation(t *testing.T) {
	e := setup(t, perm.TagAdmin)

	// enabling the directory without a host must fail
	form := url.Values{
		"ldap_enabled": {"true"},
	}

	resp := e.request(t, http.MethodPost, Path, form)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTestConnection(t *testing.T) {
	e := setup(t, perm.TagAdmin)

	resp := e.request(t, http.MethodPost, TestPath, url.Values{})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	e.dir.err = directory.ErrConnect

	resp = e.request(t, http.MethodPost, TestPath, url.Values{})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestMaintenanceToggle(t *testing.T) {
	e := setup(t, perm.TagAdmin)

	form := url.Values{
		"enabled": {"true"},
		"message": {"back at noon"},
	}

	resp := e.request(t, http.MethodPost, MaintenancePath, form)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusFound, resp.StatusCode)

	current := e.settings.Current()
	assert.True(t, current.MaintenanceMode)
	assert.Equal(t, "back at noon", current.MaintenanceMessage)
}
