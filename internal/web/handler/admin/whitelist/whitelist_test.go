package whitelist

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
	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler"
	whitelistsvc "github.com/GoParcAdmin/GoParcAdmin/internal/whitelist"
)

type env struct {
	app       *fiber.App
	db        *gorm.DB
	whitelist *whitelistsvc.Service
}

func setup(t *testing.T, tags ...perm.Tag) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(&models.Identity{}, &models.WhitelistEntry{}))

	admin := models.Identity{Username: "admin", Source: models.SourceBuiltin}
	require.NoError(t, db.Create(&admin).Error)

	e := &env{
		app:       fiber.New(),
		db:        db,
		whitelist: whitelistsvc.NewService(db),
	}

	// stand in for the access gate
	e.app.Use(func(c *fiber.Ctx) error {
		admin.Roles = models.RoleList(tags)
		handler.Attach(c, admin)

		return c.Next()
	})

	Handler.Init(e.app, &config.Config{Title: "GoParcAdmin"}, e.whitelist)

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

func TestListRequiresUserManagement(t *testing.T) {
	e := setup(t, perm.TagModifier)

	resp := e.request(t, http.MethodGet, Path, nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAddAndList(t *testing.T) {
	e := setup(t, perm.TagAdmin)

	form := url.Values{
		"username":     {"JDupont"},
		"display_name": {"Jean Dupont"},
		"email":        {"jdupont@example.org"},
	}

	resp := e.request(t, http.MethodPost, Path, form)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusFound, resp.StatusCode)

	// the creator is recorded
	var entry models.WhitelistEntry
	require.NoError(t, e.db.Where("username = ?", "jdupont").First(&entry).Error)
	require.NotNil(t, entry.CreatedByID)

	listResp := e.request(t, http.MethodGet, Path, nil)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)

	b, err := io.ReadAll(listResp.Body)
	require.NoError(t, err)
	_ = listResp.Body.Close()

	assert.Contains(t, string(b), "jdupont")
	assert.Contains(t, string(b), "Jean Dupont")
}

func TestAddRejectsInvalidEmail(t *testing.T) {
	e := setup(t, perm.TagAdmin)

	form := url.Values{
		"username": {"jdupont"},
		"email":    {"not-an-email"},
	}

	resp := e.request(t, http.MethodPost, Path, form)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDisableActivateDelete(t *testing.T) {
	e := setup(t, perm.TagAdmin)

	_, err := e.whitelist.Add("jdupont", "", "", nil)
	require.NoError(t, err)

	resp := e.request(t, http.MethodPost, Path+"/jdupont/disable", url.Values{})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	ok, err := e.whitelist.IsAuthorized("jdupont")
	require.NoError(t, err)
	assert.False(t, ok)

	resp = e.request(t, http.MethodPost, Path+"/jdupont/activate", url.Values{})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	ok, err = e.whitelist.IsAuthorized("jdupont")
	require.NoError(t, err)
	assert.True(t, ok)

	resp = e.request(t, http.MethodPost, Path+"/jdupont/delete", url.Values{})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	all, err := e.whitelist.ListAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestActionsOnMissingEntry(t *testing.T) {
	e := setup(t, perm.TagAdmin)

	resp := e.request(t, http.MethodPost, Path+"/ghost/disable", url.Values{})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
