package identity

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/directory"
	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
	"github.com/GoParcAdmin/GoParcAdmin/internal/settings"
	"github.com/GoParcAdmin/GoParcAdmin/internal/whitelist"
)

// stubDirectory implements directory.Client for resolver tests.
type stubDirectory struct {
	record      *directory.Record
	err         error
	verifyCalls int
	lastUser    string
	lastPass    string
}

func (s *stubDirectory) VerifyCredentials(username, password string) (*directory.Record, error) {
	s.verifyCalls++
	s.lastUser = username
	s.lastPass = password

	if s.err != nil {
		return nil, s.err
	}

	return s.record, nil
}

func (s *stubDirectory) FindUser(string) (*directory.Record, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.record, nil
}

func (s *stubDirectory) TestConnection() error { return s.err }

type fixture struct {
	db        *gorm.DB
	settings  *settings.Service
	whitelist *whitelist.Service
	resolver  *Resolver
	dir       *stubDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(
		&models.Identity{},
		&models.WhitelistEntry{},
		&models.RuntimeSettings{},
	))

	f := &fixture{
		db:        db,
		settings:  settings.NewService(db, config.Directory{}),
		whitelist: whitelist.NewService(db),
		dir:       &stubDirectory{},
	}

	f.resolver = NewResolver(db, f.settings, f.whitelist,
		func(directory.Config) directory.Client { return f.dir }, "admin")

	return f
}

func (f *fixture) seedAdmin(t *testing.T, password string) *models.Identity {
	t.Helper()

	admin := models.Identity{
		Username: "admin",
		Password: models.HashPassword(password),
		Source:   models.SourceBuiltin,
		Roles:    models.RoleList{perm.TagAdmin},
	}
	require.NoError(t, f.db.Create(&admin).Error)

	return &admin
}

func (f *fixture) setSettings(t *testing.T, row models.RuntimeSettings) {
	t.Helper()
	require.NoError(t, f.settings.Update(row))
}

func TestResolveAdminIndependentOfRuntimeState(t *testing.T) {
	testCases := []struct {
		name string
		row  models.RuntimeSettings
	}{
		{name: "defaults", row: models.RuntimeSettings{}},
		{name: "maintenance", row: models.RuntimeSettings{MaintenanceMode: true}},
		{name: "ldap enabled", row: models.RuntimeSettings{LDAPEnabled: true}},
		{name: "both", row: models.RuntimeSettings{LDAPEnabled: true, MaintenanceMode: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedAdmin(t, "changeme")
			f.setSettings(t, tc.row)

			got, err := f.resolver.Resolve("admin", "changeme")
			require.NoError(t, err)
			assert.Equal(t, models.SourceBuiltin, got.Source)
			assert.True(t, got.Permissions().IsAdmin())
			assert.NotNil(t, got.LastLoginAt)
			assert.Zero(t, f.dir.verifyCalls, "admin login never touches the directory")
		})
	}
}

func TestResolveAdminWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(t, "changeme")

	_, err := f.resolver.Resolve("admin", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestMaintenanceLocksOutEveryoneElse(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(t, "changeme")
	f.setSettings(t, models.RuntimeSettings{LDAPEnabled: true, MaintenanceMode: true})

	_, err := f.resolver.Resolve("jdupont", "pw")
	assert.ErrorIs(t, err, ErrMaintenanceLockout)
	assert.Zero(t, f.dir.verifyCalls, "maintenance short-circuits before the directory")
}

func TestResolveDirectoryNotWhitelisted(t *testing.T) {
	f := newFixture(t)
	f.setSettings(t, models.RuntimeSettings{LDAPEnabled: true})
	f.dir.record = &directory.Record{
		DN:          "uid=jdupont,ou=people,dc=example",
		Username:    "jdupont",
		DisplayName: "Jean Dupont",
		Email:       "jdupont@example.org",
	}

	// valid credentials, no whitelist entry: deliberate rejection
	_, err := f.resolver.Resolve("jdupont", "pw")
	assert.ErrorIs(t, err, ErrNotWhitelisted)
	assert.NotErrorIs(t, err, ErrBadCredentials)

	var count int64
	require.NoError(t, f.db.Model(&models.Identity{}).Count(&count).Error)
	assert.Zero(t, count, "no shadow identity for rejected logins")
}

func TestResolveDirectoryWhitelistedCreatesIdentity(t *testing.T) {
	f := newFixture(t)
	f.setSettings(t, models.RuntimeSettings{LDAPEnabled: true})
	f.dir.record = &directory.Record{
		DN:          "uid=jdupont,ou=people,dc=example",
		Username:    "jdupont",
		DisplayName: "Jean Dupont",
		Email:       "jdupont@example.org",
	}

	_, err := f.whitelist.Add("jdupont", "", "", nil)
	require.NoError(t, err)

	got, err := f.resolver.Resolve("JDupont", "pw")
	require.NoError(t, err)

	assert.Equal(t, "jdupont", got.Username, "identifier is normalized")
	assert.Equal(t, "jdupont", f.dir.lastUser, "directory sees the normalized identifier")
	assert.Equal(t, "Jean Dupont", got.DisplayName)
	assert.Equal(t, "jdupont@example.org", got.Email)
	assert.Equal(t, models.SourceDirectory, got.Source)
	assert.True(t, got.Permissions().CanModify())
	assert.False(t, got.Permissions().IsAdmin())
	assert.NotNil(t, got.LastLoginAt)
}

func TestResolveDirectoryDoesNotOverwriteEditedFields(t *testing.T) {
	f := newFixture(t)
	f.setSettings(t, models.RuntimeSettings{LDAPEnabled: true})
	f.dir.record = &directory.Record{
		DN:          "uid=jdupont,ou=people,dc=example",
		Username:    "jdupont",
		DisplayName: "Jean Dupont",
		Email:       "jdupont@example.org",
	}

	_, err := f.whitelist.Add("jdupont", "", "", nil)
	require.NoError(t, err)

	first, err := f.resolver.Resolve("jdupont", "pw")
	require.NoError(t, err)

	// an operator edits the display name and clears the email locally
	require.NoError(t, f.db.Model(&models.Identity{}).
		Where("id = ?", first.ID).
		Updates(map[string]interface{}{"display_name": "J. Dupont (DSI)", "email": ""}).Error)

	second, err := f.resolver.Resolve("jdupont", "pw")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "J. Dupont (DSI)", second.DisplayName, "edited field kept")
	assert.Equal(t, "jdupont@example.org", second.Email, "blank field refilled from directory")
}

func TestResolveDirectoryErrorMapping(t *testing.T) {
	testCases := []struct {
		name    string
		dirErr  error
		wantErr error
	}{
		{name: "unreachable", dirErr: directory.ErrConnect, wantErr: ErrDirectoryUnavailable},
		{name: "not configured", dirErr: directory.ErrNotConfigured, wantErr: ErrDirectoryUnavailable},
		{name: "zero or multiple matches", dirErr: directory.ErrAmbiguousOrNotFound, wantErr: ErrBadCredentials},
		{name: "wrong password", dirErr: directory.ErrBadCredentials, wantErr: ErrBadCredentials},
		{name: "empty password", dirErr: directory.ErrEmptyPassword, wantErr: ErrBadCredentials},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.setSettings(t, models.RuntimeSettings{LDAPEnabled: true})
			f.dir.err = tc.dirErr

			_, err := f.resolver.Resolve("jdupont", "pw")
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestResolveAnonymousWhenDirectoryDisabled(t *testing.T) {
	f := newFixture(t)

	// no settings row at all: the documented fail-open default
	first, err := f.resolver.Resolve("whoever", "whatever")
	require.NoError(t, err)

	assert.Equal(t, models.AnonymousUsername, first.Username)
	assert.Equal(t, models.SourceAnonymous, first.Source)
	assert.True(t, first.Permissions().IsAdmin())
	assert.True(t, first.Permissions().CanModify())
	assert.Zero(t, f.dir.verifyCalls)

	// idempotent: same synthetic identity every time
	second, err := f.resolver.ResolveAnonymous()
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Roles, second.Roles)
}
