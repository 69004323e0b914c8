package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "main.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

const minimalConfig = `
[webserver]
url = "http://localhost"
port = 9090

[admin]
username = "admin"
password = "changeme"
`

func TestReadConfigMinimal(t *testing.T) {
	path := writeTempConfig(t, minimalConfig)

	c, err := ReadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Webserver.Port)
	assert.Equal(t, "http://localhost", c.Webserver.URL)
	assert.Equal(t, "admin", c.Admin.Username)

	// defaults
	assert.Equal(t, "sqlite", c.DB.GormEngine)
	assert.Equal(t, 389, c.Directory.Port)
	assert.Equal(t, "uid", c.Directory.UIDKey)
	assert.Equal(t, 10, c.Directory.TimeoutSeconds)
	assert.Equal(t, 5, c.Webserver.ShutDownTime)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestReadConfigValidation(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "missing url",
			content: `
[webserver]
port = 8080
`,
			wantErr: ErrEmptyURL,
		},
		{
			name: "zero port",
			content: `
[webserver]
url = "http://localhost"
port = 0
`,
			wantErr: ErrWebServerPortCanNotBeZero,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempConfig(t, tc.content)

			_, err := ReadConfig(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestReadConfigEnvOverride(t *testing.T) {
	path := writeTempConfig(t, minimalConfig+`
[directory]
host = "ldap.file.example"
`)

	t.Setenv("PARCADMIN_DIRECTORY_HOST", "ldap.env.example")
	t.Setenv("PARCADMIN_DIRECTORY_SEARCHPASSWORD", "s3cret")

	c, err := ReadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ldap.env.example", c.Directory.Host)
	assert.Equal(t, "s3cret", c.Directory.SearchPassword)
}
