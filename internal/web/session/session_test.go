package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/perm"
)

func TestWriteReadRoundTrip(t *testing.T) {
	Init(nil)

	sessionID, err := GenerateSessionID()
	require.NoError(t, err)

	in := Data{Identity: models.Identity{
		ID:       1,
		Username: "admin",
		Source:   models.SourceBuiltin,
		Roles:    models.RoleList{perm.TagAdmin},
	}}
	require.NoError(t, in.Write(sessionID, time.Minute))

	var out Data
	require.NoError(t, out.Read(sessionID))
	assert.Equal(t, in.Identity.Username, out.Identity.Username)
	assert.Equal(t, in.Identity.Roles, out.Identity.Roles)

	require.NoError(t, Destroy(sessionID))
	assert.Error(t, out.Read(sessionID))
}

func TestStoredPayloadOmitsPasswordHash(t *testing.T) {
	Init(nil)

	sessionID, err := GenerateSessionID()
	require.NoError(t, err)

	data := Data{Identity: models.Identity{
		ID:       1,
		Username: "admin",
		Password: "$argon2id$v=19$m=65536,t=1,p=2$not-a-real-hash",
		Source:   models.SourceBuiltin,
	}}
	require.NoError(t, data.Write(sessionID, time.Minute))

	raw, err := Store.Storage.Get(sessionID)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "$argon2id$", "password hash must never reach the session backend")

	var out Data
	require.NoError(t, out.Read(sessionID))
	assert.Empty(t, out.Identity.Password)
}

func TestGenerateSessionIDIsUnique(t *testing.T) {
	first, err := GenerateSessionID()
	require.NoError(t, err)

	second, err := GenerateSessionID()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}
