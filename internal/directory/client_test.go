package directory

import (
	"crypto/tls"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records every bind so tests can pin the two-step sequencing.
type fakeConn struct {
	entries []*ldap.Entry
	binds   []string
}

func (f *fakeConn) Bind(dn, _ string) error {
	f.binds = append(f.binds, dn)
	return nil
}

func (f *fakeConn) Search(*ldap.SearchRequest) (*ldap.SearchResult, error) {
	return &ldap.SearchResult{Entries: f.entries}, nil
}

func (f *fakeConn) StartTLS(*tls.Config) error { return nil }

func (f *fakeConn) SetTimeout(time.Duration) {}

func (f *fakeConn) Close() error { return nil }

func fakeClient(conn *fakeConn) *LDAPClient {
	c := New(Config{Host: "ldap.example", SearchDN: "cn=service,dc=example"})
	c.dial = func() (ldapConn, error) { return conn, nil }

	return c
}

func peopleEntry(uid string) *ldap.Entry {
	return ldap.NewEntry("uid="+uid+",ou=people,dc=example", map[string][]string{
		"uid": {uid},
	})
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(Config{Host: "ldap.example"})

	assert.Equal(t, "uid", c.cfg.UIDKey)
	assert.Equal(t, 10, c.cfg.Timeout)
}

func TestVerifyCredentialsRefusesEmptyPassword(t *testing.T) {
	c := New(Config{Host: "ldap.example"})

	_, err := c.VerifyCredentials("jdupont", "")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerifyCredentialsRequiresHost(t *testing.T) {
	c := New(Config{})

	_, err := c.VerifyCredentials("jdupont", "pw")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.FindUser("jdupont")
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.ErrorIs(t, c.TestConnection(), ErrNotConfigured)
}

func TestVerifyCredentialsBindsFoundDN(t *testing.T) {
	conn := &fakeConn{entries: []*ldap.Entry{peopleEntry("jdupont")}}
	c := fakeClient(conn)

	rec, err := c.VerifyCredentials("jdupont", "pw")
	require.NoError(t, err)

	assert.Equal(t, "uid=jdupont,ou=people,dc=example", rec.DN)
	assert.Equal(t, []string{"cn=service,dc=example", "uid=jdupont,ou=people,dc=example"}, conn.binds,
		"service bind, then exactly one bind with the found DN")
}

func TestVerifyCredentialsNeverBindsWithoutSingleMatch(t *testing.T) {
	tests := []struct {
		name    string
		entries []*ldap.Entry
	}{
		{name: "no match", entries: nil},
		{name: "multiple matches", entries: []*ldap.Entry{peopleEntry("jdupont"), peopleEntry("jdupont2")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{entries: tt.entries}
			c := fakeClient(conn)

			_, err := c.VerifyCredentials("jdupont", "pw")
			assert.ErrorIs(t, err, ErrAmbiguousOrNotFound)

			// only the service bind may have happened; the user supplied
			// password must never reach a second bind
			assert.Equal(t, []string{"cn=service,dc=example"}, conn.binds)
		})
	}
}

func TestRecordFromEntry(t *testing.T) {
	entry := ldap.NewEntry("uid=jdupont,ou=people,dc=example", map[string][]string{
		"uid":  {"jdupont"},
		"cn":   {"Jean Dupont"},
		"mail": {"jdupont@example.org"},
	})

	rec := recordFromEntry(entry, "uid")

	assert.Equal(t, "uid=jdupont,ou=people,dc=example", rec.DN)
	assert.Equal(t, "jdupont", rec.Username)
	assert.Equal(t, "Jean Dupont", rec.DisplayName, "cn is the displayName fallback")
	assert.Equal(t, "jdupont@example.org", rec.Email)
	assert.Equal(t, []string{"jdupont"}, rec.Attributes["uid"])
}

func TestRecordFromEntryPrefersDisplayName(t *testing.T) {
	entry := ldap.NewEntry("uid=jdupont,ou=people,dc=example", map[string][]string{
		"uid":         {"jdupont"},
		"cn":          {"jdupont account"},
		"displayName": {"Jean Dupont"},
	})

	rec := recordFromEntry(entry, "uid")
	assert.Equal(t, "Jean Dupont", rec.DisplayName)
}
