// Package directory wraps the remote LDAP directory used to verify
// credentials. Verification is a strict two-step bind: a service bind
// locates exactly one candidate entry by the configured uid attribute, then
// the connection re-binds with the found DN and the user supplied password.
// Only success of the second bind proves the credentials.
package directory

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// Encryption modes accepted in Config.Encryption.
const (
	EncryptionNone     = ""
	EncryptionStartTLS = "tls"
	EncryptionSSL      = "ssl"
)

// Config holds the effective directory connection parameters for one
// authentication attempt. It is assembled per request by the settings
// service from the runtime settings row and the bootstrap fallback.
type Config struct {
	Host           string
	Port           int
	Encryption     string // "", "tls" or "ssl"
	BaseDN         string
	SearchDN       string // service account DN, may be empty for anonymous search
	SearchPassword string
	UIDKey         string // attribute compared against the login identifier
	Timeout        int    // seconds, bounds every directory operation
	SkipVerify     bool   // skip TLS certificate verification, testing only
}

// Record is the transient projection of one directory entry. It lives for
// the duration of an authentication attempt and is never stored verbatim.
type Record struct {
	DN          string
	Username    string
	DisplayName string
	Email       string
	Attributes  map[string][]string
}

// Client is the directory operations surface the resolver and the CLI
// depend on. Tests substitute stubs for it.
type Client interface {
	// VerifyCredentials runs the two-step bind and returns the matched
	// record. Fails with ErrConnect, ErrAmbiguousOrNotFound,
	// ErrBadCredentials or ErrEmptyPassword.
	VerifyCredentials(username, password string) (*Record, error)
	// FindUser locates a user entry with the service account only, without
	// verifying any password. Used by whitelist administration.
	FindUser(username string) (*Record, error)
	// TestConnection dials and binds the service account.
	TestConnection() error
}

// ldapConn is the part of *ldap.Conn the client uses. Tests substitute a
// fake connection through the dial hook.
type ldapConn interface {
	Bind(username, password string) error
	Search(searchRequest *ldap.SearchRequest) (*ldap.SearchResult, error)
	StartTLS(config *tls.Config) error
	SetTimeout(timeout time.Duration)
	Close() error
}

// LDAPClient implements Client over go-ldap.
type LDAPClient struct {
	cfg  Config
	dial func() (ldapConn, error)
}

// Factory builds a Client for the effective configuration of one request.
type Factory func(cfg Config) Client

// New creates an LDAP client for the given configuration.
func New(cfg Config) *LDAPClient {
	if cfg.UIDKey == "" {
		cfg.UIDKey = "uid"
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 10
	}

	return &LDAPClient{cfg: cfg}
}

// NewClient is the Factory for real LDAP connections.
func NewClient(cfg Config) Client { return New(cfg) }

// connect dials the directory and upgrades to TLS when configured.
func (c *LDAPClient) connect() (ldapConn, error) {
	if c.dial != nil {
		return c.dial()
	}

	if c.cfg.Host == "" {
		return nil, ErrNotConfigured
	}

	hostPort := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	ldapURL := "ldap://" + hostPort
	if c.cfg.Encryption == EncryptionSSL {
		ldapURL = "ldaps://" + hostPort
	}

	var tlsConfig *tls.Config
	if c.cfg.Encryption != EncryptionNone {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: c.cfg.SkipVerify, //nolint:gosec // explicit test-only escape hatch
			ServerName:         c.cfg.Host,
		}
	}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if c.cfg.Encryption == EncryptionStartTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			closeConn(conn)

			return nil, fmt.Errorf("%w: failed to start TLS: %v", ErrConnect, errStartTLS)
		}
	}

	conn.SetTimeout(time.Duration(c.cfg.Timeout) * time.Second)

	return conn, nil
}

// bindService binds with the configured service account, or leaves the
// connection anonymous when none is configured.
func (c *LDAPClient) bindService(conn ldapConn) error {
	if c.cfg.SearchDN == "" {
		return nil
	}

	if err := conn.Bind(c.cfg.SearchDN, c.cfg.SearchPassword); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return fmt.Errorf("%w: service account bind failed", ErrBadCredentials)
		}

		return fmt.Errorf("%w: %v", ErrConnect, err)
	}

	return nil
}

// searchUser finds the single entry whose uid attribute matches username.
// The username is escaped before it reaches the search filter.
func (c *LDAPClient) searchUser(conn ldapConn, username string) (*Record, error) {
	filter := fmt.Sprintf("(%s=%s)", c.cfg.UIDKey, ldap.EscapeFilter(username))

	searchRequest := ldap.NewSearchRequest(
		c.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, // size limit
		c.cfg.Timeout,
		false,
		filter,
		[]string{c.cfg.UIDKey, "cn", "displayName", "mail", "dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if len(searchResult.Entries) != 1 {
		log.Debug().
			Str("uid", username).
			Int("matches", len(searchResult.Entries)).
			Msg("directory search did not match exactly one entry")

		return nil, ErrAmbiguousOrNotFound
	}

	return recordFromEntry(searchResult.Entries[0], c.cfg.UIDKey), nil
}

func recordFromEntry(entry *ldap.Entry, uidKey string) *Record {
	attrs := make(map[string][]string, len(entry.Attributes))
	for _, a := range entry.Attributes {
		attrs[a.Name] = a.Values
	}

	displayName := entry.GetAttributeValue("displayName")
	if displayName == "" {
		displayName = entry.GetAttributeValue("cn")
	}

	return &Record{
		DN:          entry.DN,
		Username:    entry.GetAttributeValue(uidKey),
		DisplayName: displayName,
		Email:       entry.GetAttributeValue("mail"),
		Attributes:  attrs,
	}
}

// VerifyCredentials implements the two-step bind.
func (c *LDAPClient) VerifyCredentials(username, password string) (*Record, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	conn, err := c.connect()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	if err = c.bindService(conn); err != nil {
		return nil, err
	}

	record, err := c.searchUser(conn, username)
	if err != nil {
		return nil, err
	}

	// step two: bind with the found DN and the user supplied password
	if err = conn.Bind(record.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrBadCredentials
		}

		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	return record, nil
}

// FindUser locates a user with the service account, without any credential
// verification.
func (c *LDAPClient) FindUser(username string) (*Record, error) {
	conn, err := c.connect()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	if err = c.bindService(conn); err != nil {
		return nil, err
	}

	return c.searchUser(conn, username)
}

// TestConnection dials and binds the service account.
func (c *LDAPClient) TestConnection() error {
	conn, err := c.connect()
	if err != nil {
		return err
	}

	defer closeConn(conn)

	return c.bindService(conn)
}

func closeConn(conn ldapConn) {
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close directory connection")
	}
}
