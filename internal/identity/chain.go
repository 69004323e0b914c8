package identity

import (
	"github.com/rs/zerolog/log"

	"github.com/GoParcAdmin/GoParcAdmin/internal/db/models"
	"github.com/GoParcAdmin/GoParcAdmin/internal/settings"
	"github.com/GoParcAdmin/GoParcAdmin/internal/whitelist"
)

// Authenticator is one credential verification strategy. Supports decides,
// from the runtime settings snapshot and the submitted identifier, whether
// this strategy applies to the login attempt; only a supporting strategy is
// asked to authenticate.
type Authenticator interface {
	Name() string
	Supports(current models.RuntimeSettings, username string) bool
	Authenticate(username, password string) (*models.Identity, error)
}

// Chain walks an ordered set of authenticators; the first supporting
// strategy decides the attempt. The order is fixed at construction: admin
// form first, then directory credentials, then the anonymous bypass.
type Chain struct {
	settings       *settings.Service
	authenticators []Authenticator
}

// NewChain builds the authentication chain for the resolver.
func NewChain(settingsSvc *settings.Service, resolver *Resolver) *Chain {
	return &Chain{
		settings: settingsSvc,
		authenticators: []Authenticator{
			&adminAuthenticator{resolver: resolver},
			&directoryAuthenticator{resolver: resolver},
			&anonymousAuthenticator{resolver: resolver},
		},
	}
}

// Authenticate runs the first supporting authenticator for the submitted
// credentials. When none supports the attempt the failure depends on the
// runtime state: a maintenance lockout for non-admins during maintenance,
// a generic credential failure otherwise.
func (c *Chain) Authenticate(username, password string) (*models.Identity, error) {
	current := c.settings.Current()
	username = whitelist.Normalize(username)

	for _, a := range c.authenticators {
		if !a.Supports(current, username) {
			continue
		}

		identity, err := a.Authenticate(username, password)
		if err != nil {
			return nil, err
		}

		log.Info().
			Str("authenticator", a.Name()).
			Str("username", identity.Username).
			Msg("authentication succeeded")

		return identity, nil
	}

	if current.MaintenanceMode {
		log.Info().Str("username", username).Msg("login refused, maintenance lockout")
		return nil, ErrMaintenanceLockout
	}

	return nil, ErrNoAuthenticator
}

// adminAuthenticator handles the reserved administrator form login. It
// supports the attempt in every runtime state, including maintenance.
type adminAuthenticator struct {
	resolver *Resolver
}

func (a *adminAuthenticator) Name() string { return "admin-form" }

func (a *adminAuthenticator) Supports(_ models.RuntimeSettings, username string) bool {
	return username == a.resolver.AdminUsername()
}

func (a *adminAuthenticator) Authenticate(username, password string) (*models.Identity, error) {
	return a.resolver.ResolveAdmin(username, password)
}

// directoryAuthenticator handles directory credential logins. Unreachable
// during maintenance and while the directory is disabled.
type directoryAuthenticator struct {
	resolver *Resolver
}

func (a *directoryAuthenticator) Name() string { return "directory-credential" }

func (a *directoryAuthenticator) Supports(current models.RuntimeSettings, username string) bool {
	return current.LDAPEnabled && !current.MaintenanceMode && username != ""
}

func (a *directoryAuthenticator) Authenticate(username, password string) (*models.Identity, error) {
	return a.resolver.ResolveDirectory(username, password)
}

// anonymousAuthenticator produces the synthetic full-access identity when
// the directory is disabled. Unreachable during maintenance.
type anonymousAuthenticator struct {
	resolver *Resolver
}

func (a *anonymousAuthenticator) Name() string { return "anonymous-bypass" }

func (a *anonymousAuthenticator) Supports(current models.RuntimeSettings, _ string) bool {
	return !current.LDAPEnabled && !current.MaintenanceMode
}

func (a *anonymousAuthenticator) Authenticate(_, _ string) (*models.Identity, error) {
	return a.resolver.ResolveAnonymous()
}
