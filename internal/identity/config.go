// Package identity talks to the identity and wallet provider that backs
// cross-app accounts.
package identity

import (
	"errors"
	"net/url"
	"strings"
)

// Embedded wallet creation policies.
const (
	CreateOff                 = "off"
	CreateUsersWithoutWallets = "users-without-wallets"
	CreateAllUsers            = "all-users"
)

const DefaultAPIURL = "https://auth.privy.io/api/v1"

// ProviderConfig is built once by the caller and handed to NewClient. Nothing
// in this package reads the environment.
type ProviderConfig struct {
	AppID     string
	AppSecret string
	APIURL    string
	// LoginMethods and CreateOnLogin mirror the provider app settings. The
	// provider enforces them; the client only reports them.
	LoginMethods  []string
	CreateOnLogin string
	// CrossAppID is the provider app whose accounts users link to this one.
	CrossAppID string
}

func (c ProviderConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.AppID) == "" {
		errs = append(errs, errors.New("provider app id is empty"))
	}
	if strings.TrimSpace(c.AppSecret) == "" {
		errs = append(errs, errors.New("provider app secret is empty"))
	}
	if c.APIURL != "" {
		if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, errors.New("provider api url must be absolute"))
		}
	}
	switch c.CreateOnLogin {
	case "", CreateOff, CreateUsersWithoutWallets, CreateAllUsers:
	default:
		errs = append(errs, errors.New("unknown create-on-login policy "+c.CreateOnLogin))
	}
	return errors.Join(errs...)
}

func (c ProviderConfig) apiURL() string {
	if c.APIURL == "" {
		return DefaultAPIURL
	}
	return strings.TrimRight(c.APIURL, "/")
}

// LoginAllowed reports whether method is enabled. An empty list allows all.
func (c ProviderConfig) LoginAllowed(method string) bool {
	if len(c.LoginMethods) == 0 {
		return true
	}
	for _, m := range c.LoginMethods {
		if strings.EqualFold(strings.TrimSpace(m), method) {
			return true
		}
	}
	return false
}

// WalletPolicy is CreateOnLogin with the provider default filled in.
func (c ProviderConfig) WalletPolicy() string {
	if c.CreateOnLogin == "" {
		return CreateUsersWithoutWallets
	}
	return c.CreateOnLogin
}
