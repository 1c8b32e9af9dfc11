package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

var ErrUserNotFound = errors.New("user not found")

// User is the provider's view of a person and every account they linked.
type User struct {
	ID             string                 `json:"id"`
	CreatedAt      int64                  `json:"created_at"`
	LinkedAccounts []wallet.LinkedAccount `json:"linked_accounts"`
}

// CrossAppWallet returns the first embedded wallet of the first cross-app
// account, or "".
func (u User) CrossAppWallet() string { return wallet.FirstCrossAppWallet(u.LinkedAccounts) }

// Wallet returns the user's own wallet address, or "".
func (u User) Wallet() string { return wallet.FirstWallet(u.LinkedAccounts) }

// CrossAppAccounts returns the cross-app accounts linked from appID, or all
// of them when appID is empty.
func (u User) CrossAppAccounts(appID string) []wallet.CrossAppAccount {
	var out []wallet.CrossAppAccount
	for _, a := range u.LinkedAccounts {
		if a.Kind != wallet.KindCrossApp {
			continue
		}
		if appID == "" || a.CrossApp.ProviderAppID == appID {
			out = append(out, *a.CrossApp)
		}
	}
	return out
}

type Client struct {
	cfg  ProviderConfig
	http *http.Client
	log  zerolog.Logger
}

// appTransport authenticates every request as the provider app.
type appTransport struct {
	base   http.RoundTripper
	appID  string
	secret string
}

func (t *appTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.appID, t.secret)
	req.Header.Set("privy-app-id", t.appID)
	req.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(req)
}

func NewClient(cfg ProviderConfig, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &appTransport{base: http.DefaultTransport, appID: cfg.AppID, secret: cfg.AppSecret},
		},
		log: log,
	}, nil
}

// User fetches a user and their linked accounts.
func (c *Client) User(ctx context.Context, userID string) (User, error) {
	if userID == "" {
		return User{}, errors.New("user id is empty")
	}
	endpoint := c.cfg.apiURL() + "/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return User{}, fmt.Errorf("create request: %w", err)
	}

	c.log.Debug().Str("user", userID).Msg("fetching provider user")
	resp, err := c.http.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return User{}, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	case resp.StatusCode != http.StatusOK:
		return User{}, fmt.Errorf("provider request failed: %s - %s", resp.Status, string(body))
	}

	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return u, nil
}

// UserAsync is User delivered as a Result.
func (c *Client) UserAsync(ctx context.Context, userID string) <-chan Result[User] {
	return Async(func() (User, error) { return c.User(ctx, userID) })
}
