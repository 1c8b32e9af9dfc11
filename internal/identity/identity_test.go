package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

const userJSON = `{
  "id": "did:privy:abc",
  "created_at": 1731000000,
  "linked_accounts": [
    {"type": "email", "address": "a@example.com"},
    {"type": "wallet", "address": "0xAAAA000000000000000000000000000000000001", "chain_type": "ethereum", "wallet_client_type": "privy"},
    {"type": "cross_app", "subject": "sub-1", "provider_app": {"id": "gift-art"},
     "embedded_wallets": [{"address": "0xBBBB000000000000000000000000000000000002"}], "smart_wallets": []}
  ]
}`

func testConfig(url string) ProviderConfig {
	return ProviderConfig{AppID: "app-1", AppSecret: "s3cret", APIURL: url, LoginMethods: []string{"email"}}
}

func TestProviderConfigPolicy(t *testing.T) {
	c := testConfig("")
	assert.True(t, c.LoginAllowed("email"))
	assert.True(t, c.LoginAllowed("EMAIL"))
	assert.False(t, c.LoginAllowed("wallet"))
	assert.Equal(t, CreateUsersWithoutWallets, c.WalletPolicy())

	c.LoginMethods = nil
	c.CreateOnLogin = CreateOff
	assert.True(t, c.LoginAllowed("wallet"))
	assert.Equal(t, CreateOff, c.WalletPolicy())
}

func TestProviderConfigValidate(t *testing.T) {
	require.NoError(t, testConfig("").Validate())
	require.NoError(t, testConfig("https://auth.example.com/api/v1").Validate())

	err := ProviderConfig{APIURL: "not a url", CreateOnLogin: "sometimes"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app id")
	assert.Contains(t, err.Error(), "secret")
	assert.Contains(t, err.Error(), "absolute")
	assert.Contains(t, err.Error(), "sometimes")
}

func TestClientUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/users/did:privy:abc", r.URL.Path)
		assert.Equal(t, "app-1", r.Header.Get("privy-app-id"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "app-1", user)
		assert.Equal(t, "s3cret", pass)
		_, _ = w.Write([]byte(userJSON))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL+"/api/v1/"), time.Second, zerolog.Nop())
	require.NoError(t, err)

	u, err := c.User(context.Background(), "did:privy:abc")
	require.NoError(t, err)
	assert.Equal(t, "did:privy:abc", u.ID)
	require.Len(t, u.LinkedAccounts, 3)
	assert.Equal(t, wallet.KindEmail, u.LinkedAccounts[0].Kind)
	assert.Equal(t, "0xAAAA000000000000000000000000000000000001", u.Wallet())
	assert.Equal(t, "0xBBBB000000000000000000000000000000000002", u.CrossAppWallet())

	assert.Len(t, u.CrossAppAccounts(""), 1)
	assert.Len(t, u.CrossAppAccounts("gift-art"), 1)
	assert.Empty(t, u.CrossAppAccounts("other"))
}

func TestClientUserErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/missing":
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		case "/users/broken":
			_, _ = w.Write([]byte("{"))
		default:
			http.Error(w, "nope", http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), time.Second, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.User(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = c.User(ctx, "broken")
	require.ErrorContains(t, err, "unmarshal user")

	_, err = c.User(ctx, "someone")
	require.ErrorContains(t, err, "401")

	_, err = c.User(ctx, "")
	require.Error(t, err)
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	_, err := NewClient(ProviderConfig{}, 0, zerolog.Nop())
	require.Error(t, err)
}

func TestUserAsync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(userJSON))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), time.Second, zerolog.Nop())
	require.NoError(t, err)

	res := <-c.UserAsync(context.Background(), "did:privy:abc")
	require.True(t, res.Ok())
	u, err := res.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "did:privy:abc", u.ID)
}

func TestResult(t *testing.T) {
	ok := Ok(42)
	v, err := ok.Unwrap()
	assert.Equal(t, 42, v)
	assert.NoError(t, err)

	boom := errors.New("boom")
	bad := Fail[int](boom)
	assert.False(t, bad.Ok())
	assert.ErrorIs(t, bad.Err(), boom)

	ch := Async(func() (string, error) { return "", boom })
	r, open := <-ch
	require.True(t, open)
	assert.ErrorIs(t, r.Err(), boom)
	_, open = <-ch
	assert.False(t, open)
}
