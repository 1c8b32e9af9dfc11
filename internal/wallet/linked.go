package wallet

import (
	"encoding/json"
	"fmt"
)

// AccountKind is the discriminant of LinkedAccount.
type AccountKind int

const (
	KindUnknown AccountKind = iota
	KindWallet
	KindCrossApp
	KindEmail
)

func (k AccountKind) String() string {
	switch k {
	case KindWallet:
		return "wallet"
	case KindCrossApp:
		return "cross_app"
	case KindEmail:
		return "email"
	default:
		return "unknown"
	}
}

// WalletAccount is a plain wallet linked to the user, embedded or external.
type WalletAccount struct {
	Address       string `json:"address"`
	ChainType     string `json:"chain_type"`
	WalletClient  string `json:"wallet_client_type"`
	ConnectorType string `json:"connector_type"`
}

// CrossAppAccount is an account in another provider application, linked
// through the provider. Its embedded wallets are owned by that application.
type CrossAppAccount struct {
	Subject         string          `json:"subject"`
	ProviderAppID   string          `json:"-"`
	EmbeddedWallets []WalletAccount `json:"embedded_wallets"`
	SmartWallets    []WalletAccount `json:"smart_wallets"`
}

// EmailAccount is a verified email login.
type EmailAccount struct {
	Address string `json:"address"`
}

// LinkedAccount holds exactly one payload, selected by Kind.
type LinkedAccount struct {
	Kind     AccountKind
	Wallet   *WalletAccount
	CrossApp *CrossAppAccount
	Email    *EmailAccount
	// RawType keeps the provider's discriminant for unknown kinds.
	RawType string
}

func (a *LinkedAccount) UnmarshalJSON(b []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	*a = LinkedAccount{RawType: head.Type}
	switch head.Type {
	case "wallet":
		var w WalletAccount
		if err := json.Unmarshal(b, &w); err != nil {
			return fmt.Errorf("wallet account: %w", err)
		}
		a.Kind, a.Wallet = KindWallet, &w
	case "cross_app":
		var c struct {
			CrossAppAccount
			ProviderApp struct {
				ID string `json:"id"`
			} `json:"provider_app"`
		}
		if err := json.Unmarshal(b, &c); err != nil {
			return fmt.Errorf("cross_app account: %w", err)
		}
		c.CrossAppAccount.ProviderAppID = c.ProviderApp.ID
		a.Kind, a.CrossApp = KindCrossApp, &c.CrossAppAccount
	case "email":
		var e EmailAccount
		if err := json.Unmarshal(b, &e); err != nil {
			return fmt.Errorf("email account: %w", err)
		}
		a.Kind, a.Email = KindEmail, &e
	default:
		a.Kind = KindUnknown
	}
	return nil
}

// FirstCrossAppWallet returns the first embedded wallet address of the first
// cross-app account, or "" when there is none.
func FirstCrossAppWallet(accounts []LinkedAccount) string {
	for _, a := range accounts {
		if a.Kind != KindCrossApp {
			continue
		}
		if len(a.CrossApp.EmbeddedWallets) > 0 {
			return a.CrossApp.EmbeddedWallets[0].Address
		}
		return ""
	}
	return ""
}

// FirstWallet returns the address of the first plain wallet, or "".
func FirstWallet(accounts []LinkedAccount) string {
	for _, a := range accounts {
		if a.Kind == KindWallet {
			return a.Wallet.Address
		}
	}
	return ""
}
