package main

import (
	"errors"
	"strings"

	"github.com/ligun0805/crossapp-wallet/internal/identity"
	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

// friendlyErr puts a short hint in front of errors users hit often.
func friendlyErr(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	ls := strings.ToLower(s)
	switch {
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return "balance does not cover amount plus gas (" + s + ")"
	case errors.Is(err, wallet.ErrFeeDataUnavailable):
		return "node did not return base and priority fee, is it an EIP-1559 chain? (" + s + ")"
	case errors.Is(err, identity.ErrUserNotFound):
		return "provider has no such user (" + s + ")"
	case strings.Contains(ls, "invalid character '<'"):
		return "non-JSON/HTML response from endpoint (proxy?)"
	case strings.Contains(ls, "dial tcp"), strings.Contains(ls, "lookup "):
		return "network/DNS error (" + s + ")"
	}
	return s
}
