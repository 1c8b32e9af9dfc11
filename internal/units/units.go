// Package units converts between base units and human-readable amounts.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the decimal scale of the native asset.
const EtherDecimals = 18

var (
	weiPerEther = big.NewInt(1_000_000_000_000_000_000)
	weiPerGwei  = big.NewInt(1_000_000_000)
)

// FormatEther renders wei as ether with 6 fractional digits.
func FormatEther(x *big.Int) string {
	if x == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(new(big.Int).Set(x), weiPerEther)
	return r.FloatString(6)
}

// FormatGwei renders wei as gwei with 2 fractional digits.
func FormatGwei(x *big.Int) string {
	if x == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(new(big.Int).Set(x), weiPerGwei)
	return r.FloatString(2)
}

// FormatUnits renders a base-unit amount with the given decimals, trimming
// trailing zeros ("1.5", "0.000001", "42").
func FormatUnits(v *big.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -decimals).String()
}

// ParseUnits converts a decimal string such as "0.25" into base units.
// More fractional digits than decimals is an error, not a silent truncation.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", amount)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("too many fractional digits for %d decimals", decimals)
	}
	return scaled.BigInt(), nil
}

// ParseEther is ParseUnits with EtherDecimals.
func ParseEther(amount string) (*big.Int, error) {
	return ParseUnits(amount, EtherDecimals)
}
