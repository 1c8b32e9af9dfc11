package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/ligun0805/crossapp-wallet/internal/chain"
	"github.com/ligun0805/crossapp-wallet/internal/units"
)

// tokenInfo is what the CLI shows next to a token amount.
type tokenInfo struct {
	Address  string
	Symbol   string
	Decimals uint8
}

func loadTokenInfo(ctx context.Context, c *chain.Client, token string) (tokenInfo, error) {
	dec, err := c.TokenDecimals(ctx, token)
	if err != nil {
		return tokenInfo{}, err
	}
	sym, err := c.TokenSymbol(ctx, token)
	if err != nil || sym == "" {
		sym = "TOKEN"
	}
	return tokenInfo{Address: token, Symbol: sym, Decimals: dec}, nil
}

func (t tokenInfo) format(v *big.Int) string {
	return units.FormatUnits(v, int32(t.Decimals)) + " " + t.Symbol
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Print native and token balances once",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.account(args)
			if err != nil {
				return err
			}
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			bal, err := c.Balance(ctx, account)
			if err != nil {
				return err
			}
			fmt.Printf("Account: %s\n", account)
			fmt.Printf("Native:  %s ETH (%s wei)\n", units.FormatEther(bal), bal)

			if a.cfg.TokenAddress == "" {
				return nil
			}
			info, err := loadTokenInfo(ctx, c, a.cfg.TokenAddress)
			if err != nil {
				return err
			}
			tb, err := c.TokenBalance(ctx, info.Address, account)
			if err != nil {
				return err
			}
			fmt.Printf("Token:   %s\n", info.format(tb))
			return nil
		},
	}
}
