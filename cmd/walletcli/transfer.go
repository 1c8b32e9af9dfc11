package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/ligun0805/crossapp-wallet/internal/chain"
	"github.com/ligun0805/crossapp-wallet/internal/logger"
	"github.com/ligun0805/crossapp-wallet/internal/transfer"
	"github.com/ligun0805/crossapp-wallet/internal/units"
	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

func (a *app) calculator(c *chain.Client) *transfer.Calculator {
	return transfer.NewCalculator(c,
		transfer.WithMargin(a.cfg.GasMarginPct),
		transfer.WithLogger(logger.For("transfer")),
	)
}

func printPlan(plan wallet.TransferPlan, tok *tokenInfo) {
	amount := units.FormatEther(plan.Amount) + " ETH"
	if tok != nil {
		amount = tok.format(plan.Amount)
	}
	fmt.Printf("From:      %s\n", plan.From)
	fmt.Printf("To:        %s\n", plan.Recipient)
	fmt.Printf("Amount:    %s (%s base units)\n", amount, plan.Amount)
	fmt.Printf("Gas limit: %d\n", plan.GasLimit)
	fmt.Printf("Max fee:   %s gwei (tip %s gwei)\n", units.FormatGwei(plan.FeeCap), units.FormatGwei(plan.TipCap))
	worst := new(big.Int).Mul(new(big.Int).SetUint64(plan.GasLimit), plan.FeeCap)
	fmt.Printf("Gas cost:  up to %s ETH\n", units.FormatEther(worst))
}

func newMaxCmd(a *app) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "max <recipient>",
		Short: "Compute the largest native amount sendable after gas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				s, err := a.signer()
				if err != nil {
					return err
				}
				from = s.Address()
			}
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			plan, err := a.calculator(c).PlanMax(ctx, from, args[0])
			if err != nil {
				return err
			}
			printPlan(plan, nil)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "sender address, default is the signer's")
	return cmd
}

func newSendCmd(a *app) *cobra.Command {
	var (
		sendMax   bool
		assumeYes bool
	)
	cmd := &cobra.Command{
		Use:   "send <recipient> [amount]",
		Short: "Send native currency; amount in ETH or --max",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sendMax == (len(args) == 2) {
				return fmt.Errorf("give either an amount or --max")
			}
			signer, err := a.signer()
			if err != nil {
				return err
			}
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			calc := a.calculator(c)
			var plan wallet.TransferPlan
			if sendMax {
				plan, err = calc.PlanMax(ctx, signer.Address(), args[0])
			} else {
				amount, perr := units.ParseEther(args[1])
				if perr != nil {
					return perr
				}
				plan, err = calc.PlanNative(ctx, signer.Address(), args[0], amount)
			}
			if err != nil {
				return err
			}
			return a.submit(ctx, c, plan, signer, nil, assumeYes)
		},
	}
	cmd.Flags().BoolVar(&sendMax, "max", false, "send the whole balance minus gas")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newSendTokenCmd(a *app) *cobra.Command {
	var assumeYes bool
	cmd := &cobra.Command{
		Use:   "send-token <recipient> <amount>",
		Short: "Send ERC-20 tokens from --token / TOKEN_ADDRESS",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.TokenAddress == "" {
				return fmt.Errorf("no token configured, set --token or TOKEN_ADDRESS")
			}
			signer, err := a.signer()
			if err != nil {
				return err
			}
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			info, err := loadTokenInfo(ctx, c, a.cfg.TokenAddress)
			if err != nil {
				return err
			}
			amount, err := units.ParseUnits(args[1], int32(info.Decimals))
			if err != nil {
				return err
			}
			ok, reason, err := c.PreflightTokenTransfer(ctx, info.Address, signer.Address(), args[0], amount)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("token transfer would fail: %s", reason)
			}
			plan, err := a.calculator(c).PlanToken(ctx, signer.Address(), info.Address, args[0], amount)
			if err != nil {
				return err
			}
			return a.submit(ctx, c, plan, signer, &info, assumeYes)
		},
	}
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) submit(ctx context.Context, c *chain.Client, plan wallet.TransferPlan, signer wallet.Signer, tok *tokenInfo, assumeYes bool) error {
	printPlan(plan, tok)
	if !confirm("Sign and send?", assumeYes) {
		fmt.Println("Aborted.")
		return nil
	}
	hash, err := transfer.NewSender(c, logger.For("transfer")).Send(ctx, plan, signer)
	if err != nil {
		return err
	}
	fmt.Printf("Sent: %s\n", hash)
	return nil
}
