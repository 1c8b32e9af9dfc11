package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/params"
	"github.com/spf13/cobra"

	"github.com/ligun0805/crossapp-wallet/internal/units"
	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

func newFeesCmd(a *app) *cobra.Command {
	var (
		blocks      int
		percentiles []int
	)
	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Show current base fee, priority fee and recent tips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			fees, err := c.FeeData(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("[net] baseFee(now): %s gwei\n", units.FormatGwei(fees.Base))
			fmt.Printf("[net] priority fee: %s gwei\n", units.FormatGwei(fees.Priority))

			est := wallet.FeeEstimate{GasUnits: params.TxGas, FeePerGas: fees.Total()}
			fmt.Printf("[net] native transfer (%d gas, margin %d%%): %s ETH\n",
				params.TxGas, a.cfg.GasMarginPct, units.FormatEther(est.Cost(a.cfg.GasMarginPct)))

			fh, err := c.FeeHistoryStats(ctx, blocks, percentiles)
			if err != nil {
				fmt.Println("[net] feeHistory error:", friendlyErr(err))
				return nil
			}
			if fh.NextBaseFee != nil {
				fmt.Printf("[net] baseFee(next): %s gwei\n", units.FormatGwei(fh.NextBaseFee))
			}
			fmt.Printf("[net] reward stats last %d blocks:\n", fh.Blocks)
			for _, st := range fh.Rewards {
				fmt.Printf("  p%-2d min/avg/max: %s / %s / %s gwei\n", st.Percentile,
					units.FormatGwei(st.Min), units.FormatGwei(st.Avg), units.FormatGwei(st.Max))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&blocks, "blocks", 20, "blocks of fee history to sample")
	cmd.Flags().IntSliceVar(&percentiles, "percentiles", []int{50, 95, 99}, "reward percentiles")
	return cmd
}
