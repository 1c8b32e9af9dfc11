package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/ligun0805/crossapp-wallet/internal/chain"
)

func newSignMessageCmd(a *app) *cobra.Command {
	var verify string
	cmd := &cobra.Command{
		Use:   "sign-message <message>",
		Short: "Sign a text message with the signer key (personal_sign)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := []byte(args[0])
			out := cmd.OutOrStdout()

			if verify != "" {
				sig, err := hexutil.Decode(verify)
				if err != nil {
					return fmt.Errorf("signature: %w", err)
				}
				addr, err := chain.RecoverMessageSigner(msg, sig)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Signer:    %s\n", addr)
				return nil
			}

			s, err := a.signer()
			if err != nil {
				return err
			}
			sig, err := s.SignMessage(msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Address:   %s\n", s.Address())
			fmt.Fprintf(out, "Signature: %s\n", hexutil.Encode(sig))
			return nil
		},
	}
	cmd.Flags().StringVar(&verify, "verify", "", "recover the signer of this 0x signature instead of signing")
	return cmd
}
