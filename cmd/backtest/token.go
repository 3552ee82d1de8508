package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kite-alert-backtest/internal/broker/zerodha"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token [request-token]",
		Short: "Print the Kite login URL, or exchange a request token for an access token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			session, err := zerodha.NewSession(cfg.Kite.APIKey, cfg.Kite.APISecret)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, "Log in at:")
				fmt.Fprintln(out, session.LoginURL())
				fmt.Fprintln(out, "\nThen run: backtest token <request_token>")
				return nil
			}

			token, err := session.AccessToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "KITE_ACCESS_TOKEN=%s\n", token)
			return nil
		},
	}
}
