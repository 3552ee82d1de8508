package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kite-alert-backtest/internal/broker/zerodha"
	"kite-alert-backtest/internal/logger"
)

func newInstrumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instruments",
		Short: "Manage the local instruments dump",
	}

	var url, out string
	download := &cobra.Command{
		Use:   "download",
		Short: "Download the Kite instruments dump (no login required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if url == "" {
				url = cfg.Kite.InstrumentsURL
			}
			if out == "" {
				out = cfg.Kite.InstrumentsPath
			}

			n, err := zerodha.DownloadInstruments(cmd.Context(), nil, url, out)
			if err != nil {
				logger.ErrorWithErr(cmd.Context(), "Instruments download failed", err, "url", url)
				return err
			}
			logger.Info(cmd.Context(), "Instruments saved", "path", out, "bytes", n)
			fmt.Fprintf(cmd.OutOrStdout(), "Instruments saved to: %s\n", out)
			return nil
		},
	}
	download.Flags().StringVar(&url, "url", "", "instruments dump URL")
	download.Flags().StringVar(&out, "out", "", "destination file")

	cmd.AddCommand(download)
	return cmd
}
