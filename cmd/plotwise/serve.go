package main

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/plotwise/plotwise/pkg/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if listen != "" {
				a.cfg.Listen = listen
			}
			srv := server.New(a.cfg, a.svc, a.catalog, a.ledger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().Str("config", opts.configPath).Int("listings", a.catalog.Len()).Msg("starting plotwise")
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	return cmd
}
