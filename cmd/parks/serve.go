package main

import (
	"github.com/spf13/cobra"

	"github.com/sakif/parks/internal/server"
)

func newServeCmd(load loaderFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the web server. It blocks until SIGINT or SIGTERM, then drains
in-flight requests for up to 30 seconds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return invalidConfig(err)
			}

			srv, err := server.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return srv.Start()
		},
	}
}
