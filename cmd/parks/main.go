// Command parks runs the park catalogue web app and its admin tasks.
//
//	parks serve                 start the HTTP server
//	parks create-user ...       provision a login (there is no sign-up page)
//
// Settings come from --config (YAML), a .env file and the environment;
// see internal/config.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/parks/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "parks",
		Short:        "Neighbourhood park catalogue",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "parks.yaml", "path to the YAML config file (optional)")

	load := func() (*config.Config, *slog.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg, cfg.Log.NewLogger(os.Stderr), nil
	}

	root.AddCommand(newServeCmd(load), newCreateUserCmd(load))
	return root
}

type loaderFunc func() (*config.Config, *slog.Logger, error)

func invalidConfig(err error) error {
	return fmt.Errorf("invalid configuration:\n%w", err)
}
