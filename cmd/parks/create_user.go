package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/parks/internal/auth"
	"github.com/sakif/parks/internal/form"
	"github.com/sakif/parks/internal/server"
	"github.com/sakif/parks/internal/service"
)

// passwordEnv lets scripts avoid putting the password on the command line.
const passwordEnv = "PARKS_USER_PASSWORD"

func newCreateUserCmd(load loaderFunc) *cobra.Command {
	var in form.UserInput

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user who can log in and edit parks",
		Example: `  parks create-user --email admin@example.com --name Admin --password 'long passphrase'
  PARKS_USER_PASSWORD=... parks create-user --email admin@example.com --name Admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				in.Password = os.Getenv(passwordEnv)
			}
			if in.Password == "" {
				return errors.New("a password is required: pass --password or set " + passwordEnv)
			}

			cfg, logger, err := load()
			if err != nil {
				return err
			}

			store, err := server.OpenStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			users := service.NewAuthService(store, auth.NewPasswordService(auth.DefaultCost), form.NewValidator(), logger)
			user, err := users.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (or set "+passwordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
