package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	superuserName     string
	superuserEmail    string
	superuserPassword string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a staff superuser account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if superuserName == "" || superuserEmail == "" {
			return errors.New("--username and --email are required")
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		ctx := context.Background()
		app, err := newApplication(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		u, err := app.Users.CreateSuperuser(ctx, superuserName, superuserEmail, superuserPassword)
		if err != nil {
			return err
		}
		fmt.Printf("Superuser %s created with id %d\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuserName, "username", "", "username")
	createSuperuserCmd.Flags().StringVar(&superuserEmail, "email", "", "email address")
	createSuperuserCmd.Flags().StringVar(&superuserPassword, "password", "", "password, empty creates an account that cannot log in")
}
