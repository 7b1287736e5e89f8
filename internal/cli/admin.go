package cli

import (
	"fmt"

	"github.com/eurobrokers/leadcapture/internal/platform/auth"
	"github.com/eurobrokers/leadcapture/internal/repo/sqlite"
	"github.com/eurobrokers/leadcapture/internal/service"
	"github.com/eurobrokers/leadcapture/pkg/config"
	"github.com/eurobrokers/leadcapture/pkg/database"
	"github.com/spf13/cobra"
)

func newAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the admin account",
	}
	cmd.AddCommand(newAdminEnsureCommand())
	return cmd
}

func newAdminEnsureCommand() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Create the configured admin, or reset its password with --reset",
		Long: `Creates the admin account from ADMIN_EMAIL and ADMIN_PASSWORD when it
does not exist. An existing account is left alone unless --reset (or
ADMIN_RESET) is given, in which case its password is replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := configFrom(ctx)
			if err != nil {
				return err
			}

			db, err := database.Open(ctx, cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			seed := adminSeed(cfg)
			seed.Reset = seed.Reset || reset
			res, err := service.EnsureAdmin(ctx, sqlite.NewUsersRepo(db), auth.NewArgon2Hasher(), seed)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "admin %s: %s\n", seed.Email, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "overwrite the password of an existing admin")
	return cmd
}

func adminSeed(cfg *config.Config) service.AdminSeed {
	return service.AdminSeed{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		Reset:    cfg.Admin.Reset,
	}
}
