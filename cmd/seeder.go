package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/database"
	"github.com/Lap-DevOps/Organizational-Chart/internal/user"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the bootstrap administrator",
	Long:  `Register the administrator described by the seed section of the configuration. Existing users are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Seed.AdminEmail == "" || cfg.Seed.AdminUsername == "" || cfg.Seed.AdminPassword == "" {
			return errors.New("seed.admin_email, seed.admin_username and seed.admin_password must be set")
		}

		lg := newLogger(cfg)
		db, err := database.Open(ctx, cfg.Database, cfg.Debug, lg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		svc, err := newUserService(cfg, db, lg)
		if err != nil {
			return err
		}

		payload := user.RegistrationPayload{
			user.FieldUsername: cfg.Seed.AdminUsername,
			user.FieldEmail:    cfg.Seed.AdminEmail,
			user.FieldPassword: cfg.Seed.AdminPassword,
			user.FieldRole:     user.RoleAdmin.String(),
		}

		u, err := svc.Register(ctx, payload)
		defer svc.bus.Wait(ctx)
		if err != nil {
			if errors.Is(err, internal.ErrUserAlreadyExists) {
				lg.Info("admin user already exists; skipping", "email", cfg.Seed.AdminEmail)
				return nil
			}
			return fmt.Errorf("failed to seed admin user: %w", err)
		}

		lg.Info("seeded admin user", "email", u.Email, "public_id", u.PublicID.String())
		return nil
	},
}
