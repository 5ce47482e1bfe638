package cmd

import (
	"context"
	"fmt"

	"github.com/Lap-DevOps/Organizational-Chart/db/migrations"
	userDatamodel "github.com/Lap-DevOps/Organizational-Chart/internal/core/datamodel/user"
	"github.com/Lap-DevOps/Organizational-Chart/internal/database"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations",
	}
	migrateRollback bool
	migrateStatus   bool
	migrateVerify   bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.Flags().BoolVarP(&migrateStatus, "status", "s", false, "print the applied state of every migration")
	migrateCmd.Flags().BoolVar(&migrateVerify, "verify", false, "compare the live users table against the model after migrating")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lg := newLogger(cfg)

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer db.Close()

	provider, err := migrations.NewProvider(goose.DialectPostgres, db, cfg.Database.MigrationsTable)
	if err != nil {
		return fmt.Errorf("goose: %w", err)
	}

	command := "up"
	switch {
	case migrateStatus:
		command = "status"
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		for _, st := range statuses {
			lg.Info("migration", "version", st.Source.Version, "path", st.Source.Path, "state", st.State, "applied_at", st.AppliedAt)
		}
	case migrateRollback:
		command = "down"
		if _, err := provider.Down(ctx); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
	default:
		if _, err := provider.Up(ctx); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	lg.Info("migrations finished", "command", command, "version", version)

	if !migrateVerify {
		return nil
	}

	inspector := database.NewInspector(sqlx.NewDb(db, "pgx"))
	diff, err := inspector.VerifyColumns(ctx, userDatamodel.TableName, userDatamodel.Columns)
	if err != nil {
		return fmt.Errorf("verify schema: %w", err)
	}
	if !diff.Empty() {
		return fmt.Errorf("users table drifted from model: %s", diff)
	}
	lg.Info("schema matches model", "table", userDatamodel.TableName)
	return nil
}
