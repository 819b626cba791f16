package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/kabadi/database/seeders"
	"github.com/shashiranjanraj/kabadi/internal/bootstrap"
	"github.com/shashiranjanraj/kabadi/pkg/database"
	"github.com/shashiranjanraj/kabadi/pkg/migration"
)

const dbCommandTimeout = 5 * time.Minute

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(cmd.Context(), func(ctx context.Context, r *migration.Runner) error {
			return r.Run(ctx)
		})
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:     "migrate:rollback",
	Aliases: []string{"migrate:down"},
	Short:   "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(cmd.Context(), func(ctx context.Context, r *migration.Runner) error {
			return r.Rollback(ctx)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show which migrations have run",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(cmd.Context(), func(ctx context.Context, r *migration.Runner) error {
			return r.Status(ctx)
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run every registered seeder",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), dbCommandTimeout)
		defer cancel()

		store, mg, err := bootstrap.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer closeMongo(mg)

		if err := seeders.RunAll(ctx, store, cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Seeding complete.")
		return nil
	},
}

// withMigrations connects to MongoDB and hands fn a Runner over the
// registered migrations.
func withMigrations(parent context.Context, fn func(context.Context, *migration.Runner) error) error {
	ctx, cancel := context.WithTimeout(parent, dbCommandTimeout)
	defer cancel()

	_, mg, err := bootstrap.OpenStore(ctx)
	if err != nil {
		return err
	}
	if mg == nil {
		return fmt.Errorf("migrations need DB_DRIVER=mongo")
	}
	defer closeMongo(mg)

	return fn(ctx, migration.New(mg.DB))
}

func closeMongo(mg *database.Mongo) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = mg.Close(ctx)
}
