package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/castlemilk/pfinance/insights/internal/config"
	"github.com/castlemilk/pfinance/insights/internal/store/postgres"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				results, err := postgres.Migrate(ctx, pool)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					pterm.Info.Println("schema is up to date")
					return nil
				}
				return renderResults(results)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				result, err := postgres.MigrateDown(ctx, pool)
				if err != nil {
					if errors.Is(err, goose.ErrNoNextVersion) {
						pterm.Info.Println("nothing to roll back")
						return nil
					}
					return err
				}
				return renderResults([]*goose.MigrationResult{result})
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				statuses, err := postgres.MigrationStatus(ctx, pool)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(statuses))
				for _, s := range statuses {
					applied := "-"
					if !s.AppliedAt.IsZero() {
						applied = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
					rows = append(rows, []string{
						strconv.FormatInt(s.Source.Version, 10),
						filepath.Base(s.Source.Path),
						string(s.State),
						applied,
					})
				}
				return renderTable([]string{"Version", "File", "State", "Applied"}, rows)
			}),
		},
	)
	return cmd
}

// withPool runs fn against a pool built from the store config. Migrations
// only apply to the postgres driver.
func withPool(fn func(ctx context.Context, pool *pgxpool.Pool) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Store.Driver != config.DriverPostgres {
			return fmt.Errorf("migrations need STORE_DRIVER=%s, got %q", config.DriverPostgres, cfg.Store.Driver)
		}

		ctx := cmd.Context()
		pool, err := postgres.NewPool(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer pool.Close()
		return fn(ctx, pool)
	}
}

func renderResults(results []*goose.MigrationResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			strconv.FormatInt(r.Source.Version, 10),
			filepath.Base(r.Source.Path),
			r.Direction,
			r.Duration.String(),
		})
	}
	return renderTable([]string{"Version", "File", "Direction", "Duration"}, rows)
}
