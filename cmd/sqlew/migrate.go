package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sin5ddd/sqlew/internal/dump"
	"github.com/sin5ddd/sqlew/internal/migrate"
)

var (
	migrateTarget string
	migrateReplay string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the coordination schema idempotently to a live target",
	Long: `Applies the coordination schema to the target database. Every step is
guarded by an existence check, so running migrate against an up-to-date or
partially migrated database is safe and re-runnable.

With --replay, executes a previously generated dump script instead.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVarP(&migrateTarget, "target", "t", "", "target name from config (required)")
	migrateCmd.Flags().StringVar(&migrateReplay, "replay", "", "replay a dump script file instead of the built-in schema")
	_ = migrateCmd.MarkFlagRequired("target")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openTarget(ctx, migrateTarget)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateReplay != "" {
		script, err := os.ReadFile(migrateReplay)
		if err != nil {
			return err
		}
		n, err := dump.Replay(ctx, db, string(script), log)
		if err != nil {
			return fmt.Errorf("replay stopped after %d statements: %w", n, err)
		}
		fmt.Printf("replayed %d statements\n", n)
		return nil
	}

	runner, err := migrate.NewRunner(db, log)
	if err != nil {
		return err
	}
	cycles, err := runner.Run(ctx)
	for _, c := range cycles {
		fmt.Fprintf(os.Stderr, "warning: dependency cycle broken at table %s\n", c.Table)
	}
	return err
}
