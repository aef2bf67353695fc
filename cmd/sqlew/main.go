// Command sqlew is the schema and data portability CLI for the coordination
// database: dump a database as a replayable cross-dialect script, apply the
// coordination schema idempotently, or inspect a live schema.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sin5ddd/sqlew/internal/config"
	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/database/mysql"
	"github.com/sin5ddd/sqlew/internal/database/postgres"
	"github.com/sin5ddd/sqlew/internal/database/sqlite"
	"github.com/sin5ddd/sqlew/internal/logger"
)

var (
	cfgPath  string
	logLevel string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "sqlew",
	Short:         "Cross-database schema and data portability for the coordination DB",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		log = logger.New(&logger.Config{
			Level:  level,
			Format: cfg.Log.Format,
			Output: os.Stderr,
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "sqlew.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override config log level")

	rootCmd.AddCommand(dumpCmd, migrateCmd, inspectCmd)
}

// openTarget connects to a named target from the config.
func openTarget(ctx context.Context, name string) (database.DB, error) {
	dc, err := cfg.TargetConfig(name)
	if err != nil {
		return nil, err
	}
	switch dc.Dialect {
	case database.DialectSQLite:
		return sqlite.New(ctx, dc)
	case database.DialectMySQL:
		return mysql.New(ctx, dc)
	case database.DialectPostgres:
		return postgres.New(ctx, dc)
	default:
		return nil, fmt.Errorf("no driver for dialect %q", dc.Dialect)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
