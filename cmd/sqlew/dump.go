package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sin5ddd/sqlew/internal/artifact"
	"github.com/sin5ddd/sqlew/internal/database"
	"github.com/sin5ddd/sqlew/internal/dump"
	"github.com/sin5ddd/sqlew/internal/migrate"
)

var (
	dumpSource     string
	dumpDialect    string
	dumpOutput     string
	dumpChunkSize  int
	dumpSchemaOnly bool
	dumpNoHeader   bool
	dumpNoSchema   bool
	dumpTables     string
	dumpUpload     bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Export a database as a replayable SQL script for a target dialect",
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpSource, "source", "s", "", "source target name from config (required)")
	dumpCmd.Flags().StringVarP(&dumpDialect, "dialect", "d", "", "target dialect: sqlite, mysql, postgres (default: source dialect)")
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "output file (default: stdout)")
	dumpCmd.Flags().IntVar(&dumpChunkSize, "chunk-size", -1, "rows per INSERT batch (0 = schema only)")
	dumpCmd.Flags().BoolVar(&dumpSchemaOnly, "schema-only", false, "emit DDL without data")
	dumpCmd.Flags().BoolVar(&dumpNoHeader, "no-header", false, "omit the banner comment")
	dumpCmd.Flags().BoolVar(&dumpNoSchema, "no-schema", false, "emit data without DDL")
	dumpCmd.Flags().StringVarP(&dumpTables, "tables", "t", "", "restrict to tables (comma-separated)")
	dumpCmd.Flags().BoolVar(&dumpUpload, "upload", false, "upload the script to the configured artifact store")
	_ = dumpCmd.MarkFlagRequired("source")
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openTarget(ctx, dumpSource)
	if err != nil {
		return err
	}
	defer db.Close()

	target := db.Dialect()
	if dumpDialect != "" {
		target, err = database.ParseDialect(dumpDialect)
		if err != nil {
			return err
		}
	}

	// Views only make sense when the source actually carries the
	// coordination schema they read from.
	views, err := migrate.DetectAppViews(ctx, db)
	if err != nil {
		return err
	}

	opts := dump.Options{
		IncludeHeader: !dumpNoHeader && *cfg.Dump.IncludeHeader,
		IncludeSchema: !dumpNoSchema && *cfg.Dump.IncludeSchema,
		ChunkSize:     cfg.Dump.ChunkSize,
		Tables:        cfg.Dump.Tables,
		Views:         views,
	}
	if dumpChunkSize >= 0 {
		opts.ChunkSize = dumpChunkSize
	}
	if dumpSchemaOnly {
		opts.ChunkSize = 0
	}
	if dumpTables != "" {
		opts.Tables = splitList(dumpTables)
	}

	var buf bytes.Buffer
	report, err := dump.New(db, log).DumpAll(ctx, &buf, target, opts)
	if err != nil {
		return err
	}
	for _, c := range report.Cycles {
		fmt.Fprintf(os.Stderr, "warning: dependency cycle broken at table %s\n", c.Table)
	}

	var out io.Writer = os.Stdout
	if dumpOutput != "" {
		f, err := os.Create(dumpOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return err
	}

	if dumpUpload {
		if cfg.Artifact == nil {
			return fmt.Errorf("--upload requires an artifact section in the config")
		}
		store, err := artifact.New(ctx, *cfg.Artifact, log)
		if err != nil {
			return err
		}
		key, err := store.Upload(ctx, dumpSource, buf.String())
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "uploaded:", key)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
