package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sin5ddd/sqlew/internal/schema"
)

var inspectTarget string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the live schema of a target database",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectTarget, "target", "t", "", "target name from config (required)")
	_ = inspectCmd.MarkFlagRequired("target")
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openTarget(ctx, inspectTarget)
	if err != nil {
		return err
	}
	defer db.Close()

	intro, err := schema.For(db)
	if err != nil {
		return err
	}
	tables, err := intro.ListTables(ctx)
	if err != nil {
		return err
	}

	for _, t := range tables {
		fmt.Printf("%s\n", t.Name)
		for _, c := range t.Columns {
			var attrs []string
			if !c.Nullable {
				attrs = append(attrs, "not null")
			}
			if c.Default != "" {
				attrs = append(attrs, "default "+c.Default)
			}
			suffix := ""
			if len(attrs) > 0 {
				suffix = "  (" + strings.Join(attrs, ", ") + ")"
			}
			fmt.Printf("  %-24s %s%s\n", c.Name, c.Type, suffix)
		}
		if len(t.PrimaryKey) > 0 {
			fmt.Printf("  primary key: %s\n", strings.Join(t.PrimaryKey, ", "))
		}
		for _, fk := range t.ForeignKeys {
			fmt.Printf("  fk: %s -> %s(%s)\n", fk.Column, fk.RefTable, fk.RefColumn)
		}
		for _, idx := range t.Indexes {
			kind := "index"
			if idx.Unique {
				kind = "unique index"
			}
			fmt.Printf("  %s: %s (%s)\n", kind, idx.Name, strings.Join(idx.Columns, ", "))
		}
		fmt.Println()
	}
	return nil
}
