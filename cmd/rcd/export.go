package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/krecords/internal/config"
	"github.com/groblegark/krecords/internal/store/postgres"
	recsync "github.com/groblegark/krecords/internal/sync"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export a JSONL snapshot of all object types, records, and relationships",
	Long: `Export connects directly to the database configured via
KRECORDS_DATABASE_URL and writes a JSONL snapshot to the given file, or to
stdout when no file is given. This is the same format the S3 snapshot
scheduler uploads.`,
	Args: cobra.MaximumNArgs(1),
	// Direct database access; no API client needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		out := os.Stdout
		if len(args) == 1 {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create %s: %w", args[0], err)
			}
			defer f.Close()
			out = f
		}

		return recsync.ExportJSONL(cmd.Context(), store, out)
	},
}
