// cmd/pricesync/export.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/vardan-naturals/storefront/internal/domain/pricesync"
)

func newExportCmd(opts *options) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the price table as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := opts.loadPrices()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", outDir, err)
			}
			target := filepath.Join(outDir, pricesync.ExportFileName(time.Now()))

			f, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("create export: %w", err)
			}
			defer f.Close()

			if err := pricesync.New(table, nil, opts.logger).ExportCSV(f); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s\n", table.Len(), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "Directory to write the CSV to")
	return cmd
}
