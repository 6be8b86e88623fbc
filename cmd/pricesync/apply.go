// cmd/pricesync/apply.go
package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/vardan-naturals/storefront/internal/domain/pricesync"
	"github.com/vardan-naturals/storefront/internal/pkg/site"
	"golang.org/x/sync/errgroup"
)

func newApplyCmd(opts *options) *cobra.Command {
	var siteDir, outDir string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Load prices and sale badges into every page of a site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outDir == "" {
				outDir = siteDir
			}

			table, err := opts.loadPrices()
			if err != nil {
				return err
			}
			sale, err := opts.loadSale()
			if err != nil {
				return err
			}

			dir := site.New(siteDir)
			pages, err := dir.Pages()
			if err != nil {
				return err
			}

			syncer := pricesync.New(table, sale, opts.logger)

			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.SetLimit(runtime.GOMAXPROCS(0))
			for _, page := range pages {
				eg.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					doc, err := dir.Open(page)
					if err != nil {
						return err
					}
					if err := syncer.Run(doc); err != nil {
						return fmt.Errorf("%s: %w", page, err)
					}
					return site.Write(outDir, page, doc)
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d pages into %s\n", len(pages), outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&siteDir, "site", "site", "Site directory to read pages from")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory to write pages to (default: rewrite in place)")
	cmd.Flags().StringVar(&opts.saleFile, "sale", "", "Sale config file")
	return cmd
}
