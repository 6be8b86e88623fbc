// cmd/pricesync/verify.go
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vardan-naturals/storefront/internal/domain/pricesync"
	"github.com/vardan-naturals/storefront/internal/pkg/site"
)

var errPricesMissing = errors.New("some prices could not be loaded")

func newVerifyCmd(opts *options) *cobra.Command {
	var siteDir string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Report authored prices that differ from the price table and prices the sync cannot fill",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := opts.loadPrices()
			if err != nil {
				return err
			}

			dir := site.New(siteDir)
			pages, err := dir.Pages()
			if err != nil {
				return err
			}

			syncer := pricesync.New(table, nil, opts.logger)
			out := cmd.OutOrStdout()
			missing := 0

			for _, page := range pages {
				doc, err := dir.Open(page)
				if err != nil {
					return err
				}

				// differences are measured against the page as authored
				mismatches := syncer.HighlightPriceUpdates(doc, false)
				syncer.LoadAllPrices(doc)
				result := syncer.VerifyAllPrices(doc)

				fmt.Fprintf(out, "%s: %d/%d prices loaded, %d differences\n", page, result.Loaded, result.Total, len(mismatches))
				for _, m := range mismatches {
					fmt.Fprintf(out, "  %s: %s -> %s\n", m.Product, m.HTMLPrice, m.SystemPrice)
				}
				for _, name := range result.Missing {
					fmt.Fprintf(out, "  missing %s\n", name)
				}
				missing += len(result.Missing)
			}

			if missing > 0 {
				return fmt.Errorf("%w: %d", errPricesMissing, missing)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&siteDir, "site", "site", "Site directory to check")
	return cmd
}
