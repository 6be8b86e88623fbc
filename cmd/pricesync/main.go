// cmd/pricesync/main.go
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vardan-naturals/storefront/internal/config"
	"github.com/vardan-naturals/storefront/internal/domain/pricing"
	"github.com/vardan-naturals/storefront/internal/pkg/logger"
)

// options are the flags shared by every subcommand
type options struct {
	pricesFile string
	saleFile   string
	logLevel   string
	logger     *logrus.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "pricesync",
		Short:        "Write price table prices into storefront pages",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.logger = logger.NewWithOutput(config.LoggingConfig{
				Level:  opts.logLevel,
				Format: "text",
			}, cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&opts.pricesFile, "prices", "data/prices.yaml", "Price table file (YAML or JSON)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	root.AddCommand(
		newApplyCmd(opts),
		newVerifyCmd(opts),
		newExportCmd(opts),
	)
	return root
}

func (o *options) loadPrices() (*pricing.Table, error) {
	table, err := pricing.LoadTable(o.pricesFile)
	if err != nil {
		return nil, err
	}
	o.logger.WithField("products", table.Len()).Debug("Price table loaded")
	return table, nil
}

func (o *options) loadSale() (*pricing.SaleConfig, error) {
	if o.saleFile == "" {
		return nil, nil
	}
	sale, err := pricing.LoadSaleConfig(o.saleFile)
	if err != nil {
		return nil, fmt.Errorf("load sale config: %w", err)
	}
	return sale, nil
}
