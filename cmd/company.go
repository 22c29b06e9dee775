package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aquarisk/workbench/pkg/quote"
	"github.com/aquarisk/workbench/pkg/registry"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Look up company financials to seed valuations",
}

var companyTicker string

var companyLookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Fetch registry financials and, with --ticker, the market cap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := registry.NewClient(cfg.Registry.Key, registry.WithBaseURL(cfg.Registry.BaseURL))
		company, err := reg.Lookup(ctx, args[0])
		if err != nil {
			// Missing key or lookup failure degrades to empty financials.
			zap.L().Warn("company lookup: registry unavailable", zap.Error(err))
		} else {
			fmt.Printf("%s (SIREN %s)\n", company.Name, company.SIREN)
			fmt.Printf("  Revenue:    %.0f\n", company.Financials.Revenue)
			fmt.Printf("  Net result: %.0f\n", company.Financials.NetResult)
			fmt.Printf("  Equity:     %.0f\n", company.Financials.Equity)
			fmt.Printf("  EBITDA:     %.0f\n", company.Financials.EBITDA)
		}

		if companyTicker != "" {
			qc := quote.NewClient(quote.WithBaseURL(cfg.Providers.Quote.BaseURL))
			q, err := qc.Lookup(ctx, companyTicker)
			if err != nil {
				zap.L().Warn("company lookup: quote unavailable", zap.Error(err))
				fallback := quote.Fallback()
				q = &fallback
			}
			fmt.Printf("%s [%s]\n", q.ShortName, companyTicker)
			fmt.Printf("  Market cap: %.0f\n", q.MarketCap)
			fmt.Printf("  Sector:     %s\n", q.Sector)
		}
		return nil
	},
}

func init() {
	companyLookupCmd.Flags().StringVar(&companyTicker, "ticker", "", "equity ticker for market cap")
	companyCmd.AddCommand(companyLookupCmd)
	rootCmd.AddCommand(companyCmd)
}
