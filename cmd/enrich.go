package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aquarisk/workbench/internal/enrich"
	"github.com/aquarisk/workbench/internal/session"
)

var (
	enrichSiteID   int64
	enrichQuestion string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a site from the external providers",
	Long:  "Geocodes the site, fetches current weather, recent headlines and an encyclopedic profile, and asks the analyst for commentary. Failed providers degrade individually.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sess := session.New(st)
		if err := sess.SelectSite(ctx, enrichSiteID); err != nil {
			return err
		}
		snap := sess.Snapshot()

		bundle := newOrchestrator().Run(ctx, enrich.Request{
			Entity:   snap.Entity,
			SiteName: snap.SiteName,
			City:     snap.City,
			Country:  snap.Country,
			Sector:   snap.Sector,
			Lat:      snap.Lat,
			Lon:      snap.Lon,
			Question: enrichQuestion,
		})
		sess.ApplyBundle(bundle)

		if bundle.Geocode != nil {
			fmt.Printf("Location: %.4f, %.4f (%s)\n", bundle.Geocode.Lat, bundle.Geocode.Lon, bundle.Geocode.DisplayName)
		}
		if bundle.Weather != nil {
			fmt.Printf("Weather:  %.1f°C, wind %.0f km/h, rain %.1f mm\n",
				bundle.Weather.TempC, bundle.Weather.WindKmh, bundle.Weather.RainTodayMm)
		}
		fmt.Println("News:")
		for _, item := range bundle.News {
			fmt.Printf("  - %s\n", item.Title)
		}
		if bundle.Commentary != "" {
			fmt.Printf("\n%s\n", bundle.Commentary)
		}
		for provider, reason := range bundle.Unavailable {
			fmt.Printf("unavailable: %s (%s)\n", provider, reason)
		}
		return nil
	},
}

func init() {
	enrichCmd.Flags().Int64Var(&enrichSiteID, "site", 0, "site id (required)")
	enrichCmd.Flags().StringVar(&enrichQuestion, "question", "", "question for the analyst")
	enrichCmd.MarkFlagRequired("site") //nolint:errcheck
	rootCmd.AddCommand(enrichCmd)
}
