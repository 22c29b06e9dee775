package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aquarisk/workbench/internal/model"
	"github.com/aquarisk/workbench/pkg/geocode"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage client sites",
}

var (
	siteAddClientID int64
	siteAddCountry  string
	siteAddCity     string
	siteAddActivity string
	siteAddLat      float64
	siteAddLon      float64
)

var siteAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a site for a client",
	Long:  "Registers a geolocated site. Without explicit --lat/--lon the city is forward-geocoded; when that fails the site is stored unlocated at (0, 0).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		site := model.Site{
			ClientID: siteAddClientID,
			Name:     args[0],
			Country:  siteAddCountry,
			City:     siteAddCity,
			Lat:      siteAddLat,
			Lon:      siteAddLon,
			Activity: siteAddActivity,
		}

		if site.Unlocated() && site.City != "" {
			gc := geocode.NewClient(geocode.WithBaseURL(cfg.Providers.Geocode.BaseURL))
			res, err := gc.Forward(ctx, site.City, site.Country)
			if err != nil {
				zap.L().Warn("site add: geocoding failed, storing unlocated",
					zap.String("city", site.City),
					zap.Error(err),
				)
			} else {
				site.Lat, site.Lon = res.Lat, res.Lon
			}
		}

		created, err := st.CreateSite(ctx, site)
		if err != nil {
			return err
		}

		if created.Unlocated() {
			fmt.Printf("Created site %d: %s (unlocated)\n", created.ID, created.Name)
		} else {
			fmt.Printf("Created site %d: %s (%.4f, %.4f)\n", created.ID, created.Name, created.Lat, created.Lon)
		}
		return nil
	},
}

var siteListClientID int64

var siteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sites, optionally for one client",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if siteListClientID != 0 {
			sites, err := st.ListSites(ctx, siteListClientID)
			if err != nil {
				return err
			}
			printSites(sites)
			return nil
		}

		all, err := st.ListAllSites(ctx)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No sites registered.")
			return nil
		}
		fmt.Printf("%-5s %-25s %-25s %-15s %s\n", "ID", "SITE", "CLIENT", "COUNTRY", "CITY")
		for _, s := range all {
			fmt.Printf("%-5d %-25s %-25s %-15s %s\n", s.ID, s.Name, s.ClientName, s.Country, s.City)
		}
		return nil
	},
}

func printSites(sites []model.Site) {
	if len(sites) == 0 {
		fmt.Println("No sites registered.")
		return
	}
	fmt.Printf("%-5s %-25s %-15s %-20s %s\n", "ID", "NAME", "COUNTRY", "CITY", "LOCATION")
	for _, s := range sites {
		loc := fmt.Sprintf("%.4f, %.4f", s.Lat, s.Lon)
		if s.Unlocated() {
			loc = "unlocated"
		}
		fmt.Printf("%-5d %-25s %-15s %-20s %s\n", s.ID, s.Name, s.Country, s.City, loc)
	}
}

func init() {
	siteAddCmd.Flags().Int64Var(&siteAddClientID, "client", 0, "owning client id (required)")
	siteAddCmd.Flags().StringVar(&siteAddCountry, "country", "France", "site country")
	siteAddCmd.Flags().StringVar(&siteAddCity, "city", "", "site city")
	siteAddCmd.Flags().StringVar(&siteAddActivity, "activity", "", "specific activity at the site")
	siteAddCmd.Flags().Float64Var(&siteAddLat, "lat", 0, "latitude (skips geocoding)")
	siteAddCmd.Flags().Float64Var(&siteAddLon, "lon", 0, "longitude (skips geocoding)")
	siteAddCmd.MarkFlagRequired("client") //nolint:errcheck

	siteListCmd.Flags().Int64Var(&siteListClientID, "client", 0, "filter by client id")

	siteCmd.AddCommand(siteAddCmd)
	siteCmd.AddCommand(siteListCmd)
	rootCmd.AddCommand(siteCmd)
}
