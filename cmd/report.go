package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aquarisk/workbench/internal/enrich"
	"github.com/aquarisk/workbench/internal/report"
	"github.com/aquarisk/workbench/internal/session"
	"github.com/aquarisk/workbench/pkg/staticmap"
)

var (
	reportSiteID int64
	reportOut    string
	reportNoMap  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the one-page audit PDF for a site",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sess := session.New(st)
		if err := sess.SelectSite(ctx, reportSiteID); err != nil {
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
		})
		sess.ApplyBundle(bundle)
		snap = sess.Snapshot()

		var mapPath string
		if !reportNoMap && !snap.Unlocated {
			renderer := staticmap.NewRenderer(
				staticmap.WithBaseURL(cfg.Providers.StaticMap.BaseURL),
				staticmap.WithZoom(cfg.Providers.StaticMap.Zoom),
			)
			path, err := renderer.Render(ctx, snap.Lat, snap.Lon)
			if err != nil {
				zap.L().Warn("report: map unavailable", zap.Error(err))
			} else {
				mapPath = path
				defer os.Remove(mapPath) //nolint:errcheck
			}
		}

		pdf, err := report.NewBuilder().Build(report.Input{
			Snapshot: snap,
			Score:    sess.Score(),
			MapPath:  mapPath,
			Date:     time.Now(),
		})
		if err != nil {
			return err
		}

		out := reportOut
		if out == "" {
			out = fmt.Sprintf("audit-site-%d.pdf", reportSiteID)
		}
		if err := os.WriteFile(out, pdf, 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d bytes)\n", out, len(pdf))
		return nil
	},
}

func init() {
	reportCmd.Flags().Int64Var(&reportSiteID, "site", 0, "site id (required)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "output path (default audit-site-<id>.pdf)")
	reportCmd.Flags().BoolVar(&reportNoMap, "no-map", false, "skip the static map")
	reportCmd.MarkFlagRequired("site") //nolint:errcheck
	rootCmd.AddCommand(reportCmd)
}
