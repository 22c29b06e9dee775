package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aquarisk/workbench/internal/session"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Save, list and restore audit snapshots",
}

var (
	auditSiteID       int64
	auditValuation    float64
	auditSector       string
	auditSupplierRisk float64
	auditReuseInvest  bool
	auditLegal        float64
	auditImage        float64
)

var auditSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Score the site and append an immutable audit snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sess := session.New(st)
		if err := sess.SelectSite(ctx, auditSiteID); err != nil {
			return err
		}
		if err := sess.SetValuation(auditValuation); err != nil {
			return err
		}
		if auditSector != "" {
			if err := sess.SetSector(auditSector); err != nil {
				return err
			}
		}
		if err := sess.SetSupplierRisk(auditSupplierRisk); err != nil {
			return err
		}
		if err := sess.SetParameters(auditLegal, auditImage); err != nil {
			return err
		}
		sess.SetReuseInvest(auditReuseInvest)

		audit, err := sess.SaveAudit(ctx)
		if err != nil {
			return err
		}

		res := sess.Score()
		fmt.Printf("Saved audit %d for site %d\n", audit.ID, audit.SiteID)
		fmt.Printf("  Global score: %.2f / 5\n", res.Global)
		fmt.Printf("  VaR:          %.0f\n", res.VaR)
		return nil
	},
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit history for a site, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		audits, err := st.ListAudits(ctx, auditSiteID)
		if err != nil {
			return err
		}
		if len(audits) == 0 {
			fmt.Println("No audits recorded.")
			return nil
		}
		fmt.Printf("%-5s %-18s %-12s %s\n", "ID", "DATE", "SCORE", "VALUATION")
		for _, a := range audits {
			fmt.Printf("%-5d %-18s %-12.2f %.0f\n", a.ID, a.Date.Format("2006-01-02 15:04"), a.ScoreGlobal, a.Valuation)
		}
		return nil
	},
}

var auditLoadCmd = &cobra.Command{
	Use:   "load <audit-id>",
	Short: "Restore a stored snapshot and re-score it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var auditID int64
		if _, err := fmt.Sscanf(args[0], "%d", &auditID); err != nil {
			return fmt.Errorf("invalid audit id %q", args[0])
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sess := session.New(st)
		if err := sess.LoadAudit(ctx, auditID); err != nil {
			return err
		}

		snap := sess.Snapshot()
		res := sess.Score()
		fmt.Printf("Restored audit %d\n", auditID)
		fmt.Printf("  Entity:    %s\n", snap.Entity)
		fmt.Printf("  Site:      %s (%s, %s)\n", snap.SiteName, snap.City, snap.Country)
		fmt.Printf("  Sector:    %s\n", snap.Sector)
		fmt.Printf("  Valuation: %.0f\n", snap.Valuation)
		fmt.Printf("  Score:     %.2f / 5\n", res.Global)
		fmt.Printf("  VaR:       %.0f\n", res.VaR)
		return nil
	},
}

func init() {
	auditSaveCmd.Flags().Int64Var(&auditSiteID, "site", 0, "site id (required)")
	auditSaveCmd.Flags().Float64Var(&auditValuation, "valuation", 0, "site valuation")
	auditSaveCmd.Flags().StringVar(&auditSector, "sector", "", "override client sector for this audit")
	auditSaveCmd.Flags().Float64Var(&auditSupplierRisk, "supplier-risk", 0, "share of suppliers in water-stressed areas [0-100]")
	auditSaveCmd.Flags().BoolVar(&auditReuseInvest, "reuse-invest", false, "site has invested in water reuse")
	auditSaveCmd.Flags().Float64Var(&auditLegal, "legal-pressure", 0, "legal pressure [0-100]")
	auditSaveCmd.Flags().Float64Var(&auditImage, "image-risk", 0, "image risk [0-100]")
	auditSaveCmd.MarkFlagRequired("site") //nolint:errcheck

	auditListCmd.Flags().Int64Var(&auditSiteID, "site", 0, "site id (required)")
	auditListCmd.MarkFlagRequired("site") //nolint:errcheck

	auditCmd.AddCommand(auditSaveCmd)
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditLoadCmd)
	rootCmd.AddCommand(auditCmd)
}
