package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aquarisk/workbench/internal/scoring"
)

var (
	scoreLat          float64
	scoreSector       string
	scoreValuation    float64
	scoreSupplierRisk float64
	scoreReuseInvest  bool
	scoreLegal        float64
	scoreImage        float64
	scoreHorizon      int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a hypothetical site without persisting anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		res := scoring.Score(
			scoring.Inputs{
				Lat:             scoreLat,
				Sector:          scoreSector,
				SupplierRiskPct: scoreSupplierRisk,
				ReuseInvest:     scoreReuseInvest,
				Valuation:       scoreValuation,
			},
			scoring.Parameters{
				LegalPressure: scoreLegal,
				ImageRisk:     scoreImage,
			},
		)

		fmt.Printf("Sector coefficient: %.2f\n", res.Coefficient)
		fmt.Printf("Physical:           %.2f\n", res.Physical)
		fmt.Printf("Regulatory:         %.2f\n", res.Regulatory)
		fmt.Printf("Reputation:         %.2f\n", res.Reputation)
		fmt.Printf("Resilience:         %.2f\n", res.Resilience)
		fmt.Printf("Global score:       %.2f / 5\n", res.Global)
		fmt.Printf("VaR:                %.0f\n", res.VaR)

		if scoreHorizon != 0 {
			aggravation, ok := scoring.ProjectionFor(scoreHorizon)
			if !ok {
				return fmt.Errorf("no climate projection for horizon %d", scoreHorizon)
			}
			fmt.Printf("\nClimate horizon %d (aggravation %.1f):\n", scoreHorizon, aggravation)
			fmt.Printf("  Aggravated VaR: %.0f\n", res.VaR*aggravation)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().Float64Var(&scoreLat, "lat", 48.8566, "site latitude")
	scoreCmd.Flags().StringVar(&scoreSector, "sector", "Agroalimentaire", "sector (catalog key or label)")
	scoreCmd.Flags().Float64Var(&scoreValuation, "valuation", 0, "site valuation")
	scoreCmd.Flags().Float64Var(&scoreSupplierRisk, "supplier-risk", 0, "share of suppliers in water-stressed areas [0-100]")
	scoreCmd.Flags().BoolVar(&scoreReuseInvest, "reuse-invest", false, "site has invested in water reuse")
	scoreCmd.Flags().Float64Var(&scoreLegal, "legal-pressure", 0, "legal pressure [0-100]")
	scoreCmd.Flags().Float64Var(&scoreImage, "image-risk", 0, "image risk [0-100]")
	scoreCmd.Flags().IntVar(&scoreHorizon, "horizon", 0, "climate projection horizon year (e.g. 2030)")
	rootCmd.AddCommand(scoreCmd)
}
