// Package scoring implements the multi-factor water-risk engine.
//
// The engine is pure: identical inputs always produce identical scores,
// and every output is finite. Component scores are reported after
// weighting, which is what the audit store and the report show.
package scoring

import (
	"math"

	"github.com/aquarisk/workbench/internal/model"
)

// Component weights. They sum to 1.
const (
	WeightPhysical   = 0.40
	WeightRegulatory = 0.30
	WeightReputation = 0.10
	WeightResilience = 0.20
)

// globalScale calibrates the weighted sum onto the [0, 5] band. The
// constant must be preserved exactly so scores stay comparable across
// historical snapshots.
const globalScale = 10.0 / 3.5

// Inputs are the site facts the engine consumes.
type Inputs struct {
	Lat             float64 // absolute value is used
	Sector          string  // key, label, or legacy "Label (NN%)"
	SupplierRiskPct float64 // share of suppliers in water-stressed areas
	ReuseInvest     bool    // site has invested in water reuse
	Valuation       float64 // non-negative
}

// Parameters are the analyst-tunable pressure dials, both in [0, 100].
type Parameters struct {
	LegalPressure float64
	ImageRisk     float64
}

// Result carries the weighted component scores, the global score and the
// derived Value-at-Risk.
type Result struct {
	Physical    float64 `json:"score_physical"`
	Regulatory  float64 `json:"score_regulatory"`
	Reputation  float64 `json:"score_reputation"`
	Resilience  float64 `json:"score_resilience"`
	Global      float64 `json:"score_global"`
	VaR         float64 `json:"var_amount"`
	Coefficient float64 `json:"sector_coefficient"`
}

// Score computes the component scores, the global score and the VaR for
// the given facts and parameters.
func Score(in Inputs, p Parameters) Result {
	c := model.CoefficientFor(in.Sector)

	physical := clamp((2.0+math.Abs(in.Lat)/40)*c*1.5, 1, 5) * WeightPhysical

	regBase := 4.0
	if in.ReuseInvest {
		regBase = 1.5
	}
	regulatory := clamp(regBase+p.LegalPressure/100, 0, 5) * WeightRegulatory

	reputation := clamp(p.ImageRisk/20, 0, 5) * WeightReputation

	resilience := clamp(1+in.SupplierRiskPct/20, 0, 5) * WeightResilience

	global := clamp((physical+regulatory+reputation+resilience)*globalScale, 0, 5)

	valo := math.Max(in.Valuation, 0)

	return Result{
		Physical:    physical,
		Regulatory:  regulatory,
		Reputation:  reputation,
		Resilience:  resilience,
		Global:      global,
		VaR:         valo * c * (global / 10),
		Coefficient: c,
	}
}

// clamp saturates v into [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
