package scoring

// ClimateProjection pairs a horizon year with its physical-risk
// aggravation score. The values are calibration constants inherited from
// the desk's climate worksheet and are reproduced verbatim; they are not
// derived.
type ClimateProjection struct {
	HorizonYear int
	Aggravation float64
}

// ClimateProjections is the declared projection table.
var ClimateProjections = []ClimateProjection{
	{HorizonYear: 2024, Aggravation: 2.5},
	{HorizonYear: 2030, Aggravation: 3.2},
}

// ProjectionFor returns the aggravation score for a horizon year.
func ProjectionFor(year int) (float64, bool) {
	for _, p := range ClimateProjections {
		if p.HorizonYear == year {
			return p.Aggravation, true
		}
	}
	return 0, false
}
