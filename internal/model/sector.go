package model

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SectorProfile describes the water-exposure intensity of a business
// activity. Coefficient is in [0, 1].
type SectorProfile struct {
	Key         string  `yaml:"key" json:"key"`
	Label       string  `yaml:"label" json:"label"`
	Coefficient float64 `yaml:"coefficient" json:"coefficient"`
}

// DefaultCoefficient is used when a sector cannot be resolved.
const DefaultCoefficient = 0.5

// Sectors is the closed sector catalog, ordered by descending
// vulnerability.
var Sectors = []SectorProfile{
	{Key: "agroalimentaire", Label: "Agroalimentaire", Coefficient: 1.00},
	{Key: "mines", Label: "Mines", Coefficient: 0.90},
	{Key: "chimie", Label: "Chimie", Coefficient: 0.85},
	{Key: "textile", Label: "Textile", Coefficient: 0.80},
	{Key: "energie", Label: "Energie", Coefficient: 0.75},
	{Key: "data-centers", Label: "Data Centers", Coefficient: 0.70},
	{Key: "btp", Label: "BTP", Coefficient: 0.60},
	{Key: "automobile", Label: "Automobile", Coefficient: 0.55},
	{Key: "luxe", Label: "Luxe", Coefficient: 0.45},
	{Key: "sante", Label: "Santé", Coefficient: 0.30},
}

// legacyLabelRe matches the historical label form "Label (NN%)" where the
// tail parenthetical carries the coefficient as a percentage.
var legacyLabelRe = regexp.MustCompile(`^(.*?)\s*\((\d+(?:\.\d+)?)\s*%\)$`)

// SectorByKey looks up a catalog entry by its stable key.
func SectorByKey(key string) (SectorProfile, bool) {
	for _, p := range Sectors {
		if p.Key == key {
			return p, true
		}
	}
	return SectorProfile{}, false
}

// SectorByLabel looks up a catalog entry by its human label,
// case-insensitively.
func SectorByLabel(label string) (SectorProfile, bool) {
	for _, p := range Sectors {
		if strings.EqualFold(p.Label, label) {
			return p, true
		}
	}
	return SectorProfile{}, false
}

// ParseLegacySector parses the historical "Label (NN%)" form into a
// profile. The coefficient comes from the parenthetical, not the catalog,
// so legacy audits restore with the exact coefficient they were scored
// with.
func ParseLegacySector(s string) (SectorProfile, bool) {
	m := legacyLabelRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return SectorProfile{}, false
	}
	pct, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return SectorProfile{}, false
	}
	label := strings.TrimSpace(m[1])
	p := SectorProfile{Label: label, Coefficient: pct / 100}
	if known, ok := SectorByLabel(label); ok {
		p.Key = known.Key
	}
	return p, true
}

// ResolveSector resolves a sector given as key, label, or legacy
// "Label (NN%)" string. Unknown sectors report ok=false and the default
// coefficient.
func ResolveSector(s string) (SectorProfile, bool) {
	if p, ok := SectorByKey(s); ok {
		return p, true
	}
	if p, ok := SectorByLabel(s); ok {
		return p, true
	}
	if p, ok := ParseLegacySector(s); ok {
		return p, true
	}
	return SectorProfile{Label: s, Coefficient: DefaultCoefficient}, false
}

// CoefficientFor returns the vulnerability coefficient for a sector
// string, falling back to DefaultCoefficient when unknown.
func CoefficientFor(s string) float64 {
	p, _ := ResolveSector(s)
	return p.Coefficient
}

// LoadSectorCatalog replaces the catalog from a YAML file. Intended for
// desk-specific calibrations; the built-in catalog is used when no file
// is configured.
func LoadSectorCatalog(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "model: read sector catalog %s", path)
	}
	var profiles []SectorProfile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return eris.Wrap(err, "model: parse sector catalog")
	}
	if len(profiles) == 0 {
		return eris.New("model: sector catalog is empty")
	}
	for _, p := range profiles {
		if p.Key == "" || p.Coefficient < 0 || p.Coefficient > 1 {
			return eris.Errorf("model: invalid sector profile %q", p.Key)
		}
	}
	Sectors = profiles
	return nil
}
