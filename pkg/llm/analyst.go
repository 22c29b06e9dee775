package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// SimulationMarker is embedded verbatim in every simulated commentary so
// the UI can show its simulation-mode banner.
const SimulationMarker = "MODE SIMULATION"

// errorMarker prefixes commentary produced when the provider failed.
const errorMarker = "❌"

// Source is an entry of the controlled data-source catalog the analyst
// is instructed to cite.
type Source struct {
	Name        string
	Description string
}

// DataSources is the controlled catalog embedded in every prompt.
var DataSources = []Source{
	{Name: "WRI Aqueduct", Description: "stress hydrique des bassins versants"},
	{Name: "Open-Meteo", Description: "conditions météo courantes et précipitations"},
	{Name: "OpenStreetMap / Nominatim", Description: "géocodage et contexte territorial"},
	{Name: "Eaufrance / BNPE", Description: "prélèvements d'eau déclarés"},
	{Name: "Flux presse RSS", Description: "actualités récentes du site et du secteur"},
}

// SiteContext is the enriched context handed to the analyst.
type SiteContext struct {
	Entity   string
	SiteName string
	City     string
	Country  string
	Sector   string
	Facts    map[string]string // score, valuation, weather... embedded as-is
}

// Analyst produces markdown commentary for a site. Without an API key it
// runs in simulation mode and never calls out.
type Analyst struct {
	client    Client
	model     string
	maxTokens int64
}

// NewAnalyst creates an Analyst. An empty apiKey selects simulation mode.
func NewAnalyst(apiKey, model string, maxTokens int64) *Analyst {
	a := &Analyst{model: model, maxTokens: maxTokens}
	if apiKey != "" {
		a.client = NewClient(apiKey)
	}
	return a
}

// NewAnalystWithClient creates an Analyst over an existing Client.
func NewAnalystWithClient(c Client, model string, maxTokens int64) *Analyst {
	return &Analyst{client: c, model: model, maxTokens: maxTokens}
}

// Simulated reports whether the analyst runs without an API key.
func (a *Analyst) Simulated() bool {
	return a.client == nil
}

// Commentary returns markdown commentary for the site. It never returns
// an error: provider failures yield a marked error string so rendering
// always has text to show.
func (a *Analyst) Commentary(ctx context.Context, sc SiteContext, question string) string {
	if a.client == nil {
		return a.simulate(sc)
	}

	resp, err := a.client.CreateMessage(ctx, MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    systemPrompt(),
		Messages: []Message{
			{Role: "user", Content: userPrompt(sc, question)},
		},
	})
	if err != nil {
		zap.L().Warn("llm: commentary failed",
			zap.String("entity", sc.Entity),
			zap.Error(err),
		)
		return fmt.Sprintf("%s Analyse indisponible : %v", errorMarker, err)
	}
	if resp.Text == "" {
		return fmt.Sprintf("%s Analyse indisponible : réponse vide", errorMarker)
	}
	return resp.Text
}

// simulate builds the deterministic no-key commentary. It always names
// the entity, the city and the sector.
func (a *Analyst) simulate(sc SiteContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ **%s** — aucune clé API configurée.\n\n", SimulationMarker)
	fmt.Fprintf(&b, "Analyse indicative pour **%s** (%s, %s), secteur %s :\n\n", sc.Entity, sc.City, sc.Country, sc.Sector)
	b.WriteString("- L'exposition eau du site dépend du stress hydrique local et de la vulnérabilité sectorielle.\n")
	b.WriteString("- Configurer une clé API pour obtenir une analyse complète citant les sources du catalogue.\n")
	return b.String()
}

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("Tu es un analyste risque eau pour portefeuilles industriels. ")
	b.WriteString("Tu t'appuies exclusivement sur le catalogue de sources ci-dessous et tu cites chaque source utilisée par son nom.\n\n")
	b.WriteString("Catalogue de sources :\n")
	for _, s := range DataSources {
		fmt.Fprintf(&b, "- %s : %s\n", s.Name, s.Description)
	}
	b.WriteString("\nRéponds en markdown. Termine par une classification du risque global : Low, Medium ou High.")
	return b.String()
}

func userPrompt(sc SiteContext, question string) string {
	var b strings.Builder
	b.WriteString("Contexte du site :\n")
	fmt.Fprintf(&b, "- Entreprise : %s\n", sc.Entity)
	if sc.SiteName != "" {
		fmt.Fprintf(&b, "- Site : %s\n", sc.SiteName)
	}
	fmt.Fprintf(&b, "- Localisation : %s, %s\n", sc.City, sc.Country)
	fmt.Fprintf(&b, "- Secteur : %s\n", sc.Sector)

	// Stable ordering keeps prompts reproducible for identical contexts.
	keys := make([]string, 0, len(sc.Facts))
	for k := range sc.Facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s : %s\n", k, sc.Facts[k])
	}

	b.WriteString("\nQuestion de l'analyste : ")
	if question == "" {
		b.WriteString("évalue le risque eau de ce site.")
	} else {
		b.WriteString(question)
	}
	return b.String()
}
