package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/aquarisk/workbench/internal/model"
	"github.com/aquarisk/workbench/internal/scoring"
)

const (
	maxHeadlines   = 5
	headlineWidth  = 85
	mapImageWidth  = 60.0
	mapImageHeight = 45.0
)

// Input is everything the one-page audit report needs. MapPath is
// optional; when empty the map block is omitted.
type Input struct {
	Snapshot model.Snapshot
	Score    scoring.Result
	MapPath  string
	Date     time.Time
}

// Builder renders one-page audit reports.
type Builder struct {
	sanitize *encoding.Encoder
}

// NewBuilder returns a report builder. Text is transcoded to the
// Windows-1252 repertoire of the core PDF fonts; unsupported runes are
// replaced rather than aborting the render.
func NewBuilder() *Builder {
	return &Builder{
		sanitize: encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()),
	}
}

// Build renders the report and returns the PDF bytes.
func (b *Builder) Build(in Input) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	b.title(pdf, in)
	if in.MapPath != "" {
		// Top-right corner, next to the identity block.
		pdf.ImageOptions(in.MapPath, 135, 30, mapImageWidth, mapImageHeight, false, fpdf.ImageOptions{}, 0, "")
	}
	b.identity(pdf, in.Snapshot)
	b.risk(pdf, in.Score)
	b.financial(pdf, in.Score)
	b.context(pdf, in.Snapshot)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, eris.Wrap(err, "report: render pdf")
	}
	return buf.Bytes(), nil
}

func (b *Builder) title(pdf *fpdf.Fpdf, in Input) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, b.text("Rapport d'audit risque eau"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, b.text(in.Date.Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func (b *Builder) identity(pdf *fpdf.Fpdf, s model.Snapshot) {
	b.heading(pdf, "Identification")
	b.field(pdf, "Entreprise", s.Entity)
	b.field(pdf, "Site", fmt.Sprintf("%s (%s, %s)", s.SiteName, s.City, s.Country))
	b.field(pdf, "Secteur", s.Sector)
	b.field(pdf, "Valorisation", fmt.Sprintf("%.0f EUR", s.Valuation))
	if s.Unlocated {
		b.field(pdf, "Localisation", "non localisé")
	}
	pdf.Ln(3)
}

func (b *Builder) risk(pdf *fpdf.Fpdf, r scoring.Result) {
	b.heading(pdf, "Evaluation du risque")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, b.text(fmt.Sprintf("Score global : %.2f / 5", r.Global)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	b.field(pdf, "Risque physique", fmt.Sprintf("%.2f", r.Physical))
	b.field(pdf, "Risque réglementaire", fmt.Sprintf("%.2f", r.Regulatory))
	b.field(pdf, "Risque réputationnel", fmt.Sprintf("%.2f", r.Reputation))
	b.field(pdf, "Résilience", fmt.Sprintf("%.2f", r.Resilience))
	pdf.Ln(3)
}

func (b *Builder) financial(pdf *fpdf.Fpdf, r scoring.Result) {
	b.heading(pdf, "Impact financier")
	b.field(pdf, "Valeur à risque", fmt.Sprintf("%.0f EUR", r.VaR))
	b.field(pdf, "Coefficient sectoriel", fmt.Sprintf("%.2f", r.Coefficient))
	pdf.Ln(3)
}

func (b *Builder) context(pdf *fpdf.Fpdf, s model.Snapshot) {
	b.heading(pdf, "Contexte")
	if s.Weather != nil {
		b.field(pdf, "Météo", fmt.Sprintf("%.1f°C, vent %.0f km/h, pluie %.1f mm",
			s.Weather.TempC, s.Weather.WindKmh, s.Weather.RainTodayMm))
	}
	news := s.News
	if len(news) > maxHeadlines {
		news = news[:maxHeadlines]
	}
	pdf.SetFont("Helvetica", "", 9)
	for _, item := range news {
		pdf.CellFormat(0, 5, b.text("- "+truncate(item.Title, headlineWidth)), "", 1, "L", false, 0, "")
	}
	if s.Commentary != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 4.5, b.text(s.Commentary), "", "L", false)
	}
}

func (b *Builder) heading(pdf *fpdf.Fpdf, label string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(230, 238, 245)
	pdf.CellFormat(0, 8, b.text(label), "", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Ln(1)
}

func (b *Builder) field(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(50, 6, b.text(label), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, b.text(value), "", 1, "L", false, 0, "")
}

func (b *Builder) text(s string) string {
	out, err := b.sanitize.String(s)
	if err != nil {
		return s
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
