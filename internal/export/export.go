// Package export renders the portfolio view to spreadsheet files.
package export

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/aquarisk/workbench/internal/model"
	"github.com/aquarisk/workbench/internal/store"
)

var portfolioHeader = []string{
	"Client", "Secteur", "Site", "Pays", "Ville", "Lat", "Lon",
	"Dernier audit", "Score global", "Valorisation",
}

// Portfolio writes every site with its latest audit to an xlsx workbook
// at path.
func Portfolio(ctx context.Context, st store.Store, path string) error {
	rows, err := st.Portfolio(ctx)
	if err != nil {
		return eris.Wrap(err, "export: load portfolio")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Portefeuille")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range portfolioHeader {
		header.AddCell().SetString(h)
	}
	for _, r := range rows {
		addPortfolioRow(sheet, r)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addPortfolioRow(sheet *xlsx.Sheet, r model.PortfolioRow) {
	row := sheet.AddRow()
	row.AddCell().SetString(r.ClientName)
	row.AddCell().SetString(r.ClientSector)
	row.AddCell().SetString(r.Name)
	row.AddCell().SetString(r.Country)
	row.AddCell().SetString(r.City)
	row.AddCell().SetFloatWithFormat(r.Lat, "0.0000")
	row.AddCell().SetFloatWithFormat(r.Lon, "0.0000")

	// Sites without any audit export with empty trailing columns.
	if r.LastAuditDate != nil {
		row.AddCell().SetString(r.LastAuditDate.Format("2006-01-02 15:04"))
	} else {
		row.AddCell().SetString("")
	}
	if r.LastScore != nil {
		row.AddCell().SetString(strconv.FormatFloat(*r.LastScore, 'f', 2, 64))
	} else {
		row.AddCell().SetString("")
	}
	if r.LastValuation != nil {
		row.AddCell().SetFloatWithFormat(*r.LastValuation, "0")
	} else {
		row.AddCell().SetString("")
	}
}
