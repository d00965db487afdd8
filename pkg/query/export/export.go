// Package export renders a query result set as an XLSX workbook, one row
// per CVE: a fixed header row followed by data rows addressed by column
// index.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cyw0ng95/vulnintel/pkg/model"
)

const sheetName = "CVEs"

var header = []string{"CVE ID", "Year", "Severity", "Published", "Last Modified", "Translated", "Description"}

// WriteXLSX renders cves as an XLSX workbook and writes it to w.
func WriteXLSX(w io.Writer, cves []model.CVE) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("export: header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return fmt.Errorf("export: set header: %w", err)
		}
	}

	for i, c := range cves {
		row := i + 2
		values := []any{
			c.CVEID,
			strconv.Itoa(c.Year),
			string(c.Severity),
			c.Published.Format("2006-01-02"),
			c.LastModified.Format("2006-01-02"),
			strconv.FormatBool(c.Translated),
			primaryDescription(c),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("export: row %d cell: %w", row, err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("export: set row %d: %w", row, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func primaryDescription(c model.CVE) string {
	for _, d := range c.Descriptions {
		if strings.EqualFold(d.Lang, "en") {
			return d.Value
		}
	}
	if len(c.Descriptions) > 0 {
		return c.Descriptions[0].Value
	}
	return ""
}
