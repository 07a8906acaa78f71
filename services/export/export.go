// Package exportsvc renders back-office reports as XLSX or PDF downloads.
package exportsvc

import (
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Table is one flat report: a title row, a header row and data rows.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

const sheetName = "Reporte"

func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return errors.Wrap(err, "creating sheet")
	}
	f.SetActiveSheet(idx)
	if err = f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "dropping default sheet")
	}

	if err = f.SetCellValue(sheetName, "A1", t.Title); err != nil {
		return errors.Wrap(err, "writing title")
	}
	for col, header := range t.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return errors.Wrap(err, "resolving header cell")
		}
		if err = f.SetCellValue(sheetName, cell, header); err != nil {
			return errors.Wrap(err, "writing header")
		}
	}
	for rowIdx, row := range t.Rows {
		for col, val := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+3)
			if err != nil {
				return errors.Wrap(err, "resolving cell")
			}
			if err = f.SetCellValue(sheetName, cell, val); err != nil {
				return errors.Wrap(err, "writing cell")
			}
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func WritePDF(w io.Writer, t Table) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, t.Title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(t.Headers))

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, header := range t.Headers {
		pdf.CellFormat(colW, 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range t.Rows {
		for _, val := range row {
			pdf.CellFormat(colW, 7, val, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return errors.Wrap(pdf.Output(w), "writing pdf")
}
