// Package export serializes extraction rows for the tabular-export
// collaborator as an XLSX workbook.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

const sheetName = "Notas"

// BuildXLSX returns a workbook with one sheet, the fixed 13-column header
// and one row per nota in document order. Absent fields stay empty cells.
func BuildXLSX(rows []models.NotaRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, h := range models.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for rowIdx := range rows {
		values := rows[rowIdx].Values()
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	// Widen the text-heavy columns
	_ = f.SetColWidth(sheetName, "B", "B", 34) // nome / razão social
	_ = f.SetColWidth(sheetName, "C", "C", 30) // endereço
	_ = f.SetColWidth(sheetName, "D", "E", 22) // bairro, município
	_ = f.SetColWidth(sheetName, "J", "K", 16) // telefones

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
