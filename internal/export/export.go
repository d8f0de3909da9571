// Package export renders the submission collection as downloadable files.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/parisxmas/checkindesk/internal/models"
)

const sheetName = "Submissions"

// Column layout of the spreadsheet export.
var columns = []struct {
	Label string
	Key   string
	Width float64
}{
	{"ID", "id", 16},
	{"Name", "name", 24},
	{"Phone", "phone", 14},
	{"Email", "email", 28},
	{"Address", "address", 36},
	{"Aadhar", "aadhar", 16},
	{"Check-in", "checkin", 12},
	{"Check-out", "checkout", 12},
	{"Adults", "adults", 8},
	{"Purpose", "purpose", 40},
	{"Submitted At", "submittedAt", 26},
}

// Filename is submissions-<YYYY-MM-DD>.<ext>, dated in UTC.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("submissions-%s.%s", now.UTC().Format("2006-01-02"), ext)
}

// WriteJSON writes subs as a JSON array indented by two spaces.
func WriteJSON(w io.Writer, subs []models.Submission) error {
	if subs == nil {
		subs = []models.Submission{}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteXLSX writes subs as a single-sheet workbook, one row per record in
// stored order.
func WriteXLSX(w io.Writer, subs []models.Submission) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("export: new sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col.Label)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, name, name, col.Width)
	}

	for r, s := range subs {
		for i, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			f.SetCellStr(sheetName, cell, s.Get(col.Key))
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: drop default sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write xlsx: %w", err)
	}
	return nil
}
