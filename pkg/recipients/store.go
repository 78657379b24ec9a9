// Package recipients loads and exports the tabular (recipient, message,
// status) table backing a batch run. The store keeps rows in sheet order,
// never reorders or drops a loaded row, and performs no normalization:
// the delivery engine normalizes per attempt so the raw fields stay
// available for reprocessing.
package recipients

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zapdrive/zapdrive/pkg/delivery"
)

// Required and optional column headers, matched case- and space-insensitively.
const (
	ColumnNumber  = "Número"
	ColumnMessage = "Mensagem"
	ColumnStatus  = "Status"
)

// Record is one row of the batch table. Status is the only field ever
// mutated after load, and only by the batch runner.
type Record struct {
	// Number is the raw recipient identifier as it appears in the sheet.
	Number string

	// Message is the raw message body. Newlines are preserved.
	Message string

	// Status is the current delivery outcome for this record.
	Status delivery.Outcome

	// Detail is the bounded diagnostic excerpt for UnknownError records.
	Detail string

	// Row is the original 1-based sheet row. It is the record's identity
	// and is never reassigned.
	Row int
}

// Load reads the first sheet of the workbook at path. Rows missing either
// required field are dropped silently; a missing required column fails the
// whole load. A pre-existing status column is parsed back into the outcome
// taxonomy so a previously exported sheet round-trips; unrecognized status
// strings reset to Pending.
func Load(path string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("sheet %q is empty", sheet)}
	}

	numberCol, messageCol, statusCol, err := locateColumns(rows[0])
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var records []Record
	for i, row := range rows[1:] {
		number := cellAt(row, numberCol)
		message := cellAt(row, messageCol)
		if strings.TrimSpace(number) == "" || message == "" {
			// Incomplete rows are excluded at load time rather than
			// produced as row-level failures later.
			continue
		}

		record := Record{
			Number:  number,
			Message: message,
			Status:  delivery.OutcomePending,
			Row:     i + 2, // 1-based, after the header row
		}
		if statusCol >= 0 {
			record.Status, record.Detail = parseStatusCell(cellAt(row, statusCol))
		}
		records = append(records, record)
	}

	return records, nil
}

// Export writes the records to a workbook at path with the same schema as
// the input, status column populated with the localized display labels.
// Row order is preserved.
func Export(records []Record, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{ColumnNumber, ColumnMessage, ColumnStatus}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return &ExportError{Path: path, Err: err}
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return &ExportError{Path: path, Err: err}
		}
	}

	for i, record := range records {
		values := []string{record.Number, record.Message, statusCell(record)}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return &ExportError{Path: path, Err: err}
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return &ExportError{Path: path, Err: err}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	return nil
}

// locateColumns finds the required and optional column indexes in the
// header row. statusCol is -1 when no status column exists.
func locateColumns(header []string) (numberCol, messageCol, statusCol int, err error) {
	numberCol, messageCol, statusCol = -1, -1, -1

	for i, cell := range header {
		switch normalizeHeader(cell) {
		case normalizeHeader(ColumnNumber):
			numberCol = i
		case normalizeHeader(ColumnMessage):
			messageCol = i
		case normalizeHeader(ColumnStatus):
			statusCol = i
		}
	}

	if numberCol < 0 {
		return 0, 0, 0, fmt.Errorf("required column %q not found", ColumnNumber)
	}
	if messageCol < 0 {
		return 0, 0, 0, fmt.Errorf("required column %q not found", ColumnMessage)
	}
	return numberCol, messageCol, statusCol, nil
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// statusCell renders the status column value. UnknownError keeps its
// diagnostic excerpt after the label.
func statusCell(record Record) string {
	label := record.Status.Display()
	if record.Status == delivery.OutcomeUnknownError && record.Detail != "" {
		return label + ": " + record.Detail
	}
	return label
}

// parseStatusCell is the inverse of statusCell. Anything unparseable maps
// to Pending with no detail.
func parseStatusCell(s string) (delivery.Outcome, string) {
	if outcome, ok := delivery.ParseOutcome(s); ok {
		return outcome, ""
	}

	if label, detail, found := strings.Cut(s, ":"); found {
		if outcome, ok := delivery.ParseOutcome(label); ok && outcome == delivery.OutcomeUnknownError {
			return outcome, strings.TrimSpace(detail)
		}
	}
	return delivery.OutcomePending, ""
}
