package results

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// ExportFileName is the fixed storage key and download name of the CSV export.
const ExportFileName = "results.csv"

var csvHeader = []string{"filename", "prediction"}

// EncodeCSV renders records with a filename,prediction header and \n line endings.
func EncodeCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i, rec := range records {
		if err := w.Write([]string{rec.Filename, rec.Prediction}); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
