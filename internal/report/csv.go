package report

import (
	"bytes"
	"encoding/csv"

	"github.com/ecochat-research/analysis/internal/models"
)

// MarshalTable renders a table as CSV. Cells are written as-is, so NaN
// statistics arrive here already formatted as empty strings.
func MarshalTable(t *models.Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write(t.Columns)
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
