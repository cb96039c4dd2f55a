package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ecochat-research/analysis/internal/analysis"
	"github.com/ecochat-research/analysis/internal/logger"
	"github.com/ecochat-research/analysis/internal/models"
)

// LoadSurveyTable reads a survey response file. The first row holds the
// literal question wording used as column headers; every following row
// is one respondent. Supported formats are .xlsx and .csv.
func LoadSurveyTable(path string) (*models.SurveyTable, error) {
	var (
		table *models.SurveyTable
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		table, err = loadSurveyXLSX(path)
	case ".csv":
		table, err = loadSurveyCSV(path)
	default:
		return nil, analysis.NewMissingInputError(
			fmt.Sprintf("unsupported survey file %q: want .xlsx or .csv", filepath.Base(path)))
	}
	if err != nil {
		return nil, err
	}
	logger.Log.WithField("respondents", table.Respondents()).Info("Loaded survey data")
	return table, nil
}

func loadSurveyXLSX(path string) (*models.SurveyTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open survey workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, analysis.NewMissingInputError("survey workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, analysis.NewMissingInputError("survey workbook has no header row")
	}
	return models.NewSurveyTable(rows[0], rows[1:]), nil
}

func loadSurveyCSV(path string) (*models.SurveyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey file: %w", err)
	}
	// Strip optional UTF-8 BOM
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse survey csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, analysis.NewMissingInputError("survey csv has no header row")
	}
	return models.NewSurveyTable(rows[0], rows[1:]), nil
}
