package models

import (
	"bytes"
	"math"
	"strconv"
)

// Metric is a numeric measurement field. Malformed or missing values
// decode to NaN so a bad cell degrades to an undefined statistic instead
// of failing the whole record.
type Metric float64

// UnmarshalJSON accepts numbers, quoted numbers, and null.
func (m *Metric) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "" || s == "null" {
		*m = Metric(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*m = Metric(math.NaN())
		return nil
	}
	*m = Metric(v)
	return nil
}

// Float returns the measurement as a plain float64 (possibly NaN).
func (m Metric) Float() float64 { return float64(m) }

// Defined reports whether the measurement decoded to a usable number.
func (m Metric) Defined() bool { return !math.IsNaN(float64(m)) }

// Usage holds the per-exchange resource measurements nested in a prompt.
type Usage struct {
	InputTokens  Metric `json:"numberOfInputTokens"`
	OutputTokens Metric `json:"numberOfOutputTokens"`
	EnergyWh     Metric `json:"usageInWh"`
}

// Prompt is one prompt/response exchange from the controlled experiment.
// Timestamps stay as raw strings here; parsing happens at normalization
// where a bad value is a fatal error.
type Prompt struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	ChatMode       int    `json:"chatMode"`
	SentAt         string `json:"sentAt"`
	CreatedAt      string `json:"createdAt"`
	Usage          Usage  `json:"usage"`
	ResponseText   string `json:"responseText"`
	IsSent         bool   `json:"isSent"`
	HistoryLimit   int    `json:"historyLimit"`
}

// User is an experiment participant.
type User struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
}

// ModeDef is a chat-mode row from the exported Modes file. The label
// mapping used by the analyses is the fixed table in the analysis
// package, not this record.
type ModeDef struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Conversation is an exported conversation row.
type Conversation struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
}

// LogEntry is an application log row exported alongside the experiment data.
type LogEntry struct {
	ID        string `json:"id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// EnergyUnit describes a measurement unit row from the export.
type EnergyUnit struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Factor Metric `json:"factor"`
}

// SurveyTable is a loaded survey spreadsheet: one header row of literal
// question wording and one row of cells per respondent. Cells are
// addressed by exact header string.
type SurveyTable struct {
	Headers []string
	Rows    [][]string

	index map[string]int
}

// NewSurveyTable builds a table and its header index. Duplicate headers
// keep the first occurrence, matching spreadsheet column precedence.
func NewSurveyTable(headers []string, rows [][]string) *SurveyTable {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return &SurveyTable{Headers: headers, Rows: rows, index: idx}
}

// Column returns every respondent cell for the named question and whether
// the question exists. Short rows yield empty cells.
func (t *SurveyTable) Column(header string) ([]string, bool) {
	i, ok := t.index[header]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if i < len(row) {
			out = append(out, row[i])
		} else {
			out = append(out, "")
		}
	}
	return out, true
}

// HasColumn reports whether the named question exists in the table.
func (t *SurveyTable) HasColumn(header string) bool {
	_, ok := t.index[header]
	return ok
}

// Respondents returns the number of response rows.
func (t *SurveyTable) Respondents() int { return len(t.Rows) }
