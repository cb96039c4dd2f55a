// Package analysis implements the controlled-experiment pipeline: field
// normalization, grouped aggregation, and the analyses built on top of
// them. All statistics treat NaN as the undefined sentinel; NaN values
// are excluded from computations and encode as empty CSV cells.
package analysis

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/ecochat-research/analysis/internal/models"
)

// Mode labels in their fixed enumerated order. The code mapping is not
// user-configurable.
const (
	ModeEnergyEfficient = "Energy Efficient"
	ModeBalanced        = "Balanced"
	ModePerformance     = "Performance"
	ModeUnknown         = "unknown"
)

var modeLabels = map[int]string{
	0: ModeEnergyEfficient,
	1: ModeBalanced,
	2: ModePerformance,
}

// ModeLabel maps a chat-mode code to its label. Codes outside the fixed
// table map to "unknown"; callers keep such records.
func ModeLabel(code int) string {
	if label, ok := modeLabels[code]; ok {
		return label
	}
	return ModeUnknown
}

// ModeOrder returns the fixed presentation order of the known modes.
func ModeOrder() []string {
	return []string{ModeEnergyEfficient, ModeBalanced, ModePerformance}
}

// Record is a normalized prompt with all derived fields populated.
type Record struct {
	ID             string
	UserID         string
	ConversationID string
	ModeCode       int
	ModeLabel      string
	CreatedAt      time.Time
	SentAt         time.Time
	HistoryLimit   int

	InputTokens      float64
	OutputTokens     float64
	EnergyWh         float64
	TotalTokens      float64
	EnergyPerToken   float64
	TokensPerWh      float64
	InputOutputRatio float64
	OutputInputRatio float64
	ResponseLength   float64

	Hour     int
	Weekday  time.Weekday
	Day      time.Time
	DayIndex int
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// safeDiv divides num by den, yielding NaN instead of an infinity or a
// panic when the denominator is zero.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// Normalize converts raw prompts into analysis records: timestamps
// parsed, mode labels attached, derived metrics computed, and the set
// filtered to sent prompts. An unparsable non-empty timestamp aborts
// the run since every temporal aggregation depends on it.
func Normalize(prompts []models.Prompt) ([]Record, error) {
	records := make([]Record, 0, len(prompts))
	for _, p := range prompts {
		createdAt, err := parseTimestamp(p.CreatedAt)
		if err != nil {
			return nil, NewBadTimestampError(
				fmt.Sprintf("prompt %s: createdAt: %v", p.ID, err))
		}
		var sentAt time.Time
		if p.SentAt != "" {
			sentAt, err = parseTimestamp(p.SentAt)
			if err != nil {
				return nil, NewBadTimestampError(
					fmt.Sprintf("prompt %s: sentAt: %v", p.ID, err))
			}
		}
		if !p.IsSent {
			continue
		}

		in := p.Usage.InputTokens.Float()
		out := p.Usage.OutputTokens.Float()
		energy := p.Usage.EnergyWh.Float()
		total := in + out

		r := Record{
			ID:               p.ID,
			UserID:           p.UserID,
			ConversationID:   p.ConversationID,
			ModeCode:         p.ChatMode,
			ModeLabel:        ModeLabel(p.ChatMode),
			CreatedAt:        createdAt,
			SentAt:           sentAt,
			HistoryLimit:     p.HistoryLimit,
			InputTokens:      in,
			OutputTokens:     out,
			EnergyWh:         energy,
			TotalTokens:      total,
			EnergyPerToken:   safeDiv(energy, total),
			TokensPerWh:      safeDiv(total, energy),
			InputOutputRatio: safeDiv(in, out),
			OutputInputRatio: safeDiv(out, in),
			ResponseLength:   float64(utf8.RuneCountInString(p.ResponseText)),
			Hour:             createdAt.Hour(),
			Weekday:          createdAt.Weekday(),
		}
		y, m, d := createdAt.Date()
		r.Day = time.Date(y, m, d, 0, 0, 0, 0, createdAt.Location())
		records = append(records, r)
	}

	// Day index is relative to the earliest day in the filtered set.
	if len(records) > 0 {
		minDay := records[0].Day
		for _, r := range records[1:] {
			if r.Day.Before(minDay) {
				minDay = r.Day
			}
		}
		for i := range records {
			records[i].DayIndex = daysBetween(minDay, records[i].Day) + 1
		}
	}
	return records, nil
}

// daysBetween counts calendar days from a to b. Both are midnights in
// some zone; comparing UTC-normalized midnights keeps DST transitions
// (23- or 25-hour calendar days) from skewing the count.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
