package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/ecochat-research/analysis/internal/models"
)

func makePrompt(id, user, conv string, mode int, createdAt string, in, out, wh float64, sent bool) models.Prompt {
	return models.Prompt{
		ID:             id,
		UserID:         user,
		ConversationID: conv,
		ChatMode:       mode,
		CreatedAt:      createdAt,
		SentAt:         createdAt,
		Usage: models.Usage{
			InputTokens:  models.Metric(in),
			OutputTokens: models.Metric(out),
			EnergyWh:     models.Metric(wh),
		},
		ResponseText: "ok",
		IsSent:       sent,
		HistoryLimit: 5,
	}
}

func TestNormalizeFiltersUnsent(t *testing.T) {
	prompts := []models.Prompt{
		makePrompt("p1", "u1", "c1", 0, "2024-11-18T10:00:00Z", 10, 5, 0.1, true),
		makePrompt("p2", "u1", "c1", 1, "2024-11-18T10:05:00Z", 10, 5, 0.1, false),
		makePrompt("p3", "u1", "c1", 2, "2024-11-18T10:10:00Z", 10, 5, 0.1, true),
	}
	records, err := Normalize(prompts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (draft excluded)", len(records))
	}
	for _, r := range records {
		if r.ID == "p2" {
			t.Fatalf("unsent prompt survived normalization")
		}
	}
}

func TestNormalizeDerivedFields(t *testing.T) {
	p := makePrompt("p1", "u1", "c1", 1, "2024-11-18T14:30:00Z", 100, 50, 0.01, true)
	p.ResponseText = "héllo wörld"
	records, err := Normalize([]models.Prompt{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := records[0]
	if r.TotalTokens != 150 {
		t.Fatalf("total tokens = %v, want 150", r.TotalTokens)
	}
	if got := r.EnergyPerToken; math.Abs(got-0.01/150) > 1e-12 {
		t.Fatalf("energy per token = %v", got)
	}
	if got := r.TokensPerWh; math.Abs(got-15000) > 1e-9 {
		t.Fatalf("tokens per Wh = %v, want 15000", got)
	}
	if got := r.InputOutputRatio; got != 2 {
		t.Fatalf("input/output ratio = %v, want 2", got)
	}
	if got := r.OutputInputRatio; got != 0.5 {
		t.Fatalf("output/input ratio = %v, want 0.5", got)
	}
	if r.ResponseLength != 11 {
		t.Fatalf("response length = %v, want 11 runes", r.ResponseLength)
	}
	if r.ModeLabel != ModeBalanced {
		t.Fatalf("mode label = %q, want %q", r.ModeLabel, ModeBalanced)
	}
	if r.Hour != 14 || r.Weekday != time.Monday {
		t.Fatalf("hour/weekday = %d/%v, want 14/Monday", r.Hour, r.Weekday)
	}
	if r.Day.Format("2006-01-02") != "2024-11-18" {
		t.Fatalf("day = %v", r.Day)
	}
}

func TestNormalizeUndefinedDivisions(t *testing.T) {
	// Zero tokens with nonzero energy: energy per token must be the NaN
	// sentinel, not a panic and not zero.
	p := makePrompt("p1", "u1", "c1", 0, "2024-11-18T10:00:00Z", 0, 0, 500, true)
	records, err := Normalize([]models.Prompt{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := records[0]
	if !math.IsNaN(r.EnergyPerToken) {
		t.Fatalf("energy per token = %v, want NaN", r.EnergyPerToken)
	}
	if !math.IsNaN(r.InputOutputRatio) || !math.IsNaN(r.OutputInputRatio) {
		t.Fatalf("token ratios with zero denominators should be NaN")
	}
	if r.TokensPerWh != 0 {
		t.Fatalf("tokens per Wh = %v, want 0 (defined: 0 tokens over 500 Wh)", r.TokensPerWh)
	}

	// Zero energy: tokens per Wh undefined.
	p = makePrompt("p2", "u1", "c1", 1, "2024-11-18T10:00:00Z", 10, 10, 0, true)
	records, err = Normalize([]models.Prompt{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(records[0].TokensPerWh) {
		t.Fatalf("tokens per Wh = %v, want NaN", records[0].TokensPerWh)
	}
}

func TestNormalizeUnknownModeRetained(t *testing.T) {
	p := makePrompt("p1", "u1", "c1", 7, "2024-11-18T10:00:00Z", 10, 5, 0.1, true)
	records, err := Normalize([]models.Prompt{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("record with unknown mode code must be retained")
	}
	if records[0].ModeLabel != ModeUnknown {
		t.Fatalf("mode label = %q, want %q", records[0].ModeLabel, ModeUnknown)
	}
}

func TestNormalizeBadTimestampFatal(t *testing.T) {
	p := makePrompt("p1", "u1", "c1", 0, "18/11/2024 10:00", 10, 5, 0.1, true)
	_, err := Normalize([]models.Prompt{p})
	if err == nil {
		t.Fatalf("expected fatal error for unparsable timestamp")
	}
	ae, ok := AsAnalysisError(err)
	if !ok || ae.Code != ErrorBadTimestamp {
		t.Fatalf("error = %v, want bad_timestamp", err)
	}

	// Drafts are filtered after parsing, so a bad timestamp on an unsent
	// prompt still aborts the run.
	p.IsSent = false
	if _, err := Normalize([]models.Prompt{p}); err == nil {
		t.Fatalf("bad timestamp on draft should still be fatal")
	}
}

func TestNormalizeEmptySentAtAllowed(t *testing.T) {
	p := makePrompt("p1", "u1", "c1", 0, "2024-11-18T10:00:00Z", 10, 5, 0.1, true)
	p.SentAt = ""
	records, err := Normalize([]models.Prompt{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !records[0].SentAt.IsZero() {
		t.Fatalf("empty sentAt should stay zero")
	}
}

func TestNormalizeDayIndex(t *testing.T) {
	prompts := []models.Prompt{
		makePrompt("p1", "u1", "c1", 0, "2024-11-20T08:00:00Z", 1, 1, 0.1, true),
		makePrompt("p2", "u1", "c1", 0, "2024-11-18T08:00:00Z", 1, 1, 0.1, true),
		makePrompt("p3", "u1", "c1", 0, "2024-11-19T23:00:00Z", 1, 1, 0.1, true),
	}
	records, err := Normalize(prompts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := map[string]int{}
	for _, r := range records {
		got[r.ID] = r.DayIndex
	}
	if got["p2"] != 1 || got["p3"] != 2 || got["p1"] != 3 {
		t.Fatalf("day indices = %v, want p2=1 p3=2 p1=3", got)
	}
}

func TestNormalizeDayIndexAcrossOffsetChange(t *testing.T) {
	// A spring-forward transition makes the second calendar day only 23
	// elapsed hours from the first; the index must still advance by one.
	prompts := []models.Prompt{
		makePrompt("p1", "u1", "c1", 0, "2025-03-29T12:00:00+01:00", 1, 1, 0.1, true),
		makePrompt("p2", "u1", "c1", 0, "2025-03-30T12:00:00+02:00", 1, 1, 0.1, true),
	}
	records, err := Normalize(prompts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := map[string]int{}
	for _, r := range records {
		got[r.ID] = r.DayIndex
	}
	if got["p1"] != 1 || got["p2"] != 2 {
		t.Fatalf("day indices = %v, want p1=1 p2=2", got)
	}
}

func TestNormalizeMalformedTokensPropagate(t *testing.T) {
	p := makePrompt("p1", "u1", "c1", 0, "2024-11-18T10:00:00Z", 0, 50, 0.1, true)
	p.Usage.InputTokens = models.Metric(math.NaN())
	records, err := Normalize([]models.Prompt{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(records[0].TotalTokens) {
		t.Fatalf("total tokens over a malformed operand should be NaN")
	}
}
