package analysis

import (
	"math"
	"testing"
	"time"
)

func TestModeSwitches(t *testing.T) {
	cases := []struct {
		name string
		seq  []string
		want int
	}{
		{"empty", nil, 0},
		{"single", []string{ModeBalanced}, 0},
		{"constant", []string{ModeBalanced, ModeBalanced, ModeBalanced}, 0},
		{"alternating", []string{"A", "B", "A", "B"}, 3},
		{"one switch", []string{"A", "A", "B"}, 1},
	}
	for _, tc := range cases {
		if got := ModeSwitches(tc.seq); got != tc.want {
			t.Errorf("%s: switches = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestModeEntropy(t *testing.T) {
	if got := ModeEntropy(nil); got != 0 {
		t.Fatalf("entropy of empty sequence = %v, want 0", got)
	}
	single := []string{ModePerformance, ModePerformance, ModePerformance}
	if got := ModeEntropy(single); got != 0 {
		t.Fatalf("entropy of single-mode sequence = %v, want 0", got)
	}
	// Five of each of two modes: exactly one bit.
	even := []string{"A", "A", "A", "A", "A", "B", "B", "B", "B", "B"}
	if got := ModeEntropy(even); math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("entropy of even two-mode split = %v, want 1.0", got)
	}
	// Three equally used modes: log2(3) bits.
	three := []string{"A", "B", "C"}
	if got := ModeEntropy(three); math.Abs(got-math.Log2(3)) > 1e-12 {
		t.Fatalf("entropy of three-mode split = %v, want log2(3)", got)
	}
}

func TestUserBehaviorStats(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []Record{
		// u2's prompts arrive out of order; SentAt governs the sequence.
		{UserID: "u2", ModeLabel: ModePerformance, SentAt: base.Add(2 * time.Hour)},
		{UserID: "u2", ModeLabel: ModeBalanced, SentAt: base},
		{UserID: "u2", ModeLabel: ModeBalanced, SentAt: base.Add(time.Hour)},
		{UserID: "u1", ModeLabel: ModeEnergyEfficient, CreatedAt: base},
	}

	stats := UserBehaviorStats(records)
	if len(stats) != 2 {
		t.Fatalf("got %d users, want 2", len(stats))
	}
	if stats[0].UserID != "u1" || stats[1].UserID != "u2" {
		t.Fatalf("users not sorted by id: %q, %q", stats[0].UserID, stats[1].UserID)
	}

	u1 := stats[0]
	if u1.TotalPrompts != 1 || u1.ModesUsed != 1 || u1.Switches != 0 || u1.Entropy != 0 {
		t.Fatalf("u1 stats = %+v, want single constant prompt", u1)
	}

	u2 := stats[1]
	wantSeq := []string{ModeBalanced, ModeBalanced, ModePerformance}
	if len(u2.ModeSequence) != len(wantSeq) {
		t.Fatalf("u2 sequence length = %d, want %d", len(u2.ModeSequence), len(wantSeq))
	}
	for i, m := range wantSeq {
		if u2.ModeSequence[i] != m {
			t.Fatalf("u2 sequence[%d] = %q, want %q", i, u2.ModeSequence[i], m)
		}
	}
	if u2.Switches != 1 {
		t.Fatalf("u2 switches = %d, want 1", u2.Switches)
	}
	if u2.ModesUsed != 2 {
		t.Fatalf("u2 modes used = %d, want 2", u2.ModesUsed)
	}
}

func TestConversationStatsFrom(t *testing.T) {
	start := time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)
	records := []Record{
		{
			ConversationID: "c1", UserID: "u1", ModeLabel: ModeBalanced,
			CreatedAt: start, EnergyWh: 2.0, TotalTokens: 1000,
		},
		{
			ConversationID: "c1", UserID: "u1", ModeLabel: ModePerformance,
			CreatedAt: start.Add(30 * time.Minute),
			EnergyWh:  math.NaN(), TotalTokens: 500,
		},
	}

	stats := ConversationStatsFrom(records)
	if len(stats) != 1 {
		t.Fatalf("got %d conversations, want 1", len(stats))
	}
	cs := stats[0]
	if cs.FirstMode != ModeBalanced {
		t.Fatalf("first mode = %q, want %q", cs.FirstMode, ModeBalanced)
	}
	if cs.Prompts != 2 {
		t.Fatalf("prompts = %d, want 2", cs.Prompts)
	}
	// NaN energy is excluded from the total, but the per-prompt average
	// still divides by the full prompt count.
	if cs.TotalEnergy != 2.0 {
		t.Fatalf("total energy = %v, want 2.0", cs.TotalEnergy)
	}
	if cs.EnergyPerPrompt != 1.0 {
		t.Fatalf("energy per prompt = %v, want 1.0", cs.EnergyPerPrompt)
	}
	if cs.TotalTokens != 1500 || cs.TokensPerPrompt != 750 {
		t.Fatalf("tokens = %v / %v, want 1500 / 750", cs.TotalTokens, cs.TokensPerPrompt)
	}
	if cs.DurationMinutes != 30 {
		t.Fatalf("duration = %v minutes, want 30", cs.DurationMinutes)
	}
}

func TestDailyShares(t *testing.T) {
	records := []Record{
		{DayIndex: 1, ModeLabel: ModeEnergyEfficient},
		{DayIndex: 1, ModeLabel: ModeEnergyEfficient},
		{DayIndex: 1, ModeLabel: ModeBalanced},
		{DayIndex: 1, ModeLabel: ModePerformance},
		{DayIndex: 3, ModeLabel: ModePerformance},
	}

	shares := DailyShares(records)
	if len(shares.Days) != 2 || shares.Days[0] != 1 || shares.Days[1] != 3 {
		t.Fatalf("days = %v, want [1 3]", shares.Days)
	}
	if len(shares.Modes) != 3 {
		t.Fatalf("modes = %v, want the three known modes", shares.Modes)
	}
	// Day 1: 50/25/25 in fixed mode order.
	want := []float64{50, 25, 25}
	for m := range shares.Modes {
		if shares.Shares[m][0] != want[m] {
			t.Fatalf("day 1 share[%s] = %v, want %v",
				shares.Modes[m], shares.Shares[m][0], want[m])
		}
	}
	// Day 3 is a 100% Performance day.
	if shares.Shares[2][1] != 100 {
		t.Fatalf("day 3 performance share = %v, want 100", shares.Shares[2][1])
	}

	multi := shares.MultiModeDays()
	if len(multi.Days) != 1 || multi.Days[0] != 1 {
		t.Fatalf("multi-mode days = %v, want [1]", multi.Days)
	}
}

func TestEnergySavings(t *testing.T) {
	records := []Record{
		{ModeLabel: ModeEnergyEfficient, EnergyWh: 1.0},
		{ModeLabel: ModeEnergyEfficient, EnergyWh: 1.0},
		{ModeLabel: ModePerformance, EnergyWh: 4.0},
		{ModeLabel: ModePerformance, EnergyWh: 4.0},
	}

	savings, err := EnergySavings(records)
	if err != nil {
		t.Fatalf("EnergySavings: %v", err)
	}
	byMode := make(map[string]ModeSavings, len(savings))
	for _, s := range savings {
		byMode[s.Mode] = s
	}
	eff, ok := byMode[ModeEnergyEfficient]
	if !ok {
		t.Fatalf("no savings entry for %q", ModeEnergyEfficient)
	}
	if eff.SavingsPct != 75 {
		t.Fatalf("efficient savings = %v%%, want 75", eff.SavingsPct)
	}
	if perf := byMode[ModePerformance]; perf.SavingsPct != 0 {
		t.Fatalf("baseline savings = %v%%, want 0", perf.SavingsPct)
	}
}

func TestEnergySavingsWithoutBaseline(t *testing.T) {
	records := []Record{
		{ModeLabel: ModeBalanced, EnergyWh: 2.0},
	}
	savings, err := EnergySavings(records)
	if err != nil {
		t.Fatalf("EnergySavings: %v", err)
	}
	if len(savings) != 1 || !math.IsNaN(savings[0].SavingsPct) {
		t.Fatalf("savings without a Performance baseline = %+v, want NaN", savings)
	}
}
