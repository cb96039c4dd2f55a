package analysis

import (
	"math"
	"sort"
)

// UserStats is the per-user behavior view: the chronologically ordered
// mode sequence and the diversity measures derived from it.
type UserStats struct {
	UserID       string
	TotalPrompts int
	ModesUsed    int
	ModeSequence []string
	Switches     int
	Entropy      float64
}

// ModeSwitches counts adjacent transitions in a mode sequence:
// positions i in [1,n) where seq[i] != seq[i-1]. A constant sequence
// has zero switches; [A,B,A,B] has three.
func ModeSwitches(seq []string) int {
	switches := 0
	for i := 1; i < len(seq); i++ {
		if seq[i] != seq[i-1] {
			switches++
		}
	}
	return switches
}

// ModeEntropy is the Shannon entropy, base 2, of the empirical
// distribution over modes actually appearing in the sequence (not the
// full fixed mode space), with 0*log2(0) = 0. A single-mode sequence
// scores 0.0; two equally used modes score 1.0 bit.
func ModeEntropy(seq []string) float64 {
	if len(seq) == 0 {
		return 0
	}
	counts := make(map[string]int)
	for _, m := range seq {
		counts[m]++
	}
	total := float64(len(seq))
	entropy := 0.0
	for _, n := range counts {
		p := float64(n) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// promptTime orders a user's prompts: the sent timestamp when present,
// otherwise the created timestamp.
func promptTime(r *Record) int64 {
	if !r.SentAt.IsZero() {
		return r.SentAt.UnixNano()
	}
	return r.CreatedAt.UnixNano()
}

// UserBehaviorStats derives the per-user view from normalized records,
// users sorted by id.
func UserBehaviorStats(records []Record) []UserStats {
	byUser := make(map[string][]Record)
	for i := range records {
		byUser[records[i].UserID] = append(byUser[records[i].UserID], records[i])
	}
	ids := make([]string, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]UserStats, 0, len(ids))
	for _, id := range ids {
		prompts := byUser[id]
		sort.SliceStable(prompts, func(i, j int) bool {
			return promptTime(&prompts[i]) < promptTime(&prompts[j])
		})
		seq := make([]string, len(prompts))
		distinct := make(map[string]bool)
		for i := range prompts {
			seq[i] = prompts[i].ModeLabel
			distinct[seq[i]] = true
		}
		out = append(out, UserStats{
			UserID:       id,
			TotalPrompts: len(prompts),
			ModesUsed:    len(distinct),
			ModeSequence: seq,
			Switches:     ModeSwitches(seq),
			Entropy:      ModeEntropy(seq),
		})
	}
	return out
}
