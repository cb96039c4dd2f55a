package analysis

import (
	"sort"
	"time"
)

// ConversationStats is the per-conversation aggregation view over the
// prompts sharing a conversation id.
type ConversationStats struct {
	ConversationID  string
	UserID          string
	FirstMode       string
	Prompts         int
	TotalEnergy     float64
	TotalTokens     float64
	Start           time.Time
	End             time.Time
	DurationMinutes float64
	EnergyPerPrompt float64
	TokensPerPrompt float64
}

// ConversationStatsFrom derives the conversation view from normalized
// records, conversations sorted by id. Totals exclude NaN measurements;
// per-prompt averages divide by the full prompt count.
func ConversationStatsFrom(records []Record) []ConversationStats {
	byConv := make(map[string][]Record)
	for i := range records {
		byConv[records[i].ConversationID] = append(byConv[records[i].ConversationID], records[i])
	}
	ids := make([]string, 0, len(byConv))
	for id := range byConv {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]ConversationStats, 0, len(ids))
	for _, id := range ids {
		prompts := byConv[id]
		sort.SliceStable(prompts, func(i, j int) bool {
			return promptTime(&prompts[i]) < promptTime(&prompts[j])
		})

		energy, err1 := Values(prompts, ColEnergyWh)
		tokens, err2 := Values(prompts, ColTotalTokens)
		if err1 != nil || err2 != nil {
			continue
		}
		cs := ConversationStats{
			ConversationID: id,
			UserID:         prompts[0].UserID,
			FirstMode:      prompts[0].ModeLabel,
			Prompts:        len(prompts),
			TotalEnergy:    Describe(energy, StatSum),
			TotalTokens:    Describe(tokens, StatSum),
			Start:          prompts[0].CreatedAt,
			End:            prompts[len(prompts)-1].CreatedAt,
		}
		cs.DurationMinutes = cs.End.Sub(cs.Start).Minutes()
		cs.EnergyPerPrompt = cs.TotalEnergy / float64(cs.Prompts)
		cs.TokensPerPrompt = cs.TotalTokens / float64(cs.Prompts)
		out = append(out, cs)
	}
	return out
}
