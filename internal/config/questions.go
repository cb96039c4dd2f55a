package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// QuestionKind selects the cleaning and aggregation strategy for a
// survey column.
type QuestionKind string

const (
	KindCategorical QuestionKind = "categorical"
	KindLikert      QuestionKind = "likert"
	KindMultiSelect QuestionKind = "multi_select"
	KindTimeBucket  QuestionKind = "time_bucket"
	KindFreeText    QuestionKind = "free_text"
)

// Question binds one spreadsheet column (the literal question wording)
// to an output key and a handling strategy.
type Question struct {
	Key           string       `yaml:"key"`
	Column        string       `yaml:"column"`
	Title         string       `yaml:"title"`
	Kind          QuestionKind `yaml:"kind"`
	Category      string       `yaml:"category"`
	ReverseScored bool         `yaml:"reverse_scored"`
	Stacked       bool         `yaml:"stacked"`
}

// CombinedChart renders several Likert questions sharing one answer
// scale into a single stacked comparison chart.
type CombinedChart struct {
	Key       string             `yaml:"key"`
	Title     string             `yaml:"title"`
	Questions []CombinedQuestion `yaml:"questions"`
}

// CombinedQuestion references a catalog question by key with a short
// display title for the combined chart.
type CombinedQuestion struct {
	Key   string `yaml:"key"`
	Title string `yaml:"title"`
}

// Reliability names a battery of Likert questions whose internal
// consistency is reported.
type Reliability struct {
	Name string   `yaml:"name"`
	Keys []string `yaml:"keys"`
}

// Survey is the question catalog for the survey pipeline.
type Survey struct {
	Questions   []Question      `yaml:"questions"`
	Combined    []CombinedChart `yaml:"combined_charts"`
	Reliability []Reliability   `yaml:"reliability"`
}

// ByKey returns the catalog question with the given key.
func (s *Survey) ByKey(key string) (Question, bool) {
	for _, q := range s.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}

// FreeTextQuestion returns the first free-text question in the catalog.
func (s *Survey) FreeTextQuestion() (Question, bool) {
	for _, q := range s.Questions {
		if q.Kind == KindFreeText {
			return q, true
		}
	}
	return Question{}, false
}

// DefaultSurvey returns the built-in catalog mirroring the original
// questionnaire. Column strings are the exact question wording used as
// spreadsheet headers, trailing spaces included.
func DefaultSurvey() *Survey {
	return &Survey{
		Questions: []Question{
			{
				Key:      "age_distribution",
				Column:   "Which age group do you belong to?",
				Title:    "Age Distribution",
				Kind:     KindCategorical,
				Category: "demographics",
			},
			{
				Key:      "professional_groups",
				Column:   "Which of the following best describes your current role in your organization?",
				Title:    "Professional Groups Distribution",
				Kind:     KindCategorical,
				Category: "demographics",
			},
			{
				Key:      "business_domain",
				Column:   "In which business domain are you primarily working currently?",
				Title:    "Business Domain Distribution",
				Kind:     KindCategorical,
				Category: "demographics",
			},
			{
				Key:      "primary_reasons",
				Column:   "What are your primary reasons for using LLM chatbots? (please select all that apply)",
				Title:    "Primary Reasons for Using LLM Chatbots",
				Kind:     KindMultiSelect,
				Category: "usage",
				Stacked:  true,
			},
			{
				Key:      "ai_services",
				Column:   "What types of conversational AI services do you use? (please select all that apply)",
				Title:    "Types of Conversational AI Services Used",
				Kind:     KindMultiSelect,
				Category: "usage",
			},
			{
				Key:      "usage_frequency",
				Column:   "How frequently do you use conversational AI tools? ",
				Title:    "Usage Frequency of Conversational AI Tools",
				Kind:     KindCategorical,
				Category: "usage",
			},
			{
				Key:      "daily_usage_time",
				Column:   "Roughly how much time do you spend actively using such tools or interacting with LLMs on a typical day?",
				Title:    "Daily Time Spent Using LLM Tools",
				Kind:     KindTimeBucket,
				Category: "usage",
			},
			{
				Key:      "concern_level",
				Column:   "On a scale of 1–5, how concerned are you about the environmental impact of technology in general?",
				Title:    "Level of Concern About Environmental Impact of Technology",
				Kind:     KindLikert,
				Category: "environmental",
			},
			{
				Key:      "energy_optimization_agreement",
				Column:   "Do you agree that LLM chatbots should generally be optimised to reduce energy consumption?",
				Title:    "Agreement with Optimizing LLMs for Energy Efficiency",
				Kind:     KindLikert,
				Category: "environmental",
			},
			{
				Key:      "impact_importance",
				Column:   "On a scale of 1–5, how important is the environmental impact of conversational AI in your decision to use any such services?",
				Title:    "Importance of Environmental Impact in Usage Decisions",
				Kind:     KindLikert,
				Category: "environmental",
			},
			{
				Key:      "eco_mode_interest",
				Column:   `Would you like LLM chatbots to provide an "Eco Mode" that reduces computational power for less demanding queries?`,
				Title:    "Interest in Eco Mode Feature",
				Kind:     KindLikert,
				Category: "environmental",
			},
			{
				Key:      "eco_friendly_preference",
				Column:   "Would you prefer to use an LLM chatbot that demonstrates a smaller carbon footprint, even if it is slower or less feature-rich?",
				Title:    "Preference for Eco-Friendly LLMs Despite Limitations",
				Kind:     KindLikert,
				Category: "environmental",
			},
			{
				Key:      "energy_info_importance",
				Column:   "How important is it for you to see energy consumption information related to your conversational AI usage?",
				Title:    "Importance of Energy Consumption Information",
				Kind:     KindLikert,
				Category: "environmental",
			},
			{
				Key:      "energy_info_influence",
				Column:   "If such usage information was provided, would it influence how you use LLM chatbots? ",
				Title:    "Potential Influence of Energy Usage Information",
				Kind:     KindLikert,
				Category: "environmental",
			},
			{
				Key:      "impact_limits_interest",
				Column:   "Would you like to set limits on your LLM chatbot usage based on environmental impact? ",
				Title:    "Interest in Setting Environmental Impact Limits",
				Kind:     KindLikert,
				Category: "environmental",
			},
			{
				Key:      "sustainability_ideas",
				Column:   "In your view, how could LLM chatbots be optimized or used more sustainably in the future?",
				Title:    "Sustainability Optimization Ideas",
				Kind:     KindFreeText,
				Category: "themes",
			},
		},
		Combined: []CombinedChart{
			{
				Key:   "environmental_preferences_combined",
				Title: "Environmental Preferences Comparison",
				Questions: []CombinedQuestion{
					{Key: "eco_mode_interest", Title: "Support for Eco Mode Feature"},
					{Key: "eco_friendly_preference", Title: "Willingness to Accept Performance Trade-offs"},
					{Key: "energy_info_influence", Title: "Behavioral Change from Energy Transparency"},
				},
			},
		},
		Reliability: []Reliability{
			{
				Name: "environmental_preferences",
				Keys: []string{
					"eco_mode_interest",
					"eco_friendly_preference",
					"energy_info_importance",
					"energy_info_influence",
					"impact_limits_interest",
				},
			},
		},
	}
}

// LoadSurvey reads a question catalog. An empty path or a missing file
// yields the defaults; a present but unparsable file is an error.
func LoadSurvey(path string) (*Survey, error) {
	if path == "" {
		return DefaultSurvey(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSurvey(), nil
		}
		return nil, fmt.Errorf("failed to read question catalog: %w", err)
	}
	var cfg Survey
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse question catalog: %w", err)
	}
	if len(cfg.Questions) == 0 {
		return nil, fmt.Errorf("question catalog %s declares no questions", path)
	}
	return &cfg, nil
}
