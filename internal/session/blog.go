package session

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// MaxVisibleTopics is the number of topic candidates retained from the
// backend's larger list. Truncation is product policy, not a technical limit.
const MaxVisibleTopics = 2

// MaxUnlockedScenarios is the number of customer scenarios shown before the
// unlock gate.
const MaxUnlockedScenarios = 2

// BrandColors is the three-color palette applied to exported HTML.
type BrandColors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// DefaultBrandColors returns the palette used whenever the backend omits one.
// Downstream renderers assume all three keys are set.
func DefaultBrandColors() BrandColors {
	return BrandColors{
		Primary:   "#6B8CAE",
		Secondary: "#F4E5D3",
		Accent:    "#8FBC8F",
	}
}

// ApplyDefaults fills any missing color with its default so render code never
// needs to null-check.
func (c *BrandColors) ApplyDefaults() {
	defaults := DefaultBrandColors()
	if strings.TrimSpace(c.Primary) == "" {
		c.Primary = defaults.Primary
	}
	if strings.TrimSpace(c.Secondary) == "" {
		c.Secondary = defaults.Secondary
	}
	if strings.TrimSpace(c.Accent) == "" {
		c.Accent = defaults.Accent
	}
}

// BusinessValue ranks a scenario's commercial potential.
type BusinessValue struct {
	SearchVolume        string `json:"searchVolume,omitempty"`
	Competition         string `json:"competition,omitempty"`
	ConversionPotential string `json:"conversionPotential,omitempty"`
	// Priority orders scenarios ascending; zero means unranked.
	Priority int `json:"priority,omitempty"`
}

// Scenario is a server-supplied customer-targeting strategy.
type Scenario struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	CustomerProblem string         `json:"customerProblem"`
	SearchPhrases   []string       `json:"searchPhrases,omitempty"`
	Keywords        []string       `json:"keywords,omitempty"`
	ConversionPath  string         `json:"conversionPath,omitempty"`
	ContentIdeas    []string       `json:"contentIdeas,omitempty"`
	BusinessValue   *BusinessValue `json:"businessValue,omitempty"`
}

// PriorityRank returns the scenario's sort rank. Scenarios without a business
// value block, or with an unranked priority, sort after every ranked scenario.
func (s Scenario) PriorityRank() int {
	if s.BusinessValue == nil || s.BusinessValue.Priority <= 0 {
		return math.MaxInt
	}
	return s.BusinessValue.Priority
}

// SortScenarios orders scenarios ascending by priority, stably, with unranked
// scenarios last.
func SortScenarios(scenarios []Scenario) {
	sort.SliceStable(scenarios, func(i, j int) bool {
		return scenarios[i].PriorityRank() < scenarios[j].PriorityRank()
	})
}

// WebSearchStatus reports whether the slower research enrichment of the
// analysis has landed.
type WebSearchStatus struct {
	EnhancementComplete bool `json:"enhancementComplete"`
}

// WebsiteAnalysis is the business profile extracted from a website. Every
// optional field is defaulted once at the boundary so no consumer need
// null-check.
type WebsiteAnalysis struct {
	BusinessName    string          `json:"businessName"`
	BusinessType    string          `json:"businessType"`
	TargetAudience  string          `json:"targetAudience"`
	ContentFocus    string          `json:"contentFocus"`
	BrandVoice      string          `json:"brandVoice"`
	Description     string          `json:"description"`
	Keywords        []string        `json:"keywords,omitempty"`
	Scenarios       []Scenario      `json:"scenarios,omitempty"`
	BrandColors     BrandColors     `json:"brandColors"`
	WebSearchStatus WebSearchStatus `json:"webSearchStatus"`
	// Fallback marks analyses synthesized locally after a backend failure.
	Fallback bool `json:"fallback,omitempty"`
}

// ScenarioByID returns the scenario with the given identifier.
func (a WebsiteAnalysis) ScenarioByID(id string) (Scenario, bool) {
	for _, scenario := range a.Scenarios {
		if scenario.ID == id {
			return scenario, true
		}
	}
	return Scenario{}, false
}

// AnalysisFromJSON parses a stored analysis blob. A missing or corrupt blob
// yields a zero analysis with default colors applied.
func AnalysisFromJSON(data string) WebsiteAnalysis {
	var analysis WebsiteAnalysis
	_ = json.Unmarshal([]byte(data), &analysis)
	analysis.BrandColors.ApplyDefaults()
	return analysis
}

// ToJSON serializes the analysis for storage.
func (a WebsiteAnalysis) ToJSON() (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Topic is a candidate article idea.
type Topic struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Subheader  string `json:"subheader"`
	Category   string `json:"category"`
	SEOBenefit string `json:"seoBenefit,omitempty"`
	Image      string `json:"image,omitempty"`
}

// TopicsFromJSON parses a stored topic list.
func TopicsFromJSON(data string) []Topic {
	var topics []Topic
	_ = json.Unmarshal([]byte(data), &topics)
	return topics
}

// TopicsToJSON serializes a topic list for storage.
func TopicsToJSON(topics []Topic) (string, error) {
	data, err := json.Marshal(topics)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// TopicByID returns the topic with the given identifier.
func TopicByID(topics []Topic, id string) (Topic, bool) {
	for _, topic := range topics {
		if topic.ID == id {
			return topic, true
		}
	}
	return Topic{}, false
}

// ContentStrategy parameterizes content generation and regeneration.
// Mutable only while the post is a draft.
type ContentStrategy struct {
	Goal     string `json:"goal"`
	Voice    string `json:"voice"`
	Template string `json:"template"`
	Length   string `json:"length"`
}

var (
	strategyGoals     = []string{"awareness", "consideration", "conversion", "retention"}
	strategyVoices    = []string{"expert", "friendly", "insider", "storyteller"}
	strategyTemplates = []string{"how-to", "problem-solution", "listicle", "case-study", "comprehensive"}
	strategyLengths   = []string{"quick", "standard", "deep"}
)

// DefaultContentStrategy returns the strategy applied to fresh sessions.
func DefaultContentStrategy() ContentStrategy {
	return ContentStrategy{
		Goal:     "awareness",
		Voice:    "expert",
		Template: "problem-solution",
		Length:   "standard",
	}
}

// Validate checks every axis against its known values.
func (c ContentStrategy) Validate() error {
	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"goal", c.Goal, strategyGoals},
		{"voice", c.Voice, strategyVoices},
		{"template", c.Template, strategyTemplates},
		{"length", c.Length, strategyLengths},
	}
	for _, check := range checks {
		if !containsString(check.allowed, check.value) {
			return &StrategyValueError{Axis: check.name, Value: check.value, Allowed: check.allowed}
		}
	}
	return nil
}

// StrategyValueError reports an unknown content-strategy value.
type StrategyValueError struct {
	Axis    string
	Value   string
	Allowed []string
}

func (e *StrategyValueError) Error() string {
	return fmt.Sprintf("content strategy: unknown %s %q (allowed: %s)", e.Axis, e.Value, strings.Join(e.Allowed, ", "))
}

// ContentStrategyFromJSON parses a stored strategy blob, falling back to the
// default strategy when the blob is missing or corrupt.
func ContentStrategyFromJSON(data string) ContentStrategy {
	strategy := DefaultContentStrategy()
	if strings.TrimSpace(data) == "" {
		return strategy
	}
	_ = json.Unmarshal([]byte(data), &strategy)
	if strategy.Validate() != nil {
		return DefaultContentStrategy()
	}
	return strategy
}

// ToJSON serializes the strategy for storage.
func (c ContentStrategy) ToJSON() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
