package content

import (
	"fmt"
	"strings"

	"autoblog/internal/session"
)

const genericInstruction = "Write an engaging article that speaks directly to the business's target audience and encourages them to learn more."

// BuildInstructions assembles the free-text generation brief sent to the
// backend. A selected scenario contributes its customer problem, keywords,
// and conversion path; without one a generic audience-engagement brief is
// used. Regeneration appends the user's feedback and the content strategy
// rendered as labeled key:value pairs.
func BuildInstructions(scenario *session.Scenario, strategy session.ContentStrategy, feedback string, regenerating bool) string {
	var parts []string

	if scenario != nil {
		if problem := strings.TrimSpace(scenario.CustomerProblem); problem != "" {
			parts = append(parts, fmt.Sprintf("Address this customer problem: %s", problem))
		}
		if len(scenario.Keywords) > 0 {
			parts = append(parts, fmt.Sprintf("Work in these SEO keywords naturally: %s", strings.Join(scenario.Keywords, ", ")))
		}
		if path := strings.TrimSpace(scenario.ConversionPath); path != "" {
			parts = append(parts, fmt.Sprintf("Guide readers toward: %s", path))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, genericInstruction)
	}

	if regenerating {
		if feedback = strings.TrimSpace(feedback); feedback != "" {
			parts = append(parts, fmt.Sprintf("Revise based on this feedback: %s", feedback))
		}
		parts = append(parts, renderStrategy(strategy))
	}

	return strings.Join(parts, "\n")
}

func renderStrategy(strategy session.ContentStrategy) string {
	return strings.Join([]string{
		fmt.Sprintf("Goal: %s", strategy.Goal),
		fmt.Sprintf("Voice: %s", strategy.Voice),
		fmt.Sprintf("Template: %s", strategy.Template),
		fmt.Sprintf("Length: %s", strategy.Length),
	}, "\n")
}
