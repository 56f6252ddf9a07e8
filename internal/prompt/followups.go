package prompt

import "strings"

// FollowUps suggests up to three follow-up questions for the student based
// on the original question and subject. Purely heuristic; no model call.
func FollowUps(question, subjectString string) []string {
	switch DetectSubject(subjectString) {
	case Mathematics:
		return mathFollowUps(question)
	case Physics:
		return []string{
			"What real-world applications does this concept have?",
			"How would changing the initial conditions affect the result?",
			"What assumptions did we make in solving this problem?",
		}
	case Chemistry:
		return []string{
			"What would happen if we used different reactants?",
			"How does temperature affect this reaction?",
			"What are the safety considerations for this process?",
		}
	default:
		return []string{
			"Can you think of examples of this concept in everyday life?",
			"What questions do you still have about this topic?",
			"How does this relate to what you've learned before?",
		}
	}
}

func mathFollowUps(question string) []string {
	lower := strings.ToLower(question)
	var out []string

	if strings.Contains(lower, "solve") && strings.Contains(lower, "=") {
		out = append(out,
			"Can you verify this answer by substituting back into the original equation?",
			"What would happen if we changed one of the coefficients?",
			"Can you solve a similar equation with different numbers?",
		)
	}
	if strings.Contains(lower, "fraction") || strings.Contains(lower, "/") || strings.Contains(lower, "divide") {
		out = append(out,
			"Can you convert this to a decimal?",
			"What would this fraction look like as a percentage?",
			"Can you simplify this fraction further?",
		)
	}
	if len(out) == 0 {
		out = append(out,
			"Can you work through a similar problem on your own?",
			"Which step felt least familiar to you?",
			"How does this connect to topics you already know?",
		)
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}
