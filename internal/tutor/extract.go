package tutor

import (
	"regexp"
	"strings"
)

var reNumberedStep = regexp.MustCompile(`^\d+\. `)

// ReasoningSteps pulls step-by-step lines out of an answer: "Step N:"
// markers and numbered list items.
func ReasoningSteps(answer string) []string {
	var steps []string
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Step "), strings.HasPrefix(line, "step "):
			steps = append(steps, line)
		case reNumberedStep.MatchString(line):
			steps = append(steps, line)
		case strings.Contains(line, "Step") && strings.Contains(line, ":"):
			steps = append(steps, line)
		}
	}
	return steps
}

var conceptVocabulary = map[string][]string{
	"mathematics": {
		"equation", "fraction", "algebra", "geometry", "calculus",
		"derivative", "integral", "function", "variable", "coefficient",
		"exponent", "logarithm", "trigonometry", "polynomial",
	},
	"physics": {
		"velocity", "acceleration", "force", "energy", "momentum",
		"gravity", "friction", "wave", "frequency", "amplitude",
		"electric", "magnetic", "thermodynamics", "quantum",
	},
	"chemistry": {
		"molecule", "atom", "bond", "reaction", "catalyst",
		"oxidation", "reduction", "acid", "base", "solution",
		"concentration", "equilibrium", "organic", "inorganic",
	},
}

// KeyConcepts scans the answer for terms from the subject's vocabulary.
// Results keep the vocabulary order, so output is deterministic.
func KeyConcepts(answer, subjectString string) []string {
	vocab := conceptVocabulary[strings.ToLower(subjectString)]
	if len(vocab) == 0 {
		return nil
	}
	lower := strings.ToLower(answer)
	var concepts []string
	for _, term := range vocab {
		if strings.Contains(lower, term) {
			concepts = append(concepts, titleCase(term))
		}
	}
	return concepts
}

// titleCase uppercases the first letter of a single lowercase ASCII term.
func titleCase(term string) string {
	if term == "" {
		return term
	}
	return strings.ToUpper(term[:1]) + term[1:]
}
