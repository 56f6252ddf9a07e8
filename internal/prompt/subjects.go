// Package prompt builds the system prompts handed to the model: subject
// detection, per-subject templates with formatting rules, student-context
// instructions, and follow-up question generation.
package prompt

import "strings"

// Subject is an academic subject the tutor specializes prompts for.
type Subject string

const (
	Mathematics     Subject = "mathematics"
	Physics         Subject = "physics"
	Chemistry       Subject = "chemistry"
	Biology         Subject = "biology"
	History         Subject = "history"
	Literature      Subject = "literature"
	ComputerScience Subject = "computer_science"
	Economics       Subject = "economics"
	General         Subject = "general"
)

// keyword → subject, checked in order of specificity.
var subjectKeywords = []struct {
	key     string
	subject Subject
}{
	{"math", Mathematics},
	{"algebra", Mathematics},
	{"geometry", Mathematics},
	{"calculus", Mathematics},
	{"statistics", Mathematics},
	{"physics", Physics},
	{"chemistry", Chemistry},
	{"biology", Biology},
	{"history", History},
	{"literature", Literature},
	{"computer", ComputerScience},
	{"programming", ComputerScience},
	{"economics", Economics},
}

// DetectSubject maps a free-form subject string ("Maths", "AP Calculus",
// "intro programming") onto a known subject, defaulting to General.
func DetectSubject(s string) Subject {
	lower := strings.ToLower(s)
	for _, kw := range subjectKeywords {
		if strings.Contains(lower, kw.key) {
			return kw.subject
		}
	}
	return General
}

// IsMath reports whether the subject gets the strict math formatting
// addendum and the LaTeX repair pass on responses.
func (s Subject) IsMath() bool {
	return s == Mathematics
}
