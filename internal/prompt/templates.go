package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Template is one subject's prompt material.
type Template struct {
	BasePrompt      string   `yaml:"basePrompt"`
	FormattingRules []string `yaml:"formattingRules"`
	Examples        []string `yaml:"examples"`
}

type templateFile struct {
	Subjects map[Subject]Template `yaml:"subjects"`
}

// StudentContext carries optional personalization hints supplied by the
// client with a question.
type StudentContext struct {
	LearningLevel string   `json:"learning_level,omitempty"`
	WeakAreas     []string `json:"weak_areas,omitempty"`
	LearningStyle string   `json:"learning_style,omitempty"`
}

// Builder renders enhanced system prompts from the embedded templates.
type Builder struct {
	templates map[Subject]Template
}

// NewBuilder parses the embedded template file. The file ships with the
// binary, so a parse failure is a build defect, not a runtime condition.
func NewBuilder() (*Builder, error) {
	var f templateFile
	if err := yaml.Unmarshal(templatesYAML, &f); err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	if _, ok := f.Subjects[General]; !ok {
		return nil, fmt.Errorf("prompt templates: missing %q fallback", General)
	}
	return &Builder{templates: f.Subjects}, nil
}

// templateFor returns the subject's template, falling back to General for
// subjects without a dedicated one.
func (b *Builder) templateFor(subject Subject) Template {
	if t, ok := b.templates[subject]; ok {
		return t
	}
	return b.templates[General]
}

// Enhanced builds the system prompt for a question in the given subject,
// with optional student context folded in.
func (b *Builder) Enhanced(subjectString string, sc *StudentContext) string {
	subject := DetectSubject(subjectString)
	t := b.templateFor(subject)

	var parts []string
	parts = append(parts, t.BasePrompt, "", "IMPORTANT FORMATTING GUIDELINES:")
	for i, rule := range t.FormattingRules {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, rule))
	}

	if len(t.Examples) > 0 {
		parts = append(parts, "", "EXAMPLE OF GOOD FORMATTING:")
		parts = append(parts, t.Examples...)
	}

	if sc != nil {
		parts = append(parts, "", "STUDENT CONTEXT:", contextInstructions(sc))
	}

	if subject.IsMath() {
		parts = append(parts, "", mathAddendum)
	}

	parts = append(parts, "",
		"Remember: Your goal is to help the student LEARN and UNDERSTAND, not just get the right answer.")
	return strings.Join(parts, "\n")
}

// mathAddendum is the strict delimiter contract for math subjects; the
// mathfmt repair pass assumes responses at least attempt to follow it.
const mathAddendum = `CRITICAL MATHEMATICAL FORMATTING REQUIREMENTS:
- ALL mathematical expressions MUST use simple $ delimiters only
- Inline math: $expression$ (single dollar signs)
- Display math: $$expression$$ (double dollar signs)
- NEVER use \(...\) or \[...\] delimiters
- NEVER split mathematical expressions across multiple $ pairs
- NO markdown headers (###), bold (**), or bullet points (-)
- Use \frac{}{}, \sqrt{}, x^{} consistently
- Write complete sentences between mathematical expressions
- Separate solution steps with blank lines for clarity`

func contextInstructions(sc *StudentContext) string {
	var out []string
	if sc.LearningLevel != "" {
		out = append(out, fmt.Sprintf("- Adjust explanation complexity for %s level", sc.LearningLevel))
	}
	if len(sc.WeakAreas) > 0 {
		out = append(out, fmt.Sprintf("- Pay special attention to: %s", strings.Join(sc.WeakAreas, ", ")))
	}
	if sc.LearningStyle != "" {
		out = append(out, fmt.Sprintf("- Adapt to %s learning style", sc.LearningStyle))
	}
	if len(out) == 0 {
		return "- Provide comprehensive, clear explanations"
	}
	return strings.Join(out, "\n")
}
