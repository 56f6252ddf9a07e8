// Package mathfmt repairs malformed math markup in model output before it
// is shown to students. Models routinely emit raw Unicode operators, bare
// superscripts, \( \) delimiters, and expressions split across several
// dollar-sign pairs; the renderer on the client only accepts clean
// $ / $$ delimited LaTeX.
package mathfmt

import (
	"regexp"
	"strings"
)

var unicodeFixes = []struct{ from, to string }{
	{"×", `\times`},   // multiplication sign
	{"÷", `\div`},     // division sign
	{"−", "-"},        // unicode minus
	{"·", `\cdot`},    // middle dot
	{"°", `^{\circ}`}, // degree sign
}

var (
	reHeader     = regexp.MustCompile(`(?m)^### .+$`)
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet     = regexp.MustCompile(`(?m)^- `)
	reNumbered   = regexp.MustCompile(`(?m)^\d+\. `)
	reSuperBare  = regexp.MustCompile(`\^([A-Za-z0-9]{2,})`)
	reSubBare    = regexp.MustCompile(`_([A-Za-z0-9]{2,})`)
	reLeft       = regexp.MustCompile(`\\left\s*`)
	reRight      = regexp.MustCompile(`\\right\s*`)
	reParenFrac  = regexp.MustCompile(`\(([^)]+)\)/\(([^)]+)\)`)
	reBareFrac   = regexp.MustCompile(`(^|[^A-Za-z0-9\\{])(\d+)/(\d+)($|[^A-Za-z0-9])`)
	reDisplayTeX = regexp.MustCompile(`\\\[|\\\]`)
	reInlineTeX  = regexp.MustCompile(`\\\(|\\\)`)
	reSplitPair  = regexp.MustCompile(`\$([^$]+?)\$\s*([<>=]+|[+\-*/])\s*\$([^$]+?)\$`)
	reManyDollar = regexp.MustCompile(`\${3,}`)
	reMathSeg    = regexp.MustCompile(`\$\$?[^$]*\$\$?`)
	reSpaces     = regexp.MustCompile(` +`)
	reBlankRuns  = regexp.MustCompile(`\n\s*\n\s*\n+`)

	reBareEquals = regexp.MustCompile(`([A-Za-z0-9])=([A-Za-z0-9])`)
	rePlusTight  = regexp.MustCompile(`([0-9])\+([0-9])`)
	reMinusTight = regexp.MustCompile(`([0-9])-([0-9])`)
)

// Repair runs the full pipeline for math-subject responses: markdown
// stripping, Unicode normalization, brace insertion, delimiter repair,
// split-expression merging, and whitespace cleanup.
func Repair(text string) string {
	out := stripMarkdown(text)
	out = normalizeUnicode(out)
	out = braceScripts(out)
	out = convertDelimiters(out)
	out = balanceLeftRight(out)
	out = convertFractions(out)
	out = mergeSplitExpressions(out)
	out = normalizeDollars(out)
	out = spaceOutsideMath(out)
	return Tidy(out)
}

// Tidy collapses duplicate spaces and long blank runs. Applied to every
// response regardless of subject.
func Tidy(text string) string {
	out := reSpaces.ReplaceAllString(text, " ")
	out = reBlankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func stripMarkdown(text string) string {
	out := reHeader.ReplaceAllString(text, "")
	out = reBold.ReplaceAllString(out, "$1")
	out = reBullet.ReplaceAllString(out, "")
	out = reNumbered.ReplaceAllString(out, "")
	return out
}

func normalizeUnicode(text string) string {
	for _, f := range unicodeFixes {
		text = strings.ReplaceAll(text, f.from, f.to)
	}
	return text
}

// braceScripts turns x^10 into x^{10} and a_bcd into a_{bcd}. Single-char
// scripts are already valid and left alone.
func braceScripts(text string) string {
	out := reSuperBare.ReplaceAllString(text, `^{$1}`)
	return reSubBare.ReplaceAllString(out, `_{$1}`)
}

// convertDelimiters rewrites \[ \] to $$ and \( \) to $. In replacement
// templates "$$" expands to one literal dollar sign.
func convertDelimiters(text string) string {
	out := reDisplayTeX.ReplaceAllString(text, "$$$$")
	return reInlineTeX.ReplaceAllString(out, "$$")
}

// balanceLeftRight strips every \left and \right when their counts do not
// match; an unbalanced pair breaks rendering worse than none at all.
func balanceLeftRight(text string) string {
	if len(reLeft.FindAllString(text, -1)) == len(reRight.FindAllString(text, -1)) {
		return text
	}
	out := reLeft.ReplaceAllString(text, "")
	return reRight.ReplaceAllString(out, "")
}

// convertFractions rewrites (a+b)/(c+d) and bare n/m into \frac form.
func convertFractions(text string) string {
	out := reParenFrac.ReplaceAllString(text, `\frac{$1}{$2}`)
	// Two passes: adjacent fractions share their boundary character, which
	// a single pass would consume.
	out = reBareFrac.ReplaceAllString(out, `$1\frac{$2}{$3}$4`)
	return reBareFrac.ReplaceAllString(out, `$1\frac{$2}{$3}$4`)
}

// mergeSplitExpressions joins "$\epsilon$>$0$" style fragments into one
// expression. Repeated until stable so chains of fragments collapse fully.
func mergeSplitExpressions(text string) string {
	for i := 0; i < 5; i++ {
		merged := reSplitPair.ReplaceAllString(text, `$$${1} ${2} ${3}$$`)
		if merged == text {
			return merged
		}
		text = merged
	}
	return text
}

// normalizeDollars collapses runs of three or more dollar signs and trims
// padding just inside delimiters.
func normalizeDollars(text string) string {
	out := reManyDollar.ReplaceAllString(text, "$$$$")
	out = reMathSeg.ReplaceAllStringFunc(out, func(seg string) string {
		open := "$"
		if strings.HasPrefix(seg, "$$") {
			open = "$$"
		}
		inner := strings.TrimPrefix(strings.TrimSuffix(seg, open), open)
		return open + strings.Join(strings.Fields(inner), " ") + open
	})
	return out
}

// spaceOutsideMath adds breathing room around =, + and - in prose while
// leaving everything inside $ delimiters untouched.
func spaceOutsideMath(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range reMathSeg.FindAllStringIndex(text, -1) {
		b.WriteString(spaceOperators(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(spaceOperators(text[last:]))
	return b.String()
}

func spaceOperators(text string) string {
	out := reBareEquals.ReplaceAllString(text, "$1 = $2")
	out = rePlusTight.ReplaceAllString(out, "$1 + $2")
	return reMinusTight.ReplaceAllString(out, "$1 - $2")
}
