package coverage

import (
	"regexp"
	"strings"

	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/specdoc"
)

// Vague qualifiers that signal an unquantified, untestable statement.
var vagueWords = []string{
	"fast", "quick", "soon", "scalable", "robust", "user-friendly",
	"appropriate", "reasonable", "some", "various", "etc", "intuitive",
	"as needed", "best effort", "performant", "flexible",
}

// Placeholder markers left behind by drafting tools.
var placeholderPattern = regexp.MustCompile(`(?i)\[NEEDS CLARIFICATION[^\]]*\]|\bTBD\b|\bTODO\b|\bFIXME\b|\?\?\?`)

var quantifiedPattern = regexp.MustCompile(`\d`)

// Scan walks the fixed taxonomy against the document and assigns each
// category a coverage status. It is a pure read: scanning the same document
// twice yields identical results.
func Scan(doc *specdoc.Document) []Coverage {
	var out []Coverage
	for _, cat := range Taxonomy() {
		out = append(out, Coverage{Category: cat.Name, Status: classify(doc, cat)})
	}
	return out
}

func classify(doc *specdoc.Document, cat Category) Status {
	if cat.Name == "Misc / Placeholders" {
		// Inverted category: Clear means no stray markers anywhere.
		if placeholderPattern.MatchString(doc.Render()) {
			return StatusPartial
		}
		return StatusClear
	}

	text := relevantText(doc, cat)
	mentioned := text != "" || keywordHit(doc, cat)

	if !mentioned {
		return StatusMissing
	}
	if text == "" {
		// Topic surfaces in passing but has no section of its own.
		return StatusPartial
	}

	score := 0
	if quantifiedPattern.MatchString(text) {
		score++
	}
	if !containsAny(strings.ToLower(text), vagueWords) {
		score++
	}
	if !placeholderPattern.MatchString(text) {
		score++
	}
	if cat.Name == "Functional Scope & Behavior" && !mentionsOutOfScope(doc) {
		// A scope section without explicit exclusions is at best partial.
		if score > 1 {
			score = 1
		}
	}

	switch {
	case score >= 3:
		return StatusClear
	case score >= 1:
		return StatusPartial
	default:
		// Some signal existed (the section is present), so Partial wins
		// over Missing on ties.
		return StatusPartial
	}
}

// relevantText concatenates the bodies of sections whose headings match the
// category's hints.
func relevantText(doc *specdoc.Document, cat Category) string {
	var b strings.Builder
	for i := range doc.Sections {
		title := strings.ToLower(doc.Sections[i].Title)
		for _, hint := range cat.SectionHints {
			if strings.Contains(title, hint) {
				for _, line := range doc.Sections[i].Body {
					b.WriteString(line)
					b.WriteString("\n")
				}
				break
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func keywordHit(doc *specdoc.Document, cat Category) bool {
	text := strings.ToLower(doc.Text())
	for _, kw := range cat.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func mentionsOutOfScope(doc *specdoc.Document) bool {
	text := strings.ToLower(doc.Render())
	return strings.Contains(text, OutOfScopeHint) ||
		strings.Contains(text, "non-goal") ||
		strings.Contains(text, "non goals") ||
		strings.Contains(text, "excludes") ||
		strings.Contains(text, "not included")
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// AmbiguousLine reports whether a body line carries a vagueness signal — a
// placeholder marker or an unquantified qualifier. Integration uses it to
// pick the statement an accepted answer supersedes.
func AmbiguousLine(line string) bool {
	if placeholderPattern.MatchString(line) {
		return true
	}
	return containsAny(strings.ToLower(line), vagueWords)
}

// TargetSection names the spec section an accepted answer for the category
// should land in.
func TargetSection(category string) string {
	switch category {
	case "Functional Scope & Behavior":
		return "Non-Goals"
	case "Domain & Data Model":
		return "Data Model"
	case "Interaction & UX Flow":
		return "Interaction"
	case "Non-Functional Quality Attributes":
		return "Non-Functional Quality Attributes"
	case "Integration & External Dependencies":
		return "Integrations"
	case "Edge Cases & Failure Handling":
		return "Edge Cases"
	case "Constraints & Tradeoffs":
		return "Constraints"
	case "Terminology & Consistency":
		return "Glossary"
	case "Completion Signals":
		return "Acceptance Criteria"
	default:
		return "Notes"
	}
}

// Remaining filters a scan down to the categories still worth asking about.
func Remaining(results []Coverage) []Coverage {
	var out []Coverage
	for _, c := range results {
		if c.Status != StatusClear {
			out = append(out, c)
		}
	}
	return out
}
