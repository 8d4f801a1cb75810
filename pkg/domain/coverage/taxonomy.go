package coverage

// Status classifies how well a taxonomy category is covered by the spec.
type Status string

const (
	StatusClear   Status = "Clear"
	StatusPartial Status = "Partial"
	StatusMissing Status = "Missing"
)

// Category is one bucket of the fixed ambiguity taxonomy. SectionHints name
// heading fragments the scanner uses to locate the relevant sections;
// Keywords are body-level signals that the topic is addressed at all.
type Category struct {
	Name         string
	SectionHints []string
	Keywords     []string
}

// Taxonomy returns the fixed, ordered category list every scan walks. The
// order is stable so repeated scans of the same document compare equal.
func Taxonomy() []Category {
	return []Category{
		{
			Name:         "Functional Scope & Behavior",
			SectionHints: []string{"overview", "scope", "requirements", "functional"},
			Keywords:     []string{"must", "shall", "user can", "supports"},
		},
		{
			Name:         "Domain & Data Model",
			SectionHints: []string{"data model", "entities", "domain", "schema"},
			Keywords:     []string{"entity", "field", "record", "relationship", "identifier"},
		},
		{
			Name:         "Interaction & UX Flow",
			SectionHints: []string{"interaction", "ux", "flow", "user journey", "interface"},
			Keywords:     []string{"click", "screen", "prompt", "input", "display", "select"},
		},
		{
			Name:         "Non-Functional Quality Attributes",
			SectionHints: []string{"non-functional", "performance", "quality", "reliability", "security"},
			Keywords:     []string{"latency", "throughput", "uptime", "availability", "concurrent", "p95", "p99"},
		},
		{
			Name:         "Integration & External Dependencies",
			SectionHints: []string{"integration", "external", "dependencies", "interfaces", "api"},
			Keywords:     []string{"service", "endpoint", "third-party", "webhook", "protocol"},
		},
		{
			Name:         "Edge Cases & Failure Handling",
			SectionHints: []string{"edge case", "error", "failure", "fault"},
			Keywords:     []string{"fails", "invalid", "timeout", "retry", "empty", "missing"},
		},
		{
			Name:         "Constraints & Tradeoffs",
			SectionHints: []string{"constraint", "tradeoff", "limitation", "budget"},
			Keywords:     []string{"limit", "maximum", "minimum", "at most", "no more than"},
		},
		{
			Name:         "Terminology & Consistency",
			SectionHints: []string{"glossary", "terminology", "definitions"},
			Keywords:     []string{"means", "refers to", "defined as"},
		},
		{
			Name:         "Completion Signals",
			SectionHints: []string{"acceptance", "done", "completion", "success criteria"},
			Keywords:     []string{"acceptance criteria", "definition of done", "measured by", "verified"},
		},
		{
			Name:         "Misc / Placeholders",
			SectionHints: nil,
			Keywords:     nil,
		},
	}
}

// OutOfScopeHint marks the facet of Functional Scope the scanner checks for
// explicit exclusions; kept as its own constant so reports can call it out.
const OutOfScopeHint = "out of scope"

// Coverage pairs a category with its computed status. Entries are ephemeral,
// recomputed after every accepted edit, never persisted.
type Coverage struct {
	Category string `json:"category"`
	Status   Status `json:"status"`
}
