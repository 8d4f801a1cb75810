package coverage

import (
	"fmt"
	"sort"
	"strings"
)

// MaxOptions and MinOptions bound every multiple-choice question; the bound
// is enforced at generation time and again by answer validation.
const (
	MinOptions = 2
	MaxOptions = 5
	// ShortAnswerWordLimit caps free-text answers accepted into the spec.
	ShortAnswerWordLimit = 5
)

// Option is one mutually exclusive choice of a multiple-choice question.
type Option struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Question is a single clarification prompt derived from a Partial or
// Missing category. Options empty means short-answer format.
type Question struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Prompt      string   `json:"prompt"`
	Options     []Option `json:"options,omitempty"`
	AllowShort  bool     `json:"allow_short"`
	Impact      int      `json:"impact"`
	Uncertainty int      `json:"uncertainty"`
}

// Score ranks questions; higher asks first.
func (q Question) Score() int { return q.Impact * q.Uncertainty }

// IsMultipleChoice reports whether the question carries an option set.
func (q Question) IsMultipleChoice() bool { return len(q.Options) > 0 }

// ErrAnswerRejected is a recoverable validation failure: the presenter
// re-prompts for disambiguation without advancing the question slot.
type ErrAnswerRejected struct {
	Reason string
}

func (e *ErrAnswerRejected) Error() string { return e.Reason }

// ValidateAnswer checks an answer against the question's declared format:
// option key (or its description) for multiple choice, word-count bound for
// short answers.
func (q Question) ValidateAnswer(answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return &ErrAnswerRejected{Reason: "empty answer"}
	}

	if q.IsMultipleChoice() {
		for _, opt := range q.Options {
			if strings.EqualFold(answer, opt.Key) || strings.EqualFold(answer, opt.Description) {
				return nil
			}
		}
		if !q.AllowShort {
			return &ErrAnswerRejected{Reason: fmt.Sprintf("answer %q matches no option", answer)}
		}
	}

	if words := len(strings.Fields(answer)); words > ShortAnswerWordLimit {
		return &ErrAnswerRejected{Reason: fmt.Sprintf("answer has %d words, limit is %d", words, ShortAnswerWordLimit)}
	}
	return nil
}

// Resolve maps an accepted answer back to its full option description when it
// was given as a bare option key.
func (q Question) Resolve(answer string) string {
	answer = strings.TrimSpace(answer)
	for _, opt := range q.Options {
		if strings.EqualFold(answer, opt.Key) {
			return opt.Description
		}
	}
	return answer
}

// questionTemplate drives per-category question generation. Impact is a fixed
// judgement of how much downstream planning depends on the category;
// uncertainty comes from the scan status (Missing is more uncertain than
// Partial).
type questionTemplate struct {
	category   string
	prompt     string
	options    []Option
	allowShort bool
	impact     int
}

var questionTemplates = []questionTemplate{
	{
		category: "Functional Scope & Behavior",
		prompt:   "Which statement best captures what is explicitly out of scope?",
		options: []Option{
			{Key: "A", Description: "Only the features named in the overview are in scope"},
			{Key: "B", Description: "Adjacent admin/reporting features are excluded"},
			{Key: "C", Description: "All integrations with external systems are excluded"},
		},
		allowShort: true,
		impact:     5,
	},
	{
		category: "Domain & Data Model",
		prompt:   "Which entities own the data this feature manipulates?",
		options: []Option{
			{Key: "A", Description: "A single new entity introduced by this feature"},
			{Key: "B", Description: "Existing entities, extended with new fields"},
			{Key: "C", Description: "A mix of new and existing entities"},
		},
		allowShort: true,
		impact:     4,
	},
	{
		category:   "Interaction & UX Flow",
		prompt:     "What is the primary interaction surface for this feature?",
		options:    []Option{{Key: "A", Description: "Command line"}, {Key: "B", Description: "Web UI"}, {Key: "C", Description: "API only"}, {Key: "D", Description: "Background / no direct interaction"}},
		allowShort: false,
		impact:     3,
	},
	{
		category:   "Non-Functional Quality Attributes",
		prompt:     "Which quality attribute matters most and needs a quantified target?",
		options:    []Option{{Key: "A", Description: "Latency"}, {Key: "B", Description: "Throughput"}, {Key: "C", Description: "Availability"}, {Key: "D", Description: "Data durability"}},
		allowShort: true,
		impact:     4,
	},
	{
		category:   "Integration & External Dependencies",
		prompt:     "Does this feature depend on any external system at runtime?",
		options:    []Option{{Key: "A", Description: "No external dependencies"}, {Key: "B", Description: "One existing internal service"}, {Key: "C", Description: "A third-party service"}},
		allowShort: true,
		impact:     4,
	},
	{
		category:   "Edge Cases & Failure Handling",
		prompt:     "What should happen when a required input is missing or invalid?",
		options:    []Option{{Key: "A", Description: "Reject with an explicit error"}, {Key: "B", Description: "Fall back to a documented default"}, {Key: "C", Description: "Queue for manual review"}},
		allowShort: true,
		impact:     5,
	},
	{
		category:   "Constraints & Tradeoffs",
		prompt:     "What is the hardest constraint this feature must respect?",
		options:    []Option{{Key: "A", Description: "A fixed performance budget"}, {Key: "B", Description: "Compatibility with existing data"}, {Key: "C", Description: "A regulatory or policy rule"}},
		allowShort: true,
		impact:     3,
	},
	{
		category:   "Terminology & Consistency",
		prompt:     "Name the canonical term for the primary actor/concept (one term).",
		allowShort: true,
		impact:     2,
	},
	{
		category:   "Completion Signals",
		prompt:     "What observable signal marks this feature as done?",
		options:    []Option{{Key: "A", Description: "All acceptance scenarios pass"}, {Key: "B", Description: "A measurable metric reaches its target"}, {Key: "C", Description: "Sign-off by a named stakeholder"}},
		allowShort: true,
		impact:     3,
	},
	{
		category:   "Misc / Placeholders",
		prompt:     "A placeholder marker remains in the spec. Resolve or drop it?",
		options:    []Option{{Key: "A", Description: "Resolve now with a short answer"}, {Key: "B", Description: "Drop the marked statement"}},
		allowShort: true,
		impact:     2,
	},
}

// GenerateQuestions derives the candidate question queue from a scan result.
// Only Partial and Missing categories yield questions. The queue is sorted by
// impact × uncertainty descending, ties broken by taxonomy order, which keeps
// generation deterministic across recomputations.
func GenerateQuestions(results []Coverage) []Question {
	status := make(map[string]Status, len(results))
	for _, c := range results {
		status[c.Category] = c.Status
	}

	var out []Question
	for i, tpl := range questionTemplates {
		st, ok := status[tpl.category]
		if !ok || st == StatusClear {
			continue
		}
		uncertainty := 3
		if st == StatusMissing {
			uncertainty = 5
		}
		out = append(out, Question{
			ID:          fmt.Sprintf("q-%02d-%s", i+1, slug(tpl.category)),
			Category:    tpl.category,
			Prompt:      tpl.prompt,
			Options:     tpl.options,
			AllowShort:  tpl.allowShort || len(tpl.options) == 0,
			Impact:      tpl.impact,
			Uncertainty: uncertainty,
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score() > out[b].Score()
	})
	return out
}

// Next exposes only the head of the queue; lower-ranked candidates are never
// revealed to the presenter.
func Next(queue []Question) (Question, bool) {
	if len(queue) == 0 {
		return Question{}, false
	}
	return queue[0], true
}

func slug(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '/' || r == '&':
			if n := b.Len(); n > 0 && b.String()[n-1] != '-' {
				b.WriteByte('-')
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
