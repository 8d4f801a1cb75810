package coverage_test

import (
	"errors"
	"testing"

	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/coverage"
)

func allGaps() []coverage.Coverage {
	var out []coverage.Coverage
	for _, cat := range coverage.Taxonomy() {
		out = append(out, coverage.Coverage{Category: cat.Name, Status: coverage.StatusMissing})
	}
	return out
}

func TestGenerateQuestions_OnlyGapsYieldQuestions(t *testing.T) {
	results := []coverage.Coverage{
		{Category: "Functional Scope & Behavior", Status: coverage.StatusClear},
		{Category: "Edge Cases & Failure Handling", Status: coverage.StatusMissing},
	}
	qs := coverage.GenerateQuestions(results)
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	if qs[0].Category != "Edge Cases & Failure Handling" {
		t.Errorf("unexpected category %q", qs[0].Category)
	}
}

func TestGenerateQuestions_OptionBounds(t *testing.T) {
	for _, q := range coverage.GenerateQuestions(allGaps()) {
		if !q.IsMultipleChoice() {
			continue
		}
		if len(q.Options) < coverage.MinOptions || len(q.Options) > coverage.MaxOptions {
			t.Errorf("question %s has %d options", q.ID, len(q.Options))
		}
		seen := map[string]bool{}
		for _, opt := range q.Options {
			if seen[opt.Key] {
				t.Errorf("question %s repeats option key %s", q.ID, opt.Key)
			}
			seen[opt.Key] = true
		}
	}
}

func TestGenerateQuestions_SortedByScore(t *testing.T) {
	qs := coverage.GenerateQuestions(allGaps())
	for i := 1; i < len(qs); i++ {
		if qs[i-1].Score() < qs[i].Score() {
			t.Fatalf("queue not sorted at %d: %d < %d", i, qs[i-1].Score(), qs[i].Score())
		}
	}
}

func TestGenerateQuestions_Deterministic(t *testing.T) {
	a := coverage.GenerateQuestions(allGaps())
	b := coverage.GenerateQuestions(allGaps())
	if len(a) != len(b) {
		t.Fatal("lengths differ")
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("order diverged at %d: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}
}

func TestGenerateQuestions_MissingOutranksPartialWithinCategory(t *testing.T) {
	missing := coverage.GenerateQuestions([]coverage.Coverage{
		{Category: "Edge Cases & Failure Handling", Status: coverage.StatusMissing},
	})
	partial := coverage.GenerateQuestions([]coverage.Coverage{
		{Category: "Edge Cases & Failure Handling", Status: coverage.StatusPartial},
	})
	if missing[0].Score() <= partial[0].Score() {
		t.Error("Missing category should score above Partial")
	}
}

func TestNext_OnlyHeadRevealed(t *testing.T) {
	qs := coverage.GenerateQuestions(allGaps())
	q, ok := coverage.Next(qs)
	if !ok {
		t.Fatal("expected a question")
	}
	if q.ID != qs[0].ID {
		t.Error("Next must return the head of the queue")
	}
	if _, ok := coverage.Next(nil); ok {
		t.Error("empty queue must return ok=false")
	}
}

func TestValidateAnswer_OptionMatch(t *testing.T) {
	q := coverage.Question{
		Options: []coverage.Option{
			{Key: "A", Description: "Reject with an explicit error"},
			{Key: "B", Description: "Fall back to a documented default"},
		},
	}
	if err := q.ValidateAnswer("a"); err != nil {
		t.Errorf("case-insensitive key rejected: %v", err)
	}
	if err := q.ValidateAnswer("Fall back to a documented default"); err != nil {
		t.Errorf("full description rejected: %v", err)
	}
	if err := q.ValidateAnswer("Z"); err == nil {
		t.Error("unknown option accepted")
	}
}

func TestValidateAnswer_WordBound(t *testing.T) {
	q := coverage.Question{AllowShort: true}
	if err := q.ValidateAnswer("Excludes billing"); err != nil {
		t.Errorf("two-word answer rejected: %v", err)
	}
	err := q.ValidateAnswer("this answer is far too long to accept")
	if err == nil {
		t.Fatal("over-limit answer accepted")
	}
	var rejected *coverage.ErrAnswerRejected
	if !errors.As(err, &rejected) {
		t.Errorf("expected ErrAnswerRejected, got %T", err)
	}
}

func TestValidateAnswer_Empty(t *testing.T) {
	q := coverage.Question{AllowShort: true}
	if err := q.ValidateAnswer("   "); err == nil {
		t.Error("blank answer accepted")
	}
}

func TestResolve_MapsKeyToDescription(t *testing.T) {
	q := coverage.Question{
		Options: []coverage.Option{{Key: "A", Description: "Command line"}},
	}
	if got := q.Resolve("a"); got != "Command line" {
		t.Errorf("got %q", got)
	}
	if got := q.Resolve("free text"); got != "free text" {
		t.Errorf("got %q", got)
	}
}
