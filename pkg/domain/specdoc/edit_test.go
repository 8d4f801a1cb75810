package specdoc_test

import (
	"strings"
	"testing"

	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/specdoc"
)

func TestEnsureSession_InsertsAfterOverview(t *testing.T) {
	doc := specdoc.Parse(sampleSpec)
	if _, err := doc.EnsureSession("2026-08-31"); err != nil {
		t.Fatal(err)
	}

	ci := doc.Find(specdoc.ClarificationsTitle)
	if ci < 0 {
		t.Fatal("Clarifications section missing")
	}
	// Overview is section 1; Clarifications must directly follow it.
	if doc.Sections[ci-1].Title != "Overview" {
		t.Errorf("Clarifications inserted after %q, want after Overview", doc.Sections[ci-1].Title)
	}
	if doc.Sections[ci+1].Title != "Session 2026-08-31" {
		t.Errorf("session heading missing, got %q", doc.Sections[ci+1].Title)
	}
	if errs := doc.Validate(); len(errs) != 0 {
		t.Errorf("structure broken after insert: %v", errs)
	}
}

func TestEnsureSession_Idempotent(t *testing.T) {
	doc := specdoc.Parse(sampleSpec)
	if _, err := doc.EnsureSession("2026-08-31"); err != nil {
		t.Fatal(err)
	}
	before := len(doc.Sections)
	if _, err := doc.EnsureSession("2026-08-31"); err != nil {
		t.Fatal(err)
	}
	if len(doc.Sections) != before {
		t.Errorf("second call added sections: %d -> %d", before, len(doc.Sections))
	}
}

func TestAppendClarification_OneBulletPerAnswer(t *testing.T) {
	doc := specdoc.Parse(sampleSpec)
	if err := doc.AppendClarification("2026-08-31", "What is excluded?", "Excludes billing"); err != nil {
		t.Fatal(err)
	}

	bullets := doc.SessionBullets("2026-08-31")
	if len(bullets) != 1 {
		t.Fatalf("expected 1 bullet, got %d", len(bullets))
	}
	if bullets[0] != "- Q: What is excluded? → A: Excludes billing" {
		t.Errorf("unexpected bullet: %q", bullets[0])
	}

	if err := doc.AppendClarification("2026-08-31", "Second?", "Yes"); err != nil {
		t.Fatal(err)
	}
	bullets = doc.SessionBullets("2026-08-31")
	if len(bullets) != 2 {
		t.Fatalf("expected 2 bullets, got %d", len(bullets))
	}
	// Earlier bullets stay untouched.
	if bullets[0] != "- Q: What is excluded? → A: Excludes billing" {
		t.Errorf("first bullet mutated: %q", bullets[0])
	}
}

func TestReplaceStatement_RemovesOldText(t *testing.T) {
	doc := specdoc.Parse("# T\n## Overview\ndesc\n## Constraints\n- The system should be fast\n")
	if err := doc.ReplaceStatement("Constraints", "The system should be fast", "Responses complete within 200ms"); err != nil {
		t.Fatal(err)
	}
	out := doc.Render()
	if strings.Contains(out, "should be fast") {
		t.Error("superseded statement still present")
	}
	if !strings.Contains(out, "200ms") {
		t.Error("replacement missing")
	}
}

func TestSupersede_FirstAmbiguousLine(t *testing.T) {
	doc := specdoc.Parse("# T\n## Overview\ndesc\n## Constraints\n- TBD\n")
	ok := doc.Supersede("Constraints", func(line string) bool {
		return strings.Contains(line, "TBD")
	}, "At most 3 retries")
	if !ok {
		t.Fatal("expected supersede to match")
	}
	out := doc.Render()
	if strings.Contains(out, "TBD") {
		t.Error("old line survived")
	}
	if !strings.Contains(out, "- At most 3 retries") {
		t.Errorf("replacement not inserted as bullet:\n%s", out)
	}
}

func TestInsertBullet_CreatesSection(t *testing.T) {
	doc := specdoc.Parse(sampleSpec)
	if err := doc.InsertBullet("Non-Goals", "Out of scope: billing"); err != nil {
		t.Fatal(err)
	}
	idx := doc.Find("Non-Goals")
	if idx < 0 {
		t.Fatal("Non-Goals section not created")
	}
	if !strings.Contains(doc.Render(), "- Out of scope: billing") {
		t.Error("bullet missing")
	}
}

func TestRenameTerm_RewritesEveryOccurrence(t *testing.T) {
	doc := specdoc.Parse("# T\n## Overview\nA User owns data. The User can export.\n## Data Model\n- User entity\n")
	n, err := doc.RenameTerm("User", "Member")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 replacements, got %d", n)
	}

	out := doc.Render()
	if strings.Contains(out, "User") {
		t.Errorf("old term must not survive the rename:\n%s", out)
	}
	if strings.Count(out, "Member") != 3 {
		t.Errorf("expected 3 occurrences of the new term:\n%s", out)
	}
}

func TestRenameTerm_WordBoundary(t *testing.T) {
	doc := specdoc.Parse("# T\n## Overview\nUsers and User accounts.\n")
	if _, err := doc.RenameTerm("User", "Member"); err != nil {
		t.Fatal(err)
	}
	out := doc.Render()
	if !strings.Contains(out, "Users") {
		t.Error("plural form must not be rewritten")
	}
	if !strings.Contains(out, "Member accounts") {
		t.Error("exact term not rewritten")
	}
}
