package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/coverage"
)

func writeAnswerFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answers.txt")
	if err := os.WriteFile(path, []byte(lines), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func sampleQuestion() coverage.Question {
	return coverage.Question{
		ID:       "q-01-functional-scope-behavior",
		Category: "Functional Scope & Behavior",
		Prompt:   "Which statement best captures what is explicitly out of scope?",
		Options: []coverage.Option{
			{Key: "A", Description: "Only the features named in the overview are in scope"},
			{Key: "B", Description: "Adjacent admin/reporting features are excluded"},
		},
		AllowShort:  true,
		Impact:      5,
		Uncertainty: 3,
	}
}

func TestFileAsker_ConsumesAnswersInOrder(t *testing.T) {
	path := writeAnswerFile(t, "# session answers\nA\nB\n")
	var out bytes.Buffer
	asker, err := newFileAsker(path, &out)
	if err != nil {
		t.Fatal(err)
	}

	first, err := asker.Ask(sampleQuestion())
	if err != nil {
		t.Fatal(err)
	}
	if first.Text != "A" || first.Stop {
		t.Errorf("unexpected first answer %+v", first)
	}

	second, err := asker.Ask(sampleQuestion())
	if err != nil {
		t.Fatal(err)
	}
	if second.Text != "B" {
		t.Errorf("unexpected second answer %+v", second)
	}

	// The question is echoed so scripted runs leave a readable transcript.
	if !strings.Contains(out.String(), "out of scope") {
		t.Error("question prompt not echoed")
	}
}

func TestFileAsker_StopsWhenExhausted(t *testing.T) {
	path := writeAnswerFile(t, "A\n")
	asker, err := newFileAsker(path, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := asker.Ask(sampleQuestion()); err != nil {
		t.Fatal(err)
	}
	ans, err := asker.Ask(sampleQuestion())
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Stop {
		t.Error("exhausted answer file must signal stop")
	}
}

func TestFileAsker_StopKeyword(t *testing.T) {
	path := writeAnswerFile(t, "stop\nA\n")
	asker, err := newFileAsker(path, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}

	ans, err := asker.Ask(sampleQuestion())
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Stop {
		t.Error("'stop' line must end the session")
	}
}

func TestFileAsker_RepromptAdvances(t *testing.T) {
	path := writeAnswerFile(t, "Z\nB\n")
	var out bytes.Buffer
	asker, err := newFileAsker(path, &out)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := asker.Ask(sampleQuestion()); err != nil {
		t.Fatal(err)
	}
	ans, err := asker.Reprompt(sampleQuestion(), `answer "Z" matches no option`)
	if err != nil {
		t.Fatal(err)
	}
	if ans.Text != "B" {
		t.Errorf("reprompt should consume the next line, got %+v", ans)
	}
	if !strings.Contains(out.String(), "Answer rejected") {
		t.Error("rejection reason not echoed")
	}
}

func TestFileAsker_MissingFile(t *testing.T) {
	if _, err := newFileAsker(filepath.Join(t.TempDir(), "absent.txt"), &bytes.Buffer{}); err == nil {
		t.Error("missing answer file must error")
	}
}

func TestRenderQuestion_ShowsOptionsAndShortFormat(t *testing.T) {
	out := renderQuestion(sampleQuestion())
	if !strings.Contains(out, "A") || !strings.Contains(out, "Adjacent admin/reporting features are excluded") {
		t.Errorf("options missing:\n%s", out)
	}
	if !strings.Contains(out, "Short") {
		t.Errorf("short-answer row missing:\n%s", out)
	}
}
