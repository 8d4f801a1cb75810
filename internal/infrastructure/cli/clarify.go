package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/hammaadworks/specialized-spec-kit/internal/infrastructure/discovery"
	"github.com/hammaadworks/specialized-spec-kit/pkg/application"
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/coverage"
	"github.com/hammaadworks/specialized-spec-kit/pkg/storage"
)

const stopChoice = "__stop__"
const shortChoice = "__short__"

var (
	clarifySpecPath   string
	clarifyMax        int
	clarifyAnswerFile string
	clarifyScript     string
)

var clarifyCmd = &cobra.Command{
	Use:   "clarify",
	Short: "Run an interactive clarification session against the feature spec",
	Long: `Clarify scans the feature specification against the ambiguity taxonomy,
asks the highest-impact question, and integrates each accepted answer back
into the document. One question is in flight at a time; answering 'stop'
(or choosing Stop) ends the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, _ := os.Getwd()
		repo := storage.NewFilesystemRepository(cwd)
		audit := application.NewAuditService(repo)
		service := application.NewClarifyService(repo, audit)
		if clarifyMax > 0 {
			service.SetMaxQuestions(clarifyMax)
		}

		specPath, err := resolveSpecPath(cmd, cwd, clarifySpecPath, clarifyScript)
		if err != nil {
			return MapError(err)
		}

		var asker application.Asker
		if clarifyAnswerFile != "" {
			asker, err = newFileAsker(clarifyAnswerFile, cmd.OutOrStdout())
			if err != nil {
				return MapError(err)
			}
		} else {
			asker = &promptAsker{}
		}

		report, err := service.Run(cmd.Context(), specPath, asker)
		if err != nil {
			return MapError(err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
		return nil
	},
}

func init() {
	clarifyCmd.Flags().StringVar(&clarifySpecPath, "spec", "", "Spec file path (skips the discovery step)")
	clarifyCmd.Flags().IntVar(&clarifyMax, "max-questions", 0, "Override the per-session question cap")
	clarifyCmd.Flags().StringVar(&clarifyAnswerFile, "answer-file", "", "Read answers line-by-line from a file instead of prompting")
	clarifyCmd.Flags().StringVar(&clarifyScript, "script", "", "Discovery script override")
	RootCmd.AddCommand(clarifyCmd)
}

// resolveSpecPath prefers the explicit flag and otherwise runs discovery.
func resolveSpecPath(cmd *cobra.Command, cwd, flagPath, script string) (string, error) {
	if flagPath != "" {
		if _, err := os.Stat(flagPath); err != nil {
			return "", &discovery.ErrSpecNotFound{Path: flagPath}
		}
		return flagPath, nil
	}

	repo := storage.NewFilesystemRepository(cwd)
	if script == "" {
		if settings, err := repo.LoadSettings(); err == nil {
			script = settings.DiscoveryScript
		}
	}
	locator := discovery.NewLocator(cwd, script)
	fc, err := locator.Resolve(cmd.Context())
	if err != nil {
		return "", err
	}
	return fc.SpecPath, nil
}

// promptAsker presents questions on the terminal with huh forms.
type promptAsker struct{}

func (a *promptAsker) Ask(q coverage.Question) (application.Answer, error) {
	fmt.Println(renderQuestion(q))

	if q.IsMultipleChoice() {
		opts := make([]huh.Option[string], 0, len(q.Options)+2)
		for _, o := range q.Options {
			opts = append(opts, huh.NewOption(fmt.Sprintf("%s — %s", o.Key, o.Description), o.Key))
		}
		if q.AllowShort {
			opts = append(opts, huh.NewOption("Short — provide a different short answer", shortChoice))
		}
		opts = append(opts, huh.NewOption("Stop — end the session", stopChoice))

		var choice string
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title(q.Prompt).
				Options(opts...).
				Value(&choice),
		))
		if err := form.Run(); err != nil {
			return application.Answer{}, err
		}
		switch choice {
		case stopChoice:
			return application.Answer{Stop: true}, nil
		case shortChoice:
			return a.shortInput(q)
		default:
			return application.Answer{Text: choice}, nil
		}
	}

	return a.shortInput(q)
}

func (a *promptAsker) shortInput(q coverage.Question) (application.Answer, error) {
	var text string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(q.Prompt).
			Description(fmt.Sprintf("Short answer (<=%d words); type 'stop' to end the session", coverage.ShortAnswerWordLimit)).
			Value(&text),
	))
	if err := form.Run(); err != nil {
		return application.Answer{}, err
	}
	if strings.EqualFold(strings.TrimSpace(text), "stop") {
		return application.Answer{Stop: true}, nil
	}
	return application.Answer{Text: text}, nil
}

func (a *promptAsker) Reprompt(q coverage.Question, reason string) (application.Answer, error) {
	fmt.Println(statusMissing.Render("Answer rejected: " + reason))
	return a.Ask(q)
}

// fileAsker consumes predetermined answers line by line, for scripted runs.
// An exhausted file or a 'stop' line ends the session.
type fileAsker struct {
	answers []string
	next    int
	out     io.Writer
}

func newFileAsker(path string, out io.Writer) (*fileAsker, error) {
	f, err := os.Open(path) // #nosec G304 -- user-supplied answer file
	if err != nil {
		return nil, fmt.Errorf("failed to open answer file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read path

	var answers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		answers = append(answers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read answer file: %w", err)
	}
	return &fileAsker{answers: answers, out: out}, nil
}

func (a *fileAsker) Ask(q coverage.Question) (application.Answer, error) {
	fmt.Fprintln(a.out, renderQuestion(q))
	if a.next >= len(a.answers) {
		return application.Answer{Stop: true}, nil
	}
	answer := a.answers[a.next]
	a.next++
	if strings.EqualFold(answer, "stop") {
		return application.Answer{Stop: true}, nil
	}
	fmt.Fprintf(a.out, "> %s\n", answer)
	return application.Answer{Text: answer}, nil
}

func (a *fileAsker) Reprompt(q coverage.Question, reason string) (application.Answer, error) {
	fmt.Fprintf(a.out, "Answer rejected: %s\n", reason)
	return a.Ask(q)
}
