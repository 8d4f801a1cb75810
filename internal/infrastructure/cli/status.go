package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hammaadworks/specialized-spec-kit/pkg/application"
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/coverage"
	"github.com/hammaadworks/specialized-spec-kit/pkg/storage"
)

var (
	statusSpecPath    string
	statusInteractive bool
	statusScript      string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Scan the feature spec and show category coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, _ := os.Getwd()
		repo := storage.NewFilesystemRepository(cwd)
		service := application.NewClarifyService(repo, nil)

		specPath, err := resolveSpecPath(cmd, cwd, statusSpecPath, statusScript)
		if err != nil {
			return MapError(err)
		}

		results, err := service.Status(specPath)
		if err != nil {
			return MapError(err)
		}

		if statusInteractive && os.Getenv("SPECKIT_SKIP_TUI") != "true" {
			p := tea.NewProgram(newStatusModel(specPath, results))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("status view failed: %w", err)
			}
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderCoverageTable(results))
		remaining := coverage.Remaining(results)
		if len(remaining) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No critical ambiguities detected.")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%d categories need clarification — run 'speckit clarify'.\n", len(remaining))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusSpecPath, "spec", "", "Spec file path (skips the discovery step)")
	statusCmd.Flags().BoolVar(&statusInteractive, "interactive", false, "Browse coverage in a TUI table")
	statusCmd.Flags().StringVar(&statusScript, "script", "", "Discovery script override")
	RootCmd.AddCommand(statusCmd)
}

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

type statusModel struct {
	table    table.Model
	specPath string
}

func newStatusModel(specPath string, results []coverage.Coverage) statusModel {
	columns := []table.Column{
		{Title: "Category", Width: 40},
		{Title: "Status", Width: 10},
	}

	rows := make([]table.Row, 0, len(results))
	for _, c := range results {
		rows = append(rows, table.Row{c.Category, string(c.Status)})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	return statusModel{table: t, specPath: specPath}
}

func (m statusModel) Init() tea.Cmd { return nil }

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m statusModel) View() string {
	header := headerStyle.Render("Coverage — " + m.specPath)
	return header + "\n" + baseStyle.Render(m.table.View()) + "\nq to quit\n"
}
