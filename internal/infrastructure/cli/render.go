package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammaadworks/specialized-spec-kit/pkg/application"
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/coverage"
)

// Styles
var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var statusClear = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
var statusPartial = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
var statusMissing = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

func styledStatus(s coverage.Status) string {
	switch s {
	case coverage.StatusClear:
		return statusClear.Render(string(s))
	case coverage.StatusPartial:
		return statusPartial.Render(string(s))
	default:
		return statusMissing.Render(string(s))
	}
}

// renderCoverageTable prints the category → status table.
func renderCoverageTable(results []coverage.Coverage) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Coverage"))
	b.WriteString("\n")

	width := 0
	for _, c := range results {
		if len(c.Category) > width {
			width = len(c.Category)
		}
	}
	for _, c := range results {
		b.WriteString(fmt.Sprintf("  %-*s  %s\n", width, c.Category, styledStatus(c.Status)))
	}
	return b.String()
}

// renderQuestion prints a multiple-choice question as an Option | Description
// table, with the free-text row when the question allows it. Short-answer
// questions get the format annotation instead.
func renderQuestion(q coverage.Question) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(q.Category))
	b.WriteString("\n")
	b.WriteString(q.Prompt)
	b.WriteString("\n")

	if q.IsMultipleChoice() {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %-8s %s", "Option", "Description")))
		b.WriteString("\n")
		for _, opt := range q.Options {
			b.WriteString(fmt.Sprintf("  %-8s %s\n", opt.Key, opt.Description))
		}
		if q.AllowShort {
			b.WriteString(fmt.Sprintf("  %-8s %s\n", "Short", fmt.Sprintf("Provide a different short answer (<=%d words)", coverage.ShortAnswerWordLimit)))
		}
	} else {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Format: Short answer (<=%d words)", coverage.ShortAnswerWordLimit)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderReport prints the completion summary.
func renderReport(r *application.Report) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Clarification complete"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Session:   %s (%s)\n", r.SessionDate, r.SessionID))
	b.WriteString(fmt.Sprintf("  Questions: %d asked, %d answered\n", r.Asked, r.Answered))
	if len(r.ModifiedSections) > 0 {
		b.WriteString(fmt.Sprintf("  Modified:  %s\n", strings.Join(r.ModifiedSections, ", ")))
	}
	b.WriteString("\n")
	b.WriteString(renderCoverageTable(r.Coverage))
	b.WriteString("\n")
	b.WriteString("Recommendation: " + r.Recommendation + "\n")
	return b.String()
}
