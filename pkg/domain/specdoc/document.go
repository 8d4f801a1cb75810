package specdoc

import (
	"fmt"
	"strings"
)

// Section is one heading plus the lines that follow it, up to the next
// heading. A document's leading prose (before any heading) is modelled as a
// section with Level 0 and an empty Title.
type Section struct {
	Level int
	Title string
	Body  []string
}

// Heading renders the markdown heading line for the section.
func (s *Section) Heading() string {
	if s.Level == 0 {
		return ""
	}
	return strings.Repeat("#", s.Level) + " " + s.Title
}

// Document is an ordered sequence of markdown sections. It is the single
// source of truth for a feature specification; coverage results and question
// queues are derived views recomputed from it on demand.
type Document struct {
	Sections []Section
}

// Parse splits raw markdown into ordered sections. Fenced code blocks are
// treated as opaque body text so a "# " inside a fence is not a heading.
func Parse(text string) *Document {
	doc := &Document{}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	// A trailing newline yields one empty split artifact; dropping it keeps
	// Parse/Render round-trips stable.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	current := Section{Level: 0}
	inFence := false

	flush := func() {
		if current.Level > 0 || len(current.Body) > 0 {
			doc.Sections = append(doc.Sections, current)
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			current.Body = append(current.Body, line)
			continue
		}

		level, title, ok := parseHeading(line)
		if ok && !inFence {
			flush()
			current = Section{Level: level, Title: title}
			continue
		}
		current.Body = append(current.Body, line)
	}
	flush()

	return doc
}

func parseHeading(line string) (int, string, bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, "", false
	}
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 || level >= len(line) || line[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level+1:]), true
}

// Render serializes the document back to markdown. Parse and Render round-trip
// body lines verbatim.
func (d *Document) Render() string {
	var b strings.Builder
	for i := range d.Sections {
		s := &d.Sections[i]
		if s.Level > 0 {
			b.WriteString(s.Heading())
			b.WriteString("\n")
		}
		for _, line := range s.Body {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Clone returns a deep copy. Each clarification iteration edits a fresh clone
// and the previous snapshot stays untouched until the new one is persisted.
func (d *Document) Clone() *Document {
	out := &Document{Sections: make([]Section, len(d.Sections))}
	for i, s := range d.Sections {
		body := make([]string, len(s.Body))
		copy(body, s.Body)
		out.Sections[i] = Section{Level: s.Level, Title: s.Title, Body: body}
	}
	return out
}

// Find returns the index of the first section whose title matches
// case-insensitively, or -1.
func (d *Document) Find(title string) int {
	for i := range d.Sections {
		if strings.EqualFold(d.Sections[i].Title, title) {
			return i
		}
	}
	return -1
}

// FindContaining returns the index of the first section whose title contains
// the given fragment case-insensitively, or -1.
func (d *Document) FindContaining(fragment string) int {
	needle := strings.ToLower(fragment)
	for i := range d.Sections {
		if strings.Contains(strings.ToLower(d.Sections[i].Title), needle) {
			return i
		}
	}
	return -1
}

// Validate checks heading hierarchy integrity: a heading may nest at most one
// level deeper than the heading before it, and no two headings at the same
// level under the same parent may share a title. Session sub-headings under
// Clarifications are exempt from the duplicate check since each carries a
// distinct date.
func (d *Document) Validate() []error {
	var errs []error
	prevLevel := 0
	seen := map[string]bool{}

	for i := range d.Sections {
		s := &d.Sections[i]
		if s.Level == 0 {
			continue
		}
		if prevLevel > 0 && s.Level > prevLevel+1 {
			errs = append(errs, fmt.Errorf("heading %q skips from level %d to %d", s.Title, prevLevel, s.Level))
		}
		key := fmt.Sprintf("%d:%s", s.Level, strings.ToLower(s.Title))
		if seen[key] && !strings.HasPrefix(strings.ToLower(s.Title), "session ") {
			errs = append(errs, fmt.Errorf("duplicate heading %q at level %d", s.Title, s.Level))
		}
		seen[key] = true
		prevLevel = s.Level
	}
	return errs
}

// Text returns the full body text of the document without heading markers,
// used by scanners that inspect prose rather than structure.
func (d *Document) Text() string {
	var b strings.Builder
	for i := range d.Sections {
		for _, line := range d.Sections[i].Body {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
