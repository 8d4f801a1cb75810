package specdoc

import (
	"fmt"
	"regexp"
	"strings"
)

// ClarificationsTitle and the dated session sub-heading are the only two
// heading types an edit is allowed to introduce.
const ClarificationsTitle = "Clarifications"

// ErrNoSections reports an attempt to edit an empty document.
var ErrNoSections = fmt.Errorf("document has no sections")

// EnsureSession guarantees a Clarifications section exists immediately after
// the top-level overview section, with a sub-heading for the given session
// date, and returns the index of that session section. Calling it again for
// the same date is a no-op.
func (d *Document) EnsureSession(date string) (int, error) {
	if len(d.Sections) == 0 {
		return -1, ErrNoSections
	}

	sessionTitle := "Session " + date

	ci := d.Find(ClarificationsTitle)
	if ci < 0 {
		overview := d.overviewIndex()
		clar := Section{Level: d.Sections[overview].Level, Title: ClarificationsTitle, Body: []string{""}}
		if clar.Level < 2 {
			clar.Level = 2
		}
		// Insert after the overview's whole subtree, not between it and its
		// children.
		at := overview + 1
		for at < len(d.Sections) && d.Sections[at].Level > d.Sections[overview].Level {
			at++
		}
		d.insertSection(at, clar)
		ci = at
	}

	// Look for the session heading among the Clarifications children.
	clarLevel := d.Sections[ci].Level
	for i := ci + 1; i < len(d.Sections); i++ {
		s := &d.Sections[i]
		if s.Level <= clarLevel {
			break
		}
		if strings.EqualFold(s.Title, sessionTitle) {
			return i, nil
		}
	}

	session := Section{Level: clarLevel + 1, Title: sessionTitle, Body: []string{""}}
	d.insertSection(ci+1, session)
	return ci + 1, nil
}

// overviewIndex picks the section the Clarifications block is inserted after:
// the first heading-bearing section of the document.
func (d *Document) overviewIndex() int {
	for i := range d.Sections {
		if d.Sections[i].Level > 0 {
			// Skip past the document title to its first child section when
			// one exists, so Clarifications lands after the overview rather
			// than between title and overview.
			if i+1 < len(d.Sections) && d.Sections[i+1].Level > d.Sections[i].Level {
				return i + 1
			}
			return i
		}
	}
	return len(d.Sections) - 1
}

func (d *Document) insertSection(at int, s Section) {
	if at > len(d.Sections) {
		at = len(d.Sections)
	}
	d.Sections = append(d.Sections, Section{})
	copy(d.Sections[at+1:], d.Sections[at:])
	d.Sections[at] = s
}

// AppendClarification records one accepted question/answer pair as a bullet
// under the session heading. The list is append-only; existing bullets are
// never touched.
func (d *Document) AppendClarification(date, question, answer string) error {
	si, err := d.EnsureSession(date)
	if err != nil {
		return err
	}
	bullet := fmt.Sprintf("- Q: %s → A: %s", question, answer)
	body := d.Sections[si].Body
	// Keep a single trailing blank line after the bullet list.
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	body = append(body, bullet, "")
	d.Sections[si].Body = body
	return nil
}

// SessionBullets returns the clarification bullets recorded for a session
// date, in insertion order.
func (d *Document) SessionBullets(date string) []string {
	ci := d.Find(ClarificationsTitle)
	if ci < 0 {
		return nil
	}
	sessionTitle := "Session " + date
	for i := ci + 1; i < len(d.Sections); i++ {
		s := &d.Sections[i]
		if s.Level <= d.Sections[ci].Level {
			break
		}
		if !strings.EqualFold(s.Title, sessionTitle) {
			continue
		}
		var bullets []string
		for _, line := range s.Body {
			if strings.HasPrefix(strings.TrimSpace(line), "- ") {
				bullets = append(bullets, strings.TrimSpace(line))
			}
		}
		return bullets
	}
	return nil
}

// ReplaceStatement substitutes a superseded statement inside the named
// section with its clarified replacement. The old statement must vanish; both
// versions never coexist.
func (d *Document) ReplaceStatement(sectionTitle, old, replacement string) error {
	idx := d.Find(sectionTitle)
	if idx < 0 {
		idx = d.FindContaining(sectionTitle)
	}
	if idx < 0 {
		return fmt.Errorf("section %q not found", sectionTitle)
	}
	s := &d.Sections[idx]
	for i, line := range s.Body {
		if strings.Contains(line, old) {
			s.Body[i] = strings.Replace(line, old, replacement, 1)
			return nil
		}
	}
	return fmt.Errorf("statement %q not found in section %q", old, sectionTitle)
}

// InsertBullet adds one minimally-worded bullet to the end of the named
// section, creating the section at the end of the document when absent.
func (d *Document) InsertBullet(sectionTitle, bullet string) error {
	if len(d.Sections) == 0 {
		return ErrNoSections
	}
	idx := d.Find(sectionTitle)
	if idx < 0 {
		idx = d.FindContaining(sectionTitle)
	}
	if idx < 0 {
		level := 2
		d.Sections = append(d.Sections, Section{Level: level, Title: sectionTitle, Body: []string{""}})
		idx = len(d.Sections) - 1
	}
	s := &d.Sections[idx]
	body := s.Body
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	if !strings.HasPrefix(strings.TrimSpace(bullet), "-") {
		bullet = "- " + bullet
	}
	s.Body = append(body, bullet, "")
	return nil
}

// Supersede replaces the first body line of the named section that the
// matcher flags, so the old ambiguous statement and its clarification never
// coexist. Returns false when no line matched; the caller inserts instead.
func (d *Document) Supersede(sectionTitle string, match func(string) bool, replacement string) bool {
	idx := d.Find(sectionTitle)
	if idx < 0 {
		idx = d.FindContaining(sectionTitle)
	}
	if idx < 0 {
		return false
	}
	s := &d.Sections[idx]
	for i, line := range s.Body {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if match(line) {
			if !strings.HasPrefix(strings.TrimSpace(replacement), "-") {
				replacement = "- " + replacement
			}
			s.Body[i] = replacement
			return true
		}
	}
	return false
}

// RenameTerm performs a document-wide, word-boundary rename of a term and
// returns the number of replaced occurrences. The caller records the old
// term once (the session bullet serves as the single backward reference).
func (d *Document) RenameTerm(oldTerm, newTerm string) (int, error) {
	if oldTerm == "" || newTerm == "" {
		return 0, fmt.Errorf("rename requires both old and new term")
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(oldTerm) + `\b`)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range d.Sections {
		s := &d.Sections[i]
		if n := len(re.FindAllString(s.Title, -1)); n > 0 {
			s.Title = re.ReplaceAllString(s.Title, newTerm)
			total += n
		}
		for j, line := range s.Body {
			if n := len(re.FindAllString(line, -1)); n > 0 {
				s.Body[j] = re.ReplaceAllString(line, newTerm)
				total += n
			}
		}
	}
	return total, nil
}
