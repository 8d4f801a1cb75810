package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hammaadworks/specialized-spec-kit/pkg/domain"
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/clarify"
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/coverage"
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/specdoc"
)

// Answer is what the presenter hands back for an outstanding question.
type Answer struct {
	Text string
	Stop bool
}

// Asker presents exactly one question and blocks until the external
// collaborator answers or signals stop. Re-prompts for invalid answers go
// through Reprompt so the presenter can explain the rejection.
type Asker interface {
	Ask(q coverage.Question) (Answer, error)
	Reprompt(q coverage.Question, reason string) (Answer, error)
}

// Report is the completion summary printed when the loop terminates.
type Report struct {
	SessionID        string              `json:"session_id"`
	SessionDate      string              `json:"session_date"`
	Asked            int                 `json:"asked"`
	Answered         int                 `json:"answered"`
	ModifiedSections []string            `json:"modified_sections"`
	Coverage         []coverage.Coverage `json:"coverage"`
	Recommendation   string              `json:"recommendation"`
}

// Recommendation texts, stable for scripting.
const (
	RecommendNoAmbiguities = "no critical ambiguities detected — proceed to planning"
	RecommendProceed       = "coverage is clear — proceed to planning"
	RecommendAnotherPass   = "unresolved categories remain — consider another clarification pass"
)

// ErrStateUnknown wraps a persistence failure after which disk and memory may
// diverge; the caller must re-load before continuing.
var ErrStateUnknown = errors.New("spec state unknown, re-load before retrying")

// ClarifyService drives the full clarification loop: scan, ask, validate,
// integrate, persist, rescan.
type ClarifyService struct {
	repo         domain.WorkspaceRepository
	audit        domain.AuditLogger
	now          func() time.Time
	maxQuestions int // 0 means use workspace settings
}

func NewClarifyService(repo domain.WorkspaceRepository, audit domain.AuditLogger) *ClarifyService {
	return &ClarifyService{repo: repo, audit: audit, now: time.Now}
}

// SetMaxQuestions overrides the per-session question cap from settings.
func (s *ClarifyService) SetMaxQuestions(n int) {
	s.maxQuestions = n
}

// Status loads the spec and returns its current coverage. Pure read.
func (s *ClarifyService) Status(specPath string) ([]coverage.Coverage, error) {
	doc, err := s.repo.LoadDocument(specPath)
	if err != nil {
		return nil, err
	}
	return coverage.Scan(doc), nil
}

// NextQuestion recomputes the queue and returns only its head, or ok=false
// when nothing remains worth asking. Questions already answered under today's
// session heading are skipped, so stateless callers are never handed a
// question the document has already absorbed.
func (s *ClarifyService) NextQuestion(specPath string) (coverage.Question, bool, error) {
	doc, err := s.repo.LoadDocument(specPath)
	if err != nil {
		return coverage.Question{}, false, err
	}
	settings, err := s.repo.LoadSettings()
	if err != nil {
		return coverage.Question{}, false, err
	}
	queue := coverage.GenerateQuestions(s.enabled(coverage.Scan(doc), settings))
	date := s.now().Format("2006-01-02")
	for _, q := range queue {
		if !answeredToday(doc, date, q.Prompt) {
			return q, true, nil
		}
	}
	return coverage.Question{}, false, nil
}

// Run executes one clarification session against the spec at specPath.
func (s *ClarifyService) Run(ctx context.Context, specPath string, ask Asker) (*Report, error) {
	doc, err := s.repo.LoadDocument(specPath)
	if err != nil {
		return nil, err
	}
	settings, err := s.repo.LoadSettings()
	if err != nil {
		return nil, err
	}
	if s.maxQuestions > 0 {
		settings.MaxQuestions = s.maxQuestions
	}

	session := clarify.NewSession(s.now())
	machine, err := clarify.NewSessionMachine(session.ID)
	if err != nil {
		return nil, err
	}
	s.logEvent("session_started", map[string]interface{}{"session_id": session.ID, "spec": specPath})

	for !machine.Terminated() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		queue := coverage.GenerateQuestions(s.askable(coverage.Scan(doc), settings, session))
		q, ok := coverage.Next(queue)
		if !ok || session.Asked >= settings.MaxQuestions {
			_ = machine.Transition(clarify.EventStop)
			break
		}

		if err := machine.Transition(clarify.EventAsk); err != nil {
			return nil, err
		}
		session.Asked++

		answer, stopped, err := s.collectAnswer(machine, q, ask)
		if err != nil {
			return nil, err
		}
		if stopped {
			break
		}

		// Integrate on a fresh snapshot; the previous one stays valid until
		// the new one is on disk.
		next := doc.Clone()
		if err := s.integrate(next, session, q, answer); err != nil {
			return nil, fmt.Errorf("failed to integrate answer: %w", err)
		}
		if errs := next.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("edit broke document structure: %v", errs[0])
		}

		if err := s.repo.SaveDocument(specPath, next); err != nil {
			s.logEvent("write_failed", map[string]interface{}{"session_id": session.ID, "error": err.Error()})
			return nil, fmt.Errorf("%w: %v", ErrStateUnknown, err)
		}
		if err := machine.Transition(clarify.EventPersist); err != nil {
			return nil, err
		}
		doc = next

		record := session.Accept(q.Prompt, answer, q.Category, s.now())
		s.logEvent("answer_accepted", map[string]interface{}{
			"session_id": session.ID,
			"record_id":  record.ID,
			"category":   q.Category,
		})

		if err := machine.Transition(clarify.EventNext); err != nil {
			return nil, err
		}
	}

	report := s.buildReport(session, coverage.Scan(doc))
	s.logEvent("session_ended", map[string]interface{}{
		"session_id": session.ID,
		"asked":      session.Asked,
		"answered":   session.Answered,
	})
	return report, nil
}

// AnswerOnce accepts one answer for the current head question outside an
// interactive session, for stateless callers like the MCP tools. The queue is
// recomputed and the head must match questionID, which enforces the
// one-outstanding-question rule across calls.
func (s *ClarifyService) AnswerOnce(ctx context.Context, specPath, questionID, answer string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.repo.LoadDocument(specPath)
	if err != nil {
		return nil, err
	}
	settings, err := s.repo.LoadSettings()
	if err != nil {
		return nil, err
	}

	session := clarify.NewSession(s.now())

	// The head skips questions today's session heading already recorded, so a
	// category whose integration left it Partial cannot be answered twice.
	queue := coverage.GenerateQuestions(s.enabled(coverage.Scan(doc), settings))
	var q coverage.Question
	ok := false
	for _, cand := range queue {
		if !answeredToday(doc, session.Date, cand.Prompt) {
			q, ok = cand, true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("no question outstanding")
	}
	if q.ID != questionID {
		return nil, fmt.Errorf("question %q is not the outstanding one (expected %q)", questionID, q.ID)
	}
	if err := q.ValidateAnswer(answer); err != nil {
		return nil, err
	}

	session.Asked = 1
	next := doc.Clone()
	if err := s.integrate(next, session, q, strings.TrimSpace(answer)); err != nil {
		return nil, fmt.Errorf("failed to integrate answer: %w", err)
	}
	if errs := next.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("edit broke document structure: %v", errs[0])
	}
	if err := s.repo.SaveDocument(specPath, next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateUnknown, err)
	}

	record := session.Accept(q.Prompt, strings.TrimSpace(answer), q.Category, s.now())
	s.logEvent("answer_accepted", map[string]interface{}{
		"session_id": session.ID,
		"record_id":  record.ID,
		"category":   q.Category,
	})
	return s.buildReport(session, coverage.Scan(next)), nil
}

// collectAnswer owns the awaiting→validating sub-loop: invalid answers
// re-prompt in the same question slot without advancing the counter.
func (s *ClarifyService) collectAnswer(machine *clarify.SessionMachine, q coverage.Question, ask Asker) (string, bool, error) {
	answer, err := ask.Ask(q)
	for {
		if err != nil {
			return "", false, err
		}
		if answer.Stop {
			if terr := machine.Transition(clarify.EventStop); terr != nil {
				return "", false, terr
			}
			return "", true, nil
		}

		if terr := machine.Transition(clarify.EventSubmit); terr != nil {
			return "", false, terr
		}
		verr := q.ValidateAnswer(answer.Text)
		if verr == nil {
			if terr := machine.Transition(clarify.EventAccept); terr != nil {
				return "", false, terr
			}
			return strings.TrimSpace(answer.Text), false, nil
		}

		var rejected *coverage.ErrAnswerRejected
		if !errors.As(verr, &rejected) {
			return "", false, verr
		}
		if terr := machine.Transition(clarify.EventReject); terr != nil {
			return "", false, terr
		}
		answer, err = ask.Reprompt(q, rejected.Reason)
	}
}

// integrate applies one accepted answer: the session bullet plus the minimal
// edit to the single most relevant section.
func (s *ClarifyService) integrate(doc *specdoc.Document, session *clarify.Session, q coverage.Question, answer string) error {
	resolved := q.Resolve(answer)

	// Terminology renames rewrite the whole document first so the session
	// bullet appended below stays the single backward reference to the old
	// term.
	if q.Category == "Terminology & Consistency" {
		if oldTerm, newTerm, ok := parseRename(resolved); ok {
			if _, err := doc.RenameTerm(oldTerm, newTerm); err != nil {
				return err
			}
			if err := doc.AppendClarification(session.Date, q.Prompt, answer); err != nil {
				return err
			}
			session.Touch(specdoc.ClarificationsTitle)
			session.Touch(coverage.TargetSection(q.Category))
			return nil
		}
	}

	if err := doc.AppendClarification(session.Date, q.Prompt, answer); err != nil {
		return err
	}
	session.Touch(specdoc.ClarificationsTitle)

	target := coverage.TargetSection(q.Category)
	bullet := clarifiedBullet(q, resolved)
	if doc.Supersede(target, coverage.AmbiguousLine, bullet) {
		session.Touch(target)
		return nil
	}
	if err := doc.InsertBullet(target, bullet); err != nil {
		return err
	}
	session.Touch(target)
	return nil
}

// clarifiedBullet words the integrated statement minimally and testably.
func clarifiedBullet(q coverage.Question, resolved string) string {
	switch q.Category {
	case "Functional Scope & Behavior":
		return "Out of scope: " + resolved
	case "Completion Signals":
		return "Done when: " + resolved
	default:
		return resolved
	}
}

// parseRename accepts "Old -> New" and "Old → New" forms.
func parseRename(answer string) (string, string, bool) {
	for _, sep := range []string{"→", "->"} {
		if parts := strings.SplitN(answer, sep, 2); len(parts) == 2 {
			oldTerm := strings.TrimSpace(parts[0])
			newTerm := strings.TrimSpace(parts[1])
			if oldTerm != "" && newTerm != "" {
				return oldTerm, newTerm, true
			}
		}
	}
	return "", "", false
}

func (s *ClarifyService) buildReport(session *clarify.Session, cov []coverage.Coverage) *Report {
	rec := RecommendProceed
	switch {
	case session.Asked == 0:
		rec = RecommendNoAmbiguities
	case len(coverage.Remaining(cov)) > 0:
		rec = RecommendAnotherPass
	}
	return &Report{
		SessionID:        session.ID,
		SessionDate:      session.Date,
		Asked:            session.Asked,
		Answered:         session.Answered,
		ModifiedSections: session.Modified,
		Coverage:         cov,
		Recommendation:   rec,
	}
}

// askable narrows a scan to the categories still worth asking this session:
// disabled categories are honored and an already-answered category is never
// re-asked, since integration does not guarantee it flips to Clear.
func (s *ClarifyService) askable(cov []coverage.Coverage, settings *domain.Settings, session *clarify.Session) []coverage.Coverage {
	var out []coverage.Coverage
	for _, c := range s.enabled(cov, settings) {
		if !session.AnsweredCategory(c.Category) {
			out = append(out, c)
		}
	}
	return out
}

// answeredToday reports whether the question's prompt already appears as a
// bullet under today's session heading. Stateless callers carry no session,
// so the document itself is the dedup record.
func answeredToday(doc *specdoc.Document, date, prompt string) bool {
	for _, b := range doc.SessionBullets(date) {
		if strings.Contains(b, prompt) {
			return true
		}
	}
	return false
}

// enabled filters out categories the workspace settings disabled. The full
// scan still drives reports; only question generation is narrowed.
func (s *ClarifyService) enabled(cov []coverage.Coverage, settings *domain.Settings) []coverage.Coverage {
	if len(settings.DisabledCategories) == 0 {
		return cov
	}
	disabled := make(map[string]bool, len(settings.DisabledCategories))
	for _, c := range settings.DisabledCategories {
		disabled[strings.ToLower(c)] = true
	}
	var out []coverage.Coverage
	for _, c := range cov {
		if !disabled[strings.ToLower(c.Category)] {
			out = append(out, c)
		}
	}
	return out
}

func (s *ClarifyService) logEvent(action string, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Log(action, "human", metadata)
}
