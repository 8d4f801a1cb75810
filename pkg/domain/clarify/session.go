package clarify

import (
	"time"

	"github.com/google/uuid"
)

// Record is one accepted question/answer pair. Records are append-only:
// created on acceptance, never mutated or deleted, persisted immediately as a
// bullet under the session heading.
type Record struct {
	ID          string    `json:"id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Category    string    `json:"category"`
	SessionDate string    `json:"session_date"`
	AcceptedAt  time.Time `json:"accepted_at"`
}

// Session groups the records of one continuous clarification run, identified
// by date.
type Session struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	Asked    int      `json:"asked"`
	Answered int      `json:"answered"`
	Records  []Record `json:"records"`
	Modified []string `json:"modified_sections"`
}

// NewSession opens a session stamped with today's date.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:   uuid.New().String(),
		Date: now.Format("2006-01-02"),
	}
}

// Accept appends one record for an accepted answer.
func (s *Session) Accept(question, answer, category string, now time.Time) Record {
	r := Record{
		ID:          uuid.New().String(),
		Question:    question,
		Answer:      answer,
		Category:    category,
		SessionDate: s.Date,
		AcceptedAt:  now,
	}
	s.Records = append(s.Records, r)
	s.Answered++
	return r
}

// AnsweredCategory reports whether this session already integrated an answer
// for the category. Integration does not always flip a category to Clear, so
// the loop uses this to avoid re-asking what was just answered.
func (s *Session) AnsweredCategory(category string) bool {
	for _, r := range s.Records {
		if r.Category == category {
			return true
		}
	}
	return false
}

// Touch records that a spec section was modified during integration; each
// section is reported once.
func (s *Session) Touch(section string) {
	for _, m := range s.Modified {
		if m == section {
			return
		}
	}
	s.Modified = append(s.Modified, section)
}
