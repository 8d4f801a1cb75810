package application

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hammaadworks/specialized-spec-kit/pkg/domain"
)

// AuditService appends clarification events to the session log, chaining
// hashes so tampering with past sessions is detectable.
type AuditService struct {
	repo domain.WorkspaceRepository
}

// Compile-time check that AuditService implements AuditLogger
var _ domain.AuditLogger = (*AuditService)(nil)

func NewAuditService(repo domain.WorkspaceRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Log(action string, actor string, metadata map[string]interface{}) error {
	events, _ := s.repo.LoadEvents()
	prevHash := ""
	if len(events) > 0 {
		prevHash = events[len(events)-1].Hash
	}

	event := domain.Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Action:    action,
		Actor:     actor,
		Metadata:  metadata,
		PrevHash:  prevHash,
	}
	event.Hash = event.CalculateHash()

	return s.repo.RecordEvent(event)
}

// GetTimeline returns all recorded events in append order.
func (s *AuditService) GetTimeline() ([]domain.Event, error) {
	return s.repo.LoadEvents()
}

// VerifyIntegrity walks the hash chain and reports any broken links.
func (s *AuditService) VerifyIntegrity() ([]string, error) {
	events, err := s.repo.LoadEvents()
	if err != nil {
		return nil, err
	}

	var violations []string
	lastHash := ""

	for i, e := range events {
		if e.PrevHash != lastHash {
			violations = append(violations, fmt.Sprintf("Event %d (%s): PrevHash mismatch. Session log broken.", i, e.ID))
		}
		if e.CalculateHash() != e.Hash {
			violations = append(violations, fmt.Sprintf("Event %d (%s): content hash mismatch.", i, e.ID))
		}
		lastHash = e.Hash
	}
	return violations, nil
}
