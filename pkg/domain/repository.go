package domain

import (
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/specdoc"
)

// WorkspaceRepository handles persistence of speckit artifacts: the feature
// spec document itself, addressed by the path discovery resolved, and the
// session records kept in the .speckit/ directory.
type WorkspaceRepository interface {
	Initialize() error
	IsInitialized() bool
	LoadDocument(path string) (*specdoc.Document, error)
	// SaveDocument persists the whole document atomically: the previous file
	// content is fully replaced or left untouched, never half-written.
	SaveDocument(path string, doc *specdoc.Document) error
	RecordEvent(event Event) error
	LoadEvents() ([]Event, error)
	LoadSettings() (*Settings, error)
	SaveSettings(cfg *Settings) error
}

// Settings is the serialized representation of clarify.yaml.
type Settings struct {
	MaxQuestions       int      `yaml:"max_questions"`
	DisabledCategories []string `yaml:"disabled_categories"`
	DiscoveryScript    string   `yaml:"discovery_script"`
}

// DefaultSettings returns the settings used when no clarify.yaml exists.
func DefaultSettings() *Settings {
	return &Settings{
		MaxQuestions: 5,
	}
}

// AuditLogger records auditable clarification actions.
type AuditLogger interface {
	Log(action string, actor string, metadata map[string]interface{}) error
}
