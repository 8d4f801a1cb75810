package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"gopkg.in/yaml.v3"

	"github.com/hammaadworks/specialized-spec-kit/pkg/domain"
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/specdoc"
)

const SpeckitDir = ".speckit"
const SettingsFile = "clarify.yaml"
const SessionsFile = "sessions.jsonl"

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

var _ domain.WorkspaceRepository = (*FilesystemRepository)(nil)

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath ensures the path is within the .speckit directory and prevents traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Join(r.root, SpeckitDir)
	fullPath := filepath.Join(baseDir, filename)
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	path := filepath.Join(r.root, SpeckitDir)
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create .speckit directory: %w", err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, SpeckitDir))
	return err == nil
}

// LoadDocument reads and parses the spec markdown at the given path. Reads
// are retried, since editors and sync tools briefly lock files mid-save.
func (r *FilesystemRepository) LoadDocument(path string) (*specdoc.Document, error) {
	retryer := retry.New[*specdoc.Document](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*specdoc.Document, error) {
		cleanPath := filepath.Clean(path)
		// #nosec G304 -- Path comes from the validated discovery payload
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read spec file: %w", err)
		}
		return specdoc.Parse(string(data)), nil
	})
}

// SaveDocument atomically replaces the spec file with the rendered document.
// The content lands in a temp file in the same directory first and is moved
// into place with rename, so a reader never observes a partial write.
func (r *FilesystemRepository) SaveDocument(path string, doc *specdoc.Document) error {
	cleanPath := filepath.Clean(path)
	dir := filepath.Dir(cleanPath)

	tmp, err := os.CreateTemp(dir, ".speckit-*.md")
	if err != nil {
		return fmt.Errorf("failed to stage spec write: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(doc.Render()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write spec: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync spec: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close staged spec: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set spec mode: %w", err)
	}
	if err := os.Rename(tmpName, cleanPath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace spec file: %w", err)
	}
	return nil
}

// RecordEvent appends one event to .speckit/sessions.jsonl.
func (r *FilesystemRepository) RecordEvent(event domain.Event) error {
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(SessionsFile)
	if err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open sessions log: %w", err)
	}
	defer f.Close() //nolint:errcheck // best-effort close after write error paths

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// LoadEvents reads the whole session log in append order.
func (r *FilesystemRepository) LoadEvents() ([]domain.Event, error) {
	path, err := r.ResolvePath(SessionsFile)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Event{}, nil
		}
		return nil, fmt.Errorf("failed to open sessions log: %w", err)
	}
	defer f.Close() //nolint:errcheck // read path

	var events []domain.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e domain.Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("corrupt event line: %w", err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions log: %w", err)
	}
	return events, nil
}

// LoadSettings loads clarify.yaml, falling back to defaults when absent.
func (r *FilesystemRepository) LoadSettings() (*domain.Settings, error) {
	path, err := r.ResolvePath(SettingsFile)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.DefaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	cfg := domain.DefaultSettings()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = domain.DefaultSettings().MaxQuestions
	}
	return cfg, nil
}

func (r *FilesystemRepository) SaveSettings(cfg *domain.Settings) error {
	if cfg == nil {
		return fmt.Errorf("settings are nil")
	}
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(SettingsFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}
