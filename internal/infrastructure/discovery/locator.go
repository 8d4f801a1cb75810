// Package discovery resolves the active feature's artifact paths by running
// the repository's prerequisite check script and validating its JSON payload.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultScript is the conventional location of the prerequisite check step.
const DefaultScript = ".specify/scripts/bash/check-prerequisites.sh"

// Context holds the resolved feature paths. PlanPath and TasksPath are empty
// when the discovery payload omits them.
type Context struct {
	FeatureDir string
	SpecPath   string
	PlanPath   string
	TasksPath  string
}

// LocatorError is a fatal precondition failure: discovery returned malformed
// or missing data. The caller must direct the user to the prerequisite setup
// step instead of fabricating paths.
type LocatorError struct {
	Reason string
	Err    error
}

func (e *LocatorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *LocatorError) Unwrap() error { return e.Err }

// ErrSpecNotFound reports a payload that points at a spec file which does not
// exist. The user is redirected to the spec-creation step; the file is never
// silently created.
type ErrSpecNotFound struct {
	Path string
}

func (e *ErrSpecNotFound) Error() string {
	return fmt.Sprintf("spec file not found at %s", e.Path)
}

const payloadSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["FEATURE_DIR", "FEATURE_SPEC"],
  "properties": {
    "FEATURE_DIR": { "type": "string", "minLength": 1 },
    "FEATURE_SPEC": { "type": "string", "minLength": 1 },
    "IMPL_PLAN": { "type": "string" },
    "TASKS": { "type": "string" }
  }
}`

var payloadSchemaLoader = gojsonschema.NewStringLoader(payloadSchemaJSON)

type payload struct {
	FeatureDir string `json:"FEATURE_DIR"`
	Spec       string `json:"FEATURE_SPEC"`
	Plan       string `json:"IMPL_PLAN"`
	Tasks      string `json:"TASKS"`
}

// Locator shells out to the discovery script and turns its output into a
// validated Context.
type Locator struct {
	root   string
	script string
}

func NewLocator(root, script string) *Locator {
	if script == "" {
		script = DefaultScript
	}
	return &Locator{root: root, script: script}
}

// Resolve runs the discovery step and returns the feature context. All
// failure modes map to LocatorError or ErrSpecNotFound; no path is ever
// invented.
func (l *Locator) Resolve(ctx context.Context) (*Context, error) {
	scriptPath := l.script
	if !filepath.IsAbs(scriptPath) {
		scriptPath = filepath.Join(l.root, scriptPath)
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, &LocatorError{Reason: fmt.Sprintf("discovery script not found at %s", scriptPath), Err: err}
	}

	// #nosec G204 -- Script path is workspace-relative and stat-checked above
	cmd := exec.CommandContext(ctx, scriptPath, "--json")
	cmd.Dir = l.root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &LocatorError{
			Reason: fmt.Sprintf("discovery step failed: %s", strings.TrimSpace(stderr.String())),
			Err:    err,
		}
	}

	return l.parsePayload(stdout.Bytes())
}

// parsePayload extracts and validates the JSON object from the script output.
// Scripts are allowed to print human-readable lines before the payload; only
// the region from the first '{' onward is parsed.
func (l *Locator) parsePayload(out []byte) (*Context, error) {
	start := bytes.IndexByte(out, '{')
	if start < 0 {
		return nil, &LocatorError{Reason: "discovery output contains no JSON payload"}
	}
	raw := out[start:]

	result, err := gojsonschema.Validate(payloadSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &LocatorError{Reason: "discovery payload is not valid JSON", Err: err}
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, &LocatorError{Reason: "discovery payload is malformed: " + strings.Join(reasons, "; ")}
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &LocatorError{Reason: "discovery payload is not valid JSON", Err: err}
	}

	fc := &Context{
		FeatureDir: l.absolve(p.FeatureDir),
		SpecPath:   l.absolve(p.Spec),
		PlanPath:   l.absolve(p.Plan),
		TasksPath:  l.absolve(p.Tasks),
	}

	if _, err := os.Stat(fc.SpecPath); err != nil {
		return nil, &ErrSpecNotFound{Path: fc.SpecPath}
	}
	return fc, nil
}

func (l *Locator) absolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.root, path)
}
