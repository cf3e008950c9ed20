package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	pinFile = "pin.json"
)

// PinState represents the persisted pin state: what was viewed last.
// Exactly one of Path or Owner/Repo/RunID is meaningful.
type PinState struct {
	// Path is a local trajectory file, when the last view was file-based.
	Path string `json:"path,omitempty"`

	// Owner, Repo and RunID identify a forge workflow run, when the last
	// view was run-based.
	Owner string `json:"owner,omitempty"`
	Repo  string `json:"repo,omitempty"`
	RunID int64  `json:"run_id,omitempty"`

	// ArtifactID is the artifact selected within the run, if any.
	ArtifactID int64 `json:"artifact_id,omitempty"`
}

// IsRun reports whether the pin points at a forge run rather than a file.
func (p *PinState) IsRun() bool {
	return p.Owner != "" && p.Repo != "" && p.RunID != 0
}

// LoadPin loads the pin state from a target .reel/pin.json.
// Returns nil, nil if no pin exists.
// If overrideDir is non-empty, it is used instead of the default ~/.reel/ location.
func (m *Manager) LoadPin(overrideDir string) (*PinState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, pinFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading pin state: %w", err)
	}

	state := &PinState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing pin state: %w", err)
	}

	return state, nil
}

// SavePin persists the pin state to a target .reel/pin.json.
func (m *Manager) SavePin(state *PinState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil pin state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling pin state: %w", err)
	}

	path := filepath.Join(dir, pinFile)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("writing pin state: %w", err)
	}

	return nil
}

// ClearPin removes the pin state file.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearPin(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, pinFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing pin state: %w", err)
	}

	return nil
}
