// Package upload implements the drag-and-drop intake for trajectory files:
// a small state machine that reads a dropped file, classifies its payload,
// and hands the normalized content to the hosting view.
package upload

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spoolworks/reel/pkg/trajectory"
)

// State is the intake lifecycle state.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrBusy is returned when a drop arrives while a previous one is still
// processing. The intake surface must report itself disabled for the
// duration.
var ErrBusy = fmt.Errorf("upload: intake busy")

// ErrUnsupported is returned for files that fail the JSON intake filter.
var ErrUnsupported = fmt.Errorf("upload: unsupported file type")

// File is one dropped file.
type File struct {
	Name   string
	MIME   string
	Reader io.Reader
}

// Content is the normalized result delivered to the host: either verbatim
// line-delimited JSON text or a classified trajectory.
type Content struct {
	FileType     string
	JSONLContent string
	Trajectory   *trajectory.Normalized
}

// Config holds the host callbacks and logger for an intake.
type Config struct {
	// OnBegin is notified as soon as a drop is accepted, before the read
	// completes, so the host can show a busy state.
	OnBegin func(id, name string)

	// OnContent delivers the normalized content of a successful upload.
	OnContent func(id string, content Content)

	// OnError reports a failed upload. No content reaches the host for a
	// failed drop.
	OnError func(id string, err error)

	// Logger is the configured zap logger.
	Logger *zap.Logger
}

// Intake is the upload state machine. Idle → Processing → {Done, Failed},
// and back to Idle on the next drop.
type Intake struct {
	config Config
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	lastErr error
}

// NewIntake creates an intake in the Idle state.
func NewIntake(c Config) *Intake {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Intake{config: c, logger: logger}
}

// State returns the current lifecycle state.
func (in *Intake) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// Err returns the error of the most recent failed upload, if any.
func (in *Intake) Err() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.lastErr
}

// Enabled reports whether the intake surface accepts drops right now.
func (in *Intake) Enabled() bool {
	return in.State() != StateProcessing
}

// Accepts applies the intake filter: .json extension or JSON MIME type.
func Accepts(name, mime string) bool {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return true
	}
	return mime == "application/json"
}

// DropAll handles a multi-file drop by using only the first file.
func (in *Intake) DropAll(files ...File) error {
	if len(files) == 0 {
		return fmt.Errorf("upload: empty drop")
	}
	return in.Drop(files[0])
}

// Drop ingests one file: read, parse, classify, deliver. Sequences above
// trajectory.LargeSequenceLen are delivered asynchronously so the host can
// render its busy indicator first; the intake stays in Processing until
// delivery completes.
func (in *Intake) Drop(file File) error {
	if !Accepts(file.Name, file.MIME) {
		return fmt.Errorf("%w: %s", ErrUnsupported, file.Name)
	}

	in.mu.Lock()
	if in.state == StateProcessing {
		in.mu.Unlock()
		return ErrBusy
	}
	in.state = StateProcessing
	in.lastErr = nil
	in.mu.Unlock()

	id := uuid.NewString()
	in.logger.Debug("upload began",
		zap.String("upload_id", id),
		zap.String("file", file.Name),
	)

	if in.config.OnBegin != nil {
		in.config.OnBegin(id, file.Name)
	}

	data, err := io.ReadAll(file.Reader)
	if err != nil {
		in.fail(id, fmt.Errorf("reading %s: %w", file.Name, err))
		return nil
	}

	normalized, err := trajectory.ParseJSON(data)
	if err != nil {
		in.fail(id, fmt.Errorf("file %s is not valid JSON: %w", file.Name, err))
		return nil
	}

	in.logger.Debug("upload classified",
		zap.String("upload_id", id),
		zap.String("shape", normalized.Shape.String()),
		zap.Int("item_count", len(normalized.Items)),
	)

	content := Content{
		FileType:   "trajectory",
		Trajectory: &normalized,
	}

	if len(normalized.Items) > trajectory.LargeSequenceLen {
		go in.deliver(id, content)
		return nil
	}

	in.deliver(id, content)
	return nil
}

func (in *Intake) deliver(id string, content Content) {
	if in.config.OnContent != nil {
		in.config.OnContent(id, content)
	}

	in.mu.Lock()
	in.state = StateDone
	in.mu.Unlock()

	in.logger.Debug("upload delivered", zap.String("upload_id", id))
}

func (in *Intake) fail(id string, err error) {
	in.mu.Lock()
	in.state = StateFailed
	in.lastErr = err
	in.mu.Unlock()

	in.logger.Warn("upload failed",
		zap.String("upload_id", id),
		zap.Error(err),
	)

	if in.config.OnError != nil {
		in.config.OnError(id, err)
	}
}
