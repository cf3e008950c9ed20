// Package render builds display view models from classified trajectories.
// The same Timeline feeds the terminal UI, the web viewer and the JSON API.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spoolworks/reel/pkg/trajectory"
)

// Entry is one displayable timeline row.
type Entry struct {
	Index    int             `json:"index"`
	Kind     trajectory.Kind `json:"-"`
	KindName string          `json:"kind"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Markdown bool            `json:"markdown"`
}

// Timeline is the view model for a classified trajectory. Entries is the
// de-noised item list; Raw carries the pretty-printed document for shapes
// that have no item timeline.
type Timeline struct {
	Shape     trajectory.Shape `json:"-"`
	ShapeName string           `json:"shape"`
	Entries   []Entry          `json:"entries"`
	Raw       string           `json:"raw,omitempty"`
}

// CountLabel is the header label. The count is taken after de-noising.
func (t Timeline) CountLabel() string {
	return fmt.Sprintf("%d items", len(t.Entries))
}

// KindHistogram counts entries per kind name.
func (t Timeline) KindHistogram() map[string]int {
	hist := make(map[string]int)
	for _, e := range t.Entries {
		hist[e.KindName]++
	}
	return hist
}

// Build converts a classified trajectory into its view model. Item
// sequences are de-noised first; entries-shaped and opaque documents are
// rendered whole as pretty JSON.
func Build(n trajectory.Normalized) Timeline {
	t := Timeline{Shape: n.Shape, ShapeName: n.Shape.String()}

	if n.Shape != trajectory.ShapeItems {
		t.Raw = prettyJSON(n.Value)
		return t
	}

	items := trajectory.Prefilter(n.Items)
	t.Entries = make([]Entry, 0, len(items))
	for i, item := range items {
		t.Entries = append(t.Entries, buildEntry(i, item))
	}
	return t
}

func buildEntry(i int, item trajectory.Item) Entry {
	kind := trajectory.DetectKind(item)
	e := Entry{
		Index:    i,
		Kind:     kind,
		KindName: kind.String(),
	}

	switch kind {
	case trajectory.KindUserMessage:
		e.Title = "user"
		e.Body = item.Content
		e.Markdown = true
	case trajectory.KindAssistantMessage:
		e.Title = "assistant"
		e.Body = item.Content
		e.Markdown = true
	case trajectory.KindCommandAction:
		e.Title = "$ " + firstLine(item.Arg("command"))
		e.Body = item.Arg("command")
	case trajectory.KindCommandObservation:
		e.Title = "command output"
		e.Body = item.Content
	case trajectory.KindIPythonAction:
		e.Title = "python"
		e.Body = item.Arg("code")
	case trajectory.KindIPythonObservation:
		e.Title = "python output"
		e.Body = item.Content
	case trajectory.KindFinishAction:
		e.Title = "finish"
		e.Body = item.Content
		if e.Body == "" {
			e.Body = item.Arg("final_thought")
		}
		e.Markdown = true
	case trajectory.KindErrorObservation:
		e.Title = "error"
		e.Body = item.Content
	case trajectory.KindReadAction:
		e.Title = "read " + item.Arg("path")
		e.Body = item.Arg("path")
	case trajectory.KindReadObservation:
		e.Title = "read output"
		e.Body = item.Content
	case trajectory.KindEditAction:
		e.Title = "edit " + item.Arg("path")
		e.Body = item.Arg("path")
	case trajectory.KindEditObservation:
		e.Title = "edit output"
		e.Body = item.Content
	case trajectory.KindAgentStateChange:
		e.Title = "state change"
		e.Body = item.Observation
	default:
		e.Title = fmt.Sprintf("item %d", i+1)
		e.Body = prettyJSON(item.Value)
	}
	return e
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
