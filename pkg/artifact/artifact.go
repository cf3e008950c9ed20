// Package artifact models workflow-run artifact payloads and selects the
// display branch for a loosely-typed content envelope.
package artifact

import "encoding/json"

// File type markers carried in the envelope's fileType field.
const (
	FileTypeJSONL      = "jsonl"
	FileTypeTrajectory = "trajectory"
)

// Content is the loosely-typed envelope an artifact payload decodes into.
// Which fields are populated determines which display branch activates.
type Content struct {
	FileType       string            `json:"fileType,omitempty"`
	JSONLContent   string            `json:"jsonlContent,omitempty"`
	TrajectoryData json.RawMessage   `json:"trajectoryData,omitempty"`
	History        []json.RawMessage `json:"history,omitempty"`
	JSONLHistory   []json.RawMessage `json:"jsonlHistory,omitempty"`
	Metrics        map[string]any    `json:"metrics,omitempty"`
	Issue          json.RawMessage   `json:"issue,omitempty"`
}

// HasTrajectoryData reports whether the envelope carries a trajectory payload.
func (c Content) HasTrajectoryData() bool {
	return len(c.TrajectoryData) > 0 && string(c.TrajectoryData) != "null"
}

// HasIssue reports whether the envelope carries an issue field.
func (c Content) HasIssue() bool {
	return len(c.Issue) > 0 && string(c.Issue) != "null"
}
