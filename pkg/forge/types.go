package forge

import (
	"time"

	"github.com/spoolworks/reel/pkg/artifact"
)

// Run is the workflow run metadata subset the viewer cares about.
type Run struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	HeadBranch string    `json:"head_branch"`
	HeadSHA    string    `json:"head_sha"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	RunNumber  int       `json:"run_number"`
	Event      string    `json:"event"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Job is a single job within a workflow run.
type Job struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Conclusion  string     `json:"conclusion"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobList is the jobs collection for a run.
type JobList struct {
	TotalCount int   `json:"total_count"`
	Jobs       []Job `json:"jobs"`
}

// Artifact is a named blob attached to a workflow run.
type Artifact struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	SizeInBytes int64     `json:"size_in_bytes"`
	Expired     bool      `json:"expired"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArtifactList is the artifacts collection for a run.
type ArtifactList struct {
	TotalCount int        `json:"total_count"`
	Artifacts  []Artifact `json:"artifacts"`
}

// RunDetails bundles everything fetched per (owner, repo, run): the run
// itself plus its jobs and artifacts. Details are request-scoped; callers
// replace them wholesale on every fetch.
type RunDetails struct {
	Run       Run          `json:"run"`
	Jobs      JobList      `json:"jobs"`
	Artifacts ArtifactList `json:"artifacts"`
}

// ArtifactPayload wraps the decoded content envelope of one artifact.
type ArtifactPayload struct {
	Content artifact.Content `json:"content"`
}
