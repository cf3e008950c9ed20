// Package forge defines the client contract for fetching workflow-run
// metadata and artifact payloads from a forge, plus a GitHub Actions
// implementation.
package forge

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a run or artifact does not exist.
	ErrNotFound = errors.New("forge: not found")

	// ErrNoPayload is returned when an artifact archive contains no usable
	// JSON payload.
	ErrNoPayload = errors.New("forge: artifact has no JSON payload")
)

// Client fetches run details and artifact content. Implementations fail by
// returning an error carrying a message; they never panic.
type Client interface {
	GetRunDetails(ctx context.Context, owner, repo string, runID int64) (*RunDetails, error)
	GetArtifactContent(ctx context.Context, owner, repo string, artifactID int64) (*ArtifactPayload, error)
}
