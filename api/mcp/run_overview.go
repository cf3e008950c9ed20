package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/spoolworks/reel/pkg/forge"
)

var (
	runOverviewToolName    = "run_overview"
	runOverviewDescription = "Fetch a workflow run's status, jobs, and artifacts from the forge. Returns run metadata plus job and artifact summaries for the given owner/repo/run coordinate."
)

// RunOverviewInput represents the input arguments for the run_overview tool.
type RunOverviewInput struct {
	Owner string `json:"owner" jsonschema:"the repository owner"`
	Repo  string `json:"repo" jsonschema:"the repository name"`
	RunID int64  `json:"run_id" jsonschema:"the numeric workflow run ID"`
}

// JobSummary is one job's status within the overview.
type JobSummary struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion,omitempty"`
}

// ArtifactSummary is one artifact within the overview.
type ArtifactSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Size    int64  `json:"size_in_bytes"`
	Expired bool   `json:"expired"`
}

// RunOverviewOutput represents the output of the run_overview tool.
type RunOverviewOutput struct {
	Status        string            `json:"status"`
	Conclusion    string            `json:"conclusion,omitempty"`
	Branch        string            `json:"branch,omitempty"`
	JobCount      int               `json:"job_count"`
	ArtifactCount int               `json:"artifact_count"`
	Jobs          []JobSummary      `json:"jobs"`
	Artifacts     []ArtifactSummary `json:"artifacts"`
}

// handleRunOverview processes a run_overview request.
func (s *Server) handleRunOverview(ctx context.Context, req *mcp.CallToolRequest, input RunOverviewInput) (*mcp.CallToolResult, RunOverviewOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP run_overview request",
		zap.String("owner", input.Owner),
		zap.String("repo", input.Repo),
		zap.Int64("runID", input.RunID),
	)

	details, err := s.config.Forge.GetRunDetails(ctx, input.Owner, input.Repo, input.RunID)
	if err != nil {
		logger.Error("failed to fetch run details", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to fetch run details: %v", err)},
			},
		}, RunOverviewOutput{}, nil
	}

	output := buildRunOverview(details)

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal run overview", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize overview: %v", err)},
			},
		}, RunOverviewOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

// buildRunOverview converts run details into the overview output.
func buildRunOverview(details *forge.RunDetails) RunOverviewOutput {
	jobs := make([]JobSummary, len(details.Jobs.Jobs))
	for i, job := range details.Jobs.Jobs {
		jobs[i] = JobSummary{
			Name:       job.Name,
			Status:     job.Status,
			Conclusion: job.Conclusion,
		}
	}

	artifacts := make([]ArtifactSummary, len(details.Artifacts.Artifacts))
	for i, a := range details.Artifacts.Artifacts {
		artifacts[i] = ArtifactSummary{
			ID:      a.ID,
			Name:    a.Name,
			Size:    a.SizeInBytes,
			Expired: a.Expired,
		}
	}

	return RunOverviewOutput{
		Status:        details.Run.Status,
		Conclusion:    details.Run.Conclusion,
		Branch:        details.Run.HeadBranch,
		JobCount:      details.Jobs.TotalCount,
		ArtifactCount: details.Artifacts.TotalCount,
		Jobs:          jobs,
		Artifacts:     artifacts,
	}
}
