package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/spoolworks/reel/pkg/render"
	"github.com/spoolworks/reel/pkg/upload"
	"github.com/spoolworks/reel/pkg/utils"
)

var (
	readTrajectoryToolName    = "read_trajectory"
	readTrajectoryDescription = "Read and classify a local trajectory JSON file. Returns the detected shape, the de-noised item count, a per-kind histogram, and preview lines for the first items."
)

// previewLimit caps how many timeline entries are previewed.
const previewLimit = 10

// previewWidth caps the preview line length for a single entry.
const previewWidth = 120

// ReadTrajectoryInput represents the input arguments for the read_trajectory tool.
type ReadTrajectoryInput struct {
	Path string `json:"path" jsonschema:"the local file path of the trajectory JSON or JSONL file"`
}

// ReadTrajectoryOutput represents the output of the read_trajectory tool.
type ReadTrajectoryOutput struct {
	Shape     string         `json:"shape"`
	ItemCount int            `json:"item_count"`
	Kinds     map[string]int `json:"kinds,omitempty"`
	Preview   []string       `json:"preview,omitempty"`
}

// handleReadTrajectory processes a read_trajectory request.
func (s *Server) handleReadTrajectory(_ context.Context, req *mcp.CallToolRequest, input ReadTrajectoryInput) (*mcp.CallToolResult, ReadTrajectoryOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP read_trajectory request", zap.String("path", input.Path))

	content, err := upload.ReadPath(input.Path)
	if err != nil {
		logger.Error("failed to read trajectory", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to read trajectory: %v", err)},
			},
		}, ReadTrajectoryOutput{}, nil
	}

	output := buildTrajectorySummary(content)

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal trajectory summary", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize summary: %v", err)},
			},
		}, ReadTrajectoryOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

// buildTrajectorySummary converts loaded content into the summary output.
func buildTrajectorySummary(content upload.Content) ReadTrajectoryOutput {
	if content.Trajectory == nil {
		// A verbatim jsonl file has no classified timeline.
		return ReadTrajectoryOutput{Shape: content.FileType}
	}

	timeline := render.Build(*content.Trajectory)

	preview := make([]string, 0, previewLimit)
	for _, entry := range timeline.Entries {
		if len(preview) == previewLimit {
			break
		}
		line := entry.Title
		if entry.Body != "" && entry.Body != entry.Title {
			line = fmt.Sprintf("%s: %s", entry.Title, utils.Truncate(entry.Body, previewWidth))
		}
		preview = append(preview, line)
	}

	return ReadTrajectoryOutput{
		Shape:     timeline.ShapeName,
		ItemCount: len(timeline.Entries),
		Kinds:     timeline.KindHistogram(),
		Preview:   preview,
	}
}
