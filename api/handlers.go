package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spoolworks/reel/pkg/artifact"
	"github.com/spoolworks/reel/pkg/forge"
	"github.com/spoolworks/reel/pkg/render"
	"github.com/spoolworks/reel/pkg/trajectory"
)

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ArtifactView is the classified view model for one artifact.
type ArtifactView struct {
	Branch string `json:"branch"`

	// Timeline is populated for the trajectory branch.
	Timeline *render.Timeline `json:"timeline,omitempty"`
	// CountLabel is the header label for the trajectory branch.
	CountLabel string `json:"count_label,omitempty"`

	// JSONLContent is populated for the jsonl branch.
	JSONLContent string `json:"jsonl_content,omitempty"`

	// Detail is populated for the generic detail branch.
	Detail *DetailView `json:"detail,omitempty"`
}

// DetailView carries the generic detail branch content.
type DetailView struct {
	ShowSummary       bool           `json:"show_summary"`
	Metrics           map[string]any `json:"metrics,omitempty"`
	HasHistory        bool           `json:"has_history"`
	HasJSONLHistory   bool           `json:"has_jsonl_history"`
	HistoryCount      int            `json:"history_count"`
	JSONLHistoryCount int            `json:"jsonl_history_count"`
	Empty             bool           `json:"empty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleGetRun fetches run details from the forge.
func (s *Server) handleGetRun(c *fiber.Ctx) error {
	owner := c.Params("owner")
	repo := c.Params("repo")

	runID, err := strconv.ParseInt(c.Params("run"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "run must be a numeric ID"})
	}

	details, err := s.forge.GetRunDetails(c.Context(), owner, repo, runID)
	if err != nil {
		if errors.Is(err, forge.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "run not found"})
		}
		s.logger.Error("fetching run details failed",
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.Int64("run", runID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "fetching run details failed"})
	}

	return c.JSON(details)
}

// handleGetArtifact fetches one artifact's payload and classifies it into
// the view model for its display branch.
func (s *Server) handleGetArtifact(c *fiber.Ctx) error {
	owner := c.Params("owner")
	repo := c.Params("repo")

	artifactID, err := strconv.ParseInt(c.Params("artifact"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "artifact must be a numeric ID"})
	}

	payload, err := s.forge.GetArtifactContent(c.Context(), owner, repo, artifactID)
	if err != nil {
		switch {
		case errors.Is(err, forge.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "artifact not found"})
		case errors.Is(err, forge.ErrNoPayload):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: "artifact has no JSON payload"})
		}
		s.logger.Error("fetching artifact failed",
			zap.String("owner", owner),
			zap.String("repo", repo),
			zap.Int64("artifact", artifactID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "fetching artifact failed"})
	}

	view, err := buildArtifactView(payload.Content)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(view)
}

// buildArtifactView selects the display branch and fills in its content.
func buildArtifactView(content artifact.Content) (*ArtifactView, error) {
	branch, plan := artifact.Select(content)
	view := &ArtifactView{Branch: branch.String()}

	switch branch {
	case artifact.BranchJSONL:
		view.JSONLContent = content.JSONLContent

	case artifact.BranchTrajectory:
		normalized, err := trajectory.ParseJSON(content.TrajectoryData)
		if err != nil {
			return nil, err
		}
		timeline := render.Build(normalized)
		view.Timeline = &timeline
		view.CountLabel = timeline.CountLabel()

	case artifact.BranchDetail:
		view.Detail = &DetailView{
			ShowSummary:       plan.ShowSummary,
			Metrics:           content.Metrics,
			HasHistory:        plan.HasHistory,
			HasJSONLHistory:   plan.HasJSONLHistory,
			HistoryCount:      plan.HistoryCount,
			JSONLHistoryCount: plan.JSONLHistoryCount,
			Empty:             plan.Empty,
		}
	}

	return view, nil
}

// handleClassifyTrajectory classifies a raw trajectory body posted by a
// client and returns the normalized timeline view model.
func (s *Server) handleClassifyTrajectory(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "request body required"})
	}

	normalized, err := trajectory.ParseJSON(body)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	timeline := render.Build(normalized)

	s.logger.Debug("classified trajectory",
		zap.String("shape", timeline.ShapeName),
		zap.Int("items", len(timeline.Entries)),
	)

	return c.JSON(fiber.Map{
		"timeline":    timeline,
		"count_label": timeline.CountLabel(),
	})
}
