package forge

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spoolworks/reel/pkg/artifact"
)

const (
	// DefaultBaseURL is the GitHub REST API root.
	DefaultBaseURL = "https://api.github.com"

	// maxArtifactBytes caps how much of an artifact archive is read into
	// memory.
	maxArtifactBytes = 50 * 1024 * 1024
)

// GitHubClient implements Client against the GitHub Actions REST API.
type GitHubClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// GitHubConfig holds configuration for the GitHub client.
type GitHubConfig struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Token is the bearer token for authenticated requests. Optional for
	// public repositories, but unauthenticated rate limits are low.
	Token string

	// Logger is the configured zap logger.
	Logger *zap.Logger
}

// NewGitHubClient creates a client for the GitHub Actions API.
func NewGitHubClient(cfg GitHubConfig) *GitHubClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GitHubClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   cfg.Token,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Ensure GitHubClient implements Client
var _ Client = (*GitHubClient)(nil)

// GetRunDetails fetches the run, its jobs, and its artifacts.
func (g *GitHubClient) GetRunDetails(ctx context.Context, owner, repo string, runID int64) (*RunDetails, error) {
	details := &RunDetails{}

	runPath := fmt.Sprintf("/repos/%s/%s/actions/runs/%d", owner, repo, runID)
	if err := g.getJSON(ctx, runPath, &details.Run); err != nil {
		return nil, fmt.Errorf("fetching run: %w", err)
	}

	if err := g.getJSON(ctx, runPath+"/jobs", &details.Jobs); err != nil {
		return nil, fmt.Errorf("fetching jobs: %w", err)
	}

	if err := g.getJSON(ctx, runPath+"/artifacts", &details.Artifacts); err != nil {
		return nil, fmt.Errorf("fetching artifacts: %w", err)
	}

	g.logger.Debug("fetched run details",
		zap.Int64("run_id", runID),
		zap.String("conclusion", details.Run.Conclusion),
		zap.Int("job_count", details.Jobs.TotalCount),
		zap.Int("artifact_count", details.Artifacts.TotalCount),
	)

	return details, nil
}

// GetArtifactContent downloads the artifact archive and decodes its first
// JSON payload into the content envelope. A .jsonl entry populates
// jsonlContent for verbatim display; a top-level JSON array is wrapped as
// trajectory data.
func (g *GitHubClient) GetArtifactContent(ctx context.Context, owner, repo string, artifactID int64) (*ArtifactPayload, error) {
	path := fmt.Sprintf("/repos/%s/%s/actions/artifacts/%d/zip", owner, repo, artifactID)

	archive, err := g.getBytes(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("downloading artifact %d: %w", artifactID, err)
	}

	name, data, err := firstJSONEntry(archive)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %d: %w", artifactID, err)
	}

	content, err := decodeContent(name, data)
	if err != nil {
		return nil, fmt.Errorf("decoding artifact %d entry %s: %w", artifactID, name, err)
	}

	g.logger.Debug("fetched artifact content",
		zap.Int64("artifact_id", artifactID),
		zap.String("entry", name),
		zap.String("file_type", content.FileType),
	)

	return &ArtifactPayload{Content: content}, nil
}

// firstJSONEntry returns the name and bytes of the first .json or .jsonl
// entry in the archive.
func firstJSONEntry(archive []byte) (string, []byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return "", nil, fmt.Errorf("opening archive: %w", err)
	}

	for _, file := range reader.File {
		name := strings.ToLower(file.Name)
		if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".jsonl") {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", nil, fmt.Errorf("opening entry %s: %w", file.Name, err)
		}

		data, err := io.ReadAll(io.LimitReader(rc, maxArtifactBytes))
		rc.Close()
		if err != nil {
			return "", nil, fmt.Errorf("reading entry %s: %w", file.Name, err)
		}

		return file.Name, data, nil
	}

	return "", nil, ErrNoPayload
}

// decodeContent maps raw payload bytes onto the content envelope.
func decodeContent(name string, data []byte) (artifact.Content, error) {
	if strings.HasSuffix(strings.ToLower(name), ".jsonl") {
		return artifact.Content{
			FileType:     artifact.FileTypeJSONL,
			JSONLContent: string(data),
		}, nil
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return artifact.Content{
			FileType:       artifact.FileTypeTrajectory,
			TrajectoryData: json.RawMessage(data),
		}, nil
	}

	var content artifact.Content
	if err := json.Unmarshal(data, &content); err != nil {
		return artifact.Content{}, err
	}

	if content.HasTrajectoryData() && content.FileType == "" {
		content.FileType = artifact.FileTypeTrajectory
	}

	return content, nil
}

func (g *GitHubClient) getJSON(ctx context.Context, path string, out any) error {
	data, err := g.getBytes(ctx, path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func (g *GitHubClient) getBytes(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("forge returned status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
}
