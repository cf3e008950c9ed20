// Package viewcmder provides the view command for browsing trajectories.
package viewcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spoolworks/reel/pkg/artifact"
	"github.com/spoolworks/reel/pkg/config"
	"github.com/spoolworks/reel/pkg/dotdir"
	"github.com/spoolworks/reel/pkg/forge"
	"github.com/spoolworks/reel/pkg/history"
	"github.com/spoolworks/reel/pkg/logger"
	"github.com/spoolworks/reel/pkg/render"
	"github.com/spoolworks/reel/pkg/trajectory"
	"github.com/spoolworks/reel/pkg/upload"
)

const viewLongDesc string = `View an agent trajectory.

Open a local trajectory file, or fetch a workflow run's artifact from the
forge and browse its timeline in a TUI. With no arguments, resumes whatever
was viewed last.

Examples:
  reel view trajectory.json
  reel view session.jsonl --follow
  reel view --owner acme --repo rockets --run 12345
  reel view --owner acme --repo rockets --run 12345 --artifact 777
  reel view trajectory.json --web
  reel view trajectory.json --web --port 9000
`

const viewShortDesc string = "View an agent trajectory"

type viewCommander struct {
	owner      string
	repo       string
	runID      int64
	artifactID int64
	token      string
	forgeURL   string
	web        bool
	follow     bool
	port       uint
	debug      bool
	configDir  string
	viper      *viper.Viper
	logger     *zap.Logger
}

func NewViewCmd() *cobra.Command {
	cmder := &viewCommander{}

	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: viewShortDesc,
		Long:  viewLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagForgeToken,
				config.FlagForgeBaseURL,
				config.FlagViewerPort,
			})
			cmder.viper = v

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return cmder.run(cmd.Context(), path)
		},
	}

	cmd.Flags().StringVar(&cmder.owner, "owner", "", "Repository owner")
	cmd.Flags().StringVar(&cmder.repo, "repo", "", "Repository name")
	cmd.Flags().Int64Var(&cmder.runID, "run", 0, "Workflow run ID")
	cmd.Flags().Int64Var(&cmder.artifactID, "artifact", 0, "Artifact ID (default: sole artifact of a successful run)")
	cmd.Flags().BoolVar(&cmder.web, "web", false, "Serve the viewer locally instead of the TUI")
	cmd.Flags().BoolVarP(&cmder.follow, "follow", "f", false, "Refresh when the file changes on disk")

	config.AddStringFlag(cmd, config.Flags, config.FlagForgeToken, &cmder.token)
	config.AddStringFlag(cmd, config.Flags, config.FlagForgeBaseURL, &cmder.forgeURL)
	config.AddUintFlag(cmd, config.Flags, config.FlagViewerPort, &cmder.port)

	return cmd
}

func (c *viewCommander) run(ctx context.Context, path string) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	source, err := c.resolveSource(path)
	if err != nil {
		return err
	}

	if source.Path != "" {
		return c.viewFile(ctx, source.Path)
	}
	return c.viewRun(ctx, source)
}

// viewSource is where the content comes from: a local file path, or a run
// coordinate with an optional explicit artifact.
type viewSource struct {
	Path       string
	Owner      string
	Repo       string
	RunID      int64
	ArtifactID int64
}

// resolveSource picks the content source: an explicit file argument or run
// coordinate wins, otherwise the pinned last view is resumed.
func (c *viewCommander) resolveSource(path string) (viewSource, error) {
	if path != "" {
		return viewSource{Path: path}, nil
	}

	if c.runID != 0 {
		if c.owner == "" || c.repo == "" {
			return viewSource{}, fmt.Errorf("--run requires --owner and --repo")
		}
		return viewSource{
			Owner:      c.owner,
			Repo:       c.repo,
			RunID:      c.runID,
			ArtifactID: c.artifactID,
		}, nil
	}

	ddm := dotdir.NewManager()
	pin, err := ddm.LoadPin(c.configDir)
	if err != nil {
		return viewSource{}, fmt.Errorf("loading pin state: %w", err)
	}
	if pin == nil {
		return viewSource{}, fmt.Errorf("nothing to view: pass a file path or --owner/--repo/--run")
	}

	if pin.IsRun() {
		return viewSource{
			Owner:      pin.Owner,
			Repo:       pin.Repo,
			RunID:      pin.RunID,
			ArtifactID: pin.ArtifactID,
		}, nil
	}
	return viewSource{Path: pin.Path}, nil
}

func (c *viewCommander) viewFile(ctx context.Context, path string) error {
	content, err := upload.ReadPath(path)
	if err != nil {
		return err
	}

	d := displayFromUpload(content)

	c.recordView(ctx, history.KindFile, path, d.itemCount())
	c.savePin(&dotdir.PinState{Path: path})

	if c.web {
		return c.runWebFile(ctx, d, path, filepath.Base(path))
	}
	return c.runTUI(ctx, tuiOptions{
		display: d,
		title:   filepath.Base(path),
		follow:  c.follow,
		path:    path,
	})
}

func (c *viewCommander) viewRun(ctx context.Context, source viewSource) error {
	client := forge.NewGitHubClient(forge.GitHubConfig{
		BaseURL: c.viper.GetString("forge.base_url"),
		Token:   c.viper.GetString("forge.token"),
		Logger:  c.logger,
	})

	reference := runReference(source.Owner, source.Repo, source.RunID)
	c.recordView(ctx, history.KindRun, reference, 0)
	c.savePin(&dotdir.PinState{
		Owner:      source.Owner,
		Repo:       source.Repo,
		RunID:      source.RunID,
		ArtifactID: source.ArtifactID,
	})

	if c.web {
		return c.runWebForRun(ctx, client, source)
	}
	return c.runTUI(ctx, tuiOptions{
		client: client,
		source: source,
		title:  reference,
	})
}

// recordView appends to the local view history. History failures are logged
// and never block viewing.
func (c *viewCommander) recordView(ctx context.Context, kind, reference string, itemCount int) {
	ddm := dotdir.NewManager()
	target, err := ddm.Target(c.configDir)
	if err != nil {
		c.logger.Warn("skipping history record", zap.Error(err))
		return
	}

	store, err := history.NewSQLiteStore(filepath.Join(target, "history.db"))
	if err != nil {
		c.logger.Warn("skipping history record", zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.Record(ctx, kind, reference, itemCount); err != nil {
		c.logger.Warn("recording view", zap.Error(err))
	}
}

func (c *viewCommander) savePin(state *dotdir.PinState) {
	ddm := dotdir.NewManager()
	if err := ddm.SavePin(state, c.configDir); err != nil {
		c.logger.Warn("saving pin state", zap.Error(err))
	}
}

func runReference(owner, repo string, runID int64) string {
	return fmt.Sprintf("%s/%s#%d", owner, repo, runID)
}

// display is the unified view model: exactly one of timeline, jsonl, or
// detail is active, mirroring the artifact branch selection.
type display struct {
	branch          artifact.Branch
	timeline        *render.Timeline
	jsonl           string
	plan            artifact.DetailPlan
	metrics         map[string]any
	historyRaw      []string
	jsonlHistoryRaw []string
}

func (d display) itemCount() int {
	if d.timeline == nil {
		return 0
	}
	return len(d.timeline.Entries)
}

// displayFromUpload converts a locally read file into a display.
func displayFromUpload(content upload.Content) display {
	if content.FileType == "jsonl" {
		return display{branch: artifact.BranchJSONL, jsonl: content.JSONLContent}
	}

	t := render.Build(*content.Trajectory)
	return display{branch: artifact.BranchTrajectory, timeline: &t}
}

// displayFromArtifact converts a fetched artifact envelope into a display.
// A trajectory branch whose payload fails to parse is reported as an error
// rather than silently falling through to the detail branch.
func displayFromArtifact(content artifact.Content) (display, error) {
	branch, plan := artifact.Select(content)

	switch branch {
	case artifact.BranchJSONL:
		return display{branch: branch, jsonl: content.JSONLContent}, nil

	case artifact.BranchTrajectory:
		normalized, err := trajectory.ParseJSON(content.TrajectoryData)
		if err != nil {
			return display{}, fmt.Errorf("artifact trajectory data is not valid JSON: %w", err)
		}
		t := render.Build(normalized)
		return display{branch: branch, timeline: &t}, nil

	default:
		return display{
			branch:          branch,
			plan:            plan,
			metrics:         content.Metrics,
			historyRaw:      prettyDump(content.History),
			jsonlHistoryRaw: prettyDump(content.JSONLHistory),
		}, nil
	}
}

// prettyDump pretty-prints each raw entry into indented lines.
func prettyDump(entries []json.RawMessage) []string {
	var lines []string
	for _, raw := range entries {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			lines = append(lines, "  "+string(raw))
			continue
		}
		pretty, err := json.MarshalIndent(v, "  ", "  ")
		if err != nil {
			lines = append(lines, "  "+string(raw))
			continue
		}
		lines = append(lines, strings.Split("  "+string(pretty), "\n")...)
	}
	return lines
}

// headerLabel is the count shown in the viewer header for a display.
func (d display) headerLabel() string {
	switch d.branch {
	case artifact.BranchJSONL:
		lines := strings.Count(strings.TrimRight(d.jsonl, "\n"), "\n") + 1
		return fmt.Sprintf("%d lines", lines)
	case artifact.BranchTrajectory:
		if d.timeline.Shape == trajectory.ShapeItems {
			return d.timeline.CountLabel()
		}
		return d.timeline.ShapeName
	default:
		if d.plan.Empty {
			return "empty"
		}
		return "details"
	}
}
