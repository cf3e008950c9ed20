package viewcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spoolworks/reel/pkg/artifact"
	"github.com/spoolworks/reel/pkg/cliui"
	"github.com/spoolworks/reel/pkg/forge"
	"github.com/spoolworks/reel/pkg/render"
	"github.com/spoolworks/reel/pkg/session"
	"github.com/spoolworks/reel/pkg/upload"
	"github.com/spoolworks/reel/pkg/watch"
	viewerweb "github.com/spoolworks/reel/web/viewer"
)

// webState is the snapshot served to the browser. Follow mode replaces the
// display under the lock whenever the file changes.
type webState struct {
	mu      sync.RWMutex
	title   string
	display display
}

func (s *webState) snapshot() (string, display) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title, s.display
}

func (s *webState) replace(d display) {
	s.mu.Lock()
	s.display = d
	s.mu.Unlock()
}

// timelineResponse is the /api/timeline payload.
type timelineResponse struct {
	Title      string           `json:"title"`
	Branch     string           `json:"branch"`
	CountLabel string           `json:"count_label"`
	Timeline   *render.Timeline `json:"timeline,omitempty"`
	JSONL      string           `json:"jsonl,omitempty"`
	Detail     *detailResponse  `json:"detail,omitempty"`
}

type detailResponse struct {
	ShowSummary       bool           `json:"show_summary"`
	Metrics           map[string]any `json:"metrics,omitempty"`
	HasHistory        bool           `json:"has_history"`
	HasJSONLHistory   bool           `json:"has_jsonl_history"`
	HistoryCount      int            `json:"history_count"`
	JSONLHistoryCount int            `json:"jsonl_history_count"`
	Empty             bool           `json:"empty"`
}

func (c *viewCommander) runWebFile(ctx context.Context, d display, path, title string) error {
	state := &webState{title: title, display: d}
	return c.serveWeb(ctx, state, path)
}

func (c *viewCommander) runWebForRun(ctx context.Context, client forge.Client, source viewSource) error {
	sess := session.New(client, c.logger)
	defer sess.Close()

	reference := runReference(source.Owner, source.Repo, source.RunID)
	err := cliui.Step(os.Stderr, fmt.Sprintf("Fetching %s", reference), func() error {
		if source.ArtifactID != 0 {
			sess.LoadArtifact(ctx, source.Owner, source.Repo, source.ArtifactID)
		} else {
			sess.LoadRun(ctx, source.Owner, source.Repo, source.RunID)
		}
		return sess.State().Err
	})
	if err != nil {
		return err
	}

	state := sess.State()
	if state.Content == nil {
		return fmt.Errorf("run %s has no auto-selectable artifact; pass --artifact", reference)
	}

	d, err := displayFromArtifact(*state.Content)
	if err != nil {
		return err
	}

	return c.serveWeb(ctx, &webState{title: reference, display: d}, "")
}

func (c *viewCommander) serveWeb(ctx context.Context, state *webState, followPath string) error {
	address := fmt.Sprintf("127.0.0.1:%d", c.port)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/timeline", func(w http.ResponseWriter, _ *http.Request) {
		title, d := state.snapshot()
		writeJSON(w, buildTimelineResponse(title, d))
	})

	mux.HandleFunc("/api/item/", func(w http.ResponseWriter, r *http.Request) {
		_, d := state.snapshot()
		if d.timeline == nil {
			http.Error(w, "no timeline", http.StatusNotFound)
			return
		}

		raw := strings.TrimPrefix(r.URL.Path, "/api/item/")
		index, err := strconv.Atoi(raw)
		if err != nil || index < 0 || index >= len(d.timeline.Entries) {
			http.Error(w, "invalid item index", http.StatusNotFound)
			return
		}
		writeJSON(w, d.timeline.Entries[index])
	})

	fileServer := http.FileServer(http.FS(viewerweb.FS))
	mux.Handle("/", fileServer)

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return err
	}

	if c.follow && followPath != "" {
		follower := watch.NewFollower(followPath, c.logger)
		go func() {
			_ = follower.Follow(ctx, func(content upload.Content) {
				state.replace(displayFromUpload(content))
			})
		}()
	}

	fmt.Printf("reel viewer running at http://%s\n", address)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	return server.Serve(listener)
}

func buildTimelineResponse(title string, d display) timelineResponse {
	resp := timelineResponse{
		Title:      title,
		Branch:     d.branch.String(),
		CountLabel: d.headerLabel(),
	}

	switch d.branch {
	case artifact.BranchJSONL:
		resp.JSONL = d.jsonl
	case artifact.BranchTrajectory:
		resp.Timeline = d.timeline
	default:
		resp.Detail = &detailResponse{
			ShowSummary:       d.plan.ShowSummary,
			Metrics:           d.metrics,
			HasHistory:        d.plan.HasHistory,
			HasJSONLHistory:   d.plan.HasJSONLHistory,
			HistoryCount:      d.plan.HistoryCount,
			JSONLHistoryCount: d.plan.JSONLHistoryCount,
			Empty:             d.plan.Empty,
		}
	}

	return resp
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
