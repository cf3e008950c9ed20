// Package session owns the fetch state for one run-viewing session: loading
// flag, error, run details, and the selected artifact's content envelope.
//
// A session has one logical in-flight fetch. Each load is tagged with a
// monotonically increasing sequence number; completions carrying a stale tag
// are discarded, so a superseded response can never overwrite a fresher one.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spoolworks/reel/pkg/artifact"
	"github.com/spoolworks/reel/pkg/forge"
)

// State is the displayable snapshot of a session. Loading is true
// continuously from fetch start until details, content, or an error commits.
type State struct {
	Loading    bool
	Err        error
	Details    *forge.RunDetails
	Content    *artifact.Content
	ArtifactID int64
}

// Session drives fetches against the forge client for one view instance.
type Session struct {
	client   forge.Client
	logger   *zap.Logger
	onChange func(State)

	mu     sync.Mutex
	seq    uint64
	closed bool
	state  State
}

// New creates a session backed by the given client.
func New(client forge.Client, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{client: client, logger: logger}
}

// OnChange registers a callback invoked with a state snapshot after every
// commit. Must be set before the first load.
func (s *Session) OnChange(fn func(State)) {
	s.onChange = fn
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down. Commits from fetches still in flight become
// no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// LoadRun fetches run details. When the run concluded successfully and
// carries exactly one artifact, the artifact content is fetched in the same
// load without user interaction.
func (s *Session) LoadRun(ctx context.Context, owner, repo string, runID int64) {
	token := s.begin()

	s.logger.Debug("loading run details",
		zap.String("owner", owner),
		zap.String("repo", repo),
		zap.Int64("run_id", runID),
		zap.Uint64("seq", token),
	)

	details, err := s.client.GetRunDetails(ctx, owner, repo, runID)
	if err != nil {
		s.commit(token, func(st *State) {
			st.Loading = false
			st.Err = err
		})
		return
	}

	auto, ok := autoSelectArtifact(details)
	if !ok {
		s.commit(token, func(st *State) {
			st.Loading = false
			st.Details = details
		})
		return
	}

	s.logger.Debug("auto-selecting sole artifact",
		zap.Int64("artifact_id", auto.ID),
		zap.String("name", auto.Name),
	)

	payload, err := s.client.GetArtifactContent(ctx, owner, repo, auto.ID)
	s.commit(token, func(st *State) {
		st.Loading = false
		st.Details = details
		if err != nil {
			st.Err = err
			return
		}
		st.Content = &payload.Content
		st.ArtifactID = auto.ID
	})
}

// LoadArtifact fetches one artifact's content for an already-loaded run.
func (s *Session) LoadArtifact(ctx context.Context, owner, repo string, artifactID int64) {
	token := s.begin()

	payload, err := s.client.GetArtifactContent(ctx, owner, repo, artifactID)
	s.commit(token, func(st *State) {
		st.Loading = false
		if err != nil {
			st.Err = err
			return
		}
		st.Content = &payload.Content
		st.ArtifactID = artifactID
	})
}

// begin starts a new load: bumps the sequence, clears the previous error,
// and raises the loading flag.
func (s *Session) begin() uint64 {
	s.mu.Lock()
	s.seq++
	token := s.seq
	s.state.Loading = true
	s.state.Err = nil
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
	return token
}

// commit applies a mutation if the token is still current and the session is
// open. Stale or post-close completions are dropped.
func (s *Session) commit(token uint64, mutate func(*State)) {
	s.mu.Lock()
	if s.closed || token != s.seq {
		s.mu.Unlock()
		s.logger.Debug("dropping stale completion", zap.Uint64("seq", token))
		return
	}
	mutate(&s.state)
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Session) notify(snapshot State) {
	if s.onChange != nil {
		s.onChange(snapshot)
	}
}

// autoSelectArtifact returns the artifact to fetch automatically: the sole
// artifact of a successfully concluded run.
func autoSelectArtifact(details *forge.RunDetails) (forge.Artifact, bool) {
	if details.Run.Conclusion != "success" {
		return forge.Artifact{}, false
	}
	if len(details.Artifacts.Artifacts) != 1 {
		return forge.Artifact{}, false
	}
	return details.Artifacts.Artifacts[0], true
}
