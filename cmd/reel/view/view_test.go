package viewcmder

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spoolworks/reel/pkg/artifact"
	"github.com/spoolworks/reel/pkg/trajectory"
	"github.com/spoolworks/reel/pkg/upload"
)

var _ = Describe("Display building", func() {
	Describe("displayFromUpload", func() {
		It("carries jsonl text through verbatim", func() {
			d := displayFromUpload(upload.Content{
				FileType:     "jsonl",
				JSONLContent: "{\"a\":1}\n{\"a\":2}\n",
			})

			Expect(d.branch).To(Equal(artifact.BranchJSONL))
			Expect(d.jsonl).To(Equal("{\"a\":1}\n{\"a\":2}\n"))
			Expect(d.headerLabel()).To(Equal("2 lines"))
		})

		It("builds a timeline from a classified trajectory", func() {
			normalized, err := trajectory.ParseJSON([]byte(`[
				{"source": "user", "content": "hello"},
				{"source": "agent", "content": "hi"}
			]`))
			Expect(err).NotTo(HaveOccurred())

			d := displayFromUpload(upload.Content{
				FileType:   "trajectory",
				Trajectory: &normalized,
			})

			Expect(d.branch).To(Equal(artifact.BranchTrajectory))
			Expect(d.timeline).NotTo(BeNil())
			Expect(d.timeline.Entries).To(HaveLen(2))
			Expect(d.headerLabel()).To(Equal("2 items"))
		})
	})

	Describe("displayFromArtifact", func() {
		It("routes trajectory data through the classifier", func() {
			d, err := displayFromArtifact(artifact.Content{
				FileType:       artifact.FileTypeTrajectory,
				TrajectoryData: json.RawMessage(`[{"source": "user", "content": "hello"}]`),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(d.branch).To(Equal(artifact.BranchTrajectory))
			Expect(d.headerLabel()).To(Equal("1 items"))
		})

		It("rejects trajectory data that is not valid JSON", func() {
			_, err := displayFromArtifact(artifact.Content{
				FileType:       artifact.FileTypeTrajectory,
				TrajectoryData: json.RawMessage(`{not json`),
			})

			Expect(err).To(MatchError(ContainSubstring("not valid JSON")))
		})

		It("builds a detail display with history dumps", func() {
			d, err := displayFromArtifact(artifact.Content{
				Metrics: map[string]any{"cost": 1.5},
				History: []json.RawMessage{json.RawMessage(`{"step": 1}`)},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(d.branch).To(Equal(artifact.BranchDetail))
			Expect(d.plan.ShowSummary).To(BeTrue())
			Expect(d.plan.HistoryCount).To(Equal(1))
			Expect(d.historyRaw).NotTo(BeEmpty())
			Expect(d.headerLabel()).To(Equal("details"))
		})

		It("marks an envelope with nothing to show as empty", func() {
			d, err := displayFromArtifact(artifact.Content{})

			Expect(err).NotTo(HaveOccurred())
			Expect(d.plan.Empty).To(BeTrue())
			Expect(d.headerLabel()).To(Equal("empty"))
		})
	})

	Describe("buildTimelineResponse", func() {
		It("includes the timeline for the trajectory branch", func() {
			normalized, err := trajectory.ParseJSON([]byte(`[{"source": "user", "content": "hello"}]`))
			Expect(err).NotTo(HaveOccurred())
			d := displayFromUpload(upload.Content{FileType: "trajectory", Trajectory: &normalized})

			resp := buildTimelineResponse("traj.json", d)
			Expect(resp.Title).To(Equal("traj.json"))
			Expect(resp.Branch).To(Equal("trajectory"))
			Expect(resp.CountLabel).To(Equal("1 items"))
			Expect(resp.Timeline).NotTo(BeNil())
			Expect(resp.Detail).To(BeNil())
		})

		It("includes the detail plan for the detail branch", func() {
			d, err := displayFromArtifact(artifact.Content{Metrics: map[string]any{"cost": 1.0}})
			Expect(err).NotTo(HaveOccurred())

			resp := buildTimelineResponse("run", d)
			Expect(resp.Branch).To(Equal("detail"))
			Expect(resp.Detail).NotTo(BeNil())
			Expect(resp.Detail.ShowSummary).To(BeTrue())
		})
	})
})

var _ = Describe("TUI helpers", func() {
	Describe("visibleRange", func() {
		It("returns the whole range when everything fits", func() {
			start, end := visibleRange(5, 2, 10)
			Expect(start).To(Equal(0))
			Expect(end).To(Equal(5))
		})

		It("centers the window on the cursor", func() {
			start, end := visibleRange(100, 50, 10)
			Expect(start).To(Equal(45))
			Expect(end).To(Equal(55))
		})

		It("pins the window at the end", func() {
			start, end := visibleRange(100, 99, 10)
			Expect(start).To(Equal(90))
			Expect(end).To(Equal(100))
		})
	})

	Describe("clamp", func() {
		It("holds values inside the bounds", func() {
			Expect(clamp(-1, 5)).To(Equal(0))
			Expect(clamp(3, 5)).To(Equal(3))
			Expect(clamp(9, 5)).To(Equal(5))
			Expect(clamp(2, -1)).To(Equal(0))
		})
	})

	Describe("scrollLines", func() {
		It("windows the lines from the offset", func() {
			lines := []string{"a", "b", "c", "d", "e"}
			Expect(scrollLines(lines, 1, 2)).To(Equal([]string{"b", "c"}))
		})

		It("clamps the offset to the last page", func() {
			lines := []string{"a", "b", "c"}
			Expect(scrollLines(lines, 10, 2)).To(Equal([]string{"b", "c"}))
		})
	})

	Describe("truncateText", func() {
		It("leaves short values alone", func() {
			Expect(truncateText("abc", 10)).To(Equal("abc"))
		})

		It("truncates with an ellipsis", func() {
			Expect(truncateText("abcdefghij", 6)).To(Equal("abc..."))
		})
	})
})

var _ = Describe("Source resolution", func() {
	It("prefers an explicit file path", func() {
		cmder := &viewCommander{owner: "acme", repo: "rockets", runID: 42}
		source, err := cmder.resolveSource("traj.json")
		Expect(err).NotTo(HaveOccurred())
		Expect(source.Path).To(Equal("traj.json"))
	})

	It("requires owner and repo alongside --run", func() {
		cmder := &viewCommander{runID: 42}
		_, err := cmder.resolveSource("")
		Expect(err).To(MatchError(ContainSubstring("--run requires")))
	})

	It("builds a run source from the flags", func() {
		cmder := &viewCommander{owner: "acme", repo: "rockets", runID: 42, artifactID: 7}
		source, err := cmder.resolveSource("")
		Expect(err).NotTo(HaveOccurred())
		Expect(source.Owner).To(Equal("acme"))
		Expect(source.Repo).To(Equal("rockets"))
		Expect(source.RunID).To(Equal(int64(42)))
		Expect(source.ArtifactID).To(Equal(int64(7)))
	})

	It("errors when there is nothing to resume", func() {
		cmder := &viewCommander{configDir: GinkgoT().TempDir()}
		_, err := cmder.resolveSource("")
		Expect(err).To(MatchError(ContainSubstring("nothing to view")))
	})

	It("formats run references", func() {
		Expect(runReference("acme", "rockets", 42)).To(Equal("acme/rockets#42"))
	})
})

var _ = Describe("kindStyle", func() {
	It("colors message and terminal kinds distinctly", func() {
		Expect(kindStyle(trajectory.KindUserMessage)).To(Equal(viewerUserStyle))
		Expect(kindStyle(trajectory.KindAssistantMessage)).To(Equal(viewerAssistantStyle))
		Expect(kindStyle(trajectory.KindErrorObservation)).To(Equal(viewerErrorStyle))
		Expect(kindStyle(trajectory.KindFinishAction)).To(Equal(viewerOKStyle))
	})

	It("falls back to the shared kind color for tool kinds", func() {
		Expect(kindStyle(trajectory.KindCommandAction)).To(Equal(viewerKindStyle))
		Expect(kindStyle(trajectory.KindUnknown)).To(Equal(viewerKindStyle))
	})
})
