package artifact

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Select", func() {
	It("picks the jsonl branch for pre-formatted text", func() {
		content := Content{FileType: FileTypeJSONL, JSONLContent: `{"a":1}` + "\n"}
		branch, _ := Select(content)
		Expect(branch).To(Equal(BranchJSONL))
	})

	It("ignores the jsonl file type when the text is empty", func() {
		content := Content{FileType: FileTypeJSONL}
		branch, _ := Select(content)
		Expect(branch).To(Equal(BranchDetail))
	})

	It("picks the trajectory branch when trajectory data is present", func() {
		content := Content{
			FileType:       FileTypeTrajectory,
			TrajectoryData: json.RawMessage(`[{"action":"run"}]`),
		}
		branch, _ := Select(content)
		Expect(branch).To(Equal(BranchTrajectory))
	})

	It("evaluates jsonl before trajectory", func() {
		content := Content{
			FileType:       FileTypeJSONL,
			JSONLContent:   `{"a":1}`,
			TrajectoryData: json.RawMessage(`[]`),
		}
		branch, _ := Select(content)
		Expect(branch).To(Equal(BranchJSONL))
	})

	Describe("the generic detail branch", func() {
		It("shows the summary when metrics are present", func() {
			content := Content{
				Metrics: map[string]any{"cost": 1.25},
				Issue:   json.RawMessage(`{"number": 7}`),
			}
			branch, plan := Select(content)
			Expect(branch).To(Equal(BranchDetail))
			Expect(plan.ShowSummary).To(BeTrue())
			Expect(plan.Empty).To(BeFalse())
		})

		It("shows the summary when there is no issue", func() {
			content := Content{History: []json.RawMessage{json.RawMessage(`{}`)}}
			_, plan := Select(content)
			Expect(plan.ShowSummary).To(BeTrue())
		})

		It("hides the summary for an issue without metrics", func() {
			content := Content{Issue: json.RawMessage(`{"number": 7}`)}
			_, plan := Select(content)
			Expect(plan.ShowSummary).To(BeFalse())
			Expect(plan.Empty).To(BeFalse())
		})

		It("labels history dumps with element counts", func() {
			content := Content{
				History:      []json.RawMessage{json.RawMessage(`1`), json.RawMessage(`2`)},
				JSONLHistory: []json.RawMessage{json.RawMessage(`3`)},
			}
			_, plan := Select(content)
			Expect(plan.HasHistory).To(BeTrue())
			Expect(plan.HasJSONLHistory).To(BeTrue())
			Expect(plan.HistoryCount).To(Equal(2))
			Expect(plan.JSONLHistoryCount).To(Equal(1))
		})

		It("treats a present but empty history as content", func() {
			var content Content
			Expect(json.Unmarshal([]byte(`{"history": []}`), &content)).To(Succeed())

			branch, plan := Select(content)
			Expect(branch).To(Equal(BranchDetail))
			Expect(plan.Empty).To(BeFalse())
			Expect(plan.HasHistory).To(BeTrue())
			Expect(plan.HistoryCount).To(Equal(0))
			Expect(plan.HasJSONLHistory).To(BeFalse())
		})

		It("distinguishes an absent history from an empty one", func() {
			var content Content
			Expect(json.Unmarshal([]byte(`{}`), &content)).To(Succeed())

			_, plan := Select(content)
			Expect(plan.Empty).To(BeTrue())
			Expect(plan.HasHistory).To(BeFalse())
		})

		It("reports the explicit empty state when nothing is present", func() {
			_, plan := Select(Content{})
			Expect(plan.Empty).To(BeTrue())
			Expect(plan.ShowSummary).To(BeTrue())
		})
	})
})
