package artifact

// Branch identifies the single display mode selected for an envelope.
type Branch int

const (
	// BranchJSONL renders the pre-formatted line-delimited JSON text verbatim.
	BranchJSONL Branch = iota

	// BranchTrajectory routes trajectoryData into the classifier/dispatcher
	// pipeline.
	BranchTrajectory

	// BranchDetail renders the generic detail view described by DetailPlan.
	BranchDetail
)

func (b Branch) String() string {
	switch b {
	case BranchJSONL:
		return "jsonl"
	case BranchTrajectory:
		return "trajectory"
	default:
		return "detail"
	}
}

// DetailPlan describes what the generic detail branch shows.
type DetailPlan struct {
	// ShowSummary is set when a metrics field is present or there is no
	// issue field.
	ShowSummary bool

	// HasHistory and HasJSONLHistory report whether the envelope carried
	// the field at all; a dump is rendered whenever its field is present,
	// labeled with the element count. An empty array is present.
	HasHistory        bool
	HasJSONLHistory   bool
	HistoryCount      int
	JSONLHistoryCount int

	// Empty is set when none of metrics, history, jsonlHistory, or issue
	// are present and an explicit empty-state message is rendered instead.
	Empty bool
}

// Select chooses exactly one display mode for the envelope, evaluated in
// order: jsonl, trajectory, generic detail.
func Select(c Content) (Branch, DetailPlan) {
	if c.FileType == FileTypeJSONL && c.JSONLContent != "" {
		return BranchJSONL, DetailPlan{}
	}

	if c.FileType == FileTypeTrajectory && c.HasTrajectoryData() {
		return BranchTrajectory, DetailPlan{}
	}

	plan := DetailPlan{
		ShowSummary:       c.Metrics != nil || !c.HasIssue(),
		HasHistory:        c.History != nil,
		HasJSONLHistory:   c.JSONLHistory != nil,
		HistoryCount:      len(c.History),
		JSONLHistoryCount: len(c.JSONLHistory),
	}
	plan.Empty = c.Metrics == nil && !plan.HasHistory && !plan.HasJSONLHistory && !c.HasIssue()

	return BranchDetail, plan
}
