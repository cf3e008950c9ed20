package viewcmder

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/spoolworks/reel/pkg/artifact"
	"github.com/spoolworks/reel/pkg/cliui"
	"github.com/spoolworks/reel/pkg/forge"
	"github.com/spoolworks/reel/pkg/session"
	"github.com/spoolworks/reel/pkg/trajectory"
	"github.com/spoolworks/reel/pkg/upload"
	"github.com/spoolworks/reel/pkg/watch"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

type viewerView int

const (
	viewRunOverview viewerView = iota
	viewTimeline
	viewEntry
	viewRaw
)

var (
	viewerTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	viewerMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	viewerDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	viewerSectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	viewerHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	viewerKindStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	viewerUserStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	viewerAssistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	viewerErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	viewerOKStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
)

// kindStyle picks the kind column color for a timeline row.
func kindStyle(k trajectory.Kind) lipgloss.Style {
	switch k {
	case trajectory.KindUserMessage:
		return viewerUserStyle
	case trajectory.KindAssistantMessage:
		return viewerAssistantStyle
	case trajectory.KindErrorObservation:
		return viewerErrorStyle
	case trajectory.KindFinishAction:
		return viewerOKStyle
	default:
		return viewerKindStyle
	}
}

type viewerKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Back  key.Binding
	Quit  key.Binding
}

func (k viewerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Enter, k.Back, k.Quit}
}

func (k viewerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up}, {k.Enter, k.Back, k.Quit}}
}

func defaultKeyMap() viewerKeyMap {
	return viewerKeyMap{
		Up:    key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:  key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Enter: key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "open")),
		Back:  key.NewBinding(key.WithKeys("h", "esc"), key.WithHelp("h", "back")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type contentMsg struct {
	content upload.Content
}

type sessionMsg struct {
	state session.State
}

type tuiOptions struct {
	display display
	title   string
	follow  bool
	path    string
	client  forge.Client
	source  viewSource
}

type viewerModel struct {
	display        display
	title          string
	hasRun         bool
	sess           *session.Session
	source         viewSource
	details        *forge.RunDetails
	view           viewerView
	cursor         int
	artifactCursor int
	rawOffset      int
	loading        bool
	err            error
	width          int
	height         int
	keys           viewerKeyMap
	help           help.Model
}

func (c *viewCommander) runTUI(ctx context.Context, opts tuiOptions) error {
	model := viewerModel{
		display: opts.display,
		title:   opts.title,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
	model.view = initialView(opts.display)

	if opts.client != nil {
		model.hasRun = true
		model.source = opts.source
		model.sess = session.New(opts.client, c.logger)
		model.loading = true
		model.view = viewRunOverview
		defer model.sess.Close()
	}

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)

	if opts.follow && opts.path != "" {
		follower := watch.NewFollower(opts.path, c.logger)
		go func() {
			_ = follower.Follow(ctx, func(content upload.Content) {
				program.Send(contentMsg{content: content})
			})
		}()
	}

	_, err := program.Run()
	return err
}

// initialView picks the starting screen for an already-loaded display.
func initialView(d display) viewerView {
	if d.timeline != nil && len(d.timeline.Entries) > 0 {
		return viewTimeline
	}
	return viewRaw
}

func (m viewerModel) Init() bubbletea.Cmd {
	if m.hasRun {
		return loadRunCmd(m.sess, m.source)
	}
	return nil
}

func loadRunCmd(sess *session.Session, source viewSource) bubbletea.Cmd {
	return func() bubbletea.Msg {
		if source.ArtifactID != 0 {
			sess.LoadArtifact(context.Background(), source.Owner, source.Repo, source.ArtifactID)
		} else {
			sess.LoadRun(context.Background(), source.Owner, source.Repo, source.RunID)
		}
		return sessionMsg{state: sess.State()}
	}
}

func loadArtifactCmd(sess *session.Session, owner, repo string, artifactID int64) bubbletea.Cmd {
	return func() bubbletea.Msg {
		sess.LoadArtifact(context.Background(), owner, repo, artifactID)
		return sessionMsg{state: sess.State()}
	}
}

func (m viewerModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case contentMsg:
		m.display = displayFromUpload(msg.content)
		if m.display.timeline != nil {
			m.cursor = clamp(m.cursor, len(m.display.timeline.Entries)-1)
		}
		if m.view == viewEntry && m.display.timeline == nil {
			m.view = viewRaw
		}
		return m, nil

	case sessionMsg:
		m.loading = msg.state.Loading
		m.err = msg.state.Err
		if msg.state.Details != nil {
			m.details = msg.state.Details
		}
		if msg.state.Err != nil {
			return m, nil
		}
		if msg.state.Content != nil {
			d, err := displayFromArtifact(*msg.state.Content)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.display = d
			m.cursor = 0
			m.rawOffset = 0
			m.view = initialView(d)
		}
		return m, nil

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m viewerModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, bubbletea.Quit
	case "j", "down":
		return m.moveCursor(1)
	case "k", "up":
		return m.moveCursor(-1)
	case "l", "enter":
		return m.drill()
	case "h", "esc":
		return m.back()
	}
	return m, nil
}

func (m viewerModel) moveCursor(delta int) (bubbletea.Model, bubbletea.Cmd) {
	switch m.view {
	case viewRunOverview:
		if m.details == nil || len(m.details.Artifacts.Artifacts) == 0 {
			return m, nil
		}
		m.artifactCursor = clamp(m.artifactCursor+delta, len(m.details.Artifacts.Artifacts)-1)
	case viewTimeline:
		if m.display.timeline == nil || len(m.display.timeline.Entries) == 0 {
			return m, nil
		}
		m.cursor = clamp(m.cursor+delta, len(m.display.timeline.Entries)-1)
	case viewRaw, viewEntry:
		m.rawOffset = clamp(m.rawOffset+delta, maxOffset(m.rawLines(), m.pageSize()))
	}
	return m, nil
}

func (m viewerModel) drill() (bubbletea.Model, bubbletea.Cmd) {
	switch m.view {
	case viewRunOverview:
		if m.details == nil || len(m.details.Artifacts.Artifacts) == 0 {
			return m, nil
		}
		selected := m.details.Artifacts.Artifacts[m.artifactCursor]
		m.loading = true
		return m, loadArtifactCmd(m.sess, m.source.Owner, m.source.Repo, selected.ID)
	case viewTimeline:
		if m.display.timeline == nil || len(m.display.timeline.Entries) == 0 {
			return m, nil
		}
		m.view = viewEntry
		m.rawOffset = 0
	}
	return m, nil
}

func (m viewerModel) back() (bubbletea.Model, bubbletea.Cmd) {
	switch m.view {
	case viewEntry:
		m.view = viewTimeline
	case viewTimeline, viewRaw:
		if m.hasRun && m.details != nil {
			m.view = viewRunOverview
		}
	}
	return m, nil
}

func (m viewerModel) View() string {
	if m.err != nil {
		return m.renderFrame(viewerErrorStyle.Render("error: " + m.err.Error()))
	}
	if m.loading {
		return m.renderFrame(viewerMutedStyle.Render("loading..."))
	}

	switch m.view {
	case viewRunOverview:
		return m.renderFrame(m.viewRunOverview())
	case viewTimeline:
		return m.renderFrame(m.viewTimeline())
	case viewEntry:
		return m.renderFrame(m.viewEntry())
	default:
		return m.renderFrame(m.viewRaw())
	}
}

func (m viewerModel) renderFrame(body string) string {
	headerLeft := viewerTitleStyle.Render("reel › " + m.title)
	label := m.display.headerLabel()
	if m.loading || m.err != nil || (m.view == viewRunOverview && m.display.timeline == nil) {
		label = ""
	}
	headerRight := viewerMutedStyle.Render(label)
	header := renderHeaderLine(m.width, headerLeft, headerRight)
	footer := viewerMutedStyle.Render(m.help.View(m.keys))
	return strings.Join([]string{header, renderRule(m.width), "", body, "", footer}, "\n")
}

func (m viewerModel) viewRunOverview() string {
	if m.details == nil {
		return viewerMutedStyle.Render("no run loaded")
	}

	run := m.details.Run
	conclusion := run.Conclusion
	conclusionStyle := viewerMutedStyle
	switch conclusion {
	case "success":
		conclusionStyle = viewerOKStyle
	case "failure":
		conclusionStyle = viewerErrorStyle
	}

	lines := []string{
		viewerSectionStyle.Render(run.Name),
		fmt.Sprintf("run #%d on %s · %s %s",
			run.RunNumber,
			run.HeadBranch,
			run.Status,
			conclusionStyle.Render(conclusion),
		),
		"",
		viewerSectionStyle.Render(fmt.Sprintf("jobs (%d)", m.details.Jobs.TotalCount)),
	}

	for _, job := range m.details.Jobs.Jobs {
		lines = append(lines, fmt.Sprintf("  %s  %s %s", job.Name, job.Status, job.Conclusion))
	}

	lines = append(lines, "", viewerSectionStyle.Render(fmt.Sprintf("artifacts (%d)", m.details.Artifacts.TotalCount)))
	for i, a := range m.details.Artifacts.Artifacts {
		cursor := " "
		if i == m.artifactCursor {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %s (%d bytes)", cursor, a.Name, a.SizeInBytes)
		if a.Expired {
			line += viewerMutedStyle.Render(" expired")
		}
		if i == m.artifactCursor {
			line = viewerHighlightStyle.Render(line)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func (m viewerModel) viewTimeline() string {
	t := m.display.timeline
	if t == nil || len(t.Entries) == 0 {
		return viewerMutedStyle.Render("no items")
	}

	maxVisible := max(m.pageSize(), 1)
	start, end := visibleRange(len(t.Entries), m.cursor, maxVisible)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		entry := t.Entries[i]
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %3d  %s  %s",
			cursor,
			entry.Index+1,
			kindStyle(entry.Kind).Render(fmt.Sprintf("%-20s", entry.KindName)),
			truncateText(firstLineOf(entry.Title), max(m.width-30, 20)),
		)
		if i == m.cursor {
			line = viewerHighlightStyle.Render(line)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func (m viewerModel) viewEntry() string {
	t := m.display.timeline
	if t == nil || len(t.Entries) == 0 {
		return viewerMutedStyle.Render("no item selected")
	}

	entry := t.Entries[m.cursor]
	body := entry.Body
	if entry.Markdown {
		if rendered, err := cliui.RenderMarkdown(body); err == nil {
			body = rendered
		}
	}

	lines := []string{
		viewerSectionStyle.Render(entry.Title) + "  " + viewerMutedStyle.Render(entry.KindName),
		renderRule(m.width),
	}
	lines = append(lines, scrollLines(strings.Split(body, "\n"), m.rawOffset, m.pageSize())...)

	return strings.Join(lines, "\n")
}

func (m viewerModel) viewRaw() string {
	lines := m.rawLines()
	if len(lines) == 0 {
		return viewerMutedStyle.Render("no content")
	}
	return strings.Join(scrollLines(lines, m.rawOffset, m.pageSize()), "\n")
}

// rawLines is the scrollable text for the non-timeline screens: verbatim
// JSONL, the pretty-printed document, or the detail sections.
func (m viewerModel) rawLines() []string {
	switch m.display.branch {
	case artifact.BranchJSONL:
		return strings.Split(strings.TrimRight(m.display.jsonl, "\n"), "\n")
	case artifact.BranchTrajectory:
		if m.display.timeline != nil && m.display.timeline.Raw != "" {
			return strings.Split(m.display.timeline.Raw, "\n")
		}
		return nil
	default:
		return m.detailLines()
	}
}

func (m viewerModel) detailLines() []string {
	plan := m.display.plan
	if plan.Empty {
		return []string{viewerMutedStyle.Render("no content in this artifact")}
	}

	var lines []string
	if plan.ShowSummary {
		lines = append(lines, viewerSectionStyle.Render("summary"))
		if len(m.display.metrics) == 0 {
			lines = append(lines, viewerMutedStyle.Render("  no metrics"))
		}
		for _, k := range sortedKeys(m.display.metrics) {
			lines = append(lines, fmt.Sprintf("  %s: %v", k, m.display.metrics[k]))
		}
	}

	if plan.HasHistory {
		lines = append(lines, "", viewerSectionStyle.Render(fmt.Sprintf("history (%d entries)", plan.HistoryCount)))
		lines = append(lines, m.display.historyRaw...)
	}

	if plan.HasJSONLHistory {
		lines = append(lines, "", viewerSectionStyle.Render(fmt.Sprintf("jsonl history (%d entries)", plan.JSONLHistoryCount)))
		lines = append(lines, m.display.jsonlHistoryRaw...)
	}

	return lines
}

func (m viewerModel) pageSize() int {
	height := m.height
	if height <= 0 {
		height = 40
	}
	// header, rule, blank, blank, footer
	return max(height-5, 3)
}

func scrollLines(lines []string, offset, size int) []string {
	if len(lines) == 0 {
		return nil
	}
	offset = clamp(offset, maxOffset(lines, size))
	end := min(offset+size, len(lines))
	return lines[offset:end]
}

func maxOffset(lines []string, size int) int {
	return max(len(lines)-size, 0)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp(value, upper int) int {
	if upper < 0 {
		upper = 0
	}
	if value < 0 {
		return 0
	}
	if value > upper {
		return upper
	}
	return value
}

func visibleRange(total, cursor, size int) (int, int) {
	if total <= 0 || size <= 0 {
		return 0, 0
	}
	if total <= size {
		return 0, total
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	start := max(cursor-(size/2), 0)
	end := start + size
	if end > total {
		end = total
		start = max(end-size, 0)
	}
	return start, end
}

func truncateText(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}

func firstLineOf(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func renderHeaderLine(width int, left, right string) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 >= lineWidth {
		return strings.TrimSpace(left + " " + right)
	}
	spacing := lineWidth - leftWidth - rightWidth
	return left + strings.Repeat(" ", spacing) + right
}

func renderRule(width int) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	return viewerDividerStyle.Render(strings.Repeat("─", lineWidth))
}
