package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"regard/internal/notify"
	"regard/internal/tracking"
)

const (
	maxLogLines    = 200
	recentPoints   = 5
	logHeightRatio = 0.25
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	alertStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeTag    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	inactiveTag  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeInspect
)

type model struct {
	entities   []tracking.Entity
	view       *tracking.View
	req        Requester
	table      table.Model
	search     textinput.Model
	inspector  viewport.Model
	log        viewport.Model
	logs       []string
	mode       mode
	width      int
	height     int
	apiActive  bool
	mapEnabled bool
	status     string
}

func newModel(entities []tracking.Entity, view *tracking.View, req Requester) model {
	cols := []table.Column{
		{Title: "ID", Width: 16},
		{Title: "Name", Width: 18},
		{Title: "Type", Width: 8},
		{Title: "Tags", Width: 28},
		{Title: "Status", Width: 12},
	}
	t := table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(10))
	in := textinput.New()
	in.Placeholder = "search by id"
	in.Prompt = "/ "
	m := model{
		entities:  entities,
		view:      view,
		req:       req,
		table:     t,
		search:    in,
		inspector: viewport.New(0, 0),
		log:       viewport.New(0, 0),
	}
	m.refreshTable()
	return m
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refreshInspector()
		return m, nil
	case entityMsg:
		m.applyEvent(msg.ev)
		return m, nil
	case notificationMsg:
		m.appendLog(renderNotification(msg.n))
		return m, nil
	case requestMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("%s: %v", msg.id, msg.err))
		} else {
			m.status = fmt.Sprintf("analysis requested for %s", msg.id)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeSearch:
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.search.Blur()
			m.mode = modeList
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.view.SetSearchTerm(m.search.Value())
		m.refreshTable()
		return m, cmd
	case modeInspect:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc":
			m.view.Select("")
			m.mode = modeList
			return m, nil
		case "a":
			if e, ok := m.view.Selected(m.entities); ok {
				return m, m.request(e)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.inspector, cmd = m.inspector.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		return m, m.search.Focus()
	case "1", "2", "3", "4":
		idx := int(msg.String()[0] - '1')
		if idx < len(tracking.AllTags) {
			m.view.ToggleTag(tracking.AllTags[idx])
			m.refreshTable()
		}
		return m, nil
	case "enter":
		if id := m.highlighted(); id != "" {
			m.view.Select(id)
			m.mode = modeInspect
			m.refreshInspector()
			m.inspector.GotoTop()
		}
		return m, nil
	case "a":
		if id := m.highlighted(); id != "" {
			if e, ok := tracking.SelectedEntity(m.entities, id); ok {
				return m, m.request(e)
			}
		}
		return m, nil
	case "esc":
		m.view.Select("")
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// request returns a command dispatching an interpretation. Entities already
// being analysed are skipped.
func (m model) request(e tracking.Entity) tea.Cmd {
	if e.IsProcessingAnomaly || m.req == nil {
		return nil
	}
	req, id := m.req, e.ID
	return func() tea.Msg {
		rid, err := req.RequestInterpretation(context.Background(), id)
		return requestMsg{id: id, requestID: rid, err: err}
	}
}

func (m *model) applyEvent(ev tracking.Event) {
	replaced := false
	for i := range m.entities {
		if m.entities[i].ID == ev.EntityID {
			m.entities[i] = ev.Entity
			replaced = true
			break
		}
	}
	if !replaced {
		m.entities = append(m.entities, ev.Entity)
	}
	if ev.Kind != tracking.EventPositionUpdated {
		m.appendLog(renderEvent(ev))
	}
	m.refreshTable()
	m.refreshInspector()
}

func (m *model) appendLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.log.SetContent(strings.Join(m.logs, "\n"))
	m.log.GotoBottom()
}

func (m model) highlighted() string {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (m *model) refreshTable() {
	visible := m.view.Visible(m.entities)
	rows := make([]table.Row, 0, len(visible))
	for _, e := range visible {
		rows = append(rows, table.Row{
			e.ID,
			e.Metadata.Name,
			string(e.Metadata.Type),
			strings.Join(e.Metadata.Tags, ","),
			entityStatus(e),
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m *model) refreshInspector() {
	e, ok := m.view.Selected(m.entities)
	if !ok {
		m.inspector.SetContent("")
		return
	}
	m.inspector.SetContent(renderInspector(e, m.inspector.Width))
}

func (m *model) resize() {
	logHeight := int(float64(m.height) * logHeightRatio)
	if logHeight < 3 {
		logHeight = 3
	}
	// header, tag bar, search line, two dividers, footer
	bodyHeight := m.height - logHeight - 7
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.table.SetWidth(m.width)
	m.table.SetHeight(bodyHeight)
	m.inspector.Width = m.width
	m.inspector.Height = bodyHeight
	m.log.Width = m.width
	m.log.Height = logHeight
	m.log.GotoBottom()
}

func (m model) View() string {
	divider := dimStyle.Render(strings.Repeat("─", max(m.width, 1)))
	body := m.table.View()
	if m.mode == modeInspect {
		body = m.inspector.View()
	}
	sections := []string{
		m.renderHeader(),
		m.renderTagBar(),
		m.search.View(),
		body,
		divider,
		m.log.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m model) renderHeader() string {
	visible := len(m.view.Visible(m.entities))
	alerts := 0
	for _, e := range m.entities {
		if e.Alert {
			alerts++
		}
	}
	header := fmt.Sprintf("%s  %d/%d entities", titleStyle.Render("REGARD"), visible, len(m.entities))
	if alerts > 0 {
		header += "  " + alertStyle.Render(fmt.Sprintf("%d ALERT", alerts))
	}
	if !m.mapEnabled {
		header += "  " + dimStyle.Render("map disabled: no map API key configured")
	}
	return header
}

func (m model) renderTagBar() string {
	active := make(map[string]bool)
	for _, t := range m.view.State().ActiveTags {
		active[t] = true
	}
	parts := make([]string, 0, len(tracking.AllTags))
	for i, t := range tracking.AllTags {
		label := fmt.Sprintf("%d:%s", i+1, t)
		if active[t] {
			parts = append(parts, activeTag.Render(label))
		} else {
			parts = append(parts, inactiveTag.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m model) renderBottom() string {
	apiColor := lipgloss.Color("9")
	if m.apiActive {
		apiColor = lipgloss.Color("10")
	}
	mapColor := lipgloss.Color("9")
	if m.mapEnabled {
		mapColor = lipgloss.Color("10")
	}
	apiIndicator := lipgloss.NewStyle().Foreground(apiColor).Render("●")
	mapIndicator := lipgloss.NewStyle().Foreground(mapColor).Render("●")
	keys := "/ search | 1-4 tags | enter inspect | a analyse | esc back | q quit"
	line := fmt.Sprintf("API %s | Map %s | %s", apiIndicator, mapIndicator, dimStyle.Render(keys))
	if m.status != "" {
		return m.status + "\n" + line
	}
	return line
}

func entityStatus(e tracking.Entity) string {
	switch {
	case e.IsProcessingAnomaly:
		return "analyzing"
	case e.Alert:
		return "ALERT"
	case e.Anomaly != nil:
		return fmt.Sprintf("%.0f%%", e.Anomaly.Confidence*100)
	default:
		return "-"
	}
}

func renderInspector(e tracking.Entity, width int) string {
	if width <= 4 {
		width = 80
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(e.ID), e.Metadata.Name)
	fmt.Fprintf(&b, "type: %s   tags: %s\n", e.Metadata.Type, strings.Join(e.Metadata.Tags, ", "))
	fmt.Fprintf(&b, "position: %.5f, %.5f at %s\n\n", e.CurrentPosition.Lat, e.CurrentPosition.Lng, formatTime(e.CurrentPosition.Timestamp))

	b.WriteString("recent history:\n")
	start := len(e.MovementHistory) - recentPoints
	if start < 0 {
		start = 0
	}
	for i := len(e.MovementHistory) - 1; i >= start; i-- {
		p := e.MovementHistory[i]
		fmt.Fprintf(&b, "  %s  %.5f, %.5f\n", formatTime(p.Timestamp), p.Lat, p.Lng)
	}
	b.WriteString("\n")

	switch {
	case e.IsProcessingAnomaly:
		b.WriteString("analysis: in progress...\n")
	case e.Anomaly != nil:
		label := fmt.Sprintf("analysis (confidence %.0f%%)", e.Anomaly.Confidence*100)
		if e.Alert {
			label = alertStyle.Render("ALERT ") + label
		}
		b.WriteString(label + "\n")
		b.WriteString(wordwrap.String(e.Anomaly.Interpretation, width-2) + "\n")
	default:
		b.WriteString(dimStyle.Render("no analysis yet, press a to request one") + "\n")
	}
	return b.String()
}

func renderEvent(ev tracking.Event) string {
	ts := ev.Timestamp.Format("15:04:05")
	switch ev.Kind {
	case tracking.EventInterpretationStarted:
		return fmt.Sprintf("%s %s analysis started", ts, ev.EntityID)
	case tracking.EventInterpretationCompleted:
		line := fmt.Sprintf("%s %s analysis complete", ts, ev.EntityID)
		if ev.Entity.Alert {
			line += " " + alertStyle.Render("ALERT")
		}
		return line
	case tracking.EventInterpretationFailed:
		return fmt.Sprintf("%s %s %s", ts, ev.EntityID, errorStyle.Render("analysis failed"))
	}
	return fmt.Sprintf("%s %s %s", ts, ev.EntityID, ev.Kind)
}

func renderNotification(n notify.Notification) string {
	style := successStyle
	if n.Level == notify.LevelError {
		style = errorStyle
	}
	return fmt.Sprintf("%s %s %s", n.Timestamp.Format("15:04:05"), style.Render(n.Title), n.Message)
}
