// Package review is the interactive terminal browser over stored jobs.
package review

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/gigradar/internal/model"
	"github.com/amishk599/gigradar/internal/notifier"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	scamStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

// reclassifiedMsg is sent when an on-demand classification completes.
type reclassifiedMsg struct {
	id string
	c  model.Classification
}

type reviewModel struct {
	title    string
	jobs     []model.StoredJob
	list     viewport.Model
	cursor   int
	width    int
	height   int
	ready    bool
	view     viewState
	detail   viewport.Model
	detailID int

	classifier   model.Classifier // optional
	reclassified map[string]model.Classification
	classifying  bool

	openURL  func(string)
	wantQuit bool
}

func newReviewModel(title string, jobs []model.StoredJob, classifier model.Classifier) reviewModel {
	return reviewModel{
		title:        title,
		jobs:         jobs,
		classifier:   classifier,
		reclassified: make(map[string]model.Classification),
		openURL:      openURL,
	}
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detail.Width = m.width - 4
			m.detail.Height = m.height - 4
			m.detail.SetContent(m.renderDetail())
		}
		return m, nil

	case reclassifiedMsg:
		m.classifying = false
		m.reclassified[msg.id] = msg.c
		if m.view == viewDetail {
			m.detail.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m reviewModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m reviewModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	job := m.jobs[m.detailID]
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		m.openURL(job.URL)
		return m, nil
	case "c":
		if m.classifier != nil && !m.classifying {
			m.classifying = true
			m.detail.SetContent(m.renderDetail())
			return m, m.classifyCmd(job.Job)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m reviewModel) classifyCmd(job model.Job) tea.Cmd {
	classifier := m.classifier
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return reclassifiedMsg{id: job.ID, c: classifier.Classify(ctx, job)}
	}
}

func (m *reviewModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.jobs)-1, 0))
	if !m.ready {
		return
	}
	m.list.SetContent(renderJobs(m.jobs, m.cursor))

	top := m.cursor * jobItemHeight
	bottom := top + jobItemHeight - 1
	if top < m.list.YOffset {
		m.list.SetYOffset(top)
	} else if bottom >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(bottom - m.list.Height + 1)
	}
}

func (m reviewModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.jobs) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detailID = m.cursor
	m.detail = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detail.SetContent(m.renderDetail())
	return m, nil
}

func (m *reviewModel) recalcLayout() {
	width := max(m.width-2, 20)
	// Header (1 line) + border top/bottom (2) + status bar (1).
	height := max(m.height-4, 5)

	if !m.ready {
		m.list = viewport.New(width, height)
		m.ready = true
	} else {
		m.list.Width = width
		m.list.Height = height
	}
	m.list.SetContent(renderJobs(m.jobs, m.cursor))
}

func (m reviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m reviewModel) viewList() string {
	header := headerStyle.Render(fmt.Sprintf("%s (%d)", m.title, len(m.jobs)))
	pane := borderStyle.Width(m.list.Width).Render(m.list.View())
	status := statusBarStyle.Width(m.width).
		Render(" ↑/↓ cursor  Enter detail  Esc back  q quit")
	return header + "\n" + pane + "\n" + status
}

func (m reviewModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	if m.classifying {
		title += "  (classifying...)"
	}
	content := borderStyle.Width(m.width - 2).Render(m.detail.View())

	statusText := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.classifier != nil {
		statusText = " o open URL  c re-score  esc/backspace back  ↑/↓ scroll  q quit"
	}
	return title + "\n" + content + "\n" + statusBarStyle.Width(m.width).Render(statusText)
}

func (m reviewModel) renderDetail() string {
	j := m.jobs[m.detailID]
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Platform", j.Platform)
	addField("Job ID", j.ID)
	addField("Rate", j.Rate)
	addField("Client Spent", j.ClientSpent)
	addField("Verified", yesNo(j.ClientVerified))
	addField("Posted", j.PostedDate)
	addField("Stored At", j.CreatedAt.Local().Format("2006-01-02 15:04 MST"))
	addField("Notified", yesNo(j.Notified))
	b.WriteByte('\n')
	addField("Job URL", j.URL)

	wrapWidth := max(m.width-8, 20)
	writeVerdict(&b, "── Verdict ", j.Classification, wrapWidth, addField)

	if c, ok := m.reclassified[j.ID]; ok {
		writeVerdict(&b, "── Re-scored ", c, wrapWidth, addField)
	} else if m.classifier != nil && !m.classifying {
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  press c to re-score this job") + "\n")
	}

	if j.Description != "" {
		b.WriteByte('\n')
		b.WriteString(divider("── Description ", wrapWidth) + "\n\n")
		b.WriteString(wordWrap(j.Description, wrapWidth) + "\n")
	}
	return b.String()
}

func writeVerdict(b *strings.Builder, label string, c model.Classification, width int, addField func(string, string)) {
	b.WriteByte('\n')
	b.WriteString(divider(label, width) + "\n\n")
	addField("Score", fmt.Sprintf("%d/100", c.Score))
	addField("Priority", priorityBadge(c.Priority)+" "+string(c.Priority))
	addField("Strategy", string(c.Strategy))
	addField("Type", c.JobType)
	if c.IsScam {
		b.WriteString(scamStyle.Render("⚠ likely scam") + "\n")
	}
	if c.WhyMatch != "" {
		b.WriteString(wordWrap(c.WhyMatch, width) + "\n")
	}
	for _, f := range c.RedFlags {
		b.WriteString("  • " + f + "\n")
	}
}

func priorityBadge(p model.Priority) string {
	return notifier.PriorityMarker(p)
}

func divider(label string, width int) string {
	fill := strings.Repeat("─", max(width-len([]rune(label)), 3))
	return dividerStyle.Render(label + fill)
}

func renderJobs(jobs []model.StoredJob, cursor int) string {
	if len(jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		titleSt, subtitleSt, prefix := jobTitleStyle, jobSubtitleStyle, "  "
		if i == cursor {
			titleSt, subtitleSt, prefix = selectedJobTitleStyle, selectedJobSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(priorityBadge(j.Priority) + " " + j.Title))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %d/100 · %s",
			j.Platform, j.Rate, j.Score, j.CreatedAt.Local().Format("2006-01-02"))))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunReviewTUI launches the full-screen job browser. classifier may be nil;
// when set, the c key re-scores the open job without persisting the result.
// It reports wantQuit=true if the user pressed q/ctrl+c and false if they
// pressed esc to return to the picker.
func RunReviewTUI(title string, jobs []model.StoredJob, classifier model.Classifier) (bool, error) {
	p := tea.NewProgram(newReviewModel(title, jobs, classifier), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	return result.(reviewModel).wantQuit, nil
}
