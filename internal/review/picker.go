package review

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/gigradar/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// PickerOption is one row of the priority picker. An empty Priority means
// every job except skip.
type PickerOption struct {
	Label    string
	Priority model.Priority
}

// DefaultPickerOptions lists the views offered by RunPriorityPicker.
var DefaultPickerOptions = []PickerOption{
	{Label: "All (except skip)"},
	{Label: "High", Priority: model.PriorityHigh},
	{Label: "Medium", Priority: model.PriorityMedium},
	{Label: "Low", Priority: model.PriorityLow},
	{Label: "Skip", Priority: model.PrioritySkip},
}

type pickerModel struct {
	options []PickerOption
	counts  map[model.Priority]int
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Job Review · Select a priority")
	s += "\n"

	for i, o := range m.options {
		label := o.Label
		if n, ok := m.counts[o.Priority]; ok && o.Priority != "" {
			label = fmt.Sprintf("%s %s (%d this week)", priorityBadge(o.Priority), o.Label, n)
		}
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunPriorityPicker shows an interactive priority selector. counts, when
// non-nil, annotates each priority with its weekly total. It reports false
// when the user quit.
func RunPriorityPicker(counts map[model.Priority]int) (model.Priority, bool, error) {
	m := pickerModel{
		options: DefaultPickerOptions,
		counts:  counts,
		chosen:  -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return "", false, err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return "", false, nil
	}
	return final.options[final.chosen].Priority, true, nil
}
