package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/gigradar/internal/model"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func storedJobs(ids ...string) []model.StoredJob {
	jobs := make([]model.StoredJob, len(ids))
	for i, id := range ids {
		jobs[i] = model.StoredJob{
			Job: model.Job{
				ID:          id,
				Title:       "Job " + id,
				Platform:    "Upwork",
				URL:         "https://example.com/" + id,
				Rate:        "$50-$80/hr",
				Description: "Build a trading bot",
			},
			Classification: model.Classification{
				Score:    75,
				Priority: model.PriorityHigh,
				WhyMatch: "Strong bot match",
				RedFlags: []string{"vague budget"},
				Strategy: model.StrategyAI,
			},
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}
	}
	return jobs
}

type stubClassifier struct{ c model.Classification }

func (s stubClassifier) Classify(context.Context, model.Job) model.Classification { return s.c }

func sized(m reviewModel) reviewModel {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(reviewModel)
}

func press(t *testing.T, m tea.Model, keys ...string) (tea.Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(key(k))
	}
	return m, cmd
}

func TestPicker_SelectsPriority(t *testing.T) {
	m := pickerModel{options: DefaultPickerOptions, chosen: -1}

	next, cmd := press(t, m, "down", "down", "enter")
	final := next.(pickerModel)

	if final.chosen != 2 {
		t.Fatalf("chosen = %d, want 2", final.chosen)
	}
	if final.options[final.chosen].Priority != model.PriorityMedium {
		t.Errorf("priority = %q, want medium", final.options[final.chosen].Priority)
	}
	if cmd == nil {
		t.Error("expected quit command after enter")
	}
}

func TestPicker_CursorStaysInBounds(t *testing.T) {
	m := pickerModel{options: DefaultPickerOptions, chosen: -1}

	next, _ := press(t, m, "up", "k")
	if got := next.(pickerModel).cursor; got != 0 {
		t.Errorf("cursor = %d, want 0", got)
	}

	keys := make([]string, 20)
	for i := range keys {
		keys[i] = "j"
	}
	next, _ = press(t, m, keys...)
	if got := next.(pickerModel).cursor; got != len(DefaultPickerOptions)-1 {
		t.Errorf("cursor = %d, want %d", got, len(DefaultPickerOptions)-1)
	}
}

func TestPicker_QuitAndCounts(t *testing.T) {
	m := pickerModel{
		options: DefaultPickerOptions,
		counts:  map[model.Priority]int{model.PriorityHigh: 7},
		chosen:  -1,
	}
	if !strings.Contains(m.View(), "High (7 this week)") {
		t.Errorf("view missing count:\n%s", m.View())
	}

	next, _ := press(t, m, "q")
	if got := next.(pickerModel).chosen; got != -2 {
		t.Errorf("chosen = %d, want -2", got)
	}
}

func TestReview_ListShowsJobs(t *testing.T) {
	m := sized(newReviewModel("High", storedJobs("a", "b"), nil))

	view := m.View()
	for _, want := range []string{"High (2)", "Job a", "Job b", "75/100"} {
		if !strings.Contains(view, want) {
			t.Errorf("list view missing %q", want)
		}
	}
}

func TestReview_OpenDetailAndBack(t *testing.T) {
	m := sized(newReviewModel("All", storedJobs("a", "b"), nil))

	next, _ := press(t, m, "down", "enter")
	rm := next.(reviewModel)
	if rm.view != viewDetail || rm.detailID != 1 {
		t.Fatalf("view=%v detailID=%d, want detail of second job", rm.view, rm.detailID)
	}
	detail := rm.renderDetail()
	for _, want := range []string{"Job b", "Strong bot match", "vague budget", "Build a trading bot"} {
		if !strings.Contains(detail, want) {
			t.Errorf("detail missing %q", want)
		}
	}

	next, _ = press(t, rm, "esc")
	if next.(reviewModel).view != viewList {
		t.Error("esc did not return to list")
	}
}

func TestReview_OpenURL(t *testing.T) {
	m := sized(newReviewModel("All", storedJobs("a"), nil))
	var opened string
	m.openURL = func(u string) { opened = u }

	press(t, m, "enter", "o")
	if opened != "https://example.com/a" {
		t.Errorf("opened %q", opened)
	}
}

func TestReview_ReScore(t *testing.T) {
	rescored := model.Classification{Score: 42, Priority: model.PriorityLow, Strategy: model.StrategyHeuristic}
	m := sized(newReviewModel("All", storedJobs("a"), stubClassifier{c: rescored}))

	next, cmd := press(t, m, "enter", "c")
	if cmd == nil {
		t.Fatal("expected classify command")
	}
	if !next.(reviewModel).classifying {
		t.Error("classifying flag not set")
	}

	next, _ = next.Update(cmd())
	rm := next.(reviewModel)
	if rm.classifying {
		t.Error("classifying flag not cleared")
	}
	if !strings.Contains(rm.renderDetail(), "42/100") {
		t.Error("detail missing re-scored verdict")
	}
}

func TestReview_EmptyListIgnoresEnter(t *testing.T) {
	m := sized(newReviewModel("Skip", nil, nil))
	next, _ := press(t, m, "enter")
	if next.(reviewModel).view != viewList {
		t.Error("enter on empty list opened detail")
	}
	if !strings.Contains(m.View(), "(no jobs)") {
		t.Error("empty list placeholder missing")
	}
}

func TestLoader_DeliversResult(t *testing.T) {
	want := storedJobs("a")
	m := newLoaderModel("jobs", time.Second, func(context.Context) ([]model.StoredJob, error) {
		return want, nil
	})

	msg := m.doLoad()()
	next, _ := m.Update(msg)
	final := next.(loaderModel)
	if !final.done || final.err != nil || len(final.result) != 1 {
		t.Errorf("done=%v err=%v result=%d", final.done, final.err, len(final.result))
	}
	if final.View() != "" {
		t.Error("finished loader should render nothing")
	}
}

func TestLoader_CtrlCCancels(t *testing.T) {
	m := newLoaderModel("jobs", time.Second, func(context.Context) ([]model.StoredJob, error) {
		return nil, nil
	})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if err := next.(loaderModel).err; !errors.Is(err, errCancelled) {
		t.Errorf("err = %v, want errCancelled", err)
	}
}
