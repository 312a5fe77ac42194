package triage

import (
	"reflect"
	"testing"

	"github.com/amishk599/gigradar/internal/model"
)

func TestScore_StrongMatch(t *testing.T) {
	c := Score(model.Job{
		ID:             "upwork_1",
		Title:          "Discord Community Manager",
		Rate:           "$35/hr",
		ClientVerified: true,
	})

	// 50 + 20 rate + 20 title + 15 verified, clamped.
	if c.Score != 100 {
		t.Errorf("expected score 100, got %d", c.Score)
	}
	if c.Priority != model.PriorityHigh {
		t.Errorf("expected high priority, got %s", c.Priority)
	}
	if c.IsScam {
		t.Error("expected not scam")
	}
	if len(c.RedFlags) != 0 {
		t.Errorf("expected no red flags, got %v", c.RedFlags)
	}
	if c.Strategy != model.StrategyHeuristic {
		t.Errorf("expected heuristic strategy, got %s", c.Strategy)
	}
	if c.JobType != "Unknown" {
		t.Errorf("expected job type Unknown, got %s", c.JobType)
	}
}

func TestScore_LowPayUnverified(t *testing.T) {
	c := Score(model.Job{
		ID:    "wwr_2",
		Title: "Customer Support Rep",
		Rate:  "$5/hr",
	})

	// 50 - 30 - 15 = 5
	if c.Score != 5 {
		t.Errorf("expected score 5, got %d", c.Score)
	}
	want := []string{"Very low pay", "No payment verification"}
	if !reflect.DeepEqual(c.RedFlags, want) {
		t.Errorf("expected red flags %v, got %v", want, c.RedFlags)
	}
	if c.Priority != model.PrioritySkip {
		t.Errorf("expected skip, got %s", c.Priority)
	}
	if !c.IsScam {
		t.Error("expected scam")
	}
}

func TestScore_RateTiersAreExclusive(t *testing.T) {
	// "$50/hr" also contains "$5"; only the best tier applies.
	c := Score(model.Job{Title: "Moderator", Rate: "$50/hr", ClientVerified: true})
	if c.Score != 85 {
		t.Errorf("expected 85, got %d", c.Score)
	}

	c = Score(model.Job{Title: "Moderator", Rate: "$25-$28/hr", ClientVerified: true})
	if c.Score != 75 {
		t.Errorf("expected 75, got %d", c.Score)
	}
}

func TestScore_Deterministic(t *testing.T) {
	job := model.Job{Title: "Web3 Ambassador", Rate: "See posting", ClientVerified: false}
	a, b := Score(job), Score(job)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Score is not deterministic: %+v vs %+v", a, b)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-40) != 0 || Clamp(140) != 100 || Clamp(42) != 42 {
		t.Error("Clamp bounds wrong")
	}
}

func TestPriorityForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  model.Priority
	}{
		{100, model.PriorityHigh},
		{70, model.PriorityHigh},
		{69, model.PriorityMedium},
		{50, model.PriorityMedium},
		{49, model.PrioritySkip},
		{0, model.PrioritySkip},
	}
	for _, tt := range tests {
		if got := PriorityForScore(tt.score); got != tt.want {
			t.Errorf("PriorityForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestScamBoundary(t *testing.T) {
	// 50 - 30 + 15 = 35
	c := Score(model.Job{Title: "Moderator", Rate: "$10/hr", ClientVerified: true})
	if c.Score != 35 || c.IsScam {
		t.Errorf("expected 35 and not scam, got %d/%v", c.Score, c.IsScam)
	}
	// 50 - 30 - 15 + 15 = 20
	c = Score(model.Job{Title: "Customer Support", Rate: "$8/hr", ClientVerified: true})
	if c.Score != 20 || !c.IsScam {
		t.Errorf("expected 20 and scam, got %d/%v", c.Score, c.IsScam)
	}
}

func TestShouldNotify(t *testing.T) {
	if ShouldNotify(model.Classification{Score: 85, Priority: model.PriorityHigh, IsScam: true}) {
		t.Error("scam must not notify")
	}
	if !ShouldNotify(model.Classification{Score: 72, Priority: model.PriorityHigh}) {
		t.Error("high non-scam must notify")
	}
	if ShouldNotify(model.Classification{Score: 60, Priority: model.PriorityMedium}) {
		t.Error("medium must not notify")
	}
}
