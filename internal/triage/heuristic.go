package triage

import (
	"strings"

	"github.com/amishk599/gigradar/internal/model"
)

// Score thresholds shared by every classification strategy.
const (
	HighThreshold   = 70
	MediumThreshold = 50
	ScamThreshold   = 30
)

const (
	baseScore       = 50
	heuristicReason = "Basic scoring applied (heuristic fallback)"
	unknownJobType  = "Unknown"

	flagLowPay     = "Very low pay"
	flagUnverified = "No payment verification"
)

var (
	goodRates    = []string{"$30", "$35", "$40", "$45", "$50"}
	fairRates    = []string{"$25", "$28"}
	poorRates    = []string{"$10", "$8", "$6", "$5", "$3"}
	targetTitles = []string{"discord", "community manager", "web3"}
	offTitles    = []string{"customer support"}
)

// Score is the deterministic fallback classifier. It reads only the job and
// always returns a complete verdict.
func Score(job model.Job) model.Classification {
	score := baseScore
	flags := []string{}

	rate := strings.ToLower(job.Rate)
	switch {
	case containsAny(rate, goodRates):
		score += 20
	case containsAny(rate, fairRates):
		score += 10
	case containsAny(rate, poorRates):
		score -= 30
		flags = append(flags, flagLowPay)
	}

	title := strings.ToLower(job.Title)
	if containsAny(title, targetTitles) {
		score += 20
	}
	if containsAny(title, offTitles) {
		score -= 15
	}

	if job.ClientVerified {
		score += 15
	} else {
		flags = append(flags, flagUnverified)
	}

	score = Clamp(score)
	return model.Classification{
		Score:    score,
		Priority: PriorityForScore(score),
		IsScam:   score < ScamThreshold,
		RedFlags: flags,
		WhyMatch: heuristicReason,
		JobType:  unknownJobType,
		Strategy: model.StrategyHeuristic,
	}
}

// PriorityForScore maps a clamped score onto a priority bucket.
func PriorityForScore(score int) model.Priority {
	switch {
	case score >= HighThreshold:
		return model.PriorityHigh
	case score >= MediumThreshold:
		return model.PriorityMedium
	default:
		return model.PrioritySkip
	}
}

// Clamp bounds score to [0, 100].
func Clamp(score int) int {
	return max(0, min(100, score))
}

// ShouldNotify reports whether a verdict warrants an alert.
func ShouldNotify(c model.Classification) bool {
	return c.Priority == model.PriorityHigh && !c.IsScam
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
