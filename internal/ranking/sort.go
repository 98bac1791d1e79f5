package ranking

import (
	"fmt"
	"sort"

	"FlightSentinel/internal/model"
	"FlightSentinel/internal/scoring"
)

// SortMode selects an ordering for a scored batch.
type SortMode string

const (
	SortBest        SortMode = "best"
	SortCheapest    SortMode = "cheapest"
	SortFastest     SortMode = "fastest"
	SortFewestStops SortMode = "fewest-stops"
)

// ParseSortMode validates user input. An empty string resolves to SortBest.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(s); m {
	case "":
		return SortBest, nil
	case SortBest, SortCheapest, SortFastest, SortFewestStops:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q", s)
	}
}

// Sort returns a reordered copy of offers. Ties keep their input order.
// Unknown modes sort by best score.
func Sort(offers []model.Offer, res model.ScoreResult, mode SortMode) []model.Offer {
	out := make([]model.Offer, len(offers))
	copy(out, offers)
	if len(out) < 2 {
		return out
	}

	var less func(a, b model.Offer) bool
	switch mode {
	case SortCheapest:
		less = func(a, b model.Offer) bool { return res.Prices[a.ID] < res.Prices[b.ID] }
	case SortFastest:
		less = func(a, b model.Offer) bool { return res.DurationMinutes[a.ID] < res.DurationMinutes[b.ID] }
	case SortFewestStops:
		less = func(a, b model.Offer) bool { return res.TotalStops[a.ID] < res.TotalStops[b.ID] }
	default:
		less = func(a, b model.Offer) bool { return res.Scores[a.ID] > res.Scores[b.ID] }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Rank scores a single-route batch with p and orders it by mode.
func Rank(offers []model.Offer, p scoring.Profile, mode SortMode) ([]model.Offer, model.ScoreResult) {
	res := scoring.Score(offers, p)
	return Sort(offers, res, mode), res
}
