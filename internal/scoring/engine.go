package scoring

import (
	"math"
	"strings"

	"FlightSentinel/internal/calculator"
	"FlightSentinel/internal/model"
	"FlightSentinel/internal/normalizer"
)

const (
	ReasonExtraStops   = "extra stops"
	ReasonLongDuration = "long duration"
)

// Breakdown is the per-offer detail behind a final score.
type Breakdown struct {
	ID              string
	Price           float64
	DurationMinutes int
	TotalStops      int
	MaxStops        int
	PriceScore      float64
	DurationScore   float64
	StopsScore      float64
	Composite       float64 // weighted sum before penalties
	StopPenalty     float64
	DurationPenalty float64
	Final           float64
	Reasons         []string
}

// Outlier joins the penalty reasons, "" when none apply.
func (b Breakdown) Outlier() string {
	return strings.Join(b.Reasons, ", ")
}

// Score computes composite scores, metrics and penalty outlier reasons for one
// batch. Offers without an id are ignored. The call holds no shared state.
func Score(offers []model.Offer, p Profile) model.ScoreResult {
	breakdowns, median := Evaluate(offers, p)
	res := model.NewScoreResult(len(breakdowns))
	res.MedianDuration = median
	for _, b := range breakdowns {
		res.Scores[b.ID] = b.Final
		res.Prices[b.ID] = b.Price
		res.DurationMinutes[b.ID] = b.DurationMinutes
		res.TotalStops[b.ID] = b.TotalStops
		res.MaxStops[b.ID] = b.MaxStops
		if len(b.Reasons) > 0 {
			res.Outliers[b.ID] = b.Outlier()
		}
	}
	return res
}

// Evaluate returns the full breakdown for every identified offer in input
// order, together with the batch median duration.
func Evaluate(offers []model.Offer, p Profile) ([]Breakdown, float64) {
	breakdowns := make([]Breakdown, 0, len(offers))
	for _, o := range offers {
		if o.ID == "" {
			continue
		}
		breakdowns = append(breakdowns, measure(o))
	}
	if len(breakdowns) == 0 {
		return breakdowns, 0
	}

	prices := make([]float64, len(breakdowns))
	durations := make([]float64, len(breakdowns))
	stops := make([]float64, len(breakdowns))
	for i, b := range breakdowns {
		prices[i] = b.Price
		durations[i] = float64(b.DurationMinutes)
		stops[i] = float64(b.TotalStops)
	}

	median := calculator.Median(durations)
	priceScores := invertedUnitScores(prices)
	durationScores := invertedUnitScores(durations)
	stopScores := invertedUnitScores(stops)

	for i := range breakdowns {
		b := &breakdowns[i]
		b.PriceScore = priceScores[i]
		b.DurationScore = durationScores[i]
		b.StopsScore = stopScores[i]
		b.Composite = p.PriceWeight*b.PriceScore + p.DurationWeight*b.DurationScore + p.StopsWeight*b.StopsScore

		b.StopPenalty = stopPenalty(b.TotalStops, p)
		b.DurationPenalty = durationPenalty(float64(b.DurationMinutes), median, p)
		b.Final = calculator.Clamp01(b.Composite - b.StopPenalty - b.DurationPenalty)

		if b.StopPenalty > 0 {
			b.Reasons = append(b.Reasons, ReasonExtraStops)
		}
		if b.DurationPenalty > 0 {
			b.Reasons = append(b.Reasons, ReasonLongDuration)
		}
	}
	return breakdowns, median
}

func measure(o model.Offer) Breakdown {
	b := Breakdown{
		ID:         o.ID,
		Price:      normalizer.ParsePrice(o.PriceTotal),
		TotalStops: o.TotalStops(),
		MaxStops:   o.MaxStops(),
	}
	for _, it := range o.Itineraries {
		b.DurationMinutes += calculator.ParseISODurationToMinutes(it.Duration)
	}
	return b
}

// invertedUnitScores maps lower-is-better values to [0, 1] where 1 is best:
// z-score, negate, then min-max.
func invertedUnitScores(values []float64) []float64 {
	z := calculator.ZScores(values)
	for i := range z {
		z[i] = -z[i]
	}
	return calculator.NormalizeToUnit(z)
}

func stopPenalty(totalStops int, p Profile) float64 {
	extra := totalStops - 1
	if extra <= 0 {
		return 0
	}
	return float64(extra) * p.ExtraStopPenalty
}

func durationPenalty(duration, median float64, p Profile) float64 {
	if median <= 0 || duration <= median {
		return 0
	}
	return math.Min(p.DurationPenaltyCap, (duration-median)/median*p.DurationPenaltyRate)
}

// DisplayOutlier applies the interactive warning rule to one scored offer and
// returns a human-readable reason, or "" when the offer is not flagged.
func DisplayOutlier(res model.ScoreResult, id string, rule DisplayRule) string {
	if _, ok := res.Scores[id]; !ok {
		return ""
	}
	var reasons []string
	if rule.MaxItineraryStops > 0 && res.MaxStops[id] >= rule.MaxItineraryStops {
		reasons = append(reasons, ReasonExtraStops)
	}
	if res.MedianDuration > 0 && float64(res.DurationMinutes[id]) > rule.MedianMultiple*res.MedianDuration {
		reasons = append(reasons, ReasonLongDuration)
	}
	return strings.Join(reasons, ", ")
}
