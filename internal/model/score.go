package model

// ScoreResult holds the per-offer metrics of one scoring call, keyed by offer id.
type ScoreResult struct {
	Scores          map[string]float64
	Prices          map[string]float64
	DurationMinutes map[string]int
	TotalStops      map[string]int
	MaxStops        map[string]int
	Outliers        map[string]string // only flagged offers are present
	MedianDuration  float64
}

// NewScoreResult returns a result with all maps allocated.
func NewScoreResult(size int) ScoreResult {
	return ScoreResult{
		Scores:          make(map[string]float64, size),
		Prices:          make(map[string]float64, size),
		DurationMinutes: make(map[string]int, size),
		TotalStops:      make(map[string]int, size),
		MaxStops:        make(map[string]int, size),
		Outliers:        make(map[string]string),
	}
}

// Pick carries the display fields of a selected offer.
type Pick struct {
	Destination     string
	Key             string // namespaced score key, "<destination>-<offer id>"
	Offer           Offer
	Price           float64
	Currency        string
	DurationMinutes int
	Stops           int
	Airline         string
	Score           float64
	Outlier         string
}
