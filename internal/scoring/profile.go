package scoring

// Profile parameterizes the engine for one call site. The digest job and the
// interactive search views rank with different weights on purpose.
type Profile struct {
	Name           string
	PriceWeight    float64
	DurationWeight float64
	StopsWeight    float64

	// ExtraStopPenalty is charged for every stop beyond the first.
	ExtraStopPenalty float64
	// DurationPenaltyRate scales the relative overage above the batch median.
	DurationPenaltyRate float64
	DurationPenaltyCap  float64
}

// DigestProfile scores offers for the scheduled weekly digest.
var DigestProfile = Profile{
	Name:                "digest",
	PriceWeight:         0.6,
	DurationWeight:      0.25,
	StopsWeight:         0.15,
	ExtraStopPenalty:    0.06,
	DurationPenaltyRate: 0.1,
	DurationPenaltyCap:  0.2,
}

// InteractiveProfile scores offers for search results shown to a user.
var InteractiveProfile = Profile{
	Name:                "interactive",
	PriceWeight:         0.7,
	DurationWeight:      0.2,
	StopsWeight:         0.1,
	ExtraStopPenalty:    0.06,
	DurationPenaltyRate: 0.1,
	DurationPenaltyCap:  0.2,
}

// ProfileByName resolves a configured profile name, defaulting to DigestProfile.
func ProfileByName(name string) Profile {
	if name == InteractiveProfile.Name {
		return InteractiveProfile
	}
	return DigestProfile
}

// DisplayRule is the warning-badge outlier heuristic used by interactive
// views. It is stricter than the penalty reasons and must stay separate.
type DisplayRule struct {
	MaxItineraryStops int     // flag when any itinerary has at least this many stops
	MedianMultiple    float64 // flag when total duration exceeds this multiple of the median
}

// DefaultDisplayRule flags two-stop itineraries and trips over 1.6x the median.
var DefaultDisplayRule = DisplayRule{MaxItineraryStops: 2, MedianMultiple: 1.6}
