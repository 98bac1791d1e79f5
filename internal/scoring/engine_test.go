package scoring

import (
	"fmt"
	"math"
	"testing"

	"FlightSentinel/internal/model"
)

func oneWay(id, price string, minutes, stops int) model.Offer {
	segs := make([]model.Segment, stops+1)
	return model.Offer{
		ID:                     id,
		PriceTotal:             price,
		Currency:               "USD",
		ValidatingAirlineCodes: []string{"AA"},
		Itineraries: []model.Itinerary{{
			Duration: fmt.Sprintf("PT%dH%dM", minutes/60, minutes%60),
			Segments: segs,
		}},
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScore_BoundedScores(t *testing.T) {
	offers := []model.Offer{
		oneWay("a", "89.99", 95, 0),
		oneWay("b", "1450.00", 1900, 4),
		oneWay("c", "not-a-price", 0, 0),
		oneWay("d", "310.10", 600, 2),
		oneWay("e", "0", 2400, 6),
	}
	for _, p := range []Profile{DigestProfile, InteractiveProfile} {
		res := Score(offers, p)
		if len(res.Scores) != len(offers) {
			t.Fatalf("%s: expected %d scores, got %d", p.Name, len(offers), len(res.Scores))
		}
		for id, s := range res.Scores {
			if s < 0 || s > 1 {
				t.Errorf("%s: score for %s out of [0,1]: %v", p.Name, id, s)
			}
		}
	}
}

func TestScore_IdenticalOffersShareBaseline(t *testing.T) {
	offers := []model.Offer{
		oneWay("a", "250.00", 300, 1),
		oneWay("b", "250.00", 300, 1),
		oneWay("c", "250.00", 300, 1),
	}
	breakdowns, _ := Evaluate(offers, DigestProfile)
	for _, b := range breakdowns {
		if !approx(b.Composite, 0.5) {
			t.Errorf("%s: expected 0.5 composite baseline, got %v", b.ID, b.Composite)
		}
		if b.Composite != breakdowns[0].Composite || b.Final != breakdowns[0].Final {
			t.Errorf("%s: identical offers scored differently", b.ID)
		}
	}
}

func TestScore_LowerPriceWinsOnFlatDimensions(t *testing.T) {
	res := Score([]model.Offer{
		oneWay("p100", "100", 240, 0),
		oneWay("p200", "200", 240, 0),
		oneWay("p300", "300", 240, 0),
	}, DigestProfile)
	if !(res.Scores["p100"] > res.Scores["p200"] && res.Scores["p200"] > res.Scores["p300"]) {
		t.Errorf("expected price-descending scores, got %v", res.Scores)
	}
	if !approx(res.Scores["p100"], 0.8) || !approx(res.Scores["p300"], 0.2) {
		t.Errorf("unexpected extremes: %v", res.Scores)
	}
}

func TestScore_ExtraStopsFlaggedAndPenalized(t *testing.T) {
	res := Score([]model.Offer{
		oneWay("direct1", "300", 420, 0),
		oneWay("direct2", "300", 420, 0),
		oneWay("hopper", "300", 420, 3),
	}, DigestProfile)
	if res.Outliers["hopper"] != ReasonExtraStops {
		t.Errorf("expected %q reason, got %q", ReasonExtraStops, res.Outliers["hopper"])
	}
	if _, ok := res.Outliers["direct1"]; ok {
		t.Errorf("direct offer should not be flagged")
	}
	if res.Scores["hopper"] >= res.Scores["direct1"] {
		t.Errorf("expected hopper below direct: %v vs %v", res.Scores["hopper"], res.Scores["direct1"])
	}
	if res.TotalStops["hopper"] != 3 || res.MaxStops["hopper"] != 3 {
		t.Errorf("unexpected stop metrics: total=%d max=%d", res.TotalStops["hopper"], res.MaxStops["hopper"])
	}
}

func TestScore_DurationPenaltyAboveMedianOnly(t *testing.T) {
	offers := []model.Offer{
		oneWay("short", "200", 100, 0),
		oneWay("median", "200", 200, 0),
		oneWay("long", "200", 300, 0),
	}
	breakdowns, median := Evaluate(offers, DigestProfile)
	if median != 200 {
		t.Fatalf("expected median 200, got %v", median)
	}
	byID := map[string]Breakdown{}
	for _, b := range breakdowns {
		byID[b.ID] = b
	}
	if byID["short"].DurationPenalty != 0 || byID["median"].DurationPenalty != 0 {
		t.Errorf("expected no penalty at or below median")
	}
	if !approx(byID["long"].DurationPenalty, 0.05) {
		t.Errorf("expected 0.05 penalty, got %v", byID["long"].DurationPenalty)
	}
	if byID["long"].Outlier() != ReasonLongDuration {
		t.Errorf("expected long duration reason, got %q", byID["long"].Outlier())
	}
}

func TestScore_DurationPenaltyCapped(t *testing.T) {
	breakdowns, _ := Evaluate([]model.Offer{
		oneWay("a", "100", 60, 0),
		oneWay("b", "100", 60, 0),
		oneWay("c", "100", 6000, 0),
	}, DigestProfile)
	if !approx(breakdowns[2].DurationPenalty, 0.2) {
		t.Errorf("expected capped 0.2 penalty, got %v", breakdowns[2].DurationPenalty)
	}
}

func TestScore_CombinedReasons(t *testing.T) {
	res := Score([]model.Offer{
		oneWay("a", "100", 120, 0),
		oneWay("b", "100", 130, 0),
		oneWay("c", "100", 900, 2),
	}, DigestProfile)
	if res.Outliers["c"] != "extra stops, long duration" {
		t.Errorf("unexpected reason: %q", res.Outliers["c"])
	}
}

func TestScore_EmptyBatch(t *testing.T) {
	res := Score(nil, DigestProfile)
	if len(res.Scores) != 0 || len(res.DurationMinutes) != 0 || len(res.TotalStops) != 0 || len(res.Outliers) != 0 {
		t.Errorf("expected empty maps, got %+v", res)
	}
}

func TestScore_SingleOffer(t *testing.T) {
	breakdowns, median := Evaluate([]model.Offer{oneWay("solo", "500", 600, 3)}, DigestProfile)
	b := breakdowns[0]
	if b.PriceScore != 0.5 || b.DurationScore != 0.5 || b.StopsScore != 0.5 {
		t.Errorf("expected neutral components, got %+v", b)
	}
	if median != 600 || b.DurationPenalty != 0 {
		t.Errorf("expected no duration penalty for single offer, got %v", b.DurationPenalty)
	}
	if !approx(b.StopPenalty, 0.12) || !approx(b.Final, 0.38) {
		t.Errorf("expected stop penalty 0.12 and final 0.38, got %v / %v", b.StopPenalty, b.Final)
	}
}

func TestScore_IgnoresOffersWithoutID(t *testing.T) {
	res := Score([]model.Offer{oneWay("", "1", 60, 0), oneWay("x", "100", 60, 0)}, DigestProfile)
	if len(res.Scores) != 1 || !approx(res.Scores["x"], 0.5) {
		t.Errorf("expected only x scored at 0.5, got %v", res.Scores)
	}
}

func TestScore_RoundTripSumsItineraries(t *testing.T) {
	o := model.Offer{
		ID:         "rt",
		PriceTotal: "640.00",
		Itineraries: []model.Itinerary{
			{Duration: "PT5H30M", Segments: make([]model.Segment, 2)},
			{Duration: "PT6H", Segments: make([]model.Segment, 3)},
		},
	}
	res := Score([]model.Offer{o}, DigestProfile)
	if res.DurationMinutes["rt"] != 690 || res.TotalStops["rt"] != 3 || res.MaxStops["rt"] != 2 {
		t.Errorf("unexpected metrics: dur=%d total=%d max=%d", res.DurationMinutes["rt"], res.TotalStops["rt"], res.MaxStops["rt"])
	}
	if res.Prices["rt"] != 640 {
		t.Errorf("expected parsed price 640, got %v", res.Prices["rt"])
	}
}

func TestProfiles_ProduceDifferentScores(t *testing.T) {
	offers := []model.Offer{
		oneWay("cheap-slow", "100", 900, 1),
		oneWay("mid", "200", 400, 0),
		oneWay("fast", "300", 200, 0),
	}
	digest := Score(offers, DigestProfile)
	interactive := Score(offers, InteractiveProfile)
	if approx(digest.Scores["cheap-slow"], interactive.Scores["cheap-slow"]) {
		t.Errorf("profiles should weigh price differently")
	}
	if ProfileByName("interactive").Name != "interactive" || ProfileByName("").Name != "digest" {
		t.Errorf("unexpected profile resolution")
	}
}

func TestDisplayOutlier_DistinctFromPenaltyReasons(t *testing.T) {
	roundTrip := model.Offer{
		ID:         "rt",
		PriceTotal: "300",
		Itineraries: []model.Itinerary{
			{Duration: "PT4H", Segments: make([]model.Segment, 2)},
			{Duration: "PT4H", Segments: make([]model.Segment, 2)},
		},
	}
	twoStop := oneWay("two", "300", 480, 2)
	direct := oneWay("direct", "300", 480, 0)
	long := oneWay("long", "300", 1000, 0)

	res := Score([]model.Offer{roundTrip, twoStop, direct, long}, DigestProfile)

	if res.Outliers["rt"] != ReasonExtraStops {
		t.Errorf("round trip with two total stops should carry penalty reason, got %q", res.Outliers["rt"])
	}
	if got := DisplayOutlier(res, "rt", DefaultDisplayRule); got != "" {
		t.Errorf("one stop per itinerary should not be a display outlier, got %q", got)
	}
	if got := DisplayOutlier(res, "two", DefaultDisplayRule); got != ReasonExtraStops {
		t.Errorf("two-stop itinerary should be a display outlier, got %q", got)
	}
	if got := DisplayOutlier(res, "long", DefaultDisplayRule); got != ReasonLongDuration {
		t.Errorf("expected long duration display outlier, got %q", got)
	}
	if got := DisplayOutlier(res, "direct", DefaultDisplayRule); got != "" {
		t.Errorf("direct offer flagged: %q", got)
	}
	if got := DisplayOutlier(res, "missing", DefaultDisplayRule); got != "" {
		t.Errorf("unknown id flagged: %q", got)
	}
}
