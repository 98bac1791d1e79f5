package normalizer

import (
	"log"
	"math"

	"FlightSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// NormalizeOffer reduces one loosely-typed provider record to a canonical
// Offer. Missing or mistyped fields become zero values; it never fails.
func NormalizeOffer(raw map[string]any) model.Offer {
	price := asMap(raw["price"])
	total := asString(price["total"])
	if total == "" {
		total = asString(price["grandTotal"])
	}

	offer := model.Offer{
		ID:                     asString(raw["id"]),
		PriceTotal:             total,
		Currency:               asString(price["currency"]),
		ValidatingAirlineCodes: asStrings(raw["validatingAirlineCodes"]),
	}

	for _, it := range asSlice(raw["itineraries"]) {
		itMap := asMap(it)
		itinerary := model.Itinerary{Duration: asString(itMap["duration"])}
		for _, seg := range asSlice(itMap["segments"]) {
			itinerary.Segments = append(itinerary.Segments, normalizeSegment(asMap(seg)))
		}
		offer.Itineraries = append(offer.Itineraries, itinerary)
	}
	return offer
}

func normalizeSegment(seg map[string]any) model.Segment {
	dep := asMap(seg["departure"])
	arr := asMap(seg["arrival"])
	return model.Segment{
		DepartureAirport: asString(dep["iataCode"]),
		DepartureAt:      asString(dep["at"]),
		ArrivalAirport:   asString(arr["iataCode"]),
		ArrivalAt:        asString(arr["at"]),
		CarrierCode:      asString(seg["carrierCode"]),
		FlightNumber:     asString(seg["number"]),
		Duration:         asString(seg["duration"]),
		NumberOfStops:    int(asFloat(seg["numberOfStops"])),
	}
}

// NormalizeBatch normalizes every record and drops offers without an id,
// since they cannot be tracked through a score map.
func NormalizeBatch(raws []map[string]any) []model.Offer {
	offers := make([]model.Offer, 0, len(raws))
	for _, raw := range raws {
		o := NormalizeOffer(raw)
		if o.ID == "" {
			log.Printf("[WARN] dropping provider offer without id")
			continue
		}
		offers = append(offers, o)
	}
	return offers
}

// ParsePrice parses a decimal price string. Unparseable, negative or
// non-finite input yields 0.
func ParsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0
	}
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func asMap(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

func asSlice(v any) []any {
	s, ok := v.([]any)
	if !ok {
		return nil
	}
	return s
}

func asStrings(v any) []string {
	items := asSlice(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
