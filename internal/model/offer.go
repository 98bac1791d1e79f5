package model

// Segment is one non-stop flight inside an itinerary.
type Segment struct {
	DepartureAirport string
	DepartureAt      string
	ArrivalAirport   string
	ArrivalAt        string
	CarrierCode      string
	FlightNumber     string
	Duration         string
	NumberOfStops    int // technical stops reported by the provider, not connections
}

// Itinerary is one directional leg (outbound or return) of an offer.
type Itinerary struct {
	Duration string
	Segments []Segment
}

// Stops returns the number of connections in the itinerary.
func (it Itinerary) Stops() int {
	if len(it.Segments) <= 1 {
		return 0
	}
	return len(it.Segments) - 1
}

// Offer is the canonical shape of one priced itinerary bundle.
type Offer struct {
	ID                     string
	PriceTotal             string // decimal string, all passengers combined
	Currency               string
	ValidatingAirlineCodes []string
	Itineraries            []Itinerary
}

// TotalStops sums connections across all itineraries.
func (o Offer) TotalStops() int {
	total := 0
	for _, it := range o.Itineraries {
		total += it.Stops()
	}
	return total
}

// MaxStops returns the largest connection count of any single itinerary.
func (o Offer) MaxStops() int {
	max := 0
	for _, it := range o.Itineraries {
		if s := it.Stops(); s > max {
			max = s
		}
	}
	return max
}

// PrimaryAirline returns the first validating carrier, or "".
func (o Offer) PrimaryAirline() string {
	if len(o.ValidatingAirlineCodes) == 0 {
		return ""
	}
	return o.ValidatingAirlineCodes[0]
}

// DestinationBatch groups offers fetched independently for one destination.
type DestinationBatch struct {
	Destination string
	Offers      []Offer
}
