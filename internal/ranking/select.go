package ranking

import (
	"errors"
	"sort"

	"FlightSentinel/internal/model"
	"FlightSentinel/internal/normalizer"
	"FlightSentinel/internal/scoring"
)

// ErrNoDeal means no offer could be scored this cycle. It is not fatal.
var ErrNoDeal = errors.New("no deal found")

// Key namespaces an offer id by destination so independently fetched
// batches cannot collide in one score map.
func Key(destination, offerID string) string {
	return destination + "-" + offerID
}

type keyedOffer struct {
	destination string
	offer       model.Offer
}

// namespace merges batches into one scoring batch with destination-prefixed ids.
func namespace(batches []model.DestinationBatch) ([]model.Offer, map[string]keyedOffer) {
	var merged []model.Offer
	origin := make(map[string]keyedOffer)
	for _, b := range batches {
		for _, o := range b.Offers {
			if o.ID == "" {
				continue
			}
			k := Key(b.Destination, o.ID)
			origin[k] = keyedOffer{destination: b.Destination, offer: o}
			keyed := o
			keyed.ID = k
			merged = append(merged, keyed)
		}
	}
	return merged, origin
}

// SelectBest scores all destinations as one combined batch, so normalization
// ranges span every destination, and returns the overall winner. Winners are
// ordered by score desc, price asc, destination asc, then key asc.
func SelectBest(batches []model.DestinationBatch, p scoring.Profile) (model.Pick, error) {
	merged, origin := namespace(batches)
	res := scoring.Score(merged, p)
	if len(res.Scores) == 0 {
		return model.Pick{}, ErrNoDeal
	}

	picks := make([]model.Pick, 0, len(res.Scores))
	for k := range res.Scores {
		picks = append(picks, pickFrom(k, origin[k], res, res.Outliers[k]))
	}
	sort.Slice(picks, func(i, j int) bool {
		a, b := picks[i], picks[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		if a.Destination != b.Destination {
			return a.Destination < b.Destination
		}
		return a.Key < b.Key
	})
	return picks[0], nil
}

// ExploreCheapest picks the lowest-priced offer of each destination and sorts
// destinations by price, demoting display outliers to the end. Outliers are
// judged against the median duration of the picked set.
func ExploreCheapest(batches []model.DestinationBatch, rule scoring.DisplayRule) []model.Pick {
	origin := make(map[string]keyedOffer)
	var cheapest []model.Offer
	for _, b := range batches {
		var best *model.Offer
		bestPrice := 0.0
		for i := range b.Offers {
			o := &b.Offers[i]
			if o.ID == "" {
				continue
			}
			if price := normalizer.ParsePrice(o.PriceTotal); best == nil || price < bestPrice {
				best, bestPrice = o, price
			}
		}
		if best == nil {
			continue
		}
		k := Key(b.Destination, best.ID)
		origin[k] = keyedOffer{destination: b.Destination, offer: *best}
		keyed := *best
		keyed.ID = k
		cheapest = append(cheapest, keyed)
	}

	res := scoring.Score(cheapest, scoring.InteractiveProfile)
	picks := make([]model.Pick, 0, len(cheapest))
	for _, o := range cheapest {
		picks = append(picks, pickFrom(o.ID, origin[o.ID], res, scoring.DisplayOutlier(res, o.ID, rule)))
	}
	sort.SliceStable(picks, func(i, j int) bool {
		ai, bi := picks[i].Outlier != "", picks[j].Outlier != ""
		if ai != bi {
			return !ai
		}
		return picks[i].Price < picks[j].Price
	})
	return picks
}

func pickFrom(key string, src keyedOffer, res model.ScoreResult, outlier string) model.Pick {
	return model.Pick{
		Destination:     src.destination,
		Key:             key,
		Offer:           src.offer,
		Price:           res.Prices[key],
		Currency:        src.offer.Currency,
		DurationMinutes: res.DurationMinutes[key],
		Stops:           res.TotalStops[key],
		Airline:         src.offer.PrimaryAirline(),
		Score:           res.Scores[key],
		Outlier:         outlier,
	}
}
