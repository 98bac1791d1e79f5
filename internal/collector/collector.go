package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"FlightSentinel/internal/metrics"
	"FlightSentinel/internal/model"
	"FlightSentinel/internal/normalizer"

	"golang.org/x/time/rate"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu     sync.Mutex
	Offers map[string][]map[string]any // keyed by destination
	Errs   map[string]error
	Delay  time.Duration

	inFlight    int
	MaxInFlight int
	Calls       int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchOffers(ctx context.Context, params model.SearchParams) ([]map[string]any, error) {
	m.mu.Lock()
	m.Calls++
	m.inFlight++
	if m.inFlight > m.MaxInFlight {
		m.MaxInFlight = m.inFlight
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if err := m.Errs[params.Destination]; err != nil {
		return nil, err
	}
	return m.Offers[params.Destination], nil
}

// Collector fetches offers and reduces them to canonical form. Destination
// fan-out runs with bounded parallelism behind a shared rate limiter.
type Collector struct {
	Fetcher     Fetcher
	Limiter     *rate.Limiter
	Concurrency int
	Metrics     *metrics.Registry
}

// NewCollector creates a Collector allowing concurrency in-flight fetches and
// perSecond request starts per second (0 disables the limiter).
func NewCollector(fetcher Fetcher, concurrency int, perSecond float64, reg *metrics.Registry) *Collector {
	if concurrency <= 0 {
		concurrency = 3
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Collector{
		Fetcher:     fetcher,
		Limiter:     rate.NewLimiter(limit, concurrency),
		Concurrency: concurrency,
		Metrics:     reg,
	}
}

// Collect fetches one search and returns its identified canonical offers.
func (c *Collector) Collect(ctx context.Context, params model.SearchParams) ([]model.Offer, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	start := time.Now()
	raws, err := c.Fetcher.FetchOffers(ctx, params)
	if c.Metrics != nil {
		c.Metrics.ProviderLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			c.Metrics.ProviderRequests.WithLabelValues("error").Inc()
		} else {
			c.Metrics.ProviderRequests.WithLabelValues("ok").Inc()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s-%s from %s: %w", params.Origin, params.Destination, c.Fetcher.Name(), err)
	}
	return normalizer.NormalizeBatch(raws), nil
}

// CollectDestinations runs base once per destination. Failed or empty
// destinations are logged and left out; output keeps destination order.
func (c *Collector) CollectDestinations(ctx context.Context, base model.SearchParams, destinations []string) []model.DestinationBatch {
	results := make([]model.DestinationBatch, len(destinations))
	jobs := make(chan int)
	workers := c.Concurrency
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				params := base
				params.Destination = destinations[i]
				offers, err := c.Collect(ctx, params)
				if err != nil {
					log.Printf("[WARN] collect %s: %v", destinations[i], err)
					continue
				}
				results[i] = model.DestinationBatch{Destination: destinations[i], Offers: offers}
			}
		}()
	}

feed:
	for i := range destinations {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	batches := make([]model.DestinationBatch, 0, len(destinations))
	for _, b := range results {
		if len(b.Offers) > 0 {
			batches = append(batches, b)
		}
	}
	return batches
}
