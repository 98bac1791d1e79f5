package collector

import (
	"context"
	"errors"

	"FlightSentinel/internal/model"
)

var (
	ErrAuthRequired = errors.New("provider authentication required")
	ErrRateLimited  = errors.New("provider rate limited")
	ErrTransient    = errors.New("provider transient failure")
)

// Fetcher retrieves raw, loosely-typed flight offers from a provider.
// Implementations do not retry; retry policy belongs to the caller.
type Fetcher interface {
	FetchOffers(ctx context.Context, params model.SearchParams) ([]map[string]any, error)
	Name() string
}
