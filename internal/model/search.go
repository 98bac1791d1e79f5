package model

import "time"

// SearchParams describes one flight-offer query.
type SearchParams struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartDate  string `json:"depart_date"`
	ReturnDate  string `json:"return_date,omitempty"`
	Adults      int    `json:"adults"`
	Currency    string `json:"currency"`
	NonStop     bool   `json:"non_stop"`
	MaxResults  int    `json:"max_results,omitempty"`
}

// Cadence controls how often a saved search is re-checked.
type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// Interval returns the minimum gap between two sends.
func (c Cadence) Interval() time.Duration {
	if c == CadenceDaily {
		return 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}

// Subscriber receives the weekly digest email.
type Subscriber struct {
	ID               string
	Email            string
	UnsubscribeToken string
	Active           bool
	CreatedAt        time.Time
}

// SavedSearch is a user-owned search re-run on a cadence.
type SavedSearch struct {
	ID            string
	OwnerEmail    string
	Params        SearchParams
	Cadence       Cadence
	Paused        bool
	LastSentPrice float64
	LastSentAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsDue reports whether the search should be checked at now.
func (s SavedSearch) IsDue(now time.Time) bool {
	if s.Paused {
		return false
	}
	if s.LastSentAt.IsZero() {
		return true
	}
	return !now.Before(s.LastSentAt.Add(s.Cadence.Interval()))
}
