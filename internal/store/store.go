package store

import (
	"errors"
	"time"

	"FlightSentinel/internal/model"
)

var ErrNotFound = errors.New("not found")

// Store persists subscribers and saved searches.
type Store interface {
	AddSubscriber(email string) (model.Subscriber, error)
	Unsubscribe(token string) error
	ListActiveSubscribers() ([]model.Subscriber, error)

	CreateSavedSearch(s model.SavedSearch) (model.SavedSearch, error)
	GetSavedSearch(id string) (model.SavedSearch, error)
	ListSavedSearches(ownerEmail string) ([]model.SavedSearch, error)
	UpdateSavedSearch(s model.SavedSearch) error
	DeleteSavedSearch(id string) error
	SetPaused(id string, paused bool) error
	DueSavedSearches(now time.Time) ([]model.SavedSearch, error)
	MarkSent(id string, price float64, at time.Time) error

	Close() error
}
