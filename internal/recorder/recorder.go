package recorder

import "FlightSentinel/internal/model"

// DigestRecord holds one weekly-digest selection.
type DigestRecord struct {
	Origin     string
	Profile    string
	Pick       model.Pick
	Candidates int // offers scored across all destinations
	Recipients int
}

// AlertRecord holds one saved-search notification.
type AlertRecord struct {
	SavedSearchID string
	OwnerEmail    string
	Pick          model.Pick
	PreviousPrice float64
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordDigest(rec *DigestRecord) error
	RecordAlert(rec *AlertRecord) error
	RecentDigests(limit int) ([]DigestRecord, error)
	Close() error
}
