package recorder

import (
	"path/filepath"
	"testing"

	"FlightSentinel/internal/model"
)

func TestSQLiteRecorder_DigestHistory(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	for i, dest := range []string{"LIS", "MAD"} {
		err := r.RecordDigest(&DigestRecord{
			Origin:     "DUB",
			Profile:    "digest",
			Pick:       model.Pick{Destination: dest, Key: dest + "-1", Price: 100 + float64(i), Currency: "EUR", Stops: i, Score: 0.7},
			Candidates: 12,
			Recipients: 3,
		})
		if err != nil {
			t.Fatalf("record digest: %v", err)
		}
	}
	if err := r.RecordAlert(&AlertRecord{SavedSearchID: "s1", OwnerEmail: "a@example.com", Pick: model.Pick{Destination: "LIS", Price: 80}, PreviousPrice: 95}); err != nil {
		t.Fatalf("record alert: %v", err)
	}

	recent, err := r.RecentDigests(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Pick.Destination != "MAD" || recent[0].Pick.Price != 101 || recent[0].Recipients != 3 {
		t.Errorf("unexpected recent digest: %+v", recent)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordDigest(&DigestRecord{}); err != nil {
		t.Errorf("noop record: %v", err)
	}
	if recs, err := r.RecentDigests(5); err != nil || recs != nil {
		t.Errorf("noop recent: %v %v", recs, err)
	}
}
