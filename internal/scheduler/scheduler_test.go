package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"FlightSentinel/internal/cache"
	"FlightSentinel/internal/collector"
	"FlightSentinel/internal/metrics"
	"FlightSentinel/internal/model"
	"FlightSentinel/internal/notifier"
	"FlightSentinel/internal/recorder"
	"FlightSentinel/internal/scoring"
	"FlightSentinel/internal/store"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []notifier.Message
}

func (f *fakeMailer) SendMessage(msg notifier.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

type fakePoster struct {
	posts []string
}

func (f *fakePoster) SendWithRetry(_ context.Context, text string, _ int) error {
	f.posts = append(f.posts, text)
	return nil
}

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func directOffer(id, price string) map[string]any {
	return map[string]any{
		"id":    id,
		"price": map[string]any{"total": price, "currency": "EUR"},
		"itineraries": []any{
			map[string]any{
				"duration": "PT2H30M",
				"segments": []any{map[string]any{"carrierCode": "TP", "number": "1301"}},
			},
		},
	}
}

type harness struct {
	sched   *Scheduler
	fetcher *collector.MockFetcher
	store   *store.SQLiteStore
	rec     *recorder.SQLiteRecorder
	mailer  *fakeMailer
	poster  *fakePoster
}

func newHarness(t *testing.T, offers map[string][]map[string]any) *harness {
	t.Helper()
	dir := t.TempDir()
	st, err := store.NewSQLiteStore(filepath.Join(dir, "deals.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { rec.Close() })

	reg := metrics.NewRegistry()
	fetcher := &collector.MockFetcher{Offers: offers}
	col := collector.NewCollector(fetcher, 2, 0, reg)
	now := func() time.Time { return fixedNow }
	batches := cache.NewTTL[[]model.DestinationBatch](time.Hour, now)

	s := NewScheduler(context.Background(), col, st, rec, reg, batches, DigestSettings{
		Origin:          "DUB",
		Destinations:    []string{"LIS", "MAD"},
		DepartInDays:    21,
		TripDays:        4,
		Adults:          1,
		Currency:        "EUR",
		MaxResults:      20,
		Profile:         scoring.DigestProfile,
		UnsubscribeBase: "https://deals.example.com/unsubscribe",
	})
	s.Now = now
	h := &harness{sched: s, fetcher: fetcher, store: st, rec: rec, mailer: &fakeMailer{}, poster: &fakePoster{}}
	s.Mailer = h.mailer
	s.Poster = h.poster
	return h
}

func twoDestinations() map[string][]map[string]any {
	return map[string][]map[string]any{
		"LIS": {directOffer("1", "150.00")},
		"MAD": {directOffer("1", "90.00")},
	}
}

func TestWeeklyDigest_EmailsPostsAndRecords(t *testing.T) {
	h := newHarness(t, twoDestinations())
	for _, email := range []string{"ana@example.com", "bo@example.com"} {
		if _, err := h.store.AddSubscriber(email); err != nil {
			t.Fatalf("add subscriber: %v", err)
		}
	}

	h.sched.RunWeeklyNow()

	if len(h.mailer.sent) != 2 {
		t.Fatalf("expected 2 digest emails, got %d", len(h.mailer.sent))
	}
	for _, msg := range h.mailer.sent {
		if !strings.Contains(msg.Subject, "DUB -> MAD") {
			t.Errorf("unexpected subject %q", msg.Subject)
		}
		if !strings.Contains(msg.Body, "unsubscribe?token=") {
			t.Errorf("digest missing unsubscribe link: %q", msg.Body)
		}
	}
	if len(h.poster.posts) != 1 || !strings.Contains(h.poster.posts[0], "MAD") {
		t.Fatalf("expected one post naming MAD, got %v", h.poster.posts)
	}

	recent, err := h.rec.RecentDigests(5)
	if err != nil {
		t.Fatalf("recent digests: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 recorded digest, got %d", len(recent))
	}
	got := recent[0]
	if got.Pick.Key != "MAD-1" || got.Candidates != 2 || got.Recipients != 2 || got.Profile != "digest" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestWeeklyDigest_ServesRepeatFromCache(t *testing.T) {
	h := newHarness(t, twoDestinations())

	h.sched.RunWeeklyNow()
	calls := h.fetcher.Calls
	if calls != 2 {
		t.Fatalf("expected one fetch per destination, got %d", calls)
	}
	if reply := h.sched.HandleCommand("/deal"); !strings.Contains(reply, "MAD") {
		t.Fatalf("unexpected /deal reply: %q", reply)
	}
	if h.fetcher.Calls != calls {
		t.Fatalf("expected cached batches, fetch count went %d -> %d", calls, h.fetcher.Calls)
	}
}

func TestWeeklyDigest_NoDealSkipsNotifications(t *testing.T) {
	h := newHarness(t, map[string][]map[string]any{})
	if _, err := h.store.AddSubscriber("ana@example.com"); err != nil {
		t.Fatalf("add subscriber: %v", err)
	}

	h.sched.RunWeeklyNow()

	if len(h.mailer.sent) != 0 || len(h.poster.posts) != 0 {
		t.Fatalf("expected no notifications, got %d emails %d posts", len(h.mailer.sent), len(h.poster.posts))
	}
	recent, _ := h.rec.RecentDigests(5)
	if len(recent) != 0 {
		t.Fatalf("expected nothing recorded, got %+v", recent)
	}
	if reply := h.sched.HandleCommand("/deal"); reply != "No deal found this cycle." {
		t.Fatalf("unexpected /deal reply: %q", reply)
	}
}

func TestSavedSearch_AlertsOnceUntilDueAgain(t *testing.T) {
	h := newHarness(t, twoDestinations())
	ss, err := h.store.CreateSavedSearch(model.SavedSearch{
		OwnerEmail: "ana@example.com",
		Params:     model.SearchParams{Origin: "DUB", Destination: "MAD", DepartDate: "2026-04-10", Adults: 1},
		Cadence:    model.CadenceDaily,
	})
	if err != nil {
		t.Fatalf("create saved search: %v", err)
	}

	h.sched.RunSavedSearchesNow()

	if len(h.mailer.sent) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(h.mailer.sent))
	}
	if to := h.mailer.sent[0].Recipients; len(to) != 1 || to[0] != "ana@example.com" {
		t.Fatalf("unexpected recipients %v", to)
	}
	updated, err := h.store.GetSavedSearch(ss.ID)
	if err != nil {
		t.Fatalf("get saved search: %v", err)
	}
	if updated.LastSentPrice != 90 || !updated.LastSentAt.Equal(fixedNow) {
		t.Fatalf("expected mark sent at 90, got %+v", updated)
	}

	h.sched.RunSavedSearchesNow()
	if len(h.mailer.sent) != 1 {
		t.Fatalf("search should not be due again yet, got %d alerts", len(h.mailer.sent))
	}

	h.sched.Now = func() time.Time { return fixedNow.Add(25 * time.Hour) }
	h.sched.RunSavedSearchesNow()
	if len(h.mailer.sent) != 2 {
		t.Fatalf("expected a second alert after the cadence, got %d", len(h.mailer.sent))
	}
	if !strings.Contains(h.mailer.sent[1].Body, "Previously:") {
		t.Fatalf("second alert should mention the previous price: %q", h.mailer.sent[1].Body)
	}
}

func TestSavedSearch_PausedIsSkipped(t *testing.T) {
	h := newHarness(t, twoDestinations())
	_, err := h.store.CreateSavedSearch(model.SavedSearch{
		OwnerEmail: "ana@example.com",
		Params:     model.SearchParams{Origin: "DUB", Destination: "LIS", DepartDate: "2026-04-10"},
		Paused:     true,
	})
	if err != nil {
		t.Fatalf("create saved search: %v", err)
	}

	h.sched.RunSavedSearchesNow()

	if len(h.mailer.sent) != 0 || h.fetcher.Calls != 0 {
		t.Fatalf("paused search should not fetch or alert")
	}
}

func TestHandleCommand(t *testing.T) {
	h := newHarness(t, twoDestinations())
	if _, err := h.store.AddSubscriber("ana@example.com"); err != nil {
		t.Fatalf("add subscriber: %v", err)
	}

	explore := h.sched.HandleCommand("/explore")
	mad, lis := strings.Index(explore, "MAD"), strings.Index(explore, "LIS")
	if mad < 0 || lis < 0 || mad > lis {
		t.Fatalf("explore should list MAD before LIS: %q", explore)
	}

	h.sched.RunWeeklyNow()
	status := h.sched.HandleCommand("/STATUS")
	if !strings.Contains(status, "Active subscribers: 1") || !strings.Contains(status, "Last digest: MAD") {
		t.Fatalf("unexpected status: %q", status)
	}

	for _, cmd := range []string{"", "   ", "/help", "hello"} {
		if reply := h.sched.HandleCommand(cmd); !strings.HasPrefix(reply, "Available commands") {
			t.Errorf("HandleCommand(%q) = %q, want help", cmd, reply)
		}
	}
}

func TestRegisterAll_RejectsBadSpec(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.sched.RegisterAll("not a cron", "0 0 * * * *"); err == nil {
		t.Fatal("expected error for invalid weekly cron")
	}
	if err := h.sched.RegisterAll("0 0 9 * * MON", "0 0 * * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if n := len(h.sched.Cron.Entries()); n != 2 {
		t.Fatalf("expected 2 cron entries, got %d", n)
	}
}
