package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"FlightSentinel/internal/cache"
	"FlightSentinel/internal/collector"
	"FlightSentinel/internal/metrics"
	"FlightSentinel/internal/model"
	"FlightSentinel/internal/notifier"
	"FlightSentinel/internal/ranking"
	"FlightSentinel/internal/recorder"
	"FlightSentinel/internal/scoring"
	"FlightSentinel/internal/store"

	"github.com/robfig/cron/v3"
)

// DigestSettings describes the weekly multi-destination search.
type DigestSettings struct {
	Origin          string
	Destinations    []string
	DepartInDays    int
	TripDays        int
	Adults          int
	Currency        string
	MaxResults      int
	Profile         scoring.Profile
	UnsubscribeBase string
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Store     store.Store
	Mailer    notifier.Mailer // nil disables email
	Poster    notifier.Poster // nil disables social posts
	Recorder  recorder.Recorder
	Metrics   *metrics.Registry
	Batches   *cache.TTL[[]model.DestinationBatch]
	Digest    DigestSettings
	Ctx       context.Context
	Now       func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, st store.Store, rec recorder.Recorder,
	reg *metrics.Registry, batches *cache.TTL[[]model.DestinationBatch], digest DigestSettings) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Store:     st,
		Recorder:  rec,
		Metrics:   reg,
		Batches:   batches,
		Digest:    digest,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// RegisterAll registers the weekly digest and the saved-search check.
func (s *Scheduler) RegisterAll(weeklyCron, savedSearchCron string) error {
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	if _, err := s.Cron.AddFunc(savedSearchCron, s.savedSearchTask); err != nil {
		return fmt.Errorf("register saved search task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunWeeklyNow executes the weekly digest immediately (RUN_ON_START / manual trigger).
func (s *Scheduler) RunWeeklyNow() {
	s.weeklyTask()
}

// RunSavedSearchesNow executes the saved-search check immediately.
func (s *Scheduler) RunSavedSearchesNow() {
	s.savedSearchTask()
}

func (s *Scheduler) digestParams() model.SearchParams {
	depart := s.Now().AddDate(0, 0, s.Digest.DepartInDays)
	p := model.SearchParams{
		Origin:     s.Digest.Origin,
		DepartDate: depart.Format("2006-01-02"),
		Adults:     s.Digest.Adults,
		Currency:   s.Digest.Currency,
		MaxResults: s.Digest.MaxResults,
	}
	if s.Digest.TripDays > 0 {
		p.ReturnDate = depart.AddDate(0, 0, s.Digest.TripDays).Format("2006-01-02")
	}
	return p
}

// destinationBatches returns the digest batches, served from the cache while fresh.
func (s *Scheduler) destinationBatches() ([]model.DestinationBatch, error) {
	params := s.digestParams()
	key := strings.Join([]string{params.Origin, params.DepartDate, params.ReturnDate, strings.Join(s.Digest.Destinations, ",")}, "|")
	load := func() ([]model.DestinationBatch, error) {
		batches := s.Collector.CollectDestinations(s.Ctx, params, s.Digest.Destinations)
		if len(batches) == 0 {
			return nil, ranking.ErrNoDeal
		}
		return batches, nil
	}
	if s.Batches == nil {
		return load()
	}
	batches, hit, err := s.Batches.Fetch(key, load)
	if s.Metrics != nil {
		if hit {
			s.Metrics.CacheHits.Inc()
		} else {
			s.Metrics.CacheMisses.Inc()
		}
	}
	return batches, err
}

// BestDeal returns the weekly winner across all configured destinations and
// the number of offers it was chosen from.
func (s *Scheduler) BestDeal() (model.Pick, int, error) {
	batches, err := s.destinationBatches()
	if err != nil {
		return model.Pick{}, 0, err
	}
	candidates := 0
	for _, b := range batches {
		candidates += len(b.Offers)
	}
	if s.Metrics != nil {
		s.Metrics.OffersScored.Add(float64(candidates))
	}
	pick, err := ranking.SelectBest(batches, s.Digest.Profile)
	return pick, candidates, err
}

// Explore returns the cheapest offer per destination, outliers last.
func (s *Scheduler) Explore() ([]model.Pick, error) {
	batches, err := s.destinationBatches()
	if err != nil {
		return nil, err
	}
	return ranking.ExploreCheapest(batches, scoring.DefaultDisplayRule), nil
}

func (s *Scheduler) weeklyTask() {
	log.Println("[INFO] running weekly digest")
	pick, candidates, err := s.BestDeal()
	if errors.Is(err, ranking.ErrNoDeal) {
		log.Println("[INFO] no deal found this cycle, skipping digest")
		if s.Metrics != nil {
			s.Metrics.DigestsSkipped.Inc()
		}
		return
	}
	if err != nil {
		log.Printf("[ERROR] weekly digest: %v", err)
		return
	}
	log.Printf("[INFO] weekly winner %s at %.2f %s (score %.3f, %d candidates)",
		pick.Key, pick.Price, pick.Currency, pick.Score, candidates)

	if s.Poster != nil {
		if err := s.Poster.SendWithRetry(s.Ctx, notifier.FormatDealPost(s.Digest.Origin, pick), 3); err != nil {
			log.Printf("[ERROR] post weekly deal: %v", err)
			s.countNotifyFailure()
		}
	}

	recipients := s.emailSubscribers(pick)

	if s.Metrics != nil {
		s.Metrics.DigestsSent.Inc()
		s.Metrics.LastDigestScore.Set(pick.Score)
	}
	if err := s.Recorder.RecordDigest(&recorder.DigestRecord{
		Origin:     s.Digest.Origin,
		Profile:    s.Digest.Profile.Name,
		Pick:       pick,
		Candidates: candidates,
		Recipients: recipients,
	}); err != nil {
		log.Printf("[ERROR] record digest: %v", err)
	}
}

func (s *Scheduler) emailSubscribers(pick model.Pick) int {
	if s.Mailer == nil {
		return 0
	}
	subs, err := s.Store.ListActiveSubscribers()
	if err != nil {
		log.Printf("[ERROR] list subscribers: %v", err)
		return 0
	}
	if s.Metrics != nil {
		s.Metrics.ActiveSubscribers.Set(float64(len(subs)))
	}
	sent := 0
	for _, sub := range subs {
		msg := notifier.FormatDigestEmail(s.Digest.Origin, pick, sub, s.Digest.UnsubscribeBase)
		if err := s.Mailer.SendMessage(msg); err != nil {
			log.Printf("[ERROR] email digest to %s: %v", sub.Email, err)
			s.countNotifyFailure()
			continue
		}
		sent++
	}
	return sent
}

func (s *Scheduler) savedSearchTask() {
	log.Println("[INFO] running saved search check")
	now := s.Now()
	due, err := s.Store.DueSavedSearches(now)
	if err != nil {
		log.Printf("[ERROR] load due saved searches: %v", err)
		return
	}
	for _, ss := range due {
		s.checkSavedSearch(ss, now)
	}
}

func (s *Scheduler) checkSavedSearch(ss model.SavedSearch, now time.Time) {
	offers, err := s.Collector.Collect(s.Ctx, ss.Params)
	if err != nil {
		log.Printf("[WARN] saved search %s: %v", ss.ID, err)
		return
	}
	batch := []model.DestinationBatch{{Destination: ss.Params.Destination, Offers: offers}}
	pick, err := ranking.SelectBest(batch, s.Digest.Profile)
	if errors.Is(err, ranking.ErrNoDeal) {
		log.Printf("[INFO] saved search %s: no deal found this cycle", ss.ID)
		return
	}
	if err != nil {
		log.Printf("[ERROR] saved search %s: %v", ss.ID, err)
		return
	}
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.SendMessage(notifier.FormatSavedSearchAlert(ss, pick)); err != nil {
		log.Printf("[ERROR] email saved search %s: %v", ss.ID, err)
		s.countNotifyFailure()
		return
	}
	if s.Metrics != nil {
		s.Metrics.AlertsSent.Inc()
	}
	if err := s.Store.MarkSent(ss.ID, pick.Price, now); err != nil {
		log.Printf("[ERROR] mark saved search %s sent: %v", ss.ID, err)
	}
	if err := s.Recorder.RecordAlert(&recorder.AlertRecord{
		SavedSearchID: ss.ID,
		OwnerEmail:    ss.OwnerEmail,
		Pick:          pick,
		PreviousPrice: ss.LastSentPrice,
	}); err != nil {
		log.Printf("[ERROR] record alert: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	name := ""
	if fields := strings.Fields(command); len(fields) > 0 {
		name = strings.ToLower(fields[0])
	}
	switch name {
	case "/deal":
		pick, _, err := s.BestDeal()
		if err != nil {
			return replyForError(err)
		}
		return notifier.FormatDealPost(s.Digest.Origin, pick)
	case "/explore":
		picks, err := s.Explore()
		if err != nil {
			return replyForError(err)
		}
		return notifier.FormatExplore(s.Digest.Origin, picks)
	case "/status":
		return s.status()
	default:
		return "Available commands:\n• /deal\n• /explore\n• /status"
	}
}

func (s *Scheduler) status() string {
	subs, err := s.Store.ListActiveSubscribers()
	if err != nil {
		return replyForError(err)
	}
	searches, err := s.Store.ListSavedSearches("")
	if err != nil {
		return replyForError(err)
	}
	var last *model.Pick
	if recent, err := s.Recorder.RecentDigests(1); err == nil && len(recent) > 0 {
		last = &recent[0].Pick
	}
	return notifier.FormatStatus(len(subs), len(searches), last)
}

func replyForError(err error) string {
	if errors.Is(err, ranking.ErrNoDeal) {
		return "No deal found this cycle."
	}
	log.Printf("[ERROR] command failed: %v", err)
	return "Something went wrong, please try again later."
}

func (s *Scheduler) countNotifyFailure() {
	if s.Metrics != nil {
		s.Metrics.NotifyFailures.Inc()
	}
}
