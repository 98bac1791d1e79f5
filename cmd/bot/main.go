package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FlightSentinel/internal/cache"
	"FlightSentinel/internal/collector"
	"FlightSentinel/internal/config"
	"FlightSentinel/internal/metrics"
	"FlightSentinel/internal/model"
	"FlightSentinel/internal/notifier"
	"FlightSentinel/internal/recorder"
	"FlightSentinel/internal/scheduler"
	"FlightSentinel/internal/scoring"
	"FlightSentinel/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] FlightSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	reg := metrics.NewRegistry()

	// Init fetcher and collector
	fetcher := collector.NewAmadeusFetcher(cfg.Provider.BaseURL, cfg.Provider.ClientID, cfg.Provider.ClientSecret, cfg.Proxy)
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.Provider.Concurrency, cfg.Provider.RatePerSec, reg)

	// Init store
	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] init store: %v", err)
	}
	defer st.Close()

	// Init recorder
	var rec recorder.Recorder
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		rec = recorder.NewNoopRecorder()
	} else {
		rec = sr
		defer sr.Close()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := cache.NewTTL[[]model.DestinationBatch](cfg.CacheTTL(), time.Now)
	sched := scheduler.NewScheduler(ctx, col, st, rec, reg, batches, scheduler.DigestSettings{
		Origin:          cfg.Digest.Origin,
		Destinations:    cfg.Digest.Destinations,
		DepartInDays:    cfg.Digest.DepartInDays,
		TripDays:        cfg.Digest.TripDays,
		Adults:          cfg.Digest.Adults,
		Currency:        cfg.Digest.Currency,
		MaxResults:      cfg.Digest.MaxResults,
		Profile:         scoring.ProfileByName(cfg.Digest.Profile),
		UnsubscribeBase: cfg.Email.UnsubscribeBase,
	})

	// Notification channels are optional; Validate requires at least one.
	mailer := notifier.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.Username, cfg.Email.Password, cfg.Email.Sender)
	if mailer.Configured() {
		sched.Mailer = mailer
	} else {
		log.Println("[WARN] email not configured, digests will not be mailed")
	}
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sched.Poster = tn
	}

	if err := sched.RegisterAll(cfg.Schedule.WeeklyCron, cfg.Schedule.SavedSearchCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Metrics endpoint
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("[INFO] metrics listening on %s", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ERROR] metrics server: %v", err)
			}
		}()
	}

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing weekly digest now")
		go sched.RunWeeklyNow()
	}

	log.Println("[INFO] FlightSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	if metricsSrv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] metrics shutdown: %v", err)
		}
	}
	log.Println("[INFO] FlightSentinel stopped")
}
