package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CandleScout/internal/config"
	"CandleScout/internal/fetcher"
	"CandleScout/internal/orchestrator"
	"CandleScout/internal/scheduler"
	"CandleScout/internal/store"
	"CandleScout/internal/tracker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CandleScout starting...")

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

	venue, err := time.LoadLocation(cfg.DataSource.VenueTZ)
	if err != nil {
		log.Fatalf("[FATAL] load venue timezone: %v", err)
	}
	display, err := time.LoadLocation(cfg.DataSource.DisplayTZ)
	if err != nil {
		log.Fatalf("[FATAL] load display timezone: %v", err)
	}

	// Init fetcher
	client := fetcher.NewClient(cfg.DataSource.BaseURL, cfg.Proxy, venue, display, cfg.FetchTimeout())
	log.Printf("[INFO] data source: %s", cfg.DataSource.BaseURL)

	// Init store
	st, err := store.Open(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] open store: %v", err)
	}
	defer st.Close()

	// Init batch tracker
	var tr tracker.Tracker
	if cfg.Redis.Addr != "" {
		rt, err := tracker.NewRedisTracker(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLHours)*time.Hour)
		if err != nil {
			log.Printf("[WARN] init redis tracker failed, using noop: %v", err)
			tr = tracker.NewNoopTracker()
		} else {
			tr = rt
			defer rt.Close()
		}
	} else {
		tr = tracker.NewNoopTracker()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	orch := orchestrator.New(venue)
	settings := scheduler.Settings{
		Engine:          cfg.DataSource.Engine,
		Market:          cfg.DataSource.Market,
		BenchmarkEngine: cfg.Benchmark.Engine,
		BenchmarkMarket: cfg.Benchmark.Market,
		BenchmarkTicker: cfg.Benchmark.Ticker,
		FetchLookback:   time.Duration(cfg.Fetch.LookbackHours) * time.Hour,
		FetchInterval:   cfg.Fetch.Interval,
		FetchMaxAge:     time.Duration(cfg.Fetch.MaxAgeMinutes) * time.Minute,
		TopCapCount:     cfg.DataSource.TopCapCount,
		BatchParams:     cfg.BatchParams(),
		Owner:           "scheduler",
	}
	sched := scheduler.NewScheduler(ctx, client, st, orch, tr, settings)

	if err := sched.SeedSecurities(); err != nil {
		log.Fatalf("[FATAL] seed securities: %v", err)
	}

	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.BatchCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing batch now")
		go sched.RunBatchNow()
	}

	log.Println("[INFO] CandleScout is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] CandleScout stopped")
}
