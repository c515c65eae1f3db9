// Package scheduler drives the two recurring jobs: refreshing stale candle
// series from the exchange and recomputing the ranked deal tables.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"CandleScout/internal/fetcher"
	"CandleScout/internal/model"
	"CandleScout/internal/orchestrator"
	"CandleScout/internal/store"
	"CandleScout/internal/tracker"
)

// Settings holds the static parts of both jobs, derived from configuration
// once at startup.
type Settings struct {
	Engine          string
	Market          string
	BenchmarkEngine string
	BenchmarkMarket string
	BenchmarkTicker string
	FetchLookback   time.Duration
	FetchInterval   int
	FetchMaxAge     time.Duration
	TopCapCount     int
	BatchParams     model.BatchParams
	Owner           string // tracker hash the batch ids live under
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Client   *fetcher.Client
	Store    *store.Store
	Orch     *orchestrator.Orchestrator
	Tracker  tracker.Tracker
	Settings Settings
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, client *fetcher.Client, st *store.Store,
	orch *orchestrator.Orchestrator, tr tracker.Tracker, settings Settings) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Client:   client,
		Store:    st,
		Orch:     orch,
		Tracker:  tr,
		Settings: settings,
		Ctx:      ctx,
	}
}

// RegisterAll registers the refresh and batch tasks.
func (s *Scheduler) RegisterAll(refreshCron, batchCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(batchCron, s.batchTask); err != nil {
		return fmt.Errorf("register batch task: %w", err)
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
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// SeedSecurities registers the benchmark plus the market's largest
// securities by capitalization, so the refresh task has series to maintain.
func (s *Scheduler) SeedSecurities() error {
	settingID, err := s.Store.AddSetting(s.Settings.FetchLookback, s.Settings.FetchInterval, s.Settings.FetchMaxAge)
	if err != nil {
		return fmt.Errorf("add fetch setting: %w", err)
	}

	add := func(engine, market, ticker string) error {
		secID, err := s.Store.AddSecurity(engine, market, ticker)
		if err != nil {
			return fmt.Errorf("add security %s: %w", ticker, err)
		}
		if _, err := s.Store.EnsureSeries(secID, settingID); err != nil {
			return fmt.Errorf("ensure series %s: %w", ticker, err)
		}
		return nil
	}

	if err := add(s.Settings.BenchmarkEngine, s.Settings.BenchmarkMarket, s.Settings.BenchmarkTicker); err != nil {
		return err
	}

	list, err := s.Client.FetchTickers(s.Settings.Engine, s.Settings.Market)
	if err != nil {
		return err
	}
	type entry struct {
		ticker string
		cap    float64
	}
	entries := make([]entry, len(list.Tickers))
	for i, t := range list.Tickers {
		var c float64
		if i < len(list.Caps) {
			c = list.Caps[i]
		}
		entries[i] = entry{ticker: t, cap: c}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].cap > entries[j].cap })
	if len(entries) > s.Settings.TopCapCount {
		entries = entries[:s.Settings.TopCapCount]
	}
	for _, e := range entries {
		if err := add(s.Settings.Engine, s.Settings.Market, e.ticker); err != nil {
			return err
		}
	}
	log.Printf("[INFO] seeded %d securities plus benchmark %s", len(entries), s.Settings.BenchmarkTicker)
	return nil
}

// RunBatchNow executes the batch task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunBatchNow() {
	s.refreshTask()
	s.batchTask()
}

// refreshTask re-downloads every stale series in one concurrent fetch batch
// and stores each page or error outcome per series.
func (s *Scheduler) refreshTask() {
	log.Println("[INFO] running series refresh")
	now := time.Now()

	jobs, err := s.Store.StaleSeries(now)
	if err != nil {
		log.Printf("[ERROR] select stale series: %v", err)
		return
	}
	if len(jobs) == 0 {
		log.Println("[INFO] no stale series")
		return
	}

	urls := make([]string, len(jobs))
	for i, j := range jobs {
		urls[i] = s.Client.CandleURL(j.Engine, j.Market, j.Ticker, j.Lookback(), j.Interval, now)
	}
	results := s.Client.FetchCandles(urls)

	var fetchErrs []store.FetchError
	saved := 0
	for i, r := range results {
		job := jobs[i]
		if r.Erroneous() {
			fetchErrs = append(fetchErrs, store.FetchError{URL: urls[i], Status: r.Status, Err: r.Err})
			if err := s.Store.SetSeriesError(job.SeriesID); err != nil {
				log.Printf("[ERROR] flag series %d: %v", job.SeriesID, err)
			}
			continue
		}
		page := r.Payload
		if err := s.Store.SaveSeriesData(job.SeriesID, page.Bars, page.FirstBar, page.LastBar, page.Complete); err != nil {
			log.Printf("[ERROR] save series %d (%s): %v", job.SeriesID, job.Ticker, err)
			continue
		}
		saved++
	}
	if err := s.Store.RecordFetchErrors(fetchErrs); err != nil {
		log.Printf("[ERROR] record fetch errors: %v", err)
	}
	log.Printf("[INFO] refresh done: %d saved, %d failed of %d", saved, len(fetchErrs), len(jobs))
}

// batchTask recomputes both ranked deal tables over the stored series and
// persists them under a fresh batch id. The id is tracked for the whole
// computation so observers can tell an in-flight batch from a finished one.
func (s *Scheduler) batchTask() {
	log.Println("[INFO] running batch computation")
	params := s.Settings.BatchParams
	now := time.Now()
	batchID := uuid.NewString()

	if err := s.Tracker.Add(s.Ctx, s.Settings.Owner, batchID, params.String()); err != nil {
		log.Printf("[WARN] track batch %s: %v", batchID, err)
	}

	minTime := now.Add(-params.Lookback)
	all, err := s.Store.SeriesForWindow(minTime)
	if err != nil {
		log.Printf("[ERROR] load series: %v", err)
		return
	}
	bench, found, err := s.Store.LatestForTicker(s.Settings.BenchmarkTicker, minTime)
	if err != nil {
		log.Printf("[ERROR] load benchmark: %v", err)
		return
	}
	if !found {
		log.Printf("[ERROR] no benchmark series for %s in window", s.Settings.BenchmarkTicker)
		return
	}

	input := orchestrator.BatchInput{Benchmark: bench.Bars}
	for _, ws := range all {
		if ws.Ticker == s.Settings.BenchmarkTicker {
			continue
		}
		input.Securities = append(input.Securities, orchestrator.SecuritySeries{
			Ticker:   ws.Ticker,
			SeriesID: ws.SeriesID,
			Bars:     ws.Bars,
		})
	}

	result, err := s.Orch.Run(input, params, now)
	if err != nil {
		log.Printf("[ERROR] batch %s: %v", batchID, err)
		return
	}
	if err := s.Store.SaveBatchResults(batchID, result.Long, result.Short); err != nil {
		log.Printf("[ERROR] save batch %s: %v", batchID, err)
		return
	}
	if err := s.Tracker.Remove(s.Ctx, s.Settings.Owner, batchID); err != nil {
		log.Printf("[WARN] untrack batch %s: %v", batchID, err)
	}
	log.Printf("[INFO] batch %s done: %d long, %d short rows over %d securities",
		batchID, len(result.Long), len(result.Short), len(input.Securities))
}
