// Package ingest schedules feed fetches and stores the results. Each feed
// runs on its own interval ticker; parsed items funnel through a channel
// into a single storer goroutine so inserts stay serialized and newly
// stored items reach the realtime hub exactly once.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vestnik/vestnik/pkg/feed"
	"github.com/vestnik/vestnik/pkg/log"
	"github.com/vestnik/vestnik/pkg/realtime"
	"github.com/vestnik/vestnik/pkg/storage"
)

// DefaultInterval is used for feeds that do not configure their own.
const DefaultInterval = 30 * time.Minute

type Config struct {
	// OptimizeInterval enables periodic database optimization when > 0.
	OptimizeInterval time.Duration
}

type feedEntry struct {
	url      string
	interval time.Duration
}

type batch struct {
	feed  string
	items []storage.Item
}

// Scheduler owns the per-feed fetch loops. The hub is optional; when nil,
// stored items are not broadcast anywhere.
type Scheduler struct {
	config  Config
	store   *storage.Store
	fetcher *feed.Fetcher
	hub     *realtime.Hub
	logger  *log.Logger

	feeds          map[string]feedEntry
	tickers        map[string]*time.Ticker
	optimizeTicker *time.Ticker
	batchCh        chan batch
	stopCh         chan struct{}
	ctx            context.Context
	ctxCancel      context.CancelFunc
	mu             sync.RWMutex
	wg             sync.WaitGroup
	running        bool
}

func NewScheduler(config Config, store *storage.Store, fetcher *feed.Fetcher, hub *realtime.Hub) *Scheduler {
	return &Scheduler{
		config:  config,
		store:   store,
		fetcher: fetcher,
		hub:     hub,
		logger:  log.ForService("ingest"),
		feeds:   make(map[string]feedEntry),
		tickers: make(map[string]*time.Ticker),
	}
}

// AddFeed registers a feed under the given name. An interval <= 0 falls back
// to DefaultInterval. If the scheduler is already running, the feed's fetch
// loop starts immediately.
func (s *Scheduler) AddFeed(name, url string, interval time.Duration) error {
	if name == "" || url == "" {
		return fmt.Errorf("feed name and url are required")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.feeds[name]; exists {
		return fmt.Errorf("feed %s already configured", name)
	}
	s.feeds[name] = feedEntry{url: url, interval: interval}

	if s.running && s.ctx != nil {
		ticker := time.NewTicker(interval)
		s.tickers[name] = ticker
		s.wg.Add(1)
		go s.runFeed(s.ctx, name, ticker)
		s.logger.Infof("started scheduler for new feed %s with interval %v", name, interval)
	}

	return nil
}

// RemoveFeed stops the feed's fetch loop and forgets it. Unknown names are
// ignored.
func (s *Scheduler) RemoveFeed(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticker, exists := s.tickers[name]; exists {
		ticker.Stop()
		delete(s.tickers, name)
	}
	if _, exists := s.feeds[name]; exists {
		delete(s.feeds, name)
		s.logger.Infof("removed feed %s", name)
	}
}

// Feeds returns the configured feed names.
func (s *Scheduler) Feeds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.feeds))
	for name := range s.feeds {
		names = append(names, name)
	}
	return names
}

// Start launches the storer goroutine and one fetch loop per feed. Each loop
// fetches immediately and then on every tick. Starting with no feeds is
// allowed; feeds added later join the running scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.ctx, s.ctxCancel = context.WithCancel(ctx)
	s.stopCh = make(chan struct{})
	s.batchCh = make(chan batch, 16)
	s.running = true

	s.wg.Add(1)
	go s.runStorer(s.ctx)

	if len(s.feeds) == 0 {
		s.logger.Warnf("no feeds configured, scheduler is idle")
	}
	for name, entry := range s.feeds {
		ticker := time.NewTicker(entry.interval)
		s.tickers[name] = ticker
		s.wg.Add(1)
		go s.runFeed(s.ctx, name, ticker)
		s.logger.Infof("started scheduler for feed %s with interval %v", name, entry.interval)
	}

	if s.config.OptimizeInterval > 0 {
		s.optimizeTicker = time.NewTicker(s.config.OptimizeInterval)
		s.wg.Add(1)
		go s.runOptimization(s.ctx)
	}

	return nil
}

// Stop cancels all fetch loops and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	s.logger.Infof("stopping scheduler")
	if s.ctxCancel != nil {
		s.ctxCancel()
	}
	close(s.stopCh)
	for name, ticker := range s.tickers {
		ticker.Stop()
		delete(s.tickers, name)
	}
	if s.optimizeTicker != nil {
		s.optimizeTicker.Stop()
		s.optimizeTicker = nil
	}
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Infof("scheduler stopped")
}

// IsRunning reports whether Start has been called without a matching Stop.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) runFeed(ctx context.Context, name string, ticker *time.Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	// First fetch happens right away rather than one full interval in.
	s.fetchFeed(ctx, name)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.logger.Debugf("scheduled fetch for feed %s", name)
			s.fetchFeed(ctx, name)
		}
	}
}

func (s *Scheduler) runStorer(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case b := <-s.batchCh:
			s.storeBatch(ctx, b)
		}
	}
}

func (s *Scheduler) runOptimization(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-s.optimizeTicker.C:
			s.logger.Debugf("running database optimization")
			if err := s.store.Optimize(); err != nil {
				s.logger.Errorf("database optimization failed: %v", err)
			}
		}
	}
}

func (s *Scheduler) fetchFeed(ctx context.Context, name string) {
	s.mu.RLock()
	entry, ok := s.feeds[name]
	s.mu.RUnlock()
	if !ok {
		return
	}

	items, err := s.fetcher.Fetch(ctx, name, entry.url)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warnf("fetching feed %s: %v", name, err)
		}
		return
	}

	select {
	case s.batchCh <- batch{feed: name, items: items}:
	case <-ctx.Done():
	case <-s.stopCh:
	}
}

// storeBatch persists a batch and returns the items that were actually new.
func (s *Scheduler) storeBatch(ctx context.Context, b batch) []storage.Item {
	if len(b.items) == 0 {
		return nil
	}

	inserted, err := s.store.InsertMany(ctx, b.items)
	if err != nil {
		s.logger.Errorf("storing items from feed %s: %v", b.feed, err)
		return nil
	}
	s.logger.Infof("feed %s: fetched %d items, %d new", b.feed, len(b.items), len(inserted))

	if s.hub != nil {
		for _, it := range inserted {
			s.hub.Broadcast(realtime.WrapItem(realtime.FromItem(it)))
		}
	}
	return inserted
}

// FetchOption configures a FetchOnce run.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	onItem func(storage.Item)
	only   string
}

// WithStreaming calls back for every newly stored item, after it has been
// assigned an id.
func WithStreaming(callback func(storage.Item)) FetchOption {
	return func(opts *fetchOptions) {
		opts.onItem = callback
	}
}

// WithFeed restricts the fetch to a single named feed.
func WithFeed(name string) FetchOption {
	return func(opts *fetchOptions) {
		opts.only = name
	}
}

// FetchOnce fetches all configured feeds concurrently, stores the results and
// returns once everything has been persisted. It works whether or not the
// scheduler is running.
func (s *Scheduler) FetchOnce(ctx context.Context, options ...FetchOption) error {
	opts := &fetchOptions{}
	for _, opt := range options {
		opt(opts)
	}

	s.mu.RLock()
	feeds := make(map[string]feedEntry, len(s.feeds))
	for name, entry := range s.feeds {
		if opts.only != "" && name != opts.only {
			continue
		}
		feeds[name] = entry
	}
	s.mu.RUnlock()

	if opts.only != "" && len(feeds) == 0 {
		return fmt.Errorf("feed %s not configured", opts.only)
	}
	if len(feeds) == 0 {
		return fmt.Errorf("no feeds configured")
	}

	batchCh := make(chan batch, len(feeds))
	var fetchWg sync.WaitGroup
	var storerWg sync.WaitGroup

	storerWg.Add(1)
	go func() {
		defer storerWg.Done()
		for b := range batchCh {
			inserted := s.storeBatch(ctx, b)
			if opts.onItem != nil {
				for _, it := range inserted {
					opts.onItem(it)
				}
			}
		}
	}()

	for name, entry := range feeds {
		fetchWg.Add(1)
		go func(name, url string) {
			defer fetchWg.Done()
			items, err := s.fetcher.Fetch(ctx, name, url)
			if err != nil {
				s.logger.Warnf("fetching feed %s: %v", name, err)
				return
			}
			batchCh <- batch{feed: name, items: items}
		}(name, entry.url)
	}

	fetchWg.Wait()
	close(batchCh)
	storerWg.Wait()

	s.logger.Debugf("one-time fetch completed for %d feeds", len(feeds))
	return nil
}
