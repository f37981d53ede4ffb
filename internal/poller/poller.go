package poller

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/internal/storage"
	"github.com/orgball2608/tweet-fetcher/internal/twitter"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
)

// TweetStore is the persisted collection a poller feeds. *storage.Store satisfies it.
type TweetStore interface {
	Load(ctx context.Context) (storage.LoadResult, error)
	AddTweets(candidates []domain.Tweet) storage.AddResult
	Save(ctx context.Context) (storage.SaveResult, error)
	Len() int
}

// Notifier is told about every batch of newly accepted tweets.
type Notifier interface {
	Notify(ctx context.Context, account string, tweets []domain.Tweet) error
}

type Opts struct {
	Account  string
	Interval time.Duration
	Source   twitter.Client
	Store    TweetStore
	Notifier Notifier // optional
	Logger   logger.Logger
	Clock    clockwork.Clock // real clock when nil

	// FetchTimeout bounds a single source call. Zero disables it.
	FetchTimeout time.Duration
}

// Status is a snapshot of the poller for the health endpoint.
type Status struct {
	Running   bool      `json:"running"`
	Account   string    `json:"account"`
	Total     int       `json:"total"`
	LastCycle time.Time `json:"last_cycle"`
	LastAdded int       `json:"last_added"`
}

// Poller fetches one account's tweets every Interval and appends the new
// ones to its store. Intervals are measured from the end of a cycle.
type Poller struct {
	account      string
	interval     time.Duration
	fetchTimeout time.Duration
	source       twitter.Client
	store        TweetStore
	notifier     Notifier
	clock        clockwork.Clock
	logger       logger.Logger

	// lifecycleMu serializes Start and Stop.
	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}

	// cycleMu serializes fetch cycles, the store has a single owner.
	cycleMu sync.Mutex

	mu     sync.RWMutex
	status Status
}

func New(opts Opts) *Poller {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Poller{
		account:      opts.Account,
		interval:     opts.Interval,
		fetchTimeout: opts.FetchTimeout,
		source:       opts.Source,
		store:        opts.Store,
		notifier:     opts.Notifier,
		clock:        clock,
		logger:       opts.Logger.WithComponent("Poller"),
		status:       Status{Account: opts.Account},
	}
}

// Start loads the stored tweets, runs one cycle and then keeps polling in
// the background. Calling Start on a running poller does nothing.
func (p *Poller) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.Running() {
		p.logger.Warn("Poller is already running", "account", p.account)
		return nil
	}

	p.logger.Info("Starting poller", "account", p.account, "interval", p.interval.String())

	p.load(ctx)
	p.setRunning(true)

	p.runCycle(ctx)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(loopCtx, p.done)

	return nil
}

// Stop ends the polling loop and waits for an in-flight cycle to finish, or
// for ctx to expire. Calling Stop on a stopped poller does nothing.
func (p *Poller) Stop(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.Running() {
		p.logger.Warn("Poller is not running", "account", p.account)
		return nil
	}

	p.cancel()
	p.setRunning(false)

	select {
	case <-p.done:
	case <-ctx.Done():
		p.logger.Warn("Gave up waiting for the fetch cycle to finish", "account", p.account, "error", ctx.Err())
		return ctx.Err()
	}

	p.logger.Info("Poller stopped", "account", p.account)
	return nil
}

func (p *Poller) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status.Running
}

func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Poller) load(ctx context.Context) {
	res, err := p.store.Load(ctx)
	switch {
	case err != nil && errors.IsStoreCorrupt(err):
		p.logger.Error("Stored tweets are corrupt, starting with an empty collection", "account", p.account, "error", err)
	case err != nil:
		p.logger.Error("Failed to load stored tweets, starting with an empty collection", "account", p.account, "error", err)
	case res.NewFile:
		p.logger.Info("No stored tweets, starting fresh", "account", p.account, "path", res.Path)
	default:
		p.logger.Info("Loaded stored tweets", "account", p.account, "count", res.Count, "unique", res.UniqueIDs, "path", res.Path)
	}

	p.mu.Lock()
	p.status.Total = p.store.Len()
	p.mu.Unlock()
}

func (p *Poller) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		timer := p.clock.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
			// A cycle that has begun runs to completion even if Stop is called.
			p.runCycle(context.WithoutCancel(ctx))
		}
	}
}

// runCycle keeps a panicking cycle from taking the loop down.
func (p *Poller) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered from panic in fetch cycle", "account", p.account, "panic", r)
		}
	}()

	p.FetchCycle(ctx)
}

func (p *Poller) setRunning(running bool) {
	p.mu.Lock()
	p.status.Running = running
	p.mu.Unlock()
}

func (p *Poller) recordCycle(at time.Time, added, total int) {
	p.mu.Lock()
	p.status.LastCycle = at
	p.status.LastAdded = added
	p.status.Total = total
	p.mu.Unlock()
}
