package poller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/internal/storage"
	"github.com/orgball2608/tweet-fetcher/internal/twitter"
	mock_twitter "github.com/orgball2608/tweet-fetcher/internal/twitter/mocks"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
	"go.uber.org/mock/gomock"
)

const (
	account  = "acme"
	interval = 5 * time.Minute
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func rawTweet(id string, at time.Time) domain.RawTweet {
	return domain.RawTweet{ID: id, TimeParsed: &at, Text: "tweet " + id, Username: account}
}

func stream(tweets ...domain.RawTweet) func(context.Context, string, twitter.TweetProcessorFunc) error {
	return func(_ context.Context, _ string, fn twitter.TweetProcessorFunc) error {
		for _, t := range tweets {
			if err := fn(t); err != nil {
				return err
			}
		}
		return nil
	}
}

type recordingNotifier struct {
	mu      sync.Mutex
	batches [][]domain.Tweet
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, _ string, tweets []domain.Tweet) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, tweets)
	return n.err
}

func (n *recordingNotifier) Batches() [][]domain.Tweet {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.batches
}

type fixture struct {
	poller   *Poller
	source   *mock_twitter.MockClient
	store    *storage.Store
	notifier *recordingNotifier
	clock    *clockwork.FakeClock
	dataDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		source:   mock_twitter.NewMockClient(ctrl),
		notifier: &recordingNotifier{},
		clock:    clockwork.NewFakeClockAt(base),
		dataDir:  t.TempDir(),
	}
	f.store = storage.New(f.dataDir, account, logger.NewNop())
	f.poller = New(Opts{
		Account:  account,
		Interval: interval,
		Source:   f.source,
		Store:    f.store,
		Notifier: f.notifier,
		Logger:   logger.NewNop(),
		Clock:    f.clock,
	})
	return f
}

func (f *fixture) waitForTimer(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("poll loop never armed its timer: %v", err)
	}
}

func (f *fixture) stop(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.poller.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func ids(tweets []domain.Tweet) []string {
	out := make([]string, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, t.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPoller_TwoCycles(t *testing.T) {
	f := newFixture(t)

	a := rawTweet("A", base.Add(-1*time.Hour))
	b := rawTweet("B", base.Add(-2*time.Hour))
	c := rawTweet("C", base.Add(-30*time.Minute))

	gomock.InOrder(
		f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream(a, b)),
		f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream(c, a)),
	)

	if err := f.poller.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.stop(t)

	if !f.poller.Running() {
		t.Fatal("poller should be running after Start")
	}
	if got := ids(f.store.All()); !equalIDs(got, []string{"A", "B"}) {
		t.Fatalf("after first cycle got %v", got)
	}
	if _, err := os.Stat(storage.FilePath(f.dataDir, account)); err != nil {
		t.Fatalf("store file not written: %v", err)
	}

	f.waitForTimer(t)
	f.clock.Advance(interval)
	f.waitForTimer(t)

	if got := ids(f.store.All()); !equalIDs(got, []string{"C", "A", "B"}) {
		t.Fatalf("after second cycle got %v", got)
	}

	batches := f.notifier.Batches()
	if len(batches) != 2 || !equalIDs(ids(batches[0]), []string{"A", "B"}) || !equalIDs(ids(batches[1]), []string{"C"}) {
		t.Errorf("unexpected notifications: %v", batches)
	}

	status := f.poller.Status()
	if !status.Running || status.Account != account || status.Total != 3 || status.LastAdded != 1 {
		t.Errorf("Status() = %+v", status)
	}
	if !status.LastCycle.Equal(base.Add(interval)) {
		t.Errorf("LastCycle = %v, want %v", status.LastCycle, base.Add(interval))
	}

	// A restarted process sees the persisted collection.
	reloaded := storage.New(f.dataDir, account, logger.NewNop())
	res, err := reloaded.Load(context.Background())
	if err != nil || res.Count != 3 {
		t.Fatalf("reload = %+v, %v", res, err)
	}
}

func TestPoller_IntervalStartsAfterCycle(t *testing.T) {
	f := newFixture(t)

	calls := 0
	f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(
		func(context.Context, string, twitter.TweetProcessorFunc) error {
			calls++
			if calls == 2 {
				// A slow cycle.
				f.clock.Advance(3 * time.Minute)
			}
			return nil
		},
	).Times(2)

	if err := f.poller.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.stop(t)

	f.waitForTimer(t)
	f.clock.Advance(interval)
	f.waitForTimer(t)

	// The next timer was armed after the slow cycle, so advancing less than a
	// full interval must not trigger another fetch.
	f.clock.Advance(interval - time.Second)
	f.waitForTimer(t)
}

func TestPoller_SourceFailureYieldsNothing(t *testing.T) {
	f := newFixture(t)

	f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).Return(twitter.ErrRateLimited)

	if got := f.poller.FetchCycle(context.Background()); got != nil {
		t.Errorf("FetchCycle() = %v, want nil", got)
	}
	if f.store.Len() != 0 {
		t.Errorf("store should be untouched, has %d", f.store.Len())
	}
	if _, err := os.Stat(storage.FilePath(f.dataDir, account)); !os.IsNotExist(err) {
		t.Errorf("nothing should be written on failure, stat err = %v", err)
	}
	if len(f.notifier.Batches()) != 0 {
		t.Error("no notification expected")
	}
}

func TestPoller_SourceFailureKeepsLoopScheduled(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unavailable", twitter.ErrUnavailable},
		{"unauthorized", twitter.ErrUnauthorized},
		{"other", errors.New("dial tcp: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			gomock.InOrder(
				f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream()),
				f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).Return(tt.err),
				f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream(rawTweet("A", base))),
			)

			if err := f.poller.Start(context.Background()); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			defer f.stop(t)

			f.waitForTimer(t)
			f.clock.Advance(interval)
			f.waitForTimer(t)

			if f.store.Len() != 0 {
				t.Fatalf("a failed fetch must not add tweets, store has %d", f.store.Len())
			}
			if status := f.poller.Status(); !status.Running || !status.LastCycle.Equal(base.Add(interval)) {
				t.Errorf("failed cycle should still be recorded, Status() = %+v", status)
			}

			f.clock.Advance(interval)
			f.waitForTimer(t)

			if got := ids(f.store.All()); !equalIDs(got, []string{"A"}) {
				t.Errorf("the cycle after a failure should fetch normally, got %v", got)
			}
		})
	}
}

func TestPoller_PartialStreamIsDiscarded(t *testing.T) {
	f := newFixture(t)

	streamErr := errors.New("connection reset")
	f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, fn twitter.TweetProcessorFunc) error {
			if err := fn(rawTweet("A", base)); err != nil {
				return err
			}
			return streamErr
		},
	)

	if got := f.poller.FetchCycle(context.Background()); got != nil {
		t.Errorf("FetchCycle() = %v, want nil", got)
	}
	if f.store.Len() != 0 {
		t.Errorf("partial results must not be stored, has %d", f.store.Len())
	}
}

func TestPoller_NoTweets(t *testing.T) {
	f := newFixture(t)

	f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream())

	if got := f.poller.FetchCycle(context.Background()); got != nil {
		t.Errorf("FetchCycle() = %v, want nil", got)
	}
	if _, err := os.Stat(storage.FilePath(f.dataDir, account)); !os.IsNotExist(err) {
		t.Errorf("an empty fetch should not write the store, stat err = %v", err)
	}
}

func TestPoller_DuplicateFetchAddsNothing(t *testing.T) {
	f := newFixture(t)

	a := rawTweet("A", base)
	f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream(a)).Times(2)

	if got := f.poller.FetchCycle(context.Background()); len(got) != 1 {
		t.Fatalf("first FetchCycle() = %v", got)
	}
	if got := f.poller.FetchCycle(context.Background()); len(got) != 0 {
		t.Fatalf("second FetchCycle() = %v, want no new tweets", got)
	}
	if len(f.notifier.Batches()) != 1 {
		t.Errorf("only the first batch should be notified, got %d", len(f.notifier.Batches()))
	}
}

func TestPoller_SaveFailureKeepsMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mock_twitter.NewMockClient(ctrl)

	// A regular file where the data directory should be.
	dataDir := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(dataDir, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	store := storage.New(dataDir, account, logger.NewNop())

	p := New(Opts{
		Account:  account,
		Interval: interval,
		Source:   source,
		Store:    store,
		Logger:   logger.NewNop(),
		Clock:    clockwork.NewFakeClockAt(base),
	})

	source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream(rawTweet("A", base)))

	got := p.FetchCycle(context.Background())
	if len(got) != 1 || got[0].ID != "A" {
		t.Fatalf("FetchCycle() = %v", got)
	}
	if store.Len() != 1 {
		t.Errorf("tweet should stay in memory after a failed save, have %d", store.Len())
	}
}

func TestPoller_NotifierFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("telegram down")

	f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream(rawTweet("A", base)))

	if got := f.poller.FetchCycle(context.Background()); len(got) != 1 {
		t.Fatalf("FetchCycle() = %v", got)
	}
	if f.store.Len() != 1 {
		t.Error("tweet should be stored regardless of notification failure")
	}
}

func TestPoller_FetchTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mock_twitter.NewMockClient(ctrl)
	store := storage.New(t.TempDir(), account, logger.NewNop())

	p := New(Opts{
		Account:      account,
		Interval:     interval,
		Source:       source,
		Store:        store,
		Logger:       logger.NewNop(),
		FetchTimeout: 20 * time.Millisecond,
	})

	source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ twitter.TweetProcessorFunc) error {
			<-ctx.Done()
			return ctx.Err()
		},
	)

	if got := p.FetchCycle(context.Background()); got != nil {
		t.Errorf("FetchCycle() = %v, want nil", got)
	}
}

func TestPoller_RecoversFromPanic(t *testing.T) {
	f := newFixture(t)

	gomock.InOrder(
		f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream()),
		f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(
			func(context.Context, string, twitter.TweetProcessorFunc) error {
				panic("unexpected payload")
			},
		),
		f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream(rawTweet("A", base))),
	)

	if err := f.poller.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.stop(t)

	f.waitForTimer(t)
	f.clock.Advance(interval)
	f.waitForTimer(t)
	f.clock.Advance(interval)
	f.waitForTimer(t)

	if f.store.Len() != 1 {
		t.Errorf("loop should keep running after a panic, store has %d", f.store.Len())
	}
}

func TestPoller_StartAndStopAreIdempotent(t *testing.T) {
	f := newFixture(t)

	f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream()).Times(1)

	ctx := context.Background()
	if err := f.poller.Stop(ctx); err != nil {
		t.Fatalf("Stop() on a stopped poller error = %v", err)
	}
	if err := f.poller.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.poller.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	f.stop(t)
	if f.poller.Running() {
		t.Error("poller should be stopped")
	}
	if err := f.poller.Stop(ctx); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestPoller_StartWithCorruptStore(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(storage.FilePath(f.dataDir, account), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream(rawTweet("A", base)))

	if err := f.poller.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.stop(t)

	if got := ids(f.store.All()); !equalIDs(got, []string{"A"}) {
		t.Errorf("expected the first cycle to start from empty, got %v", got)
	}
}

func TestPoller_StopWaitsForInFlightCycle(t *testing.T) {
	f := newFixture(t)

	entered := make(chan struct{})
	release := make(chan struct{})

	gomock.InOrder(
		f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream()),
		f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ string, fn twitter.TweetProcessorFunc) error {
				close(entered)
				<-release
				if ctx.Err() != nil {
					t.Error("an in-flight cycle must not be cancelled by Stop")
				}
				return fn(rawTweet("A", base))
			},
		),
	)

	if err := f.poller.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.waitForTimer(t)
	f.clock.Advance(interval)
	<-entered

	stopped := make(chan error, 1)
	go func() {
		stopped <- f.poller.Stop(context.Background())
	}()

	select {
	case err := <-stopped:
		t.Fatalf("Stop() returned before the cycle finished: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)

	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return")
	}

	if f.store.Len() != 1 {
		t.Errorf("the in-flight cycle should have completed, store has %d", f.store.Len())
	}
}

func TestPoller_StopHonoursContext(t *testing.T) {
	f := newFixture(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	gomock.InOrder(
		f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(stream()),
		f.source.EXPECT().GetTweets(gomock.Any(), account, gomock.Any()).DoAndReturn(
			func(context.Context, string, twitter.TweetProcessorFunc) error {
				close(entered)
				<-release
				return nil
			},
		),
	)

	if err := f.poller.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.waitForTimer(t)
	f.clock.Advance(interval)
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.poller.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Stop() error = %v, want deadline exceeded", err)
	}
	if f.poller.Running() {
		t.Error("poller should report stopped")
	}
}
