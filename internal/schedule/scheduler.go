package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"textveil/internal/config"
	"textveil/internal/model"
	"textveil/internal/present"
	"textveil/internal/scanner"
)

// Decider classifies a text fragment. It never returns an error; failures
// surface as verdicts that allow the content and carry the error message.
type Decider interface {
	Classify(ctx context.Context, text string) model.Verdict
}

// Cache looks up and stores verdicts keyed by content hash. Implementations
// must tolerate concurrent calls.
type Cache interface {
	Get(ctx context.Context, contentHash string) (model.Verdict, bool, error)
	Put(ctx context.Context, contentHash string, v model.Verdict) error
}

// notificationBuffer bounds how many change notifications can sit unread
// before Notify starts dropping them. A dropped notification only delays a
// rescan; the next one covers the same subtree.
const notificationBuffer = 128

// Scheduler owns the per-session classification state: which content hashes
// have been analyzed, which elements are in flight, and the queue of
// fragments awaiting classification. All state is guarded by a single mutex;
// classification goroutines only compute verdicts and never touch it.
//
// Design decision: the scheduler marks an element Done and delivers its
// verdict to the sink only after the whole group it was classified in has
// completed. Cancelling the context mid-group abandons every verdict in that
// group without a single sink call, so a torn-down page never receives
// stale mutations.
type Scheduler struct {
	engine Decider
	sink   present.Sink
	scan   *scanner.Scanner
	cache  Cache
	clock  Clock
	report *model.ScanReport
	logger *slog.Logger

	batchSize      int
	yieldInterval  time.Duration
	debounceWindow time.Duration

	mu       sync.Mutex
	analyzed map[string]struct{}
	states   map[*html.Node]model.ElementState
	queue    []*model.Fragment

	notifications chan *html.Node

	scannerOpts []scanner.Option

	// batchSizes records the size of each dispatched group, for tests and
	// the scan report.
	batchSizes []int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCache attaches a verdict cache consulted before classification.
func WithCache(c Cache) Option {
	return func(s *Scheduler) {
		s.cache = c
	}
}

// WithReport attaches a scan report that records every delivered verdict.
func WithReport(r *model.ScanReport) Option {
	return func(s *Scheduler) {
		s.report = r
	}
}

// WithClock replaces the wall clock. Used by tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithBatchSize sets how many fragments are classified concurrently per group.
func WithBatchSize(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithYieldInterval sets the pause between classification groups.
func WithYieldInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.yieldInterval = d
		}
	}
}

// WithDebounceWindow sets how long change notifications are coalesced before
// triggering a rescan.
func WithDebounceWindow(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.debounceWindow = d
		}
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScannerOptions passes options through to the internal scanner.
func WithScannerOptions(opts ...scanner.Option) Option {
	return func(s *Scheduler) {
		s.scannerOpts = append(s.scannerOpts, opts...)
	}
}

// New returns a Scheduler that classifies with engine and presents through
// sink. The scanner it builds carries the scheduler's ownership predicate,
// so a rescan of a changed subtree only emits elements not already in flight.
func New(engine Decider, sink present.Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		engine:         engine,
		sink:           sink,
		clock:          RealClock(),
		logger:         slog.Default(),
		batchSize:      config.DefaultBatchSize,
		yieldInterval:  config.DefaultYieldInterval,
		debounceWindow: config.DefaultDebounceWindow,
		analyzed:       make(map[string]struct{}),
		states:         make(map[*html.Node]model.ElementState),
		notifications:  make(chan *html.Node, notificationBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	scanOpts := append([]scanner.Option{
		scanner.WithLogger(s.logger),
		scanner.WithSkipFunc(s.tracked),
	}, s.scannerOpts...)
	s.scan = scanner.New(scanOpts...)
	return s
}

// tracked reports whether the pipeline already owns n. Supplied to the
// scanner so rescans never re-emit elements in flight.
func (s *Scheduler) tracked(n *html.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[n].InFlight()
}

// ScanDocument walks root for candidate fragments, enqueues the new ones and
// classifies everything queued. It is the full-document entry point; change
// notifications go through Notify and Run instead.
func (s *Scheduler) ScanDocument(ctx context.Context, root *html.Node) error {
	s.enqueue(ctx, s.scan.FindCandidates(root))
	return s.drain(ctx)
}

// Notify reports that the subtree rooted at n changed. It never blocks; if
// the buffer is full the notification is dropped and the next one wins.
func (s *Scheduler) Notify(n *html.Node) {
	if n == nil {
		return
	}
	select {
	case s.notifications <- n:
	default:
		s.logger.Warn("notification buffer full, dropping change event")
	}
}

// Run consumes change notifications until ctx is done. Notifications are
// coalesced: the first one arms a debounce timer, later ones accumulate, and
// when the timer fires every pending subtree is scanned and the queue drained
// in one pass.
func (s *Scheduler) Run(ctx context.Context) error {
	var pending []*html.Node
	var timer Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case n := <-s.notifications:
			pending = append(pending, n)
			if timer == nil {
				timer = s.clock.NewTimer(s.debounceWindow)
				fire = timer.C()
			}

		case <-fire:
			timer.Stop()
			timer = nil
			fire = nil

			roots := pending
			pending = nil
			for _, root := range roots {
				s.enqueue(ctx, s.scan.FindCandidates(root))
			}
			if err := s.drain(ctx); err != nil {
				return err
			}
		}
	}
}

// enqueue admits fragments into the queue. An element already in flight is
// skipped, a content hash already analyzed is marked Done without a second
// classification, and a cache hit is delivered immediately.
func (s *Scheduler) enqueue(ctx context.Context, fragments []*model.Fragment) {
	for _, f := range fragments {
		s.mu.Lock()
		if s.states[f.Element].InFlight() {
			s.mu.Unlock()
			continue
		}
		if _, ok := s.analyzed[f.ContentHash]; ok {
			s.states[f.Element] = model.StateDone
			s.mu.Unlock()
			if s.report != nil {
				s.report.RecordDeduplicated()
			}
			continue
		}
		s.mu.Unlock()

		if s.cache != nil {
			v, hit, err := s.cache.Get(ctx, f.ContentHash)
			if err != nil {
				s.logger.Warn("verdict cache lookup failed",
					slog.String("content_hash", f.ContentHash),
					slog.String("error", err.Error()))
			} else if hit {
				s.mu.Lock()
				s.analyzed[f.ContentHash] = struct{}{}
				s.states[f.Element] = model.StateDone
				s.mu.Unlock()
				s.deliver(ctx, f, v, false)
				continue
			}
		}

		s.mu.Lock()
		s.analyzed[f.ContentHash] = struct{}{}
		s.states[f.Element] = model.StatePending
		s.queue = append(s.queue, f)
		s.mu.Unlock()
	}
}

// drain classifies the queue in groups of batchSize, yielding between groups
// so a large page never monopolizes the session.
func (s *Scheduler) drain(ctx context.Context) error {
	for {
		group := s.takeGroup()
		if len(group) == 0 {
			return nil
		}

		verdicts := make([]model.Verdict, len(group))
		g, gctx := errgroup.WithContext(ctx)
		for i, f := range group {
			g.Go(func() error {
				verdicts[i] = s.engine.Classify(gctx, f.RawText)
				return nil
			})
		}
		// Classify never errors, so Wait only reflects panics escaping the
		// engine, which it also swallows. Ignore the result and check ctx.
		_ = g.Wait()

		if ctx.Err() != nil {
			s.abandon(group)
			return ctx.Err()
		}

		s.mu.Lock()
		for _, f := range group {
			s.states[f.Element] = model.StateDone
		}
		s.mu.Unlock()

		for i, f := range group {
			s.deliver(ctx, f, verdicts[i], true)
		}

		if s.queued() > 0 {
			if err := s.clock.Sleep(ctx, s.yieldInterval); err != nil {
				return err
			}
		}
	}
}

// takeGroup pops up to batchSize fragments off the queue and marks them
// Processing.
func (s *Scheduler) takeGroup() []*model.Fragment {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := min(s.batchSize, len(s.queue))
	if n == 0 {
		return nil
	}
	group := s.queue[:n]
	s.queue = s.queue[n:]
	for _, f := range group {
		s.states[f.Element] = model.StateProcessing
	}
	s.batchSizes = append(s.batchSizes, n)
	return group
}

// abandon discards a group whose verdicts must not reach the sink. The
// elements return to Unseen so a later session may pick them up, and their
// hashes are forgotten.
func (s *Scheduler) abandon(group []*model.Fragment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range group {
		delete(s.states, f.Element)
		delete(s.analyzed, f.ContentHash)
	}
	s.logger.Debug("abandoned in-flight group", slog.Int("size", len(group)))
}

// deliver hands one verdict to the sink and records it. Verdicts produced in
// this session (fresh) are also stored in the cache; cache hits are not
// re-stored, and verdicts carrying an error are never cached.
func (s *Scheduler) deliver(ctx context.Context, f *model.Fragment, v model.Verdict, fresh bool) {
	if err := s.sink.Apply(f, v); err != nil {
		s.logger.Warn("sink rejected verdict",
			slog.String("content_hash", f.ContentHash),
			slog.String("error", err.Error()))
	}
	if s.report != nil {
		s.report.Record(f, v)
	}
	if fresh && s.cache != nil && v.Err == "" {
		if err := s.cache.Put(ctx, f.ContentHash, v); err != nil {
			s.logger.Warn("verdict cache store failed",
				slog.String("content_hash", f.ContentHash),
				slog.String("error", err.Error()))
		}
	}
}

// queued returns the current queue length.
func (s *Scheduler) queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// BatchSizes returns the sizes of every group dispatched so far.
func (s *Scheduler) BatchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.batchSizes...)
}

// State reports the tracked state of an element. Elements the scheduler has
// never seen report StateUnseen.
func (s *Scheduler) State(n *html.Node) model.ElementState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[n]
}
