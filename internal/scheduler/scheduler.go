// Package scheduler runs polling cycles over the configured sources.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"newsbot/internal/dispatch"
	"newsbot/internal/logging"
	"newsbot/internal/model"
	"newsbot/internal/resolver"
	"newsbot/internal/storage"
)

var (
	// ErrStore marks a dedup store failure. It aborts the whole cycle.
	ErrStore = errors.New("store failure")
	// ErrCycleInProgress is returned when a cycle is requested while another runs.
	ErrCycleInProgress = errors.New("cycle already in progress")
)

// Resolver obtains the feed document of a source.
type Resolver interface {
	Resolve(ctx context.Context, src model.Source) (resolver.Resolution, error)
}

// Canonicalizer derives the dedup key of an entry.
type Canonicalizer interface {
	Canonicalize(e model.Entry) string
}

// Filter decides whether a title is on topic.
type Filter interface {
	Relevant(title string) bool
}

// Localizer translates titles of flagged sources.
type Localizer interface {
	Localize(ctx context.Context, title string, src model.Source) string
}

// Dispatcher fans a message out to subscribers.
type Dispatcher interface {
	Deliver(ctx context.Context, text string, recipients []int64) dispatch.Summary
}

// FormatFunc renders the message sent for a post.
type FormatFunc func(title, link string) string

// Deps are the pipeline stages the scheduler drives.
type Deps struct {
	Store         storage.Storage
	Resolver      Resolver
	Canonicalizer Canonicalizer
	Filter        Filter
	Localizer     Localizer
	Dispatcher    Dispatcher
	Format        FormatFunc
}

// Options tune the polling loop.
type Options struct {
	Interval      time.Duration
	SourceTimeout time.Duration
	Workers       int
	// Now stamps recorded posts. Defaults to time.Now.
	Now func() time.Time
}

// Scheduler periodically polls sources and delivers new relevant items.
type Scheduler struct {
	deps    Deps
	opts    Options
	sources []model.Source
	log     *slog.Logger

	running atomic.Bool
	bg      sync.WaitGroup

	mu      sync.RWMutex
	baseCtx context.Context
	last    *CycleReport
}

// New creates a Scheduler over sources.
func New(deps Deps, sources []model.Source, opts Options, log *slog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Minute
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		deps:    deps,
		opts:    opts,
		sources: sources,
		log:     log,
		baseCtx: context.Background(),
	}
}

// Run runs a cycle immediately and then on every tick, blocking until ctx
// is cancelled. Ticks that arrive while a manual cycle runs are skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	defer s.bg.Wait()

	s.tick(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	_, err := s.RunCycle(ctx)
	if errors.Is(err, ErrCycleInProgress) {
		s.log.InfoContext(ctx, "skipping tick, cycle already running")
	}
}

// TriggerNow starts a cycle in the background. It returns false when a
// cycle is already running.
func (s *Scheduler) TriggerNow() bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}

	s.mu.RLock()
	ctx := s.baseCtx
	s.mu.RUnlock()

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer s.running.Store(false)
		_, _ = s.cycle(ctx)
	}()
	return true
}

// Wait blocks until background cycles started by TriggerNow finish.
func (s *Scheduler) Wait() {
	s.bg.Wait()
}

// Running reports whether a cycle is in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastReport returns the report of the most recent finished cycle.
func (s *Scheduler) LastReport() (CycleReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return CycleReport{}, false
	}
	return *s.last, true
}

// RunCycle runs one cycle over all sources. It returns ErrCycleInProgress
// when another cycle is running and an error wrapping ErrStore when the
// store failed.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return CycleReport{}, ErrCycleInProgress
	}
	defer s.running.Store(false)
	return s.cycle(ctx)
}

func (s *Scheduler) cycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{
		ID:        uuid.NewString(),
		StartedAt: s.opts.Now(),
	}
	ctx = logging.Ctx(ctx, slog.String("cycle_id", report.ID))
	s.log.InfoContext(ctx, "cycle started", "sources", len(s.sources))

	err := s.pollSources(ctx, &report)

	report.FinishedAt = s.opts.Now()
	if err != nil {
		report.Err = err.Error()
		s.log.ErrorContext(ctx, "cycle aborted", "error", err)
	} else {
		s.log.InfoContext(ctx, "cycle finished",
			"delivered", report.Delivered(),
			"failed_sources", report.FailedSources(),
			"duration", report.FinishedAt.Sub(report.StartedAt))
	}

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()

	return report, err
}

func (s *Scheduler) pollSources(ctx context.Context, report *CycleReport) error {
	subscribers, err := s.deps.Store.ListSubscribers(ctx)
	if err != nil {
		return storeError(ctx, fmt.Errorf("list subscribers: %w", err))
	}

	results := make([]SourceResult, len(s.sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i, src := range s.sources {
		g.Go(func() error {
			res, err := s.processSource(gctx, src, subscribers)
			results[i] = res
			return err
		})
	}

	err = g.Wait()
	report.Sources = results
	return err
}

func (s *Scheduler) processSource(ctx context.Context, src model.Source, subscribers []int64) (SourceResult, error) {
	res := SourceResult{Source: src.Label()}
	if ctx.Err() != nil {
		res.Err = ctx.Err().Error()
		return res, nil
	}

	ctx = logging.Ctx(ctx, slog.String("source", src.Label()))

	// The source timeout bounds resolving and translating only. Store calls
	// and the fan-out of a claimed link run on the cycle context.
	fetchCtx := ctx
	if s.opts.SourceTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.SourceTimeout)
		defer cancel()
	}

	resolution, err := s.deps.Resolver.Resolve(fetchCtx, src)
	if err != nil {
		res.Err = err.Error()
		s.log.WarnContext(ctx, "source skipped", "error", err)
		return res, nil
	}
	res.Strategy = resolution.Strategy
	res.FeedURL = resolution.FeedURL
	res.Entries = len(resolution.Document.Entries)

	for _, e := range resolution.Document.Entries {
		if err := fetchCtx.Err(); err != nil {
			res.Err = err.Error()
			s.log.WarnContext(ctx, "source interrupted", "error", err)
			break
		}

		o, err := s.processEntry(ctx, fetchCtx, src, e, subscribers)
		if err != nil {
			res.Err = err.Error()
			return res, err
		}
		if o.kind == outcomeExpired {
			res.Err = fetchCtx.Err().Error()
			s.log.WarnContext(ctx, "source interrupted", "error", fetchCtx.Err())
			break
		}
		res.add(o)
	}

	if res.Delivered > 0 {
		s.log.InfoContext(ctx, "source processed",
			"strategy", res.Strategy, "entries", res.Entries, "delivered", res.Delivered)
	}
	return res, nil
}

type outcome struct {
	kind    outcomeKind
	summary dispatch.Summary
}

type outcomeKind int

const (
	outcomeDropped outcomeKind = iota
	outcomeDuplicate
	outcomeIrrelevant
	outcomeDelivered
	// outcomeExpired means the source timed out before the entry was claimed.
	outcomeExpired
)

func (s *Scheduler) processEntry(ctx, fetchCtx context.Context, src model.Source, e model.Entry, subscribers []int64) (outcome, error) {
	link := s.deps.Canonicalizer.Canonicalize(e)
	if link == "" {
		s.log.DebugContext(ctx, "entry dropped, no canonical link", "title", e.Title, "link", e.Link)
		return outcome{kind: outcomeDropped}, nil
	}
	title := strings.TrimSpace(e.Title)
	if title == "" {
		s.log.DebugContext(ctx, "entry dropped, empty title", "link", link)
		return outcome{kind: outcomeDropped}, nil
	}

	posted, err := s.deps.Store.HasBeenPosted(ctx, link)
	if err != nil {
		return outcome{}, storeError(ctx, err)
	}
	if posted {
		return outcome{kind: outcomeDuplicate}, nil
	}

	if !s.deps.Filter.Relevant(title) {
		return outcome{kind: outcomeIrrelevant}, nil
	}

	localized := s.deps.Localizer.Localize(fetchCtx, title, src)
	if fetchCtx.Err() != nil {
		return outcome{kind: outcomeExpired}, nil
	}

	claimed, err := s.deps.Store.RecordPosted(ctx, model.Post{
		Link:   link,
		Title:  localized,
		Source: src.Label(),
		SentAt: s.opts.Now().UTC(),
	})
	if err != nil {
		return outcome{}, storeError(ctx, err)
	}
	if !claimed {
		return outcome{kind: outcomeDuplicate}, nil
	}

	summary := s.deps.Dispatcher.Deliver(ctx, s.deps.Format(localized, link), subscribers)
	if summary.Failed > 0 {
		s.log.WarnContext(ctx, "partial delivery", "link", link, "sent", summary.Sent, "failed", summary.Failed)
	}
	return outcome{kind: outcomeDelivered, summary: summary}, nil
}

// storeError wraps err as a store failure unless the cycle itself was
// cancelled, in which case the cancellation is reported instead.
func storeError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}
