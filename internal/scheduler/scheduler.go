// Package scheduler runs the dispatch loop: on every tick it loads the due
// reminders, sends them and stores their new schedule state in one batch.
//
// Delivery is at-least-once. A reminder whose send failed, or whose batch
// failed to commit, is still due on the next tick and will be sent again.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hray3182/nagqueen/internal/logging"
	"github.com/hray3182/nagqueen/internal/models"
	"github.com/hray3182/nagqueen/internal/recurrence"
	"github.com/hray3182/nagqueen/internal/rrule"
)

var (
	// ErrPersistence wraps a failed batch commit. Sends of that tick already
	// happened and will repeat on the next tick.
	ErrPersistence = errors.New("persist tick results")
	// ErrUnexpected wraps a panic recovered at the tick boundary.
	ErrUnexpected = errors.New("unexpected tick failure")
	// ErrTickInProgress is returned when another tick holds the loop.
	ErrTickInProgress = errors.New("tick already in progress")
	ErrAlreadyStarted = errors.New("scheduler already started")

	errNoDestination = errors.New("reminder has no destination")
)

const (
	defaultInterval      = time.Minute
	defaultConcurrency   = 4
	defaultSendTimeout   = 15 * time.Second
	defaultCommitTimeout = 30 * time.Second
)

// Store is the storage the dispatch loop reads from and commits to
type Store interface {
	FindDue(ctx context.Context, now time.Time) ([]models.Reminder, error)
	SaveBatch(ctx context.Context, reminders []models.Reminder) error
}

type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

// Report summarizes one tick
type Report struct {
	Due         int
	Sent        int
	Failed      int
	Skipped     int // not attempted because the tick was cancelled
	Deactivated int
	Rescheduled int
	Committed   int
	Took        time.Duration
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithConcurrency bounds the number of sends in flight within one tick
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSendTimeout limits a single send. Zero disables the limit.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.sendTimeout = d }
}

func WithCommitTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.commitTimeout = d
		}
	}
}

// WithRateLimit makes every send wait on l first
func WithRateLimit(l *rate.Limiter) Option {
	return func(s *Scheduler) { s.limiter = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunOnStart runs a tick right after Start instead of waiting a full interval
func WithRunOnStart(v bool) Option {
	return func(s *Scheduler) { s.runOnStart = v }
}

type Scheduler struct {
	store  Store
	sender Sender
	log    zerolog.Logger

	interval      time.Duration
	concurrency   int
	sendTimeout   time.Duration
	commitTimeout time.Duration
	limiter       *rate.Limiter
	now           func() time.Time
	runOnStart    bool

	tickMu   sync.Mutex
	notifyCh chan struct{}

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	quit    chan struct{}
	stopped chan struct{}
}

func New(store Store, sender Sender, log zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:         store,
		sender:        sender,
		log:           log.With().Str("component", "scheduler").Logger(),
		interval:      defaultInterval,
		concurrency:   defaultConcurrency,
		sendTimeout:   defaultSendTimeout,
		commitTimeout: defaultCommitTimeout,
		now:           time.Now,
		notifyCh:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Start schedules ticks every interval until Stop is called or ctx is done.
// It returns immediately. Once ctx is done no further tick is scheduled;
// Stop still has to be called to wait for a running one.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	cronLog := logging.Cron(s.log)
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := c.AddFunc("@every "+s.interval.String(), func() { s.runScheduled(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule dispatch every %s: %w", s.interval, err)
	}

	c.Start()

	quit := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-quit:
				return
			case <-runCtx.Done():
				c.Stop()
				return
			case <-s.notifyCh:
				s.log.Debug().Msg("tick triggered by notification")
				s.runScheduled(runCtx)
			}
		}
	}()

	s.cron, s.cancel, s.quit, s.stopped = c, cancel, quit, stopped
	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")

	if s.runOnStart {
		s.Notify()
	}
	return nil
}

// Stop prevents new ticks and waits for the running one. If ctx expires first
// the running tick's sends are cancelled; mutations it already collected are
// still committed. Stop returns ctx.Err() in that case.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel, quit, stopped := s.cron, s.cancel, s.quit, s.stopped
	s.cron, s.cancel, s.quit, s.stopped = nil, nil, nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	close(quit)
	cronDone := c.Stop()
	idle := make(chan struct{})
	go func() {
		<-cronDone.Done()
		<-stopped
		close(idle)
	}()

	var err error
	select {
	case <-idle:
	case <-ctx.Done():
		s.log.Warn().Msg("shutdown timeout reached, cancelling in-flight sends")
		err = ctx.Err()
	}
	cancel()
	<-idle
	s.log.Info().Msg("scheduler stopped")
	return err
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	report, err := s.Tick(ctx, s.now())
	switch {
	case errors.Is(err, ErrTickInProgress):
		s.log.Debug().Msg("previous tick still running, skipping")
	case errors.Is(err, ErrPersistence):
		s.log.Error().Err(err).Int("sent", report.Sent).Msg("sent reminders were not saved and will be sent again")
	case errors.Is(err, ErrUnexpected):
		s.log.Error().Err(err).Msg("tick aborted")
	case err != nil && ctx.Err() != nil:
		s.log.Debug().Err(err).Msg("tick cancelled")
	case err != nil:
		s.log.Error().Err(err).Msg("tick failed")
	case report.Due == 0:
		s.log.Debug().Dur("took", report.Took).Msg("no due reminders")
	default:
		s.log.Info().
			Int("due", report.Due).
			Int("sent", report.Sent).
			Int("failed", report.Failed).
			Int("skipped", report.Skipped).
			Int("deactivated", report.Deactivated).
			Int("rescheduled", report.Rescheduled).
			Dur("took", report.Took).
			Msg("tick complete")
	}
}

// outcome is the per-reminder result of a tick
type outcome struct {
	attempted bool
	sent      bool
	updated   models.Reminder
}

// Tick runs one dispatch cycle at now. Send failures are reported in the
// Report only; a failed commit returns ErrPersistence and a panic anywhere in
// the tick returns ErrUnexpected.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (report Report, err error) {
	if !s.tickMu.TryLock() {
		return Report{}, ErrTickInProgress
	}
	defer s.tickMu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnexpected, r)
		}
		report.Took = time.Since(start)
	}()

	now = now.UTC()
	due, err := s.store.FindDue(ctx, now)
	if err != nil {
		return report, fmt.Errorf("find due reminders: %w", err)
	}
	report.Due = len(due)
	if len(due) == 0 {
		return report, nil
	}

	outcomes := make([]outcome, len(due))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = s.dispatch(ctx, due[i], now)
			return nil
		})
	}
	_ = g.Wait()

	var batch []models.Reminder
	for _, o := range outcomes {
		switch {
		case !o.attempted:
			report.Skipped++
		case !o.sent:
			report.Failed++
		default:
			report.Sent++
			if o.updated.IsActive {
				report.Rescheduled++
			} else {
				report.Deactivated++
			}
			batch = append(batch, o.updated)
		}
	}
	if len(batch) == 0 {
		return report, nil
	}

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.commitTimeout)
	defer cancel()
	if err := s.store.SaveBatch(commitCtx, batch); err != nil {
		return report, fmt.Errorf("%w: %d reminders: %w", ErrPersistence, len(batch), err)
	}
	report.Committed = len(batch)
	return report, nil
}

// dispatch sends one reminder and returns its state after the attempt.
// A panic here only fails this reminder.
func (s *Scheduler) dispatch(ctx context.Context, r models.Reminder, now time.Time) (o outcome) {
	o = outcome{attempted: true, updated: r}
	log := s.log.With().Str("reminder_id", r.ID).Logger()
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("reminder dispatch panicked")
			o = outcome{attempted: true, updated: r}
		}
	}()

	if err := s.deliver(ctx, r); err != nil {
		log.Warn().Err(err).Msg("failed to send reminder, will retry next tick")
		return o
	}

	o.sent = true
	o.updated = recurrence.Fired(r, now)
	if o.updated.IsActive {
		log.Info().Time("next_run", o.updated.NextRun).Str("schedule", rrule.Describe(r.Rule)).Msg("sent reminder")
		if alt, drift := rruleDrift(r.Rule, now, o.updated.NextRun); drift {
			log.Debug().Time("rrule_next", alt).Str("rrule", rrule.String(r.Rule)).Msg("stored RRULE disagrees with next run")
		}
	} else {
		log.Info().Msg("sent one-time reminder, deactivated")
	}
	return o
}

// rruleDrift reports whether the RRULE stored with a reminder would fire at a
// different time than next. alt is zero when rrule-go finds no occurrence.
func rruleDrift(rule models.RecurrenceRule, now, next time.Time) (alt time.Time, drift bool) {
	alt, err := rrule.Next(rule, now)
	if err != nil {
		return time.Time{}, true
	}
	return alt, !alt.Equal(next)
}

func (s *Scheduler) deliver(ctx context.Context, r models.Reminder) error {
	if r.Destination == "" {
		return errNoDestination
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	sendCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.sendTimeout > 0 {
		sendCtx, cancel = context.WithTimeout(ctx, s.sendTimeout)
	}
	defer cancel()

	// Some providers ignore the context, so the call runs on its own goroutine.
	errc := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				errc <- fmt.Errorf("%w: sender panic: %v", ErrUnexpected, p)
			}
		}()
		errc <- s.sender.Send(sendCtx, r.Destination, r.Message)
	}()

	select {
	case err := <-errc:
		return err
	case <-sendCtx.Done():
		select {
		case err := <-errc:
			return err
		default:
			return fmt.Errorf("send: %w", sendCtx.Err())
		}
	}
}
