package schedule

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pacer-app/pacer/internal/clock"
	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/metrics"
)

// upcomingWindow caps how many future intervals the display is asked to show.
const upcomingWindow = 5

// Schedule owns an immutable interval sequence and its play-state. It is
// safe for concurrent use: the tick source goroutine and the controlling
// caller serialize on an internal mutex.
//
// Lifecycle: New -> Prepare -> Start/Pause/Skip -> Finished. A finished
// schedule never leaves that state; the caller builds a new one.
type Schedule struct {
	intervals []domain.Interval
	display   DisplaySink
	audio     AudioSink
	ticks     clock.TickSource
	period    time.Duration
	logger    *slog.Logger

	mu         sync.Mutex
	status     domain.Status
	idx        int
	elapsed    time.Duration
	total      time.Duration
	introFired bool
	handle     clock.Handle
	// gen invalidates tick callbacks registered before the most recent
	// start/pause/finish, so a late callback can never apply a stale delta.
	gen     uint64
	lastErr error
}

func New(intervals []domain.Interval, display DisplaySink, audio AudioSink, ticks clock.TickSource, period time.Duration, logger *slog.Logger) *Schedule {
	return &Schedule{
		intervals: intervals,
		display:   display,
		audio:     audio,
		ticks:     ticks,
		period:    period,
		logger:    logger.With("component", "schedule"),
		status:    domain.StatusStopped,
	}
}

// Prepare seeds the schedule: loads interval 0 and renders it without
// starting the clock. Silently a no-op on an empty schedule (the caller
// is expected to check the interval count itself) and on a finished one,
// which never leaves that state.
func (s *Schedule) Prepare() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.intervals) == 0 || s.status == domain.StatusFinished {
		return nil
	}

	s.idx = 0
	s.elapsed = 0
	s.total = 0
	s.status = domain.StatusPaused
	s.loadCurrent()

	var err error
	collect(&err, s.showCurrent())
	collect(&err, s.display.ShowElapsed(0))
	collect(&err, s.display.ShowTotal(0, s.totalDuration()))
	collect(&err, s.display.ShowStatus(domain.StatusPaused))
	return err
}

// Start begins periodic ticking from the current elapsed value. No-op
// unless the schedule is Paused.
func (s *Schedule) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusPaused {
		return nil
	}

	s.status = domain.StatusRunning
	s.gen++
	gen := s.gen
	s.handle = s.ticks.Start(s.period, func(delta time.Duration) {
		s.onTick(gen, delta)
	})
	return s.display.ShowStatus(domain.StatusRunning)
}

// Pause cancels the tick source, retaining elapsed time exactly. No-op
// unless Running.
func (s *Schedule) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusRunning {
		return nil
	}

	s.cancelTicks()
	s.status = domain.StatusPaused
	return s.display.ShowStatus(domain.StatusPaused)
}

// Skip advances past the current interval as if it had elapsed, keeping
// the Running/Paused status unless it was the last interval. No-op once
// Finished (or before Prepare). Skip does not touch the tick source; a
// tick landing right after sees post-skip state and its delta applies to
// the new interval.
func (s *Schedule) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusRunning && s.status != domain.StatusPaused {
		return nil
	}

	var err error
	collect(&err, s.advance(0))
	if s.status != domain.StatusFinished {
		collect(&err, s.display.ShowElapsed(s.elapsed))
		collect(&err, s.display.ShowTotal(s.total, s.totalDuration()))
	}
	return err
}

func (s *Schedule) onTick(gen uint64, delta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.status != domain.StatusRunning {
		return
	}

	if err := s.tick(delta); err != nil {
		// Clock state is already committed; record and surface the sink
		// failure without killing the tick loop.
		s.lastErr = err
		s.logger.Error("tick side effect failed", "interval", s.idx, "error", err)
	}
}

// tick applies one delta. Called with the lock held.
func (s *Schedule) tick(delta time.Duration) error {
	s.elapsed += delta
	s.total += delta
	metrics.TicksApplied.Inc()

	var err error

	cur := s.intervals[s.idx]
	if !s.introFired && s.elapsed >= cur.Intro {
		s.introFired = true
		metrics.CuesPlayed.WithLabelValues("intro_end").Inc()
		collect(&err, s.audio.PlayIntroEnd())
	}

	// Chained advance: overflow beyond the current interval carries into
	// the next one, repeatedly if a single delta spans several intervals.
	// Bounded because every built interval has positive duration.
	for s.elapsed >= cur.Duration {
		overflow := s.elapsed - cur.Duration
		collect(&err, s.advance(overflow))
		if s.status == domain.StatusFinished {
			return err
		}
		cur = s.intervals[s.idx]
		if !s.introFired && s.elapsed >= cur.Intro {
			s.introFired = true
			metrics.CuesPlayed.WithLabelValues("intro_end").Inc()
			collect(&err, s.audio.PlayIntroEnd())
		}
	}

	collect(&err, s.display.ShowElapsed(s.elapsed))
	collect(&err, s.display.ShowTotal(s.total, s.totalDuration()))
	return err
}

// advance completes the current interval and moves on, seeding the next
// interval's elapsed with the carried overflow. Called with the lock held.
func (s *Schedule) advance(overflow time.Duration) error {
	var err error

	metrics.IntervalAdvances.Inc()
	metrics.CuesPlayed.WithLabelValues("interval_end").Inc()
	collect(&err, s.audio.PlayIntervalEnd())

	s.idx++
	if s.idx >= len(s.intervals) {
		collect(&err, s.finish())
		return err
	}

	s.elapsed = overflow
	s.loadCurrent()
	collect(&err, s.showCurrent())
	return err
}

// finish is terminal: cancel ticks, clamp the totals, render completion.
// Called with the lock held.
func (s *Schedule) finish() error {
	s.cancelTicks()
	s.status = domain.StatusFinished
	s.elapsed = 0
	if total := s.totalDuration(); s.total > total {
		s.total = total
	}

	var err error
	collect(&err, s.display.ShowStatus(domain.StatusStopped))
	collect(&err, s.display.ShowComplete())
	return err
}

// loadCurrent resets per-interval tracking for s.idx. An interval without
// a warmup never fires the intro-end cue.
func (s *Schedule) loadCurrent() {
	s.introFired = s.intervals[s.idx].Intro == 0
}

// showCurrent fires the interval-start display side effects. Called with
// the lock held.
func (s *Schedule) showCurrent() error {
	cur := s.intervals[s.idx]

	var err error
	collect(&err, s.display.ShowInterval(cur.Task, cur.Color, cur.IntroActive(s.elapsed)))
	if cur.Feature != nil {
		collect(&err, s.display.RenderFeature(cur.Feature))
	} else {
		collect(&err, s.display.ClearFeature())
	}

	from := s.idx + 1
	to := from + upcomingWindow
	endVisible := true
	if to > len(s.intervals) {
		to = len(s.intervals)
	} else if to < len(s.intervals) {
		endVisible = false
	}
	collect(&err, s.display.ShowUpcoming(s.intervals[from:to], endVisible))
	return err
}

func (s *Schedule) cancelTicks() {
	s.gen++
	if s.handle != nil {
		s.handle.Stop()
		s.handle = nil
	}
}

func (s *Schedule) totalDuration() time.Duration {
	var total time.Duration
	for _, iv := range s.intervals {
		total += iv.Duration
	}
	return total
}

// --- queries ---

func (s *Schedule) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Schedule) IsRunning() bool {
	return s.Status() == domain.StatusRunning
}

func (s *Schedule) IsFinished() bool {
	return s.Status() == domain.StatusFinished
}

// Current returns a copy of the interval now playing, or nil before
// Prepare and after Finished.
func (s *Schedule) Current() *domain.Interval {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == domain.StatusStopped || s.status == domain.StatusFinished {
		return nil
	}
	cur := s.intervals[s.idx]
	return &cur
}

// Index returns the position of the current interval.
func (s *Schedule) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}

func (s *Schedule) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

func (s *Schedule) TotalElapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Schedule) TotalDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalDuration()
}

// IntroActive reports whether the current interval is still in warmup.
func (s *Schedule) IntroActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == domain.StatusStopped || s.status == domain.StatusFinished {
		return false
	}
	return s.intervals[s.idx].IntroActive(s.elapsed)
}

// Intervals returns a read-only copy of the built sequence.
func (s *Schedule) Intervals() []domain.Interval {
	out := make([]domain.Interval, len(s.intervals))
	copy(out, s.intervals)
	return out
}

// Err returns the most recent sink failure surfaced by the tick loop.
func (s *Schedule) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// collect keeps the first error while letting state mutation continue.
func collect(dst *error, err error) {
	if *dst == nil && err != nil {
		*dst = err
	}
}
