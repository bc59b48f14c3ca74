package session

import (
	"sync"
	"time"

	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/feature"
)

// UpcomingItem is one future interval in a session view.
type UpcomingItem struct {
	Task            string  `json:"task"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// StateSink is a DisplaySink that keeps the latest rendered state so HTTP
// clients can poll it. Feature descriptors are resolved into renderables
// here, at display time, through the same registry the builder validated
// them against.
type StateSink struct {
	resolver  feature.Resolver
	maxHeight int

	// Play-state, intro activity and total duration are not mirrored
	// here; Session.view reads them straight off the schedule.
	mu           sync.Mutex
	task         string
	color        string
	elapsed      time.Duration
	totalElapsed time.Duration
	upcoming     []UpcomingItem
	endVisible   bool
	renderable   *feature.Renderable
	completed    bool
}

func NewStateSink(resolver feature.Resolver, maxHeight int) *StateSink {
	return &StateSink{resolver: resolver, maxHeight: maxHeight}
}

func (s *StateSink) ShowInterval(task, color string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task == "" {
		task = "Untitled"
	}
	s.task = task
	s.color = color
	return nil
}

func (s *StateSink) ShowElapsed(elapsed time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed = elapsed
	return nil
}

func (s *StateSink) ShowTotal(elapsed, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalElapsed = elapsed
	return nil
}

func (s *StateSink) ShowUpcoming(next []domain.Interval, endVisible bool) error {
	items := make([]UpcomingItem, len(next))
	for i, iv := range next {
		task := iv.Task
		if task == "" {
			task = "Untitled"
		}
		items[i] = UpcomingItem{Task: task, DurationSeconds: iv.Duration.Seconds()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upcoming = items
	s.endVisible = endVisible
	return nil
}

func (s *StateSink) ShowStatus(domain.Status) error {
	return nil
}

func (s *StateSink) RenderFeature(desc *domain.FeatureDescriptor) error {
	renderable, err := s.resolver.Resolve(desc.Category, desc.Type, desc.Args, s.maxHeight)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderable = renderable
	return nil
}

func (s *StateSink) ClearFeature() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderable = nil
	return nil
}

func (s *StateSink) ShowComplete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = true
	return nil
}

// CueSink counts boundary cues; pollers diff the counters to know when to
// play a sound client-side.
type CueSink struct {
	mu           sync.Mutex
	introEnds    int
	intervalEnds int
}

func (c *CueSink) PlayIntroEnd() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.introEnds++
	return nil
}

func (c *CueSink) PlayIntervalEnd() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intervalEnds++
	return nil
}

func (c *CueSink) counts() (introEnds, intervalEnds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.introEnds, c.intervalEnds
}
