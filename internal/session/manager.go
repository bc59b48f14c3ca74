package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pacer-app/pacer/internal/clock"
	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/feature"
	"github.com/pacer-app/pacer/internal/metrics"
	"github.com/pacer-app/pacer/internal/schedule"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptySchedule   = errors.New("schedule has no intervals")
	ErrBuildFailed     = errors.New("every row failed to build")
)

// Session is one live practice run: a schedule plus the sinks that record
// its state for polling clients.
type Session struct {
	ID           string
	OwnerID      string
	DocumentName string

	sched       *schedule.Schedule
	state       *StateSink
	cues        *CueSink
	diagnostics []schedule.Diagnostic
	createdAt   time.Time
	lastTouch   time.Time
}

// View is the JSON-ready snapshot of a session.
type View struct {
	ID                   string                `json:"id"`
	DocumentName         string                `json:"document_name"`
	Status               domain.Status         `json:"status"`
	Task                 string                `json:"task"`
	Color                string                `json:"color"`
	IntroActive          bool                  `json:"intro_active"`
	ElapsedSeconds       float64               `json:"elapsed_seconds"`
	TotalElapsedSeconds  float64               `json:"total_elapsed_seconds"`
	TotalDurationSeconds float64               `json:"total_duration_seconds"`
	Upcoming             []UpcomingItem        `json:"upcoming"`
	EndVisible           bool                  `json:"end_visible"`
	Feature              *feature.Renderable   `json:"feature,omitempty"`
	Completed            bool                  `json:"completed"`
	IntroEndCues         int                   `json:"intro_end_cues"`
	IntervalEndCues      int                   `json:"interval_end_cues"`
	Diagnostics          []schedule.Diagnostic `json:"diagnostics,omitempty"`
}

// Manager owns all live sessions. Each session has its own tick handle and
// interval list; nothing is shared between them.
type Manager struct {
	ticks    clock.TickSource
	period   time.Duration
	settings schedule.Settings
	resolver feature.Resolver
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(ticks clock.TickSource, period time.Duration, settings schedule.Settings, resolver feature.Resolver, logger *slog.Logger) *Manager {
	return &Manager{
		ticks:    ticks,
		period:   period,
		settings: settings,
		resolver: resolver,
		logger:   logger.With("component", "session_manager"),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create builds the document and seeds a prepared, paused session. The
// build result is returned in every case so callers can surface
// diagnostics; benign-empty and all-rows-failed come back as distinct
// errors.
func (m *Manager) Create(ownerID string, doc *domain.ScheduleDocument) (View, schedule.Result, error) {
	result, err := schedule.Build(doc, m.settings, m.resolver)
	if err != nil {
		return View{}, result, err
	}
	if result.Failed() {
		return View{}, result, ErrBuildFailed
	}
	if result.Empty() {
		return View{}, result, ErrEmptySchedule
	}

	state := NewStateSink(m.resolver, m.settings.MaxRenderHeight)
	cues := &CueSink{}
	sched := schedule.New(result.Intervals, state, cues, m.ticks, m.period, m.logger)
	if err := sched.Prepare(); err != nil {
		return View{}, result, err
	}

	s := &Session{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		DocumentName: doc.Name,
		sched:        sched,
		state:        state,
		cues:         cues,
		diagnostics:  result.Diagnostics,
		createdAt:    m.now(),
		lastTouch:    m.now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	metrics.SessionsStartedTotal.Inc()
	metrics.SessionsInFlight.Inc()
	m.logger.Info("session created",
		"session_id", s.ID,
		"document", doc.Name,
		"intervals", len(result.Intervals),
		"diagnostics", len(result.Diagnostics),
	)

	return s.view(), result, nil
}

func (m *Manager) Start(ownerID, id string) error {
	s, err := m.touch(ownerID, id)
	if err != nil {
		return err
	}
	return s.sched.Start()
}

func (m *Manager) Pause(ownerID, id string) error {
	s, err := m.touch(ownerID, id)
	if err != nil {
		return err
	}
	return s.sched.Pause()
}

func (m *Manager) Skip(ownerID, id string) error {
	s, err := m.touch(ownerID, id)
	if err != nil {
		return err
	}
	return s.sched.Skip()
}

func (m *Manager) Snapshot(ownerID, id string) (View, error) {
	s, err := m.touch(ownerID, id)
	if err != nil {
		return View{}, err
	}
	return s.view(), nil
}

// Remove evicts a session, cancelling its ticks.
func (m *Manager) Remove(ownerID, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	m.evict(s)
	return nil
}

// Reap evicts finished sessions and sessions idle for longer than maxIdle,
// returning how many were removed.
func (m *Manager) Reap(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var victims []*Session
	for id, s := range m.sessions {
		if s.sched.IsFinished() || s.lastTouch.Before(cutoff) {
			victims = append(victims, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range victims {
		m.evict(s)
	}
	return len(victims)
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) evict(s *Session) {
	// Pause cancels the tick handle if the session was still running.
	if err := s.sched.Pause(); err != nil {
		m.logger.Warn("pause on eviction", "session_id", s.ID, "error", err)
	}
	metrics.SessionsInFlight.Dec()
	metrics.SessionDuration.Observe(s.sched.TotalElapsed().Seconds())
	m.logger.Info("session evicted", "session_id", s.ID, "finished", s.sched.IsFinished())
}

func (m *Manager) touch(ownerID, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	s.lastTouch = m.now()
	return s, nil
}

func (s *Session) view() View {
	introEnds, intervalEnds := s.cues.counts()

	// Read through the schedule before taking the sink lock: the tick path
	// holds the schedule lock while writing to the sink, so acquiring in
	// the opposite order here would invert and deadlock.
	status := s.sched.Status()
	introActive := s.sched.IntroActive()
	totalDuration := s.sched.TotalDuration()

	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()

	return View{
		ID:                   s.ID,
		DocumentName:         s.DocumentName,
		Status:               status,
		Task:                 st.task,
		Color:                st.color,
		IntroActive:          introActive,
		ElapsedSeconds:       st.elapsed.Seconds(),
		TotalElapsedSeconds:  st.totalElapsed.Seconds(),
		TotalDurationSeconds: totalDuration.Seconds(),
		Upcoming:             st.upcoming,
		EndVisible:           st.endVisible,
		Feature:              st.renderable,
		Completed:            st.completed,
		IntroEndCues:         introEnds,
		IntervalEndCues:      intervalEnds,
		Diagnostics:          s.diagnostics,
	}
}
