package domain

import (
	"fmt"
	"time"
)

// Status is the play-state of a running schedule.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// FeatureDescriptor is an opaque payload the timer forwards to the display
// at interval-start. Resolution into something renderable happens in the
// feature registry; the timer never interprets it.
type FeatureDescriptor struct {
	Category string   `json:"category"`
	Type     string   `json:"type"`
	Args     []string `json:"args,omitempty"`
}

// Interval is one timed task in a practice schedule.
type Interval struct {
	Task     string
	Color    string
	Duration time.Duration
	Intro    time.Duration // warmup portion at the start; 0 means none
	Feature  *FeatureDescriptor
}

// ValidationError reports an interval field that violates its bounds.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid interval: %s %s", e.Field, e.Reason)
}

// NewInterval validates bounds at construction time. A zero-duration
// interval is rejected here so the timer never has to handle one.
func NewInterval(task, color string, duration, intro time.Duration, feature *FeatureDescriptor) (Interval, error) {
	if duration <= 0 {
		return Interval{}, &ValidationError{Field: "duration", Reason: "must be positive"}
	}
	if intro < 0 {
		return Interval{}, &ValidationError{Field: "introDuration", Reason: "must not be negative"}
	}
	if intro > duration {
		return Interval{}, &ValidationError{Field: "introDuration", Reason: "must not exceed duration"}
	}
	return Interval{
		Task:     task,
		Color:    color,
		Duration: duration,
		Intro:    intro,
		Feature:  feature,
	}, nil
}

// IntroActive reports whether elapsed is still inside the warmup portion.
// False exactly at the boundary.
func (iv Interval) IntroActive(elapsed time.Duration) bool {
	return elapsed < iv.Intro
}
