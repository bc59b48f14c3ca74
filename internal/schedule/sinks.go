package schedule

import (
	"time"

	"github.com/pacer-app/pacer/internal/domain"
)

// DisplaySink receives visual state changes from a running schedule. The
// timer only calls these methods; rendering is the implementation's concern.
type DisplaySink interface {
	ShowInterval(task, color string, introActive bool) error
	ShowElapsed(elapsed time.Duration) error
	ShowTotal(elapsed, total time.Duration) error
	ShowUpcoming(next []domain.Interval, endVisible bool) error
	ShowStatus(status domain.Status) error
	RenderFeature(feature *domain.FeatureDescriptor) error
	ClearFeature() error
	ShowComplete() error
}

// AudioSink receives boundary cues.
type AudioSink interface {
	PlayIntroEnd() error
	PlayIntervalEnd() error
}
