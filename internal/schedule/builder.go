package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/feature"
	"github.com/pacer-app/pacer/internal/metrics"
)

// DiagKind classifies a non-fatal, row-scoped build problem.
type DiagKind string

const (
	DiagFormat     DiagKind = "format"     // duration text unparsable, row dropped
	DiagValidation DiagKind = "validation" // interval bounds violated, row dropped
	DiagResolution DiagKind = "resolution" // feature lookup failed, interval kept without feature
)

// Diagnostic is one row-scoped build problem. Group names the enclosing
// group row, if any, for error display.
type Diagnostic struct {
	Row     int      `json:"row"`
	Group   string   `json:"group,omitempty"`
	Kind    DiagKind `json:"kind"`
	Field   string   `json:"field,omitempty"`
	Message string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Group != "" {
		return fmt.Sprintf("row %d (%s): %s", d.Row, d.Group, d.Message)
	}
	return fmt.Sprintf("row %d: %s", d.Row, d.Message)
}

// WarmupMode controls which intervals receive the warmup period.
type WarmupMode string

const (
	WarmupFirst WarmupMode = "first" // only the first built interval
	WarmupEach  WarmupMode = "each"  // every interval
)

// Settings are the global knobs applied at build time.
type Settings struct {
	Warmup          time.Duration
	WarmupMode      WarmupMode
	MaxRenderHeight int
}

// Result is the outcome of a build: whatever intervals were valid plus
// the accumulated diagnostics. Both can be non-empty at once.
type Result struct {
	Intervals   []domain.Interval `json:"intervals"`
	Diagnostics []Diagnostic      `json:"diagnostics"`
}

// Empty reports the benign case: the user has not entered anything yet.
func (r Result) Empty() bool {
	return len(r.Intervals) == 0 && len(r.Diagnostics) == 0
}

// Failed reports the error case: rows existed but every one was rejected.
func (r Result) Failed() bool {
	return len(r.Intervals) == 0 && len(r.Diagnostics) > 0
}

func (r Result) TotalDuration() time.Duration {
	var total time.Duration
	for _, iv := range r.Intervals {
		total += iv.Duration
	}
	return total
}

// Build flattens a user-edited document into a validated interval list.
// Per-row problems become diagnostics and the walk continues; the only
// fatal condition is a structurally absent document. Group rows produce
// no interval but establish the label context diagnostics carry.
//
// resolver validates feature descriptors; a nil resolver keeps descriptors
// as written, unchecked.
func Build(doc *domain.ScheduleDocument, settings Settings, resolver feature.Resolver) (Result, error) {
	if doc == nil {
		return Result{}, domain.ErrNilDocument
	}

	if settings.WarmupMode == "" {
		settings.WarmupMode = WarmupFirst
	}

	var result Result
	group := ""

	for i, row := range doc.Items {
		switch row.RowType {
		case domain.RowTypeGroup:
			group = row.Name

		case domain.RowTypeInterval:
			iv, diags := buildRow(i, group, row, settings, resolver, len(result.Intervals) == 0)
			result.Diagnostics = append(result.Diagnostics, diags...)
			if iv != nil {
				result.Intervals = append(result.Intervals, *iv)
			}

		default:
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Row:     i,
				Group:   group,
				Kind:    DiagFormat,
				Field:   "rowType",
				Message: fmt.Sprintf("unknown row type %q", row.RowType),
			})
		}
	}

	for _, d := range result.Diagnostics {
		metrics.BuildDiagnostics.WithLabelValues(string(d.Kind)).Inc()
	}
	metrics.BuildsTotal.WithLabelValues(buildOutcome(result)).Inc()

	return result, nil
}

// buildRow turns one interval row into an interval, or nil with at least
// one diagnostic when the row is dropped.
func buildRow(i int, group string, row domain.Row, settings Settings, resolver feature.Resolver, first bool) (*domain.Interval, []Diagnostic) {
	duration, err := domain.ParseDurationText(row.Duration)
	if err != nil {
		return nil, []Diagnostic{{
			Row: i, Group: group, Kind: DiagFormat, Field: "duration", Message: err.Error(),
		}}
	}

	intro := time.Duration(0)
	if settings.WarmupMode == WarmupEach || first {
		intro = min(settings.Warmup, duration)
	}

	iv, err := domain.NewInterval(row.Task, row.Color, duration, intro, nil)
	if err != nil {
		d := Diagnostic{Row: i, Group: group, Kind: DiagValidation, Message: err.Error()}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			d.Field = verr.Field
		}
		return nil, []Diagnostic{d}
	}

	var diags []Diagnostic
	if row.CategoryName != "" || row.FeatureTypeName != "" {
		desc := &domain.FeatureDescriptor{
			Category: row.CategoryName,
			Type:     row.FeatureTypeName,
			Args:     row.FeatureArgsList,
		}
		if resolver == nil {
			iv.Feature = desc
		} else if _, err := resolver.Resolve(desc.Category, desc.Type, desc.Args, settings.MaxRenderHeight); err != nil {
			// The interval still runs; it just has nothing to render.
			diags = append(diags, Diagnostic{
				Row: i, Group: group, Kind: DiagResolution, Field: "feature", Message: err.Error(),
			})
		} else {
			iv.Feature = desc
		}
	}

	return &iv, diags
}

func buildOutcome(r Result) string {
	switch {
	case r.Failed():
		return "failed"
	case r.Empty():
		return "empty"
	default:
		return "ok"
	}
}
