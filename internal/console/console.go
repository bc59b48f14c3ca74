// Package console implements display and audio sinks for the terminal
// runner: interval state printed line by line, boundary cues as the
// terminal bell.
package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/feature"
)

// Display writes schedule state to w. Elapsed updates rewrite the current
// line; everything else starts a new one.
type Display struct {
	w        io.Writer
	resolver feature.Resolver
	height   int
}

func NewDisplay(w io.Writer, resolver feature.Resolver, maxHeight int) *Display {
	return &Display{w: w, resolver: resolver, height: maxHeight}
}

func (d *Display) ShowInterval(task, color string, introActive bool) error {
	if task == "" {
		task = "Untitled"
	}
	marker := ""
	if introActive {
		marker = " (warmup)"
	}
	_, err := fmt.Fprintf(d.w, "\n== %s%s\n", task, marker)
	return err
}

func (d *Display) ShowElapsed(elapsed time.Duration) error {
	_, err := fmt.Fprintf(d.w, "\r   %s", formatClock(elapsed))
	return err
}

func (d *Display) ShowTotal(elapsed, total time.Duration) error {
	_, err := fmt.Fprintf(d.w, "  [%s / %s]", formatClock(elapsed), formatClock(total))
	return err
}

func (d *Display) ShowUpcoming(next []domain.Interval, endVisible bool) error {
	if len(next) == 0 {
		return nil
	}
	names := make([]string, len(next))
	for i, iv := range next {
		task := iv.Task
		if task == "" {
			task = "Untitled"
		}
		names[i] = fmt.Sprintf("%s (%s)", task, formatClock(iv.Duration))
	}
	suffix := ", ..."
	if endVisible {
		suffix = ""
	}
	_, err := fmt.Fprintf(d.w, "   next: %s%s\n", strings.Join(names, ", "), suffix)
	return err
}

func (d *Display) ShowStatus(status domain.Status) error {
	_, err := fmt.Fprintf(d.w, "\n   [%s]\n", status)
	return err
}

func (d *Display) RenderFeature(desc *domain.FeatureDescriptor) error {
	renderable, err := d.resolver.Resolve(desc.Category, desc.Type, desc.Args, d.height)
	if err != nil {
		return err
	}
	for _, line := range renderable.Lines {
		if _, err := fmt.Fprintf(d.w, "   %s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func (d *Display) ClearFeature() error {
	return nil
}

func (d *Display) ShowComplete() error {
	_, err := fmt.Fprintln(d.w, "\n== schedule complete")
	return err
}

// Bell rings the terminal bell: once for intro-end, twice for interval-end.
type Bell struct {
	w io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) PlayIntroEnd() error {
	_, err := fmt.Fprint(b.w, "\a")
	return err
}

func (b *Bell) PlayIntervalEnd() error {
	_, err := fmt.Fprint(b.w, "\a\a")
	return err
}

func formatClock(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
