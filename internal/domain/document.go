package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrDocumentNameConflict = errors.New("document with this name already exists")
	ErrNilDocument          = errors.New("schedule document is nil")
	ErrInvalidReminderCron  = errors.New("invalid reminder cron expression")
)

// Row types in a schedule document.
const (
	RowTypeGroup    = "group"
	RowTypeInterval = "interval"
)

// Row is one entry in a schedule document. A group row carries Level and
// Name; an interval row carries the remaining fields. Duration keeps the
// user's textual form ("5:00" or bare seconds) until build time.
type Row struct {
	RowType string `json:"rowType"`

	// group fields
	Level int    `json:"level,omitempty"`
	Name  string `json:"name,omitempty"`

	// interval fields
	Duration        string   `json:"duration,omitempty"`
	Task            string   `json:"task,omitempty"`
	Color           string   `json:"color,omitempty"`
	CategoryName    string   `json:"categoryName,omitempty"`
	FeatureTypeName string   `json:"featureTypeName,omitempty"`
	FeatureArgsList []string `json:"featureArgsList,omitempty"`
}

// ScheduleDocument is the persisted shape the builder accepts. The editor
// producing it is out of scope; this struct is its sole input contract.
type ScheduleDocument struct {
	ID           string     `json:"id,omitempty"`
	OwnerID      string     `json:"-"`
	Name         string     `json:"name"`
	Items        []Row      `json:"items"`
	ReminderCron *string    `json:"reminder_cron,omitempty"`
	ReminderTo   *string    `json:"reminder_to,omitempty"`
	NextRemindAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}

// ParseDurationText resolves "m:ss" or bare-seconds text into a duration.
func ParseDurationText(text string) (time.Duration, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("duration is empty")
	}

	if minutes, seconds, ok := strings.Cut(text, ":"); ok {
		m, err := strconv.Atoi(minutes)
		if err != nil || m < 0 {
			return 0, fmt.Errorf("duration %q: bad minutes part", text)
		}
		s, err := strconv.Atoi(seconds)
		if err != nil || s < 0 || s > 59 {
			return 0, fmt.Errorf("duration %q: bad seconds part", text)
		}
		return time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
	}

	s, err := strconv.Atoi(text)
	if err != nil || s < 0 {
		return 0, fmt.Errorf("duration %q: not m:ss or seconds", text)
	}
	return time.Duration(s) * time.Second, nil
}

// FormatDurationText renders a duration in the canonical "m:ss" form.
func FormatDurationText(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// DocumentFromIntervals serializes built intervals back into a document.
// Building the result yields intervals with identical (task, duration,
// intro, feature) tuples, warmup settings aside.
func DocumentFromIntervals(name string, intervals []Interval) *ScheduleDocument {
	doc := &ScheduleDocument{Name: name, Items: make([]Row, 0, len(intervals))}
	for _, iv := range intervals {
		row := Row{
			RowType:  RowTypeInterval,
			Duration: FormatDurationText(iv.Duration),
			Task:     iv.Task,
			Color:    iv.Color,
		}
		if iv.Feature != nil {
			row.CategoryName = iv.Feature.Category
			row.FeatureTypeName = iv.Feature.Type
			row.FeatureArgsList = iv.Feature.Args
		}
		doc.Items = append(doc.Items, row)
	}
	return doc
}
