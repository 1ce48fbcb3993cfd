// analysis/windows.go
package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gewnthar/flightbrief/models"
)

// ErrInvalidArgument is returned when a caller violates a precondition.
var ErrInvalidArgument = errors.New("invalid argument")

// WindowLabelLayout formats the start time of labeled windows.
const WindowLabelLayout = "15:04"

// WindowSpec describes a set of trailing windows ending at some "now".
type WindowSpec struct {
	Count      int           // number of windows, > 0
	Size       time.Duration // width of each window, > 0
	LabelEvery int           // label every n-th window counting back from now, > 0
}

// Span is the total duration the windows cover.
func (s WindowSpec) Span() time.Duration {
	return time.Duration(s.Count) * s.Size
}

func (s WindowSpec) validate() error {
	if s.Count <= 0 {
		return fmt.Errorf("%w: window count must be positive, got %d", ErrInvalidArgument, s.Count)
	}
	if s.Size <= 0 {
		return fmt.Errorf("%w: window size must be positive, got %s", ErrInvalidArgument, s.Size)
	}
	if s.LabelEvery <= 0 {
		return fmt.Errorf("%w: label interval must be positive, got %d", ErrInvalidArgument, s.LabelEvery)
	}
	if s.Size > time.Duration(math.MaxInt64)/time.Duration(s.Count) {
		return fmt.Errorf("%w: %d windows of %s overflow the time range", ErrInvalidArgument, s.Count, s.Size)
	}
	return nil
}

// Aggregate buckets events into w.Count trailing windows of w.Size, the
// last one ending at now. Window i covers
// [now-(Count-i)*Size, now-(Count-i-1)*Size); an event on a boundary belongs
// to the later window. Events outside the covered span are dropped.
func Aggregate(events []models.FlightEvent, field models.TimeField, now time.Time, w WindowSpec) (models.AggregationResult, error) {
	if err := w.validate(); err != nil {
		return models.AggregationResult{}, err
	}
	if !field.Valid() {
		return models.AggregationResult{}, fmt.Errorf("%w: unknown time field %q", ErrInvalidArgument, field)
	}

	start := now.Add(-w.Span())
	windows := make([]models.TimeWindow, w.Count)
	for i := range windows {
		ws := now.Add(-time.Duration(w.Count-i) * w.Size)
		windows[i] = models.TimeWindow{
			Start: ws,
			End:   now.Add(-time.Duration(w.Count-i-1) * w.Size),
		}
		if (w.Count-i)%w.LabelEvery == 0 {
			windows[i].Label = ws.In(now.Location()).Format(WindowLabelLayout)
		}
	}

	for _, ev := range events {
		t := ev.Time(field)
		if t.Before(start) || !t.Before(now) {
			continue
		}
		idx := int(t.Sub(start) / w.Size)
		if idx >= w.Count {
			idx = w.Count - 1
		}
		windows[idx].Count++
	}

	return models.AggregationResult{Windows: windows}, nil
}
