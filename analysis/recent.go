// analysis/recent.go
package analysis

import (
	"time"

	"github.com/gewnthar/flightbrief/models"
)

// FilterRecent keeps the events whose selected timestamp is at or after
// now-lookback, in their original order. Events later than now are kept.
func FilterRecent(events []models.FlightEvent, field models.TimeField, now time.Time, lookback time.Duration) []models.FlightEvent {
	cutoff := now.Add(-lookback)
	recent := make([]models.FlightEvent, 0, len(events))
	for _, ev := range events {
		if !ev.Time(field).Before(cutoff) {
			recent = append(recent, ev)
		}
	}
	return recent
}
