// analysis/busiest.go
package analysis

import (
	"github.com/gewnthar/flightbrief/models"
)

// NoBusiestHour is returned by BusiestHour for an empty input.
const NoBusiestHour = "N/A"

// HourLabelLayout is the hour-of-day bucket label, e.g. "03 PM".
const HourLabelLayout = "03 PM"

// HourCount is one hour-of-day bucket.
type HourCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// HourCounts groups events by hour of day of the selected timestamp. Buckets
// are returned in the order their label first appears in events.
func HourCounts(events []models.FlightEvent, field models.TimeField) []HourCount {
	index := make(map[string]int)
	var counts []HourCount
	for _, ev := range events {
		label := ev.Time(field).Format(HourLabelLayout)
		i, ok := index[label]
		if !ok {
			i = len(counts)
			index[label] = i
			counts = append(counts, HourCount{Label: label})
		}
		counts[i].Count++
	}
	return counts
}

// BusiestHour returns the hour-of-day label with the highest count. Ties go
// to the label seen first in events, so the result depends on input order.
func BusiestHour(events []models.FlightEvent, field models.TimeField) string {
	best := NoBusiestHour
	bestCount := 0
	for _, hc := range HourCounts(events, field) {
		if hc.Count > bestCount {
			best, bestCount = hc.Label, hc.Count
		}
	}
	return best
}
