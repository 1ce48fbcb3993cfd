// models/flight.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// RawFlightRecord is one element of the OpenSky /flights/{departure,arrival}
// response, kept untyped so that null, missing or oddly typed fields survive
// decoding and can be defaulted during normalization.
type RawFlightRecord map[string]interface{}

// Keys used by the OpenSky flights endpoints.
const (
	RawCallsign         = "callsign"
	RawDepartureAirport = "estDepartureAirport"
	RawArrivalAirport   = "estArrivalAirport"
	RawFirstSeen        = "firstSeen"
	RawLastSeen         = "lastSeen"
)

// FlightEvent is a normalized flight record. It is never mutated after creation.
type FlightEvent struct {
	AirlineCode      string    `json:"airline"`
	Callsign         string    `json:"callsign"`
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	DepartureTime    time.Time `json:"departure_time"` // from firstSeen
	ArrivalTime      time.Time `json:"arrival_time"`   // from lastSeen
}

// TimeField selects which timestamp of a FlightEvent an operation looks at.
type TimeField string

const (
	DepartureField TimeField = "departure"
	ArrivalField   TimeField = "arrival"
)

// ParseTimeField accepts "departure"/"arrival" (and the plural forms used for
// report kinds).
func ParseTimeField(s string) (TimeField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "departure", "departures":
		return DepartureField, nil
	case "arrival", "arrivals":
		return ArrivalField, nil
	}
	return "", fmt.Errorf("unknown time field %q", s)
}

// Valid reports whether f is one of the known fields.
func (f TimeField) Valid() bool {
	return f == DepartureField || f == ArrivalField
}

// Time returns the timestamp selected by field. Anything other than
// ArrivalField selects the departure time.
func (e FlightEvent) Time(field TimeField) time.Time {
	if field == ArrivalField {
		return e.ArrivalTime
	}
	return e.DepartureTime
}

// TimeWindow is a half-open interval [Start, End) with the number of events
// that fell into it.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`
	Label string    `json:"label"`
}

// AggregationResult holds contiguous windows, oldest first.
type AggregationResult struct {
	Windows []TimeWindow `json:"windows"`
}

// Total is the number of events counted across all windows.
func (r AggregationResult) Total() int {
	total := 0
	for _, w := range r.Windows {
		total += w.Count
	}
	return total
}

// Span returns the covered interval. Both values are zero for an empty result.
func (r AggregationResult) Span() (start, end time.Time) {
	if len(r.Windows) == 0 {
		return
	}
	return r.Windows[0].Start, r.Windows[len(r.Windows)-1].End
}

// MaxCount returns the largest window count.
func (r AggregationResult) MaxCount() int {
	max := 0
	for _, w := range r.Windows {
		if w.Count > max {
			max = w.Count
		}
	}
	return max
}
