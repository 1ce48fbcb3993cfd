// models/report.go
package models

import "time"

// ReportKind is the notification type a run produces.
type ReportKind string

const (
	DeparturesReport ReportKind = "departures"
	ArrivalsReport   ReportKind = "arrivals"
)

// Field is the timestamp a report of this kind aggregates on.
func (k ReportKind) Field() TimeField {
	if k == ArrivalsReport {
		return ArrivalField
	}
	return DepartureField
}

// FlightEntry is the display form of a FlightEvent handed to the email
// template. Field names match the template variables.
type FlightEntry struct {
	Airline          string `json:"airline" csv:"airline"`
	Callsign         string `json:"callsign" csv:"callsign"`
	DepartureAirport string `json:"departure_airport" csv:"departure_airport"`
	ArrivalAirport   string `json:"arrival_airport" csv:"arrival_airport"`
	DepartureTime    string `json:"departure_time" csv:"departure_time"`
	ArrivalTime      string `json:"arrival_time" csv:"arrival_time"`
	Seen             string `json:"seen" csv:"seen"`
}

// Report is everything one notification run computes before delivery.
type Report struct {
	RunID       string            `json:"run_id"`
	Kind        ReportKind        `json:"kind"`
	Airport     string            `json:"airport"`
	GeneratedAt time.Time         `json:"generated_at"`
	Lookback    time.Duration     `json:"lookback"`
	TotalCount  int               `json:"total_count"` // all normalized events in the fetch
	Recent      []FlightEntry     `json:"recent"`
	BusiestHour string            `json:"busiest_hour"`
	Windows     AggregationResult `json:"histogram"`
}

// RecentCount is the number of flights in the detail list.
func (r *Report) RecentCount() int {
	return len(r.Recent)
}
