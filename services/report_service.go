// services/report_service.go
package services

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gewnthar/flightbrief/analysis"
	"github.com/gewnthar/flightbrief/chart"
	"github.com/gewnthar/flightbrief/config"
	"github.com/gewnthar/flightbrief/models"
	"github.com/gewnthar/flightbrief/utils"
)

const (
	entryTimeLayout = "15:04"
	sentAtLayout    = "Jan 02, 2006 - 15:04"
)

// ReportOptions are the knobs BuildReport needs from the configuration.
type ReportOptions struct {
	Airport  string
	Lookback time.Duration
	Windows  analysis.WindowSpec
	Location *time.Location
}

// ReportOptionsFromConfig extracts the report settings.
func ReportOptionsFromConfig(cfg *config.Config) ReportOptions {
	return ReportOptions{
		Airport:  cfg.Airport,
		Lookback: cfg.Report.Lookback,
		Windows: analysis.WindowSpec{
			Count:      cfg.Report.WindowCount,
			Size:       cfg.Report.WindowSize,
			LabelEvery: cfg.Report.LabelEvery,
		},
		Location: cfg.Location,
	}
}

// FetchSpan is how far back the provider must be queried to feed both the
// detail list and the histogram.
func (o ReportOptions) FetchSpan() time.Duration {
	if span := o.Windows.Span(); span > o.Lookback {
		return span
	}
	return o.Lookback
}

// BuildReport runs the recent filter, the window aggregation and the busiest
// hour statistic over one snapshot of normalized events.
func BuildReport(runID string, kind models.ReportKind, events []models.FlightEvent, now time.Time, opts ReportOptions) (*models.Report, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	field := kind.Field()

	windows, err := analysis.Aggregate(events, field, now, opts.Windows)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", kind, err)
	}

	recent := analysis.FilterRecent(events, field, now, opts.Lookback)
	entries := make([]models.FlightEntry, 0, len(recent))
	for _, ev := range recent {
		entries = append(entries, models.FlightEntry{
			Airline:          ev.AirlineCode,
			Callsign:         ev.Callsign,
			DepartureAirport: ev.DepartureAirport,
			ArrivalAirport:   ev.ArrivalAirport,
			DepartureTime:    ev.DepartureTime.In(loc).Format(entryTimeLayout),
			ArrivalTime:      ev.ArrivalTime.In(loc).Format(entryTimeLayout),
			Seen:             humanize.RelTime(ev.Time(field), now, "ago", "from now"),
		})
	}

	return &models.Report{
		RunID:       runID,
		Kind:        kind,
		Airport:     opts.Airport,
		GeneratedAt: now,
		Lookback:    opts.Lookback,
		TotalCount:  len(events),
		Recent:      entries,
		BusiestHour: analysis.BusiestHour(events, field),
		Windows:     windows,
	}, nil
}

// ReportTitle is used as the chart title and the email subject prefix.
func ReportTitle(r *models.Report) string {
	return fmt.Sprintf("%s %s", r.Airport, r.Kind)
}

// Summary is the one-line text of the push notification.
func Summary(r *models.Report) string {
	return fmt.Sprintf("%d %s at %s in the last %s, busiest hour %s",
		r.RecentCount(), r.Kind, utils.NormalizeAirportCode(r.Airport), lookbackText(r.Lookback), r.BusiestHour)
}

// lookbackText renders 2h as "2 hours" and 90m as "1h30m".
func lookbackText(d time.Duration) string {
	if d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// TemplateData is the dynamic template payload. Keys match the existing
// SendGrid templates: dep_count/departures or arr_count/arrivals.
func TemplateData(r *models.Report, firstName string, withChart bool) map[string]interface{} {
	countKey, listKey := "dep_count", "departures"
	if r.Kind == models.ArrivalsReport {
		countKey, listKey = "arr_count", "arrivals"
	}
	data := map[string]interface{}{
		"first_name":    firstName,
		"email_sent_at": r.GeneratedAt.Format(sentAtLayout),
		countKey:        r.RecentCount(),
		listKey:         r.Recent,
		"airport":       r.Airport,
		"busiest_hour":  r.BusiestHour,
		"total_count":   r.TotalCount,
		"run_id":        r.RunID,
	}
	if withChart {
		data["chart_cid"] = "cid:" + chart.ContentID
	}
	return data
}

// PushData is the substitution data of the push template.
func PushData(r *models.Report) map[string]interface{} {
	return map[string]interface{}{
		"airport":      utils.NormalizeAirportCode(r.Airport),
		"kind":         string(r.Kind),
		"count":        r.RecentCount(),
		"busiest_hour": r.BusiestHour,
		"summary":      Summary(r),
	}
}
