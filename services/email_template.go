// services/email_template.go
package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/gewnthar/flightbrief/chart"
	"github.com/gewnthar/flightbrief/export"
	"github.com/gewnthar/flightbrief/models"
)

// fallbackTemplate is used when no SendGrid template is configured for a
// report kind.
var fallbackTemplate = template.Must(template.New("report").Parse(`<html><body>
<h1>{{.Title}}</h1>
<p>Hi {{.FirstName}},<br>{{.Count}} {{.Kind}} in the last {{.Lookback}} (sent {{.SentAt}}).<br>Busiest hour: {{.BusiestHour}}</p>
{{if .WithChart}}<p><img src="cid:{{.ChartCID}}" alt="{{.Title}} histogram"></p>{{end}}
<table>
<tr><th>Airline</th><th>Callsign</th><th>From</th><th>To</th><th>Departed</th><th>Arrived</th><th>Seen</th></tr>
{{range .Flights}}<tr><td>{{.Airline}}</td><td>{{.Callsign}}</td><td>{{.DepartureAirport}}</td><td>{{.ArrivalAirport}}</td><td>{{.DepartureTime}}</td><td>{{.ArrivalTime}}</td><td>{{.Seen}}</td></tr>
{{end}}</table>
</body></html>`))

type fallbackView struct {
	Title       string
	FirstName   string
	Count       int
	Kind        models.ReportKind
	Lookback    string
	SentAt      string
	BusiestHour string
	WithChart   bool
	ChartCID    string
	Flights     []models.FlightEntry
}

// RenderFallbackEmail renders the HTML body and derives its plain-text part.
func RenderFallbackEmail(r *models.Report, firstName string, withChart bool) (html, text string, err error) {
	var buf bytes.Buffer
	err = fallbackTemplate.Execute(&buf, fallbackView{
		Title:       ReportTitle(r),
		FirstName:   firstName,
		Count:       r.RecentCount(),
		Kind:        r.Kind,
		Lookback:    lookbackText(r.Lookback),
		SentAt:      r.GeneratedAt.Format(sentAtLayout),
		BusiestHour: r.BusiestHour,
		WithChart:   withChart,
		ChartCID:    chart.ContentID,
		Flights:     r.Recent,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render fallback email: %w", err)
	}
	html = buf.String()
	return html, export.HTMLToPlainText(html), nil
}

// Subject is the email subject line for templates that do not set their own.
func Subject(r *models.Report) string {
	return fmt.Sprintf("%s - %s", ReportTitle(r), r.GeneratedAt.Format(sentAtLayout))
}
