package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/flightbrief/analysis"
	"github.com/gewnthar/flightbrief/config"
	"github.com/gewnthar/flightbrief/metrics"
	"github.com/gewnthar/flightbrief/models"
	"github.com/gewnthar/flightbrief/notify"
)

var testNow = time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Location = time.UTC
	cfg.Report.Lookback = 2 * time.Hour
	cfg.Report.WindowSize = 10 * time.Minute
	cfg.Email.FirstName = "Artem"
	cfg.Email.To = "ops@example.com"
	cfg.Email.DeparturesTemplateID = "d-dep"
	return &cfg
}

func raw(callsign string, firstSeenAgo, lastSeenAgo time.Duration) models.RawFlightRecord {
	return models.RawFlightRecord{
		"callsign":            callsign,
		"estDepartureAirport": "KLAX",
		"estArrivalAirport":   "KSFO",
		"firstSeen":           float64(testNow.Add(-firstSeenAgo).Unix()),
		"lastSeen":            float64(testNow.Add(-lastSeenAgo).Unix()),
	}
}

type fakeSource struct {
	records    []models.RawFlightRecord
	err        error
	begin, end time.Time
	kind       models.ReportKind
	airport    string
}

func (f *fakeSource) FetchFlights(_ context.Context, kind models.ReportKind, airport string, begin, end time.Time) ([]models.RawFlightRecord, error) {
	f.kind, f.airport, f.begin, f.end = kind, airport, begin, end
	return f.records, f.err
}

type fakeEmail struct {
	sent   []notify.Email
	result notify.Result
}

func (f *fakeEmail) Send(_ context.Context, msg notify.Email) notify.Result {
	f.sent = append(f.sent, msg)
	return f.result
}

type fakePush struct {
	sent   []notify.Push
	result notify.Result
}

func (f *fakePush) Send(_ context.Context, msg notify.Push) notify.Result {
	f.sent = append(f.sent, msg)
	return f.result
}

func newTestRunner(src FlightSource, email EmailDelivery, push PushDelivery) *Runner {
	r := NewRunner(testConfig(), src, email, push, metrics.NewRecorder())
	r.Now = func() time.Time { return testNow }
	return r
}

// ---------------------------------------------------------------------------
// Report
// ---------------------------------------------------------------------------

func TestBuildReport(t *testing.T) {
	events := analysis.NormalizeAll([]models.RawFlightRecord{
		raw("  UAL123 ", 10*time.Minute, -time.Hour),
		raw("DAL9", 3*time.Hour, time.Hour),
		raw("SWA77", 25*time.Minute, -30*time.Minute),
	}, time.UTC)

	report, err := BuildReport("run-1", models.DeparturesReport, events, testNow, ReportOptionsFromConfig(testConfig()))
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalCount)
	require.Len(t, report.Recent, 2)
	assert.Equal(t, models.FlightEntry{
		Airline:          "UAL",
		Callsign:         "UAL123",
		DepartureAirport: "KLAX",
		ArrivalAirport:   "KSFO",
		DepartureTime:    "17:50",
		ArrivalTime:      "19:00",
		Seen:             "10 minutes ago",
	}, report.Recent[0])
	assert.Equal(t, "SWA", report.Recent[1].Airline)
	assert.Equal(t, "05 PM", report.BusiestHour)
	require.Len(t, report.Windows.Windows, 12)
	assert.Equal(t, 2, report.Windows.Total())
}

func TestBuildReportArrivalsUsesLastSeen(t *testing.T) {
	events := analysis.NormalizeAll([]models.RawFlightRecord{
		raw("AAL1", 5*time.Hour, 30*time.Minute),
		raw("AAL2", time.Hour, -time.Minute),
	}, time.UTC)

	report, err := BuildReport("run-2", models.ArrivalsReport, events, testNow, ReportOptionsFromConfig(testConfig()))
	require.NoError(t, err)
	require.Len(t, report.Recent, 2)
	assert.Equal(t, 1, report.Windows.Total(), "a landing after now is listed but not charted")
}

func TestBuildReportInvalidWindows(t *testing.T) {
	opts := ReportOptionsFromConfig(testConfig())
	opts.Windows.Count = 0
	_, err := BuildReport("run-3", models.DeparturesReport, nil, testNow, opts)
	assert.True(t, errors.Is(err, analysis.ErrInvalidArgument))
}

func TestTemplateDataKeys(t *testing.T) {
	report := &models.Report{
		Kind:        models.ArrivalsReport,
		Airport:     "KLAX",
		GeneratedAt: testNow,
		Recent:      []models.FlightEntry{{Airline: "UAL"}},
		BusiestHour: "05 PM",
	}

	data := TemplateData(report, "Artem", true)
	assert.Equal(t, "Artem", data["first_name"])
	assert.Equal(t, "Oct 15, 2026 - 18:00", data["email_sent_at"])
	assert.Equal(t, 1, data["arr_count"])
	assert.Equal(t, report.Recent, data["arrivals"])
	assert.Equal(t, "cid:flight_chart", data["chart_cid"])
	assert.NotContains(t, data, "dep_count")

	report.Kind = models.DeparturesReport
	data = TemplateData(report, "Artem", false)
	assert.Equal(t, 1, data["dep_count"])
	assert.NotContains(t, data, "chart_cid")
}

func TestSummary(t *testing.T) {
	report := &models.Report{
		Kind:        models.DeparturesReport,
		Airport:     "KLAX",
		Lookback:    2 * time.Hour,
		Recent:      make([]models.FlightEntry, 12),
		BusiestHour: "03 PM",
	}
	assert.Equal(t, "12 departures at LAX in the last 2 hours, busiest hour 03 PM", Summary(report))
	assert.Equal(t, "LAX", PushData(report)["airport"])
}

func TestRenderFallbackEmail(t *testing.T) {
	report := &models.Report{
		Kind:        models.DeparturesReport,
		Airport:     "KLAX",
		GeneratedAt: testNow,
		Lookback:    time.Hour,
		Recent:      []models.FlightEntry{{Airline: "UAL", Callsign: "UAL1", DepartureAirport: "KLAX", ArrivalAirport: "<b>X</b>"}},
		BusiestHour: "05 PM",
	}

	html, text, err := RenderFallbackEmail(report, "Artem", true)
	require.NoError(t, err)
	assert.Contains(t, html, `src="cid:flight_chart"`)
	assert.Contains(t, html, "&lt;b&gt;X&lt;/b&gt;")
	assert.Contains(t, text, "Hi Artem,")
	assert.Contains(t, text, "1 departures in the last hour")
	assert.Contains(t, text, "UAL | UAL1 | KLAX | <b>X</b>")
	assert.False(t, strings.Contains(text, "<table>"))
}

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

func TestRunDeliversBothChannels(t *testing.T) {
	src := &fakeSource{records: []models.RawFlightRecord{
		raw("UAL1", 5*time.Minute, -time.Hour),
		raw("UAL2", 50*time.Minute, -time.Hour),
	}}
	email := &fakeEmail{result: notify.Result{Channel: notify.ChannelEmail, OK: true, StatusCode: 202}}
	push := &fakePush{result: notify.Result{Channel: notify.ChannelPush, OK: true, StatusCode: 200}}

	summary, err := newTestRunner(src, email, push).Run(context.Background(), models.DeparturesReport)
	require.NoError(t, err)

	assert.Equal(t, models.DeparturesReport, src.kind)
	assert.Equal(t, "KLAX", src.airport)
	assert.Equal(t, testNow.Add(-2*time.Hour), src.begin)
	assert.Equal(t, testNow, src.end)

	require.Len(t, email.sent, 1)
	msg := email.sent[0]
	assert.Equal(t, "d-dep", msg.TemplateID)
	assert.Equal(t, 2, msg.TemplateData["dep_count"])
	assert.Equal(t, summary.RunID, msg.RunID)
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "flight_chart", msg.Attachments[0].ContentID)
	assert.Equal(t, "text/csv", msg.Attachments[1].Type)

	require.Len(t, push.sent, 1)
	assert.Equal(t, 2, push.sent[0].Data["count"])
	assert.Equal(t, summary.RunID, push.sent[0].RunID)

	assert.True(t, summary.Succeeded())
	assert.NotNil(t, summary.Chart)
}

func TestRunContinuesAfterEmailFailure(t *testing.T) {
	src := &fakeSource{records: []models.RawFlightRecord{raw("UAL1", time.Minute, 0)}}
	email := &fakeEmail{result: notify.Result{Channel: notify.ChannelEmail, StatusCode: 401, Message: "bad key"}}
	push := &fakePush{result: notify.Result{Channel: notify.ChannelPush, OK: true}}

	summary, err := newTestRunner(src, email, push).Run(context.Background(), models.DeparturesReport)
	require.NoError(t, err)
	assert.Len(t, push.sent, 1)
	require.Len(t, summary.Results, 2)
	assert.False(t, summary.Results[0].OK)
	assert.True(t, summary.Results[1].OK)
	assert.False(t, summary.Succeeded())
}

func TestRunFetchFailureAborts(t *testing.T) {
	src := &fakeSource{err: errors.New("auth failed")}
	email := &fakeEmail{}
	push := &fakePush{}

	_, err := newTestRunner(src, email, push).Run(context.Background(), models.ArrivalsReport)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth failed")
	assert.Empty(t, email.sent)
	assert.Empty(t, push.sent)
}

func TestRunDryRun(t *testing.T) {
	src := &fakeSource{records: []models.RawFlightRecord{raw("UAL1", time.Minute, 0)}}
	email := &fakeEmail{}
	push := &fakePush{}
	r := newTestRunner(src, email, push)
	r.DryRun = true

	summary, err := r.Run(context.Background(), models.DeparturesReport)
	require.NoError(t, err)
	assert.Empty(t, email.sent)
	assert.Empty(t, push.sent)
	for _, res := range summary.Results {
		assert.True(t, res.Skipped)
	}
	assert.True(t, summary.Succeeded())
}

func TestRunWithoutTemplateSendsFallback(t *testing.T) {
	src := &fakeSource{records: []models.RawFlightRecord{raw("UAL1", time.Minute, 0)}}
	email := &fakeEmail{result: notify.Result{Channel: notify.ChannelEmail, OK: true}}

	_, err := newTestRunner(src, email, nil).Run(context.Background(), models.ArrivalsReport)
	require.NoError(t, err)
	require.Len(t, email.sent, 1)
	msg := email.sent[0]
	assert.Empty(t, msg.TemplateID)
	assert.Equal(t, "KLAX arrivals - Oct 15, 2026 - 18:00", msg.Subject)
	assert.Contains(t, msg.HTML, "<table>")
	assert.NotEmpty(t, msg.Text)
}

func TestRunNilPushIsSkipped(t *testing.T) {
	src := &fakeSource{}
	email := &fakeEmail{result: notify.Result{Channel: notify.ChannelEmail, OK: true}}

	summary, err := newTestRunner(src, email, nil).Run(context.Background(), models.DeparturesReport)
	require.NoError(t, err)
	require.Len(t, summary.Results, 2)
	assert.True(t, summary.Results[1].Skipped)
	assert.Equal(t, "N/A", summary.Report.BusiestHour)
}
