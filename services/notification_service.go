// services/notification_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gewnthar/flightbrief/analysis"
	"github.com/gewnthar/flightbrief/chart"
	"github.com/gewnthar/flightbrief/config"
	"github.com/gewnthar/flightbrief/export"
	"github.com/gewnthar/flightbrief/metrics"
	"github.com/gewnthar/flightbrief/models"
	"github.com/gewnthar/flightbrief/notify"
)

// FlightSource returns raw provider records for an airport and interval.
type FlightSource interface {
	FetchFlights(ctx context.Context, kind models.ReportKind, airport string, begin, end time.Time) ([]models.RawFlightRecord, error)
}

// EmailDelivery sends one email and reports the outcome.
type EmailDelivery interface {
	Send(ctx context.Context, msg notify.Email) notify.Result
}

// PushDelivery sends one push notification and reports the outcome.
type PushDelivery interface {
	Send(ctx context.Context, msg notify.Push) notify.Result
}

// RunSummary is what one run produced.
type RunSummary struct {
	RunID   string
	Report  *models.Report
	Chart   []byte // nil when rendering failed
	Results []notify.Result
}

// Succeeded reports whether every attempted channel delivered.
func (s *RunSummary) Succeeded() bool {
	for _, r := range s.Results {
		if !r.OK && !r.Skipped {
			return false
		}
	}
	return true
}

// Runner wires the fetch, the analysis and the deliveries of one
// notification run.
type Runner struct {
	cfg     *config.Config
	source  FlightSource
	email   EmailDelivery
	push    PushDelivery
	metrics *metrics.Recorder

	// DryRun builds everything but sends nothing.
	DryRun bool
	// Now is the clock; tests pin it.
	Now func() time.Time
}

// NewRunner builds a runner. email, push and rec may be nil; a nil channel is
// reported as skipped.
func NewRunner(cfg *config.Config, source FlightSource, email EmailDelivery, push PushDelivery, rec *metrics.Recorder) *Runner {
	return &Runner{
		cfg:     cfg,
		source:  source,
		email:   email,
		push:    push,
		metrics: rec,
		Now:     time.Now,
	}
}

// Prepare fetches one snapshot and computes the report and chart for kind.
// Nothing is sent.
func (r *Runner) Prepare(ctx context.Context, kind models.ReportKind) (*RunSummary, error) {
	runID := uuid.NewString()
	opts := ReportOptionsFromConfig(r.cfg)
	now := r.Now()

	raws, err := r.source.FetchFlights(ctx, kind, opts.Airport, now.Add(-opts.FetchSpan()), now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s for %s: %w", kind, opts.Airport, err)
	}
	events := analysis.NormalizeAll(raws, opts.Location)

	report, err := BuildReport(runID, kind, events, now, opts)
	if err != nil {
		return nil, err
	}
	log.Printf("Service [%s]: %d %s fetched, %d in the last %s, %d in histogram, busiest hour %s\n",
		runID, report.TotalCount, kind, report.RecentCount(), opts.Lookback, report.Windows.Total(), report.BusiestHour)

	summary := &RunSummary{RunID: runID, Report: report}
	png, err := chart.RenderHistogram(ReportTitle(report), report.Windows)
	if err != nil {
		log.Printf("WARN Service [%s]: Chart rendering failed, email goes out without it: %v\n", runID, err)
	} else {
		summary.Chart = png
	}

	if r.metrics != nil {
		r.metrics.ObserveCounts(report.TotalCount, report.RecentCount(), report.Windows.Total())
	}
	return summary, nil
}

// Run performs a full notification run: prepare, then email, then push. A
// failed channel is logged and the next one is still attempted. Only a
// failed fetch or an invalid configuration returns an error.
func (r *Runner) Run(ctx context.Context, kind models.ReportKind) (*RunSummary, error) {
	started := r.Now()
	summary, err := r.Prepare(ctx, kind)
	if err != nil {
		return nil, err
	}

	emailResult := r.sendEmail(ctx, summary)
	summary.Results = append(summary.Results, emailResult)
	pushResult := r.sendPush(ctx, summary)
	summary.Results = append(summary.Results, pushResult)

	for _, res := range summary.Results {
		log.Printf("Service [%s]: %s\n", summary.RunID, res)
		if r.metrics != nil && !res.Skipped {
			r.metrics.ObserveDelivery(res)
		}
	}

	if r.metrics != nil {
		r.metrics.ObserveRun(started, r.Now())
		if url := r.cfg.Metrics.PushgatewayURL; url != "" && !r.DryRun {
			if err := r.metrics.Push(url, r.cfg.Metrics.Job, r.cfg.Airport, string(kind)); err != nil {
				log.Printf("WARN Service [%s]: %v\n", summary.RunID, err)
			}
		}
	}
	return summary, nil
}

// BuildEmail assembles the email for a prepared run.
func (r *Runner) BuildEmail(summary *RunSummary) (notify.Email, error) {
	report := summary.Report
	withChart := summary.Chart != nil
	msg := notify.Email{
		RunID:      summary.RunID,
		TemplateID: r.cfg.TemplateFor(string(report.Kind)),
	}

	if msg.TemplateID != "" {
		msg.TemplateData = TemplateData(report, r.cfg.Email.FirstName, withChart)
	} else {
		html, text, err := RenderFallbackEmail(report, r.cfg.Email.FirstName, withChart)
		if err != nil {
			return msg, err
		}
		msg.Subject, msg.HTML, msg.Text = Subject(report), html, text
	}

	if withChart {
		msg.Attachments = append(msg.Attachments, notify.Attachment{
			Filename:  "flight_chart.png",
			Type:      "image/png",
			Content:   summary.Chart,
			ContentID: chart.ContentID,
		})
	}
	csvData, err := export.FlightsCSV(report.Recent)
	if err != nil {
		log.Printf("WARN Service [%s]: CSV export failed, sending without it: %v\n", summary.RunID, err)
	} else {
		msg.Attachments = append(msg.Attachments, notify.Attachment{
			Filename: fmt.Sprintf("%s_%s.csv", report.Airport, report.Kind),
			Type:     "text/csv",
			Content:  csvData,
		})
	}
	return msg, nil
}

func (r *Runner) sendEmail(ctx context.Context, summary *RunSummary) notify.Result {
	if r.email == nil {
		return notify.Skipped(notify.ChannelEmail, "no email sender configured")
	}
	msg, err := r.BuildEmail(summary)
	if err != nil {
		return notify.Result{Channel: notify.ChannelEmail, Message: err.Error()}
	}
	if r.DryRun {
		log.Printf("Service [%s]: Dry run, email to %s not sent (template %q, %d attachments)\n",
			summary.RunID, r.cfg.Email.To, msg.TemplateID, len(msg.Attachments))
		return notify.Skipped(notify.ChannelEmail, "dry run")
	}
	return r.email.Send(ctx, msg)
}

func (r *Runner) sendPush(ctx context.Context, summary *RunSummary) notify.Result {
	if r.push == nil {
		return notify.Skipped(notify.ChannelPush, "no push sender configured")
	}
	msg := notify.Push{RunID: summary.RunID, Data: PushData(summary.Report)}
	if r.DryRun {
		log.Printf("Service [%s]: Dry run, push not sent: %s\n", summary.RunID, Summary(summary.Report))
		return notify.Skipped(notify.ChannelPush, "dry run")
	}
	return r.push.Send(ctx, msg)
}
