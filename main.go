// main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gewnthar/flightbrief/config"
	"github.com/gewnthar/flightbrief/handlers"
	"github.com/gewnthar/flightbrief/metrics"
	"github.com/gewnthar/flightbrief/models"
	"github.com/gewnthar/flightbrief/notify"
	"github.com/gewnthar/flightbrief/opensky"
	"github.com/gewnthar/flightbrief/services"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	kindFlag := flag.String("kind", "departures", "report to send: departures, arrivals or all")
	dryRun := flag.Bool("dry-run", false, "build the report and log the payloads without sending")
	serve := flag.Bool("serve", false, "serve report previews over HTTP instead of sending")
	flag.Parse()

	log.Println("Starting flightbrief...")

	if *configPath == "" {
		if _, err := os.Stat("config/config.yaml"); err == nil {
			*configPath = "config/config.yaml"
		}
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if err := cfg.Validate(!*serve && !*dryRun); err != nil {
		log.Fatalf("Error: %v", err)
	}
	cfg.LogSummary()

	kinds, err := parseKinds(*kindFlag)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := opensky.NewClient(ctx, cfg.OpenSky)
	recorder := metrics.NewRecorder()

	if *serve {
		runner := services.NewRunner(cfg, source, nil, nil, recorder)
		serveHTTP(ctx, cfg, runner, recorder)
		return
	}

	email := notify.NewEmailSender(cfg.Email)
	push := notify.NewPushSender(cfg.Push)
	runner := services.NewRunner(cfg, source, email, push, recorder)
	runner.DryRun = *dryRun

	failed := false
	for _, kind := range kinds {
		summary, err := runner.Run(ctx, kind)
		if err != nil {
			log.Printf("ERROR: %s run aborted: %v", kind, err)
			failed = true
			continue
		}
		if !summary.Succeeded() {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func parseKinds(s string) ([]models.ReportKind, error) {
	switch s {
	case "departures":
		return []models.ReportKind{models.DeparturesReport}, nil
	case "arrivals":
		return []models.ReportKind{models.ArrivalsReport}, nil
	case "all":
		return []models.ReportKind{models.DeparturesReport, models.ArrivalsReport}, nil
	}
	return nil, errors.New("-kind must be departures, arrivals or all")
}

func serveHTTP(ctx context.Context, cfg *config.Config, runner *services.Runner, recorder *metrics.Recorder) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", handlers.HealthHandler)
	mux.Handle("/api/report/", handlers.NewReportHandler(runner))
	mux.Handle("/metrics", promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{}))

	serverAddr := ":" + cfg.Server.Port
	srv := &http.Server{Addr: serverAddr, Handler: mux}
	go func() {
		if err := shutdownOnDone(ctx, srv); err != nil {
			log.Printf("WARN: Preview server shutdown: %v\n", err)
		}
	}()

	log.Printf("Preview server starting on http://localhost%s\n", serverAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Error starting server: %v", err)
	}
}

// shutdownOnDone blocks until ctx is cancelled, then stops srv gracefully.
func shutdownOnDone(ctx context.Context, srv *http.Server) error {
	<-ctx.Done()
	return srv.Shutdown(context.Background())
}
