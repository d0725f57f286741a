package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	carbontracker "github.com/superdango/digital-carbon-tracker"
	"github.com/superdango/digital-carbon-tracker/internal/dashboard"
	"github.com/superdango/digital-carbon-tracker/internal/demo"
	"github.com/superdango/digital-carbon-tracker/internal/electricitymaps"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])

		flag.PrintDefaults()

		fmt.Fprint(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprint(os.Stderr, "  ELECTRICITYMAPS_TOKEN\n")
		fmt.Fprint(os.Stderr, "        electricity maps api auth token\n")
	}

	flagListen := ""
	flagLogLevel := ""
	flagLogFormat := ""
	flagDefaultZone := ""
	flagMetricsZones := ""
	flagAPIURL := ""
	flagAPITimeout := time.Duration(0)
	flagDemoEnabled := ""
	flagOnce := false
	flagOnceFormat := ""
	workloads := carbontracker.DefaultWorkloads()

	flag.StringVar(&flagListen, "listen", "0.0.0.0:2923", "addr to listen to")
	flag.StringVar(&flagLogLevel, "log.level", "info", "log severity (debug, info, warn, error)")
	flag.StringVar(&flagLogFormat, "log.format", "text", "log format (text, json)")
	flag.StringVar(&flagDefaultZone, "zone.default", carbontracker.DefaultZone, "zone used when no region is given")
	flag.StringVar(&flagMetricsZones, "metrics.zones", "", "comma separated zones exposed on /metrics (default to zone.default)")
	flag.StringVar(&flagAPIURL, "api.url", electricitymaps.DefaultBaseURL, "electricity maps api base url")
	flag.DurationVar(&flagAPITimeout, "api.timeout", electricitymaps.DefaultTimeout, "electricity maps request timeout")
	flag.StringVar(&flagDemoEnabled, "demo.enabled", "false", "return fictive demo data")
	flag.BoolVar(&flagOnce, "once", false, "print a single report on stdout and exit")
	flag.StringVar(&flagOnceFormat, "once.format", "text", "report format (text, json)")
	flag.StringVar(&workloads.Region, "region", "", "region code of the report (default to zone.default)")
	flag.Float64Var(&workloads.AIRuntimeHours, "ai.runtime", workloads.AIRuntimeHours, "ai training runtime in hours")
	flag.Float64Var(&workloads.Transactions, "blockchain.transactions", workloads.Transactions, "number of blockchain transactions")
	flag.Float64Var(&workloads.ServerPowerKW, "datacenter.power", workloads.ServerPowerKW, "data center server power in kW")
	flag.Float64Var(&workloads.DatacenterRuntimeHours, "datacenter.runtime", workloads.DatacenterRuntimeHours, "data center runtime in hours")

	flag.Parse()

	initLogging(os.Stderr, flagLogLevel, flagLogFormat)

	sourceName, source := setupSource(map[string]string{
		"demo.enabled": flagDemoEnabled,
		"api.url":      flagAPIURL,
		"api.token":    os.Getenv("ELECTRICITYMAPS_TOKEN"),
		"zone.default": flagDefaultZone,
	}, flagAPITimeout)

	if workloads.Region == "" {
		workloads.Region = flagDefaultZone
	}

	if flagOnce {
		if err := printReport(ctx, os.Stdout, source, workloads, flagOnceFormat); err != nil {
			slog.Error("failed to print report", "err", err)
			os.Exit(1)
		}
		return
	}

	defaults := carbontracker.DefaultWorkloads()
	defaults.Region = flagDefaultZone

	mux := http.NewServeMux()
	dashboard.New(source, dashboard.WithDefaults(defaults)).Register(mux)
	mux.Handle("GET /metrics", carbontracker.NewOpenMetricsHandler(sourceName, source, metricsZones(flagMetricsZones, flagDefaultZone)...))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:              flagListen,
		Handler:           dashboard.LogRequests(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shutdown digital carbon tracker", "err", err)
		}
	}()

	slog.Info("starting digital carbon tracker", "listen", flagListen, "source", sourceName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start digital carbon tracker", "err", err)
		os.Exit(1)
	}
}

func initLogging(w io.Writer, logLevel string, logFormat string) {
	switch logFormat {
	case "text":
		slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
			Level:   slogLevel(logLevel),
			NoColor: !isTerminal(w),
		})))
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slogLevel(logLevel),
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				switch a.Key {
				case slog.LevelKey:
					a.Key = "severity"
					return a
				case slog.MessageKey:
					a.Key = "message"
					return a
				default:
					return a
				}
			},
		})))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func setupSource(params map[string]string, timeout time.Duration) (string, carbontracker.Source) {
	if params["demo.enabled"] == "true" {
		return "demo", demo.NewSource()
	}

	if params["api.token"] == "" {
		slog.Error("electricity maps token is not set, use ELECTRICITYMAPS_TOKEN or -demo.enabled=true")
		flag.Usage()
		os.Exit(1)
	}

	client, err := electricitymaps.NewClient(
		electricitymaps.WithToken(params["api.token"]),
		electricitymaps.WithBaseURL(params["api.url"]),
		electricitymaps.WithTimeout(timeout),
		electricitymaps.WithDefaultZone(params["zone.default"]),
	)
	if err != nil {
		slog.Error("failed to create electricity maps client", "err", err)
		os.Exit(1)
	}

	return "electricitymaps", client
}

func metricsZones(flagValue string, defaultZone string) []string {
	zones := make([]string, 0)
	for _, zone := range strings.Split(flagValue, ",") {
		if zone = strings.TrimSpace(zone); zone != "" {
			zones = append(zones, zone)
		}
	}
	if len(zones) == 0 {
		zones = append(zones, defaultZone)
	}
	return zones
}

func printReport(ctx context.Context, w io.Writer, source carbontracker.Source, workloads carbontracker.Workloads, format string) error {
	if err := workloads.Validate(carbontracker.DefaultBounds); err != nil {
		return err
	}

	report := carbontracker.Calculate(ctx, source, workloads)

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(dashboard.NewEmissionsResponse(report))
	case "text":
		if !report.Carbon.Available() {
			fmt.Fprintf(w, "Error fetching data: %s\n", report.Carbon.Err)
		}
		fmt.Fprintf(w, "Carbon Intensity in %s: %g gCO2/kWh\n", report.Carbon.Zone, report.Carbon.Intensity)
		for _, powerSource := range report.Carbon.Breakdown.Sources() {
			fmt.Fprintf(w, "- %s: %g%%\n", powerSource, report.Carbon.Breakdown[powerSource])
		}
		fmt.Fprintf(w, "Estimated Emissions for AI Training: %.2f kg CO2\n", report.AI)
		fmt.Fprintf(w, "Estimated Emissions for Blockchain Transactions: %.2f kg CO2\n", report.Blockchain)
		fmt.Fprintf(w, "Estimated Emissions for Data Center Operations: %.2f kg CO2\n", report.Datacenter)
		fmt.Fprintf(w, "Total Emissions: %.2f kg CO2\n", report.Total)
		fmt.Fprintf(w, "Compensation: plant approximately %.2f trees per month\n", report.Trees)
		fmt.Fprintf(w, "Take Action: %s\n", report.DonationURL)
		return nil
	}

	return fmt.Errorf("unsupported report format: %s", format)
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}
