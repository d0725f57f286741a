package carbontracker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// OpenMetricsHandler implements the http.Handler interface
type OpenMetricsHandler struct {
	defaultTimeout time.Duration
	source         Source
	sourceName     string
	zones          []string
}

// NewOpenMetricsHandler create a new OpenMetricsHandler exposing the carbon data of zones
func NewOpenMetricsHandler(sourceName string, source Source, zones ...string) *OpenMetricsHandler {
	if len(zones) == 0 {
		zones = []string{DefaultZone}
	}
	return &OpenMetricsHandler{
		defaultTimeout: 10 * time.Second,
		source:         source,
		sourceName:     sourceName,
		zones:          zones,
	}
}

// ServeHTTP implements the http.Handler interface. It fetches carbon data of every
// configured zone and return them, formatted in the http response.
func (handler *OpenMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	carbons := make(chan CarbonData)
	metrics := make(chan *Metric)

	baseLabels := map[string]string{
		"source": handler.sourceName,
	}

	errg, errgctx := errgroup.WithContext(r.Context())
	errgctx, cancel := context.WithTimeout(errgctx, handler.defaultTimeout)
	defer cancel()

	errg.Go(func() error {
		defer close(carbons)
		for _, zone := range handler.zones {
			if !send(errgctx, carbons, FetchCarbonData(errgctx, handler.source, zone)) {
				return nil
			}
		}
		return nil
	})

	errg.Go(func() error {
		defer close(metrics)
		errCount := 0
		for data := range carbons {
			labels := MergeLabels(baseLabels, map[string]string{"zone": data.Zone})
			available := 1.0
			if !data.Available() {
				errCount++
				available = 0
			}

			send(errgctx, metrics, NewAvailabilityMetric(available).SetLabels(labels))
			send(errgctx, metrics, NewIntensityMetric(data.Intensity).SetLabels(labels))
			breakdown := NewPowerBreakdownMetric(0).SetLabels(labels)
			for _, powerSource := range data.Breakdown.Sources() {
				m := breakdown.Clone()
				send(errgctx, metrics, m.AddLabel("power_source", powerSource).SetValue(data.Breakdown[powerSource]))
			}
		}

		send(errgctx, metrics, &Metric{
			Name:   "collect_duration_ms",
			Labels: baseLabels,
			Value:  float64(time.Since(start).Milliseconds()),
		})

		send(errgctx, metrics, &Metric{
			Name:   "error_count",
			Labels: baseLabels,
			Value:  float64(errCount),
		})

		return nil
	})

	errg.Go(func() error {
		return writeMetrics(errgctx, w, metrics)
	})

	err := errg.Wait()
	if err != nil {
		slog.Error("failed to collect metrics", "err", err.Error())
		http.Error(w, err.Error(), 500)
		return
	}

	slog.Info("metrics have been successfully collected", "duration_ms", time.Since(start).Milliseconds())
}

// send v on ch unless ctx is done first. Returns false if v was not sent.
func send[T any](ctx context.Context, ch chan T, v T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- v:
		return true
	}
}

// writeMetrics write all metrics sent over the channel and write them on the writer.
// Metrics labels are sorted lexicographically before being written.
func writeMetrics(ctx context.Context, w io.Writer, metrics chan *Metric) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case metric, ok := <-metrics:
			if !ok {
				return nil
			}

			if metric == nil {
				slog.Warn("discarding nil metric")
				continue
			}
			if err := writeMetric(w, metric); err != nil {
				return fmt.Errorf("failed to write metric on writer: %w", err)
			}
		}
	}
}

var labelValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func writeMetric(w io.Writer, metric *Metric) error {
	metric = metric.SanitizeLabels()

	// sort labels in lexicographical order
	labels := make([]string, 0, len(metric.Labels))
	for labelName, labelValue := range metric.Labels {
		labels = append(labels, fmt.Sprintf(`%s="%s"`, labelName, labelValueEscaper.Replace(labelValue)))
	}
	slices.SortFunc(labels, strings.Compare)

	_, err := fmt.Fprintf(w, "%s{%s} %0.10f\n", metric.Name, strings.Join(labels, ","), metric.Value)
	if err != nil {
		return fmt.Errorf("writing metric %s failed: %w", metric.Name, err)
	}

	return nil
}

// Metric olds the name and value of a measurement in addition to its labels.
type Metric struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Clone returns a deep copy of a metric.
func (m Metric) Clone() Metric {
	copiedLabel := make(map[string]string, len(m.Labels))
	maps.Copy(copiedLabel, m.Labels)
	return Metric{
		Name:   m.Name,
		Value:  m.Value,
		Labels: copiedLabel,
	}
}

func (m *Metric) AddLabel(key, value string) *Metric {
	m.Labels = MergeLabels(
		m.Labels,
		map[string]string{
			key: value,
		},
	)
	return m
}

func (m *Metric) SetLabels(l map[string]string) *Metric {
	m.Labels = l
	return m
}

func (m *Metric) SetValue(v float64) *Metric {
	m.Value = v
	return m
}

func (m *Metric) SanitizeLabels() *Metric {
	newLabels := make(map[string]string)
	invalidChars := []string{".", "/", "-", ":", ";", " "}
	for label, value := range m.Labels {
		for _, char := range invalidChars {
			label = strings.ReplaceAll(label, char, "_")
		}
		newLabels[label] = value
	}
	m.Labels = newLabels
	return m
}

func NewIntensityMetric(value Intensity) *Metric {
	return &Metric{
		Name:  "carbon_intensity_gco2eq_kwh",
		Value: float64(value),
	}
}

func NewPowerBreakdownMetric(percent float64) *Metric {
	return &Metric{
		Name:  "power_breakdown_percent",
		Value: percent,
	}
}

func NewAvailabilityMetric(value float64) *Metric {
	return &Metric{
		Name:  "carbon_data_available",
		Value: value,
	}
}

// MergeLabels returns a new map with every non empty label. Last maps take precedence.
func MergeLabels(labels ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, l := range labels {
		for k, v := range l {
			if v == "" {
				continue
			}
			result[k] = v
		}
	}
	return result
}
