package carbontracker

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabels(t *testing.T) {
	m := Metric{
		Name: "foo",
		Labels: map[string]string{
			"power-source":     "hydro",
			"zone:code":        "FR",
			"hydro discharge":  "",
			"source.name/demo": "demo",
		},
		Value: 1.0,
	}

	assert.Equal(t, map[string]string{
		"power_source":     "hydro",
		"zone_code":        "FR",
		"hydro_discharge":  "",
		"source_name_demo": "demo",
	}, m.SanitizeLabels().Labels)
}

func TestWriteMetric(t *testing.T) {
	buf := new(bytes.Buffer)
	err := writeMetric(buf, &Metric{
		Name:   "carbon_intensity_gco2eq_kwh",
		Labels: map[string]string{"zone": "FR", "source": `elec"maps`},
		Value:  51.5,
	})
	assert.NoError(t, err)
	assert.Equal(t, `carbon_intensity_gco2eq_kwh{source="elec\"maps",zone="FR"} 51.5000000000`+"\n", buf.String())
}

func TestMetricClone(t *testing.T) {
	base := NewPowerBreakdownMetric(0).SetLabels(map[string]string{"zone": "FR"})

	m := base.Clone()
	m.AddLabel("power_source", "nuclear").SetValue(71.5)

	assert.Equal(t, "power_breakdown_percent", m.Name)
	assert.Equal(t, 71.5, m.Value)
	assert.Equal(t, map[string]string{"zone": "FR", "power_source": "nuclear"}, m.Labels)
	assert.Equal(t, map[string]string{"zone": "FR"}, base.Labels)
	assert.Equal(t, 0.0, base.Value)
}

func TestMergeLabels(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": "3"}, MergeLabels(
		map[string]string{"a": "1", "b": "2"},
		map[string]string{"b": "3", "c": ""},
	))
}

func TestOpenMetricsHandler(t *testing.T) {
	source := SourceFunc(func(ctx context.Context, zone string) (CarbonData, error) {
		if zone == "DE" {
			return CarbonData{}, errors.New("unexpected status 500")
		}
		return CarbonData{
			Zone:      zone,
			Intensity: 120,
			Breakdown: PowerBreakdown{"nuclear": 70, "wind": 30},
		}, nil
	})

	handler := NewOpenMetricsHandler("test", source, "FR", "DE")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `carbon_data_available{source="test",zone="FR"} 1.0000000000`)
	assert.Contains(t, body, `carbon_intensity_gco2eq_kwh{source="test",zone="FR"} 120.0000000000`)
	assert.Contains(t, body, `power_breakdown_percent{power_source="nuclear",source="test",zone="FR"} 70.0000000000`)
	assert.Contains(t, body, `power_breakdown_percent{power_source="wind",source="test",zone="FR"} 30.0000000000`)
	assert.Contains(t, body, `carbon_data_available{source="test",zone="DE"} 0.0000000000`)
	assert.Contains(t, body, `carbon_intensity_gco2eq_kwh{source="test",zone="DE"} 0.0000000000`)
	assert.Contains(t, body, `error_count{source="test"} 1.0000000000`)
	assert.Contains(t, body, `collect_duration_ms{source="test"}`)
}

func TestOpenMetricsHandlerDefaultZone(t *testing.T) {
	handler := NewOpenMetricsHandler("test", SourceFunc(func(ctx context.Context, zone string) (CarbonData, error) {
		return CarbonData{Zone: zone, Intensity: 1}, nil
	}))
	assert.Equal(t, []string{DefaultZone}, handler.zones)
}
