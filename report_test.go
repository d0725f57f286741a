package carbontracker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	carbontracker "github.com/superdango/digital-carbon-tracker"
)

func staticSource(intensity carbontracker.Intensity) carbontracker.Source {
	return carbontracker.SourceFunc(func(ctx context.Context, zone string) (carbontracker.CarbonData, error) {
		return carbontracker.CarbonData{
			Zone:      zone,
			Intensity: intensity,
			Breakdown: carbontracker.PowerBreakdown{"solar": 30, "gas": 70},
		}, nil
	})
}

func TestCalculate(t *testing.T) {
	report := carbontracker.Calculate(t.Context(), staticSource(200), carbontracker.Workloads{
		Region:                 "US-CAL-CISO",
		AIRuntimeHours:         10,
		Transactions:           5,
		ServerPowerKW:          10,
		DatacenterRuntimeHours: 10,
	})

	assert.True(t, report.Carbon.Available())
	assert.InDelta(t, 0.8, report.AI.KgCO2eq(), 1e-9)
	assert.InDelta(t, 700.0, report.Blockchain.KgCO2eq(), 1e-9)
	assert.InDelta(t, 20.0, report.Datacenter.KgCO2eq(), 1e-9)
	assert.InDelta(t, 720.8, report.Total.KgCO2eq(), 1e-9)
	assert.InDelta(t, 398.23, report.Trees, 0.005)
	assert.Equal(t, "https://onetreeplanted.org/", report.DonationURL)

	assert.Equal(t, []carbontracker.ChartBar{
		{Label: "AI Training", Value: report.AI.KgCO2eq()},
		{Label: "Blockchain", Value: report.Blockchain.KgCO2eq()},
		{Label: "Data Center", Value: report.Datacenter.KgCO2eq()},
	}, report.Chart())
}

func TestCalculateWithUnavailableData(t *testing.T) {
	failing := carbontracker.SourceFunc(func(ctx context.Context, zone string) (carbontracker.CarbonData, error) {
		return carbontracker.CarbonData{}, errors.New("unexpected status 500")
	})

	report := carbontracker.Calculate(t.Context(), failing, carbontracker.DefaultWorkloads())
	assert.False(t, report.Carbon.Available())
	assert.Equal(t, 0.0, report.Total.KgCO2eq())
	assert.Equal(t, 0.0, report.Trees)
	assert.Equal(t, carbontracker.PowerBreakdown{}, report.Carbon.Breakdown)
}

func TestEstimateTotalMatchesChart(t *testing.T) {
	carbon := carbontracker.CarbonData{Zone: "FR", Intensity: 56, Breakdown: carbontracker.PowerBreakdown{}}
	report := carbontracker.Estimate(carbon, carbontracker.DefaultWorkloads())

	sum := 0.0
	for _, bar := range report.Chart() {
		sum += bar.Value
	}
	assert.InDelta(t, sum, report.Total.KgCO2eq(), 1e-9)
	assert.InDelta(t, report.AI.KgCO2eq()+report.Blockchain.KgCO2eq()+report.Datacenter.KgCO2eq(), report.Total.KgCO2eq(), 1e-9)
}

func TestCalculateIsIdempotent(t *testing.T) {
	w := carbontracker.DefaultWorkloads()
	r1 := carbontracker.Calculate(t.Context(), staticSource(311), w)
	r2 := carbontracker.Calculate(t.Context(), staticSource(311), w)
	assert.Equal(t, r1, r2)
}

func TestWorkloadsValidate(t *testing.T) {
	assert.NoError(t, carbontracker.DefaultWorkloads().Validate(carbontracker.DefaultBounds))

	w := carbontracker.DefaultWorkloads()
	w.Transactions = 1001
	assert.EqualError(t, w.Validate(carbontracker.DefaultBounds), "blockchain transactions must be between 1 and 1000, got 1001")

	w = carbontracker.DefaultWorkloads()
	w.AIRuntimeHours = 0
	assert.Error(t, w.Validate(carbontracker.DefaultBounds))

	w = carbontracker.DefaultWorkloads()
	w.ServerPowerKW = 100
	w.DatacenterRuntimeHours = 1
	assert.NoError(t, w.Validate(carbontracker.DefaultBounds))
}
