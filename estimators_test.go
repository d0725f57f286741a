package carbontracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIEmissions(t *testing.T) {
	for _, tc := range []struct {
		hours     float64
		intensity Intensity
	}{
		{10, 200}, {1, 0}, {0, 350}, {100, 812.4}, {37.5, 19},
	} {
		expected := 0.4 * tc.hours * float64(tc.intensity) / 1000
		assert.InDelta(t, expected, AIEmissions(tc.hours, tc.intensity).KgCO2eq(), 1e-9)
	}
	assert.InDelta(t, 0.8, AIEmissions(10, 200).KgCO2eq(), 1e-12)
}

func TestBlockchainEmissions(t *testing.T) {
	for _, tc := range []struct {
		transactions float64
		intensity    Intensity
	}{
		{5, 200}, {1, 0}, {0, 350}, {1000, 812.4}, {3, 19},
	} {
		expected := 700 * tc.transactions * float64(tc.intensity) / 1000
		assert.InDelta(t, expected, BlockchainEmissions(tc.transactions, tc.intensity).KgCO2eq(), 1e-9)
	}
	assert.InDelta(t, 700.0, BlockchainEmissions(5, 200).KgCO2eq(), 1e-9)
}

func TestDatacenterEmissions(t *testing.T) {
	for _, tc := range []struct {
		powerKW   float64
		hours     float64
		intensity Intensity
	}{
		{10, 10, 200}, {1, 1, 0}, {0, 24, 350}, {100, 100, 812.4}, {2.5, 7, 19},
	} {
		expected := tc.powerKW * tc.hours * float64(tc.intensity) / 1000
		assert.InDelta(t, expected, DatacenterEmissions(tc.powerKW, tc.hours, tc.intensity).KgCO2eq(), 1e-9)
	}
	assert.InDelta(t, 20.0, DatacenterEmissions(10, 10, 200).KgCO2eq(), 1e-12)
}

func TestTreesNeeded(t *testing.T) {
	assert.Equal(t, 0.0, TreesNeeded(0))
	assert.InDelta(t, 1.0, TreesNeeded(1.81), 1e-12)
	assert.InDelta(t, 398.23, TreesNeeded(720.8), 0.005)
}

func TestEstimatorsAreIdempotent(t *testing.T) {
	assert.Equal(t, AIEmissions(42, 123.4), AIEmissions(42, 123.4))
	assert.Equal(t, BlockchainEmissions(42, 123.4), BlockchainEmissions(42, 123.4))
	assert.Equal(t, DatacenterEmissions(4, 2, 123.4), DatacenterEmissions(4, 2, 123.4))
	assert.Equal(t, TreesNeeded(99.9), TreesNeeded(99.9))
}
