package carbontracker

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DonationURL points to a tree-planting organisation
const DonationURL = "https://onetreeplanted.org/"

// Workloads groups the parameters of the three estimated workloads.
type Workloads struct {
	Region                 string  `json:"region"`
	AIRuntimeHours         float64 `json:"ai_runtime_hours"`
	Transactions           float64 `json:"blockchain_transactions"`
	ServerPowerKW          float64 `json:"datacenter_server_power_kw"`
	DatacenterRuntimeHours float64 `json:"datacenter_runtime_hours"`
}

// DefaultWorkloads returns the workloads shown when the dashboard is first opened.
func DefaultWorkloads() Workloads {
	return Workloads{
		Region:                 DefaultZone,
		AIRuntimeHours:         10,
		Transactions:           100,
		ServerPowerKW:          10,
		DatacenterRuntimeHours: 10,
	}
}

// Range is an inclusive interval
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Bounds constrains workloads accepted from user interfaces.
type Bounds struct {
	AIRuntimeHours         Range
	Transactions           Range
	ServerPowerKW          Range
	DatacenterRuntimeHours Range
}

var DefaultBounds = Bounds{
	AIRuntimeHours:         Range{1, 100},
	Transactions:           Range{1, 1000},
	ServerPowerKW:          Range{1, 100},
	DatacenterRuntimeHours: Range{1, 100},
}

// Validate checks every workload parameter is within bounds.
func (w Workloads) Validate(bounds Bounds) error {
	checks := []struct {
		name  string
		value float64
		rng   Range
	}{
		{"ai runtime hours", w.AIRuntimeHours, bounds.AIRuntimeHours},
		{"blockchain transactions", w.Transactions, bounds.Transactions},
		{"datacenter server power", w.ServerPowerKW, bounds.ServerPowerKW},
		{"datacenter runtime hours", w.DatacenterRuntimeHours, bounds.DatacenterRuntimeHours},
	}

	for _, c := range checks {
		if !c.rng.Contains(c.value) {
			return fmt.Errorf("%s must be between %g and %g, got %g", c.name, c.rng.Min, c.rng.Max, c.value)
		}
	}

	return nil
}

// ChartBar is a labeled value of a bar chart
type ChartBar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Report is the result of an emissions calculation
type Report struct {
	Workloads   Workloads
	Carbon      CarbonData
	AI          Emissions
	Blockchain  Emissions
	Datacenter  Emissions
	Total       Emissions
	Trees       float64
	DonationURL string
}

// Chart returns the emissions of each workload in kgCO2eq.
func (r Report) Chart() []ChartBar {
	return []ChartBar{
		{Label: "AI Training", Value: r.AI.KgCO2eq()},
		{Label: "Blockchain", Value: r.Blockchain.KgCO2eq()},
		{Label: "Data Center", Value: r.Datacenter.KgCO2eq()},
	}
}

// Calculate fetches the region carbon intensity and estimates the emissions
// of all workloads with it.
func Calculate(ctx context.Context, source Source, w Workloads) Report {
	carbon := FetchCarbonData(ctx, source, w.Region)
	return Estimate(carbon, w)
}

// Estimate computes a report from already fetched carbon data.
func Estimate(carbon CarbonData, w Workloads) Report {
	report := Report{
		Workloads:   w,
		Carbon:      carbon,
		AI:          AIEmissions(w.AIRuntimeHours, carbon.Intensity),
		Blockchain:  BlockchainEmissions(w.Transactions, carbon.Intensity),
		Datacenter:  DatacenterEmissions(w.ServerPowerKW, w.DatacenterRuntimeHours, carbon.Intensity),
		DonationURL: DonationURL,
	}

	bars := report.Chart()
	values := make([]float64, len(bars))
	for i, bar := range bars {
		values[i] = bar.Value
	}
	// the total is the sum of the charted bars
	report.Total = Emissions(floats.Sum(values))
	report.Trees = TreesNeeded(report.Total)

	return report
}
