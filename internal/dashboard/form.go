package dashboard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	carbontracker "github.com/superdango/digital-carbon-tracker"
)

// Query parameters accepted by the dashboard and the api
const (
	paramRegion                 = "region"
	paramAIRuntime              = "ai.runtime"
	paramBlockchainTransactions = "blockchain.transactions"
	paramDatacenterPower        = "datacenter.power"
	paramDatacenterRuntime      = "datacenter.runtime"
	paramCalculate              = "calculate"
)

// parseWorkloads reads workloads from query values. Missing values take their
// default, present values must be numbers within bounds.
func parseWorkloads(values url.Values, defaults carbontracker.Workloads, bounds carbontracker.Bounds) (carbontracker.Workloads, error) {
	w := defaults

	if region := strings.TrimSpace(values.Get(paramRegion)); region != "" {
		w.Region = region
	}

	fields := []struct {
		param string
		dest  *float64
	}{
		{paramAIRuntime, &w.AIRuntimeHours},
		{paramBlockchainTransactions, &w.Transactions},
		{paramDatacenterPower, &w.ServerPowerKW},
		{paramDatacenterRuntime, &w.DatacenterRuntimeHours},
	}

	for _, f := range fields {
		raw := strings.TrimSpace(values.Get(f.param))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return w, fmt.Errorf("invalid %s value %q: %w", f.param, raw, err)
		}
		*f.dest = v
	}

	if err := w.Validate(bounds); err != nil {
		return w, err
	}

	return w, nil
}
