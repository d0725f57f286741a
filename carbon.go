package carbontracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"
)

// DefaultZone is used when no region code is given
const DefaultZone = "US-CAL-CISO"

// Source returns the latest carbon data of a grid zone.
type Source interface {
	CarbonData(ctx context.Context, zone string) (CarbonData, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, zone string) (CarbonData, error)

func (fn SourceFunc) CarbonData(ctx context.Context, zone string) (CarbonData, error) {
	return fn(ctx, zone)
}

// PowerBreakdown maps a power source (solar, gas, nuclear...) to its share of
// the electricity mix in percent.
type PowerBreakdown map[string]float64

// Sources returns power source names sorted lexicographically.
func (b PowerBreakdown) Sources() []string {
	return slices.Sorted(maps.Keys(b))
}

// CarbonData holds the carbon intensity of a zone at a given time.
type CarbonData struct {
	Zone      string
	Intensity Intensity
	Breakdown PowerBreakdown
	// Datetime of the measure, zero if unknown
	Datetime    time.Time
	IsEstimated bool
	// Err is set when data could not be fetched. Intensity is then 0.
	Err error
}

// Available reports whether the carbon data has been successfully fetched.
func (d CarbonData) Available() bool {
	return d.Err == nil
}

// SourceErr is returned when a carbon data source operation fails.
type SourceErr struct {
	Err       error
	Operation string
}

func (sourceErr *SourceErr) Error() string {
	return fmt.Sprintf("operation failed (op: %s): %s", sourceErr.Operation, sourceErr.Err.Error())
}

func (sourceErr *SourceErr) Unwrap() error {
	return sourceErr.Err
}

// ResolveZone returns the region or the default zone if region is empty.
func ResolveZone(region string) string {
	if region == "" {
		return DefaultZone
	}
	return region
}

// FetchCarbonData fetches the carbon data of the region once. An empty region is
// passed as is so the source resolves it to its own default zone. Failures are
// never propagated: the returned data holds a zero intensity, an empty breakdown
// and the failure in Err.
func FetchCarbonData(ctx context.Context, source Source, region string) CarbonData {
	zone := region

	data, err := source.CarbonData(ctx, zone)
	if err != nil {
		srcErr := new(SourceErr)
		if errors.As(err, &srcErr) {
			slog.Warn("failed to fetch carbon data", "zone", zone, "err", err, "op", srcErr.Operation)
		} else {
			slog.Warn("failed to fetch carbon data", "zone", zone, "err", err.Error())
		}

		return CarbonData{
			Zone:      zone,
			Intensity: 0,
			Breakdown: PowerBreakdown{},
			Err:       err,
		}
	}

	if data.Zone == "" {
		data.Zone = zone
	}
	if data.Breakdown == nil {
		data.Breakdown = PowerBreakdown{}
	}
	data.Intensity = data.Intensity.Clamp()

	return data
}
