package demo

import (
	"context"
	"math/rand/v2"
	"time"

	carbontracker "github.com/superdango/digital-carbon-tracker"
)

// Source implements the carbontracker.Source interface.
// It is used to generate fake data for demonstration purpose
type Source struct {
	now   func() time.Time
	noise func() int
}

// NewSource returns a new demo source
func NewSource() *Source {
	return &Source{
		now:   time.Now,
		noise: func() int { return rand.IntN(10) },
	}
}

func (source *Source) CarbonData(ctx context.Context, zone string) (carbontracker.CarbonData, error) {
	if err := ctx.Err(); err != nil {
		return carbontracker.CarbonData{}, err
	}

	zone = carbontracker.ResolveZone(zone)
	now := source.now()
	intensity := naturalIntensityInstant(now.Hour(), now.Minute(), source.noise())

	return carbontracker.CarbonData{
		Zone:        zone,
		Intensity:   carbontracker.Intensity(intensity),
		Breakdown:   breakdown(intensity),
		Datetime:    now.Truncate(time.Hour),
		IsEstimated: true,
	}, nil
}

// hourlyIntensity is a typical daily curve of a gas backed grid with solar
// production lowering intensity around noon.
var hourlyIntensity = [24]int{
	310, 305, 300, 300, 305, 315, 330, 320, 290, 250, 210, 180,
	170, 175, 190, 220, 260, 310, 350, 360, 350, 340, 330, 320,
}

// naturalIntensityInstant interpolates the intensity between two hours and adds noise percent.
func naturalIntensityInstant(hour, minute, noise int) int {
	current := hourlyIntensity[hour%24]
	next := hourlyIntensity[(hour+1)%24]

	return current + (next-current)*minute/60 + noise*current/100
}

// breakdown derives a power mix from the intensity: the dirtier the grid,
// the larger the gas share.
func breakdown(intensity int) carbontracker.PowerBreakdown {
	gas := float64(intensity) / 5
	solar := max(0, 40-gas/2)
	nuclear := 20.0
	wind := max(0, 100-gas-solar-nuclear)

	return carbontracker.PowerBreakdown{
		"gas":     gas,
		"solar":   solar,
		"nuclear": nuclear,
		"wind":    wind,
	}
}
