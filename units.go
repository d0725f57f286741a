package carbontracker

// Energy in kWh
type Energy float64

// Intensity of the electricity grid in gCO2eq/kWh
type Intensity float64

// Emissions in kgCO2eq
type Emissions float64

// Emissions returns the carbon emitted while drawing energy from a grid with this intensity.
func (i Intensity) Emissions(energy Energy) Emissions {
	return Emissions(float64(energy) * (float64(i) / 1000))
}

// Clamp returns the intensity, or 0 if the intensity is negative or not a number.
func (i Intensity) Clamp() Intensity {
	if i > 0 {
		return i
	}
	return 0
}

func (e Emissions) KgCO2eq() float64 {
	return float64(e)
}

func (e Emissions) TCO2eq() float64 {
	return e.KgCO2eq() / 1000
}

func (e Emissions) GCO2eq() float64 {
	return e.KgCO2eq() * 1000
}
