package carbontracker

const (
	// GPUPowerKW is the average power drawn by a GPU during model training (400W)
	GPUPowerKW = 0.4
	// TransactionEnergyKWh is the average energy consumed by one blockchain
	// transaction (Bitcoin order of magnitude)
	TransactionEnergyKWh = 700
	// CO2AbsorbedPerTreePerMonthKg is the average CO2 absorbed by a tree in a month
	CO2AbsorbedPerTreePerMonthKg = 1.81
)

// AIEmissions estimates the emissions of training a model on one GPU during runtimeHours.
func AIEmissions(runtimeHours float64, intensity Intensity) Emissions {
	return intensity.Emissions(Energy(GPUPowerKW * runtimeHours))
}

// BlockchainEmissions estimates the emissions of a number of blockchain transactions.
func BlockchainEmissions(transactions float64, intensity Intensity) Emissions {
	return intensity.Emissions(Energy(TransactionEnergyKWh * transactions))
}

// DatacenterEmissions estimates the emissions of servers drawing serverPowerKW during runtimeHours.
func DatacenterEmissions(serverPowerKW float64, runtimeHours float64, intensity Intensity) Emissions {
	return intensity.Emissions(Energy(serverPowerKW * runtimeHours))
}

// TreesNeeded returns the number of trees absorbing the total emissions in a month.
func TreesNeeded(total Emissions) float64 {
	return total.KgCO2eq() / CO2AbsorbedPerTreePerMonthKg
}
