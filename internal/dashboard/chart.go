package dashboard

import (
	carbontracker "github.com/superdango/digital-carbon-tracker"
)

const (
	chartWidth   = 480.0
	chartHeight  = 240.0
	chartPadding = 24.0
	labelSpace   = 20.0
)

type chartBar struct {
	carbontracker.ChartBar
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// barChart is the geometry of an svg bar chart
type barChart struct {
	Width  float64
	Height float64
	Bars   []chartBar
}

// newBarChart scales bars to the chart height. The highest bar fills the plot area.
func newBarChart(bars []carbontracker.ChartBar) barChart {
	chart := barChart{Width: chartWidth, Height: chartHeight}
	if len(bars) == 0 {
		return chart
	}

	highest := 0.0
	for _, b := range bars {
		highest = max(highest, b.Value)
	}

	plotHeight := chartHeight - chartPadding - labelSpace
	slot := (chartWidth - 2*chartPadding) / float64(len(bars))
	barWidth := slot * 0.6

	for i, b := range bars {
		height := 0.0
		if highest > 0 && b.Value > 0 {
			height = b.Value / highest * plotHeight
		}
		chart.Bars = append(chart.Bars, chartBar{
			ChartBar: b,
			X:        chartPadding + float64(i)*slot + (slot-barWidth)/2,
			Y:        chartPadding + plotHeight - height,
			Width:    barWidth,
			Height:   height,
		})
	}

	return chart
}

// LabelY is the baseline of bar labels
func (c barChart) LabelY() float64 {
	return c.Height - labelSpace/2
}
