// Package ehs classifies daily high/low temperatures into occupational
// heat and cold-stress guidance using fixed threshold tables.
package ehs

import "github.com/i474232898/weather-data-aggregation/internal/model"

// LightningNote accompanies every ensemble record regardless of temperature.
const LightningNote = "Cease outdoor work when thunder is heard; resume 30 min after last lightning."

type heatBand struct {
	name      string
	thresholdF float64
	guidance  model.HeatGuidance
}

var heatBands = []heatBand{
	{
		name:       "Extreme Danger",
		thresholdF: 125,
		guidance: model.HeatGuidance{
			ContinuousHeavyWorkMin:     "0",
			HydrationCupsPerMin:        "≥1/10",
			WorkRestMin:                "10/20/10",
			SupervisorAssessmentsPerHr: "4",
			RadioCheckins:              "q15m",
		},
	},
	{
		name:       "Danger",
		thresholdF: 100,
		guidance: model.HeatGuidance{
			ContinuousHeavyWorkMin:     "10",
			HydrationCupsPerMin:        "1/10–15",
			WorkRestMin:                "20/30/10",
			SupervisorAssessmentsPerHr: "2",
			RadioCheckins:              "q30m",
		},
	},
	{
		name:       "Extreme Caution",
		thresholdF: 90,
		guidance: model.HeatGuidance{
			ContinuousHeavyWorkMin:     "15",
			HydrationCupsPerMin:        "1/15–20",
			WorkRestMin:                "30/40/10",
			SupervisorAssessmentsPerHr: "1",
			RadioCheckins:              "start+q1h",
		},
	},
	{
		name:       "Caution",
		thresholdF: 80,
		guidance: model.HeatGuidance{
			ContinuousHeavyWorkMin:     "30",
			HydrationCupsPerMin:        "1/20",
			WorkRestMin:                "Normal",
			SupervisorAssessmentsPerHr: "0 (periodic)",
			RadioCheckins:              "start+q2h",
		},
	},
}

// DefaultHeatGuidance applies when no band is hit (high_f missing or < 80).
var DefaultHeatGuidance = model.HeatGuidance{
	ContinuousHeavyWorkMin:     "Normal",
	HydrationCupsPerMin:        "Baseline",
	WorkRestMin:                "Normal",
	SupervisorAssessmentsPerHr: "0",
	RadioCheckins:              "start",
}

// ClassifyHeat returns the first band whose threshold highF meets or
// exceeds, scanning in descending-threshold order, along with its
// guidance. A nil highF or one below every threshold returns
// (nil, DefaultHeatGuidance).
func ClassifyHeat(highF *float64) (*string, model.HeatGuidance) {
	if highF == nil {
		return nil, DefaultHeatGuidance
	}
	for _, band := range heatBands {
		if *highF >= band.thresholdF {
			name := band.name
			return &name, band.guidance
		}
	}
	return nil, DefaultHeatGuidance
}

// freezeGuidance holds the fixed advisory strings keyed by badge name.
var freezeGuidance = map[string]string{
	"Frost":       "Cover exposed sensors; monitor slick surfaces; plan extra footing checks.",
	"Freeze":      "Limit time on elevated surfaces; stage warm shelters; confirm cold-weather PPE/buddy checks.",
	"Hard Freeze": "Pause non-essential outdoor handling; enforce short outdoor rotations; keep warming shelter within reach.",
}

// ClassifyFreeze maps a low temperature and wind-breeze signal to a badge
// and its guidance string. A nil lowF yields (nil, nil).
func ClassifyFreeze(lowF *float64, breezy bool) (*string, *string) {
	if lowF == nil {
		return nil, nil
	}
	var badge string
	switch {
	case *lowF <= 28:
		badge = "Hard Freeze"
	case *lowF <= 32:
		badge = "Freeze"
	case *lowF <= 36:
		badge = "Frost"
	default:
		return nil, nil
	}
	guidance := freezeGuidance[badge]
	if breezy && *lowF <= 32 {
		guidance += " Wind-chill risk: add face/hand protection."
	}
	return &badge, &guidance
}
