// Package ensemble fuses per-source daily records into one best-estimate
// record per (site, day), sanitizing ranges, averaging temperatures, and
// picking a dominant precipitation type.
package ensemble

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/common"
	"github.com/i474232898/weather-data-aggregation/internal/ehs"
	"github.com/i474232898/weather-data-aggregation/internal/model"
)

type tempLimit struct {
	lo, hi float64
}

var tempLimits = map[string]tempLimit{
	"high": {-40, 130},
	"low":  {-60, 95},
}

// PrecipPriority ranks precipitation type labels from most to least severe;
// the dominant type for a day is the highest-ranked label present.
var PrecipPriority = []string{
	"Freezing Rain",
	"Ice Pellets",
	"Snow",
	"Sleet",
	"Rain",
	"Showers",
	"Drizzle",
	"Thunderstorms",
}

var windTokens = []string{"breezy", "wind", "gust"}

func sanitize(value *float64, key string) *float64 {
	if value == nil {
		return nil
	}
	limit := tempLimits[key]
	if *value < limit.lo || *value > limit.hi {
		return nil
	}
	v := *value
	return &v
}

func meanRounded(values []*float64) *float64 {
	sum := 0.0
	count := 0
	for _, v := range values {
		if v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	result := round1(sum / float64(count))
	return &result
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func dominantPrecip(types []*string) *string {
	counts := map[string]int{}
	var order []string
	for _, t := range types {
		if t == nil || *t == "" {
			continue
		}
		if _, ok := counts[*t]; !ok {
			order = append(order, *t)
		}
		counts[*t]++
	}
	if len(order) == 0 {
		return nil
	}
	for _, label := range PrecipPriority {
		if _, ok := counts[label]; ok {
			l := label
			return &l
		}
	}
	best := order[0]
	bestCount := counts[best]
	for _, label := range order[1:] {
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return &best
}

// BuildSiteEnsembles groups records by date and reduces each day's bucket
// into a DailyEnsemble, emitting at most `days` records in ascending date
// order. The grouping preserves first-seen day order internally so that
// map iteration order never leaks into the output.
func BuildSiteEnsembles(siteName string, records []model.SourceDailyRecord, days int) []model.DailyEnsemble {
	grouped := map[time.Time][]model.SourceDailyRecord{}
	var dayOrder []time.Time
	for _, rec := range records {
		if _, ok := grouped[rec.Date]; !ok {
			dayOrder = append(dayOrder, rec.Date)
		}
		grouped[rec.Date] = append(grouped[rec.Date], rec)
	}
	sort.Slice(dayOrder, func(i, j int) bool { return dayOrder[i].Before(dayOrder[j]) })

	var output []model.DailyEnsemble
	for _, day := range dayOrder {
		bucket := grouped[day]

		var highs, lows []*float64
		for _, rec := range bucket {
			highs = append(highs, sanitize(rec.HighF, "high"))
			lows = append(lows, sanitize(rec.LowF, "low"))
		}
		high := meanRounded(highs)
		low := meanRounded(lows)
		if high != nil && low != nil && *low > *high {
			low = nil
		}
		if high == nil && low == nil {
			continue
		}

		var popValues []float64
		for _, rec := range bucket {
			if rec.PopPct != nil {
				popValues = append(popValues, *rec.PopPct)
			}
		}
		var popPct *float64
		if len(popValues) > 0 {
			max := popValues[0]
			for _, v := range popValues[1:] {
				if v > max {
					max = v
				}
			}
			v := round1(max)
			popPct = &v
		}

		var precipTypes []*string
		for _, rec := range bucket {
			precipTypes = append(precipTypes, rec.PrecipType)
		}
		precipType := dominantPrecip(precipTypes)

		seen := map[string]bool{}
		var notesOrder []string
		for _, rec := range bucket {
			if rec.PrecipNotes == "" || seen[rec.PrecipNotes] {
				continue
			}
			seen[rec.PrecipNotes] = true
			notesOrder = append(notesOrder, rec.PrecipNotes)
		}
		precipNotes := strings.Join(notesOrder, " | ")

		breezy := false
		for _, rec := range bucket {
			if rec.WindPhrase != nil && common.ContainsAnyFold(*rec.WindPhrase, windTokens...) {
				breezy = true
				break
			}
			if rec.Notes != "" && common.ContainsAnyFold(rec.Notes, windTokens...) {
				breezy = true
				break
			}
		}

		heatCategory, heatGuidance := ehs.ClassifyHeat(high)
		freezeBadge, freezeGuidance := ehs.ClassifyFreeze(low, breezy)

		sourceSet := map[string]bool{}
		for _, rec := range bucket {
			sourceSet[rec.Source] = true
		}
		sources := make([]string, 0, len(sourceSet))
		for s := range sourceSet {
			sources = append(sources, s)
		}
		sort.Strings(sources)

		label := bucket[0].Label
		if label == "" {
			label = day.Format("Mon Jan 2")
		}

		output = append(output, model.DailyEnsemble{
			SiteName:        siteName,
			Date:            day,
			Label:           label,
			HighF:           high,
			LowF:            low,
			PopPct:          popPct,
			PrecipType:      precipType,
			PrecipNotes:     precipNotes,
			HeatCategory:    heatCategory,
			HeatGuidance:    heatGuidance,
			FreezeRiskBadge: freezeBadge,
			FreezeGuidance:  freezeGuidance,
			Sources:         sources,
			SourcesCount:    len(sources),
			LowConfidence:   len(sources) < 2,
			LightningNote:   ehs.LightningNote,
		})
		if len(output) >= days {
			break
		}
	}
	return output
}

// Round2 rounds accumulated precipitation amounts to 2 dp; exported so the
// ingest packages share the same rounding rule when summing converted units.
func Round2(v float64) float64 { return round2(v) }
