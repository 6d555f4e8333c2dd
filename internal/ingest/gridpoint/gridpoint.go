// Package gridpoint ingests the NWS gridpoint JSON point-forecast feed
// (C4), bucketing validTime-addressed series into per-day high/low/PoP/
// QPF/weather values.
package gridpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/cache"
	"github.com/i474232898/weather-data-aggregation/internal/httpclient"
	"github.com/i474232898/weather-data-aggregation/internal/ingest"
	"github.com/i474232898/weather-data-aggregation/internal/model"
)

const pointsURL = "https://api.weather.gov/points"

var durationRE = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?)?$`)

func cToF(v float64) float64 { return v*9.0/5.0 + 32.0 }
func mmToInches(v float64) float64 { return v * 0.0393701 }

func parseDuration(value string) time.Duration {
	m := durationRE.FindStringSubmatch(value)
	if m == nil {
		return time.Hour
	}
	days, _ := strconv.Atoi(m[1])
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	return time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
}

func parsePeriod(value string, loc *time.Location) (time.Time, time.Time, error) {
	if idx := strings.Index(value, "/"); idx >= 0 {
		startRaw, durRaw := value[:idx], value[idx+1:]
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = start.In(loc)
		return start, start.Add(parseDuration(durRaw)), nil
	}
	start, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = start.In(loc)
	return start, start.Add(time.Hour), nil
}

func slug(site model.Site) string {
	latS := fmt.Sprintf("%.4f", site.Latitude)
	lonS := fmt.Sprintf("%.4f", site.Longitude)
	repl := strings.NewReplacer("-", "m", ".", "d")
	return repl.Replace(latS) + "_" + repl.Replace(lonS)
}

var coverageMap = map[string]string{
	"chance":        "Chance",
	"slight_chance": "Slight chance",
	"likely":        "Likely",
	"definite":      "Definite",
	"occasional":    "Occasional",
	"periods":       "Periods of",
	"areas":         "Areas of",
	"patchy":        "Patchy",
}

type weatherEntry struct {
	Coverage   string   `json:"coverage"`
	Intensity  string   `json:"intensity"`
	Weather    string   `json:"weather"`
	Attributes []string `json:"attributes"`
}

func weatherPhrase(entry weatherEntry) string {
	if entry.Weather == "" {
		return ""
	}
	var parts []string
	if label, ok := coverageMap[entry.Coverage]; ok {
		parts = append(parts, label)
	}
	if entry.Intensity != "" && entry.Intensity != "none" {
		parts = append(parts, titleCase(entry.Intensity))
	}
	parts = append(parts, titleCase(strings.ReplaceAll(entry.Weather, "_", " ")))
	if len(entry.Attributes) > 0 {
		attrParts := make([]string, len(entry.Attributes))
		for i, a := range entry.Attributes {
			attrParts[i] = titleCase(strings.ReplaceAll(a, "_", " "))
		}
		parts = append(parts, strings.Join(attrParts, "+"))
	}
	return strings.Join(parts, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

type valueEntry[T any] struct {
	ValidTime string `json:"validTime"`
	Value     T      `json:"value"`
}

type seriesField[T any] struct {
	Values []valueEntry[T] `json:"values"`
}

type gridProperties struct {
	MaxTemperature             seriesField[float64]      `json:"maxTemperature"`
	MinTemperature             seriesField[float64]      `json:"minTemperature"`
	ProbabilityOfPrecipitation seriesField[float64]      `json:"probabilityOfPrecipitation"`
	QuantitativePrecipitation  seriesField[float64]      `json:"quantitativePrecipitation"`
	Weather                    seriesField[[]weatherEntry] `json:"weather"`
}

type gridResponse struct {
	Properties gridProperties `json:"properties"`
}

type pointsResponse struct {
	Properties struct {
		ForecastGridData string `json:"forecastGridData"`
	} `json:"properties"`
}

// Ingestor is the C4 gridpoint ingestor.
type Ingestor struct {
	Session  *httpclient.Session
	Cache    *cache.Manager
	Days     int
	Location *time.Location
}

// SourceName identifies this ingestor in provenance and ordering.
func (g *Ingestor) SourceName() string { return model.SourceNWSGridpoint }

func (g *Ingestor) download(ctx context.Context, url string) ([]byte, error) {
	return g.Session.GetBytes(ctx, url)
}

func (g *Ingestor) pointMetadata(ctx context.Context, site model.Site) (pointsResponse, error) {
	var out pointsResponse
	text, err := g.Cache.ReadBytes("gridpoint/meta", slug(site)+".json", func() ([]byte, error) {
		return g.download(ctx, fmt.Sprintf("%s/%.4f,%.4f", pointsURL, site.Latitude, site.Longitude))
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(text, &out); err != nil {
		return out, fmt.Errorf("gridpoint: decode points metadata: %w", err)
	}
	return out, nil
}

func (g *Ingestor) gridData(ctx context.Context, gridURL string, site model.Site) (gridResponse, error) {
	var out gridResponse
	text, err := g.Cache.ReadBytes("gridpoint/data", slug(site)+".json", func() ([]byte, error) {
		return g.download(ctx, gridURL)
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(text, &out); err != nil {
		return out, fmt.Errorf("gridpoint: decode grid data: %w", err)
	}
	return out, nil
}

func bucketNumeric(values []valueEntry[float64], loc *time.Location, sum bool, transform func(float64) float64) map[time.Time]float64 {
	bucket := map[time.Time][]float64{}
	for _, v := range values {
		start, _, err := parsePeriod(v.ValidTime, loc)
		if err != nil {
			continue
		}
		val := v.Value
		if transform != nil {
			val = transform(val)
		}
		day := ingest.DayKey(start, loc)
		bucket[day] = append(bucket[day], val)
	}
	summary := map[time.Time]float64{}
	for day, items := range bucket {
		if len(items) == 0 {
			continue
		}
		if sum {
			total := 0.0
			for _, v := range items {
				total += v
			}
			summary[day] = round2(total)
		} else {
			max := items[0]
			for _, v := range items[1:] {
				if v > max {
					max = v
				}
			}
			summary[day] = round1(max)
		}
	}
	return summary
}

func bucketWeather(values []valueEntry[[]weatherEntry], loc *time.Location) map[time.Time]struct {
	primary string
	notes   string
} {
	phrases := map[time.Time][]string{}
	for _, v := range values {
		start, _, err := parsePeriod(v.ValidTime, loc)
		if err != nil {
			continue
		}
		day := ingest.DayKey(start, loc)
		for _, entry := range v.Value {
			if phrase := weatherPhrase(entry); phrase != "" {
				phrases[day] = append(phrases[day], phrase)
			}
		}
	}
	out := map[time.Time]struct {
		primary string
		notes   string
	}{}
	for day, items := range phrases {
		if len(items) == 0 {
			continue
		}
		seen := map[string]bool{}
		var unique []string
		for _, p := range items {
			if seen[p] {
				continue
			}
			seen[p] = true
			unique = append(unique, p)
		}
		out[day] = struct {
			primary string
			notes   string
		}{primary: unique[0], notes: strings.Join(unique, ", ")}
	}
	return out
}

func round1(v float64) float64 { return roundN(v, 10) }
func round2(v float64) float64 { return roundN(v, 100) }
func roundN(v float64, n float64) float64 {
	return float64(int64(v*n+sign(v)*0.5)) / n
}
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Fetch assembles one site's daily records from the point-forecast feed.
func (g *Ingestor) Fetch(ctx context.Context, site model.Site) ([]model.SourceDailyRecord, error) {
	meta, err := g.pointMetadata(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("gridpoint: point metadata: %w", err)
	}
	if meta.Properties.ForecastGridData == "" {
		return nil, fmt.Errorf("gridpoint: missing forecastGridData for %s", site.Name)
	}
	data, err := g.gridData(ctx, meta.Properties.ForecastGridData, site)
	if err != nil {
		return nil, fmt.Errorf("gridpoint: grid data: %w", err)
	}

	highs := bucketNumeric(data.Properties.MaxTemperature.Values, g.Location, false, cToF)
	lows := bucketNumeric(data.Properties.MinTemperature.Values, g.Location, false, cToF)
	pops := bucketNumeric(data.Properties.ProbabilityOfPrecipitation.Values, g.Location, false, nil)
	qpf := bucketNumeric(data.Properties.QuantitativePrecipitation.Values, g.Location, true, mmToInches)
	weather := bucketWeather(data.Properties.Weather.Values, g.Location)

	dayset := map[time.Time]bool{}
	for d := range highs {
		dayset[d] = true
	}
	for d := range lows {
		dayset[d] = true
	}
	for d := range pops {
		dayset[d] = true
	}
	for d := range qpf {
		dayset[d] = true
	}
	for d := range weather {
		dayset[d] = true
	}

	var days []time.Time
	for d := range dayset {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	bucket := map[time.Time]*model.SourceDailyRecord{}
	for _, day := range days {
		rec := ingest.EnsureRecord(bucket, site, day, model.SourceNWSGridpoint)
		if v, ok := highs[day]; ok {
			rec.HighF = ingest.Float64Ptr(v)
		}
		if v, ok := lows[day]; ok {
			rec.LowF = ingest.Float64Ptr(v)
		}
		if v, ok := pops[day]; ok {
			if rec.PopPct == nil || v > *rec.PopPct {
				rec.PopPct = ingest.Float64Ptr(v)
			}
		}
		if v, ok := qpf[day]; ok && v > 0 {
			rec.QPFIn = ingest.Float64Ptr(v)
			note := fmt.Sprintf("NWS QPF %.2f\"", v)
			rec.PrecipNotes = strings.Trim(rec.PrecipNotes+" | "+note, " |")
		}
		if w, ok := weather[day]; ok {
			if w.primary != "" {
				rec.PrecipType = ingest.StringPtr(w.primary)
			}
			if w.notes != "" {
				existing := rec.PrecipNotes
				var parts []string
				if existing != "" {
					parts = append(parts, existing)
				}
				parts = append(parts, w.notes)
				rec.PrecipNotes = strings.Join(parts, " | ")
			}
		}
	}

	if len(days) > g.Days {
		days = days[:g.Days]
	}
	out := make([]model.SourceDailyRecord, 0, len(days))
	for _, d := range days {
		out = append(out, *bucket[d])
	}
	return out, nil
}
