// Package grib is the C6 GRIB ingestor: it selects one model cycle shared
// across both sites, then for each day samples a resolution-ordered chain
// of fields at the hours spec.md §4.6 names, slicing the binary archive
// by its .idx sidecar and decoding through an injectable Decoder.
package grib

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/i474232898/weather-data-aggregation/internal/cache"
	"github.com/i474232898/weather-data-aggregation/internal/httpclient"
	"github.com/i474232898/weather-data-aggregation/internal/ingest"
	"github.com/i474232898/weather-data-aggregation/internal/model"
)

const (
	baseURL = "https://noaa-nbm-grib2-pds.s3.amazonaws.com"
	domain  = "co"
	// fieldWindowHours is the low-temperature sampling offset within a day.
	fieldWindowHours = 12
	// sliceTimeout is the longer per-call timeout spec.md §5 requires for
	// GRIB byte-range downloads (60-120s), well past the 30s default.
	sliceTimeout = 90 * time.Second
)

// ErrNoCycle is returned when no model cycle is resolvable within the
// 42-hour lookback window.
var ErrNoCycle = errors.New("grib: no recent NBM cycle available")

// ErrFieldMissing means a given short_name is absent from a cycle's index.
var ErrFieldMissing = errors.New("grib: field not present in index")

// IndexEntry is one parsed line of a GRIB .idx sidecar.
type IndexEntry struct {
	Number      int
	Offset      int64
	Description string
}

// CycleInfo identifies a selected model cycle.
type CycleInfo struct {
	When       time.Time
	YMD        string
	CycleHour  string
}

// ParseIndex parses a GRIB index file's lines (`number:offset:...:key:...`).
func ParseIndex(text string) []IndexEntry {
	var entries []IndexEntry
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 2 {
			continue
		}
		number, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		offset, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		description := ""
		if len(parts) == 3 {
			description = parts[2]
		}
		entries = append(entries, IndexEntry{Number: number, Offset: offset, Description: description})
	}
	return entries
}

func findEntry(entries []IndexEntry, shortName string) (start int64, end int64, found bool) {
	token := ":" + shortName + ":"
	for i, entry := range entries {
		full := ":" + entry.Description
		if !strings.Contains(full, token) || strings.Contains(entry.Description, "std dev") {
			continue
		}
		start = entry.Offset
		if i+1 < len(entries) {
			end = entries[i+1].Offset - 1
		} else {
			end = -1
		}
		return start, end, true
	}
	return 0, 0, false
}

func kelvinToF(v float64) float64 { return (v-273.15)*9.0/5.0 + 32.0 }
func mToInches(v float64) float64 { return v * 39.3701 }
func mmToInches(v float64) float64 { return v * 0.0393701 }

func convertUnits(shortName string, raw float64) float64 {
	switch shortName {
	case "TMP", "TMAX", "TMIN", "MAXT", "MINT":
		return kelvinToF(raw)
	case "APCP":
		return mmToInches(raw)
	case "ASNOW":
		return mToInches(raw)
	default: // POP12 and anything else already a plain percentage/value
		return raw
	}
}

type fieldCacheKey struct {
	shortName string
	fhour     int
	site      string
}

// Ingestor is the C6 GRIB ingestor.
type Ingestor struct {
	Session  *httpclient.Session
	Cache    *cache.Manager
	Decoder  Decoder
	Days     int
	Location *time.Location

	cycleMu    sync.Mutex
	cycle      *CycleInfo
	fieldCache *lru.Cache[fieldCacheKey, float64]
}

// New builds a GRIB ingestor with a per-instance memo table sized
// generously enough not to evict within one run.
func New(session *httpclient.Session, c *cache.Manager, decoder Decoder, days int, loc *time.Location) *Ingestor {
	fc, _ := lru.New[fieldCacheKey, float64](4096)
	return &Ingestor{
		Session:    session,
		Cache:      c,
		Decoder:    decoder,
		Days:       days,
		Location:   loc,
		fieldCache: fc,
	}
}

// SourceName identifies this ingestor.
func (g *Ingestor) SourceName() string { return model.SourceNBMGrib }

func (g *Ingestor) idxURL(ymd, hour string, fhour int) string {
	return fmt.Sprintf("%s/blend.%s/%s/core/blend.t%sz.core.f%03d.%s.grib2.idx", baseURL, ymd, hour, hour, fhour, domain)
}

func (g *Ingestor) gribURL(ymd, hour string, fhour int) string {
	return fmt.Sprintf("%s/blend.%s/%s/core/blend.t%sz.core.f%03d.%s.grib2", baseURL, ymd, hour, hour, fhour, domain)
}

func (g *Ingestor) cacheNamespace(cycle CycleInfo) string {
	return fmt.Sprintf("nbm/%s/%s", cycle.YMD, cycle.CycleHour)
}

func (g *Ingestor) buildCandidateCycles() []time.Time {
	now := time.Now().UTC()
	rounded := (now.Hour() / 6) * 6
	base := time.Date(now.Year(), now.Month(), now.Day(), rounded, 0, 0, 0, time.UTC)
	var out []time.Time
	for step := 0; step <= 42; step += 6 {
		out = append(out, base.Add(-time.Duration(step)*time.Hour))
	}
	return out
}

// selectCycle probes candidates from most to least recent, latching the
// first that has a usable f024 index, and caching the choice for the
// remainder of this ingestor's lifetime (one per pipeline run). Guarded by
// cycleMu because one Ingestor instance is shared across every site the
// driver fans out to concurrently.
func (g *Ingestor) selectCycle(ctx context.Context) (CycleInfo, error) {
	g.cycleMu.Lock()
	defer g.cycleMu.Unlock()

	if g.cycle != nil {
		return *g.cycle, nil
	}
	for _, candidate := range g.buildCandidateCycles() {
		ymd := candidate.Format("20060102")
		hour := candidate.Format("15")
		resp, err := g.Session.Head(ctx, g.idxURL(ymd, hour, 24))
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			cycle := CycleInfo{When: candidate, YMD: ymd, CycleHour: hour}
			g.cycle = &cycle
			return cycle, nil
		}
	}
	return CycleInfo{}, ErrNoCycle
}

func (g *Ingestor) loadIndex(ctx context.Context, cycle CycleInfo, fhour int) ([]IndexEntry, error) {
	namespace := g.cacheNamespace(cycle)
	text, err := g.Cache.ReadText(namespace, fmt.Sprintf("f%03d.idx", fhour), func() ([]byte, error) {
		return g.Session.GetBytes(ctx, g.idxURL(cycle.YMD, cycle.CycleHour, fhour))
	})
	if err != nil {
		return nil, err
	}
	return ParseIndex(text), nil
}

func (g *Ingestor) downloadSlice(ctx context.Context, cycle CycleInfo, fhour int, start, end int64, tag string) ([]byte, error) {
	namespace := g.cacheNamespace(cycle)
	name := fmt.Sprintf("f%03d_%s.grib2", fhour, tag)
	session := g.Session.WithTimeout(sliceTimeout)
	return g.Cache.ReadBytes(namespace, name, func() ([]byte, error) {
		return session.GetRange(ctx, g.gribURL(cycle.YMD, cycle.CycleHour, fhour), start, end)
	})
}

// sampleField resolves one (short_name, forecast_hour, site) sample,
// memoizing within this run. Returns (nil, nil) when the field is absent
// from the index rather than an error, since that's a normal fallback
// trigger, not a failure.
func (g *Ingestor) sampleField(ctx context.Context, site model.Site, fhour int, shortName string) (*float64, error) {
	key := fieldCacheKey{shortName: shortName, fhour: fhour, site: site.Name}
	if v, ok := g.fieldCache.Get(key); ok {
		return &v, nil
	}

	cycle, err := g.selectCycle(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := g.loadIndex(ctx, cycle, fhour)
	if err != nil {
		return nil, fmt.Errorf("grib: load index f%03d: %w", fhour, err)
	}
	start, end, found := findEntry(entries, shortName)
	if !found {
		return nil, nil
	}
	data, err := g.downloadSlice(ctx, cycle, fhour, start, end, strings.ToLower(shortName))
	if err != nil {
		return nil, fmt.Errorf("grib: download slice f%03d %s: %w", fhour, shortName, err)
	}
	raw, err := g.Decoder.Decode(ctx, data, shortName, site.Latitude, site.Longitude)
	if err != nil {
		return nil, fmt.Errorf("grib: decode %s f%03d: %w", shortName, fhour, err)
	}
	value := convertUnits(shortName, raw)
	g.fieldCache.Add(key, value)
	return &value, nil
}

// resolveHighLow implements the TMAX/MAXT/derived-TMP (or TMIN/MINT)
// fallback chain for one day's extremum.
func (g *Ingestor) resolveHighLow(ctx context.Context, site model.Site, dayIdx int, primary, secondary string) *float64 {
	hour := dayIdx*24 + fieldWindowHours
	if primary == "TMAX" {
		hour = (dayIdx + 1) * 24
	}
	for _, name := range []string{primary, secondary} {
		v, err := g.sampleField(ctx, site, hour, name)
		if err == nil && v != nil {
			return v
		}
	}

	var sampleHours []int
	if dayIdx == 0 {
		for h := 0; h <= 24; h += 3 {
			sampleHours = append(sampleHours, h)
		}
	} else {
		for h := dayIdx*24 + 3; h <= (dayIdx+1)*24; h += 3 {
			sampleHours = append(sampleHours, h)
		}
	}

	var derived *float64
	for _, h := range sampleHours {
		v, err := g.sampleField(ctx, site, h, "TMP")
		if err != nil || v == nil {
			continue
		}
		if derived == nil {
			val := *v
			derived = &val
			continue
		}
		if primary == "TMAX" && *v > *derived {
			*derived = *v
		}
		if primary == "TMIN" && *v < *derived {
			*derived = *v
		}
	}
	return derived
}

func (g *Ingestor) resolveAccumulated(ctx context.Context, site model.Site, dayIdx int, shortName string) *float64 {
	hour1 := dayIdx*24 + fieldWindowHours
	if hour1 < 12 {
		hour1 = 12
	}
	hour2 := (dayIdx + 1) * 24

	var total float64
	var any bool
	for _, h := range []int{hour1, hour2} {
		v, err := g.sampleField(ctx, site, h, shortName)
		if err != nil || v == nil {
			continue
		}
		total += *v
		any = true
	}
	if !any {
		return nil
	}
	return &total
}

func (g *Ingestor) resolvePop(ctx context.Context, site model.Site, dayIdx int) *float64 {
	hour1 := dayIdx*24 + fieldWindowHours
	if hour1 < 12 {
		hour1 = 12
	}
	hour2 := (dayIdx + 1) * 24

	var max *float64
	for _, h := range []int{hour1, hour2} {
		v, err := g.sampleField(ctx, site, h, "POP12")
		if err != nil || v == nil {
			continue
		}
		if max == nil || *v > *max {
			val := *v
			max = &val
		}
	}
	return max
}

// Fetch assembles per-day records for one site from the selected cycle.
func (g *Ingestor) Fetch(ctx context.Context, site model.Site) ([]model.SourceDailyRecord, error) {
	cycle, err := g.selectCycle(ctx)
	if err != nil {
		return nil, err
	}
	baseDay := ingest.DayKey(cycle.When, g.Location)

	out := make([]model.SourceDailyRecord, 0, g.Days)
	for dayIdx := 0; dayIdx < g.Days; dayIdx++ {
		targetDay := baseDay.AddDate(0, 0, dayIdx)
		rec := model.SourceDailyRecord{
			SiteName: site.Name,
			Date:     targetDay,
			Label:    ingest.FormatDayLabel(targetDay),
			Source:   model.SourceNBMGrib,
		}
		rec.HighF = g.resolveHighLow(ctx, site, dayIdx, "TMAX", "MAXT")
		rec.LowF = g.resolveHighLow(ctx, site, dayIdx, "TMIN", "MINT")
		rec.PopPct = g.resolvePop(ctx, site, dayIdx)
		rec.QPFIn = g.resolveAccumulated(ctx, site, dayIdx, "APCP")
		rec.SnowIn = g.resolveAccumulated(ctx, site, dayIdx, "ASNOW")
		out = append(out, rec)
	}
	return out, nil
}
