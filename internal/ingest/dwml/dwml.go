// Package dwml parses the NWS DWML XML dialect (C3): scalar series that
// reference a named time-layout, zipped positionally into per-day
// high/low/PoP/precipitation/weather records.
package dwml

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/common"
	"github.com/i474232898/weather-data-aggregation/internal/ensemble"
	"github.com/i474232898/weather-data-aggregation/internal/ingest"
	"github.com/i474232898/weather-data-aggregation/internal/model"
)

// node is a generic XML element tree, namespace-agnostic, used because
// DWML's layout-keyed series don't fit a single fixed struct the way a
// regular document would.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Chardata string     `xml:",chardata"`
	Nodes    []node     `xml:",any"`
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) findAll(tag string) []*node {
	var out []*node
	var walk func(*node)
	walk = func(cur *node) {
		for i := range cur.Nodes {
			child := &cur.Nodes[i]
			if child.XMLName.Local == tag {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(n)
	return out
}

func (n *node) findFirst(tag string) (*node, bool) {
	all := n.findAll(tag)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// Parser parses DWML payloads into daily records.
type Parser struct {
	Location *time.Location
	Days     int
}

// New returns a Parser truncating output to days records in the given
// local time zone.
func New(loc *time.Location, days int) *Parser {
	return &Parser{Location: loc, Days: days}
}

func parseISOTime(s string) (time.Time, bool) {
	layouts := []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (p *Parser) timeLayouts(root *node) map[string][]time.Time {
	layouts := map[string][]time.Time{}
	for _, layout := range root.findAll("time-layout") {
		key, ok := layout.findFirst("layout-key")
		if !ok || strings.TrimSpace(key.Chardata) == "" {
			continue
		}
		var times []time.Time
		for _, tn := range layout.findAll("start-valid-time") {
			t, ok := parseISOTime(strings.TrimSpace(tn.Chardata))
			if !ok {
				continue
			}
			times = append(times, t.In(p.Location))
		}
		layouts[strings.TrimSpace(key.Chardata)] = times
	}
	return layouts
}

func convertAmount(value, units string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	numeric, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(units) {
	case "inches", "inch", "in":
		return ensemble.Round2(numeric), true
	case "mm", "millimeters":
		return ensemble.Round2(numeric * 0.0393701), true
	case "kg/m^2", "kg/m2":
		return ensemble.Round2(numeric * 0.0393701), true
	case "m":
		return ensemble.Round2(numeric * 39.3701), true
	default:
		return ensemble.Round2(numeric), true
	}
}

var titleReplacer = strings.NewReplacer("_", " ")

func titleCase(s string) string {
	words := strings.Fields(titleReplacer.Replace(s))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}


// Parse converts xml payload into daily records for site, tagging each
// with sourceName (defaults to nws_rss to match the shared DWML form used
// by both the NDFD and RSS-fallback ingestors).
func (p *Parser) Parse(xmlText []byte, site model.Site, sourceName string) ([]model.SourceDailyRecord, error) {
	if sourceName == "" {
		sourceName = model.SourceNWSRSS
	}
	var root node
	if err := xml.Unmarshal(xmlText, &root); err != nil {
		return nil, fmt.Errorf("dwml: parse xml: %w", err)
	}

	layouts := p.timeLayouts(&root)
	daily := map[time.Time]*model.SourceDailyRecord{}

	for _, t := range root.findAll("temperature") {
		temptype, _ := t.attr("type")
		layoutKey, ok := t.attr("time-layout")
		if !ok {
			continue
		}
		times, ok := layouts[layoutKey]
		if !ok {
			continue
		}
		values := t.findAll("value")
		for i := 0; i < len(times) && i < len(values); i++ {
			num, err := strconv.ParseFloat(strings.TrimSpace(values[i].Chardata), 64)
			if err != nil {
				continue
			}
			day := ingest.DayKey(times[i], p.Location)
			rec := ingest.EnsureRecord(daily, site, day, sourceName)
			switch temptype {
			case "maximum":
				rec.HighF = ingest.Float64Ptr(num)
			case "minimum":
				rec.LowF = ingest.Float64Ptr(num)
			}
		}
	}

	for _, pop := range root.findAll("probability-of-precipitation") {
		layoutKey, ok := pop.attr("time-layout")
		if !ok {
			continue
		}
		times, ok := layouts[layoutKey]
		if !ok {
			continue
		}
		values := pop.findAll("value")
		for i := 0; i < len(times) && i < len(values); i++ {
			text := strings.TrimSpace(values[i].Chardata)
			if text == "" {
				continue
			}
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				continue
			}
			day := ingest.DayKey(times[i], p.Location)
			rec := ingest.EnsureRecord(daily, site, day, sourceName)
			if rec.PopPct == nil || num > *rec.PopPct {
				rec.PopPct = ingest.Float64Ptr(num)
			}
		}
	}

	accumulate := func(tag, attrType, field string) {
		for _, n := range root.findAll(tag) {
			if attrType != "" {
				nodeType, _ := n.attr("type")
				if strings.ToLower(nodeType) != attrType {
					continue
				}
			}
			layoutKey, ok := n.attr("time-layout")
			if !ok {
				continue
			}
			times, ok := layouts[layoutKey]
			if !ok {
				continue
			}
			units, _ := n.attr("units")
			values := n.findAll("value")
			for i := 0; i < len(times) && i < len(values); i++ {
				amount, ok := convertAmount(values[i].Chardata, units)
				if !ok || amount <= 0 {
					continue
				}
				day := ingest.DayKey(times[i], p.Location)
				rec := ingest.EnsureRecord(daily, site, day, sourceName)
				var current *float64
				switch field {
				case "qpf":
					current = rec.QPFIn
				case "snow":
					current = rec.SnowIn
				case "ice":
					current = rec.IceIn
				}
				base := 0.0
				if current != nil {
					base = *current
				}
				updated := ensemble.Round2(base + amount)
				switch field {
				case "qpf":
					rec.QPFIn = ingest.Float64Ptr(updated)
				case "snow":
					rec.SnowIn = ingest.Float64Ptr(updated)
				case "ice":
					rec.IceIn = ingest.Float64Ptr(updated)
				}
			}
		}
	}
	accumulate("precipitation", "liquid", "qpf")
	accumulate("precipitation", "snow", "snow")
	accumulate("precipitation", "ice", "ice")
	accumulate("snow-amount", "", "snow")
	accumulate("ice-accumulation", "", "ice")

	weatherNotes := map[time.Time][]string{}
	weatherTypes := map[time.Time][]string{}
	for _, w := range root.findAll("weather") {
		layoutKey, ok := w.attr("time-layout")
		if !ok {
			continue
		}
		times, ok := layouts[layoutKey]
		if !ok {
			continue
		}
		values := w.findAll("value")
		for i := 0; i < len(times) && i < len(values); i++ {
			day := ingest.DayKey(times[i], p.Location)
			ingest.EnsureRecord(daily, site, day, sourceName)
			if summary, ok := values[i].attr("weather-summary"); ok && summary != "" {
				weatherNotes[day] = append(weatherNotes[day], summary)
			}
			for _, cond := range values[i].findAll("weather-conditions") {
				wtype, ok := cond.attr("weather-type")
				if !ok || wtype == "" || wtype == "none" {
					continue
				}
				normalized := titleCase(wtype)
				coverage, _ := cond.attr("coverage")
				intensity, _ := cond.attr("intensity")
				descriptor := normalized
				if intensity != "" && intensity != "none" && intensity != "moderate" {
					descriptor = titleCase(intensity) + " " + descriptor
				}
				if coverage != "" && coverage != "definite" {
					descriptor = titleCase(coverage) + " " + descriptor
				}
				weatherTypes[day] = append(weatherTypes[day], descriptor)
			}
		}
	}

	for _, wf := range root.findAll("wordedForecast") {
		layoutKey, ok := wf.attr("time-layout")
		if !ok {
			continue
		}
		times, ok := layouts[layoutKey]
		if !ok {
			continue
		}
		texts := wf.findAll("text")
		for i := 0; i < len(times) && i < len(texts); i++ {
			normalized := strings.TrimSpace(texts[i].Chardata)
			if normalized == "" {
				continue
			}
			day := ingest.DayKey(times[i], p.Location)
			rec := ingest.EnsureRecord(daily, site, day, sourceName)
			if rec.Notes != "" {
				rec.Notes += " | " + normalized
			} else {
				rec.Notes = normalized
			}
			if common.ContainsAnyFold(normalized, "breezy", "wind", "gust") {
				rec.WindPhrase = ingest.StringPtr(normalized)
			}
		}
	}

	for day, rec := range daily {
		ptype, notes := ingest.SummarizePrecip(weatherTypes[day], ensemble.PrecipPriority, ", ")
		if ptype != nil {
			rec.PrecipType = ptype
		}
		extraNotes := weatherNotes[day]
		if notes != "" {
			extraNotes = append([]string{notes}, extraNotes...)
		}
		seen := map[string]bool{}
		var fragments []string
		for _, f := range extraNotes {
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			fragments = append(fragments, f)
		}
		if len(fragments) > 0 {
			rec.PrecipNotes = strings.Join(fragments, "; ")
		}
	}

	var days []time.Time
	for d := range daily {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	if len(days) > p.Days {
		days = days[:p.Days]
	}
	out := make([]model.SourceDailyRecord, 0, len(days))
	for _, d := range days {
		out = append(out, *daily[d])
	}
	return out, nil
}
