// Package rss parses the NWS MapClick syndication feed as a last-resort
// ingestor (C5), falling back to the DWML form of the same endpoint when
// the payload isn't RSS.
package rss

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/cache"
	"github.com/i474232898/weather-data-aggregation/internal/common"
	"github.com/i474232898/weather-data-aggregation/internal/httpclient"
	"github.com/i474232898/weather-data-aggregation/internal/ingest"
	"github.com/i474232898/weather-data-aggregation/internal/ingest/dwml"
	"github.com/i474232898/weather-data-aggregation/internal/model"
)

const feedURL = "https://forecast.weather.gov/MapClick.php"

var (
	tempPattern = regexp.MustCompile(`(?i)(High|Low)\s*:?\s*(-?\d+)\s*°?F`)
	popPattern  = regexp.MustCompile(`(\d+)%`)
	slugPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

// precipKeywords is iterated in this fixed order; first match wins,
// mirroring the original's dict-iteration order.
var precipKeywords = []struct {
	keyword string
	label   string
}{
	{"snow", "Snow"},
	{"freezing", "Freezing Rain"},
	{"sleet", "Sleet"},
	{"ice", "Ice Pellets"},
	{"rain", "Rain"},
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

func slug(name string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// ParseRSS extracts per-day records from a syndication feed body via
// regex text extraction, per spec.md §4.5.
func ParseRSS(text []byte, site model.Site, days int, loc *time.Location) ([]model.SourceDailyRecord, error) {
	var feed rssFeed
	if err := xml.Unmarshal(text, &feed); err != nil {
		return nil, fmt.Errorf("rss: parse feed: %w", err)
	}

	daily := map[time.Time]*model.SourceDailyRecord{}
	for _, item := range feed.Channel.Items {
		ts, ok := parsePubDate(item.PubDate, loc)
		if !ok {
			continue
		}
		day := ingest.DayKey(ts, loc)
		rec := ingest.EnsureRecord(daily, site, day, model.SourceNWSRSS)

		combined := strings.TrimSpace(item.Title + " " + item.Description)
		for _, m := range tempPattern.FindAllStringSubmatch(combined, -1) {
			deg, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			if strings.EqualFold(m[1], "high") {
				rec.HighF = ingest.Float64Ptr(deg)
			} else {
				rec.LowF = ingest.Float64Ptr(deg)
			}
		}
		if m := popPattern.FindStringSubmatch(combined); m != nil {
			pop, _ := strconv.ParseFloat(m[1], 64)
			if rec.PopPct == nil || pop > *rec.PopPct {
				rec.PopPct = ingest.Float64Ptr(pop)
			}
		}
		lowered := strings.ToLower(combined)
		for _, kw := range precipKeywords {
			if strings.Contains(lowered, kw.keyword) {
				rec.PrecipType = ingest.StringPtr(kw.label)
				break
			}
		}
		rec.PrecipNotes = combined
		if common.ContainsAnyFold(combined, "breezy", "wind", "gust") {
			rec.WindPhrase = ingest.StringPtr(combined)
		}
	}

	var result []time.Time
	for d := range daily {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	if len(result) > days {
		result = result[:days]
	}
	out := make([]model.SourceDailyRecord, 0, len(result))
	for _, d := range result {
		out = append(out, *daily[d])
	}
	return out, nil
}

func parsePubDate(raw string, loc *time.Location) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	layouts := []string{time.RFC1123Z, time.RFC1123, time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// Ingestor is the C5 RSS/feed ingestor, falling back to DWML when the
// MapClick endpoint doesn't return an RSS body.
type Ingestor struct {
	Session  *httpclient.Session
	Cache    *cache.Manager
	Days     int
	Location *time.Location
}

// SourceName identifies this ingestor.
func (r *Ingestor) SourceName() string { return model.SourceNWSRSS }

func (r *Ingestor) httpGet(ctx context.Context, fcstType string, site model.Site) ([]byte, error) {
	url := fmt.Sprintf("%s?lat=%.4f&lon=%.4f&FcstType=%s", feedURL, site.Latitude, site.Longitude, fcstType)
	return r.Session.GetBytes(ctx, url)
}

func (r *Ingestor) downloadFeed(ctx context.Context, site model.Site) ([]byte, error) {
	name := slug(site.Name) + ".xml"
	text, err := r.Cache.ReadBytes("rss", name, func() ([]byte, error) {
		return r.httpGet(ctx, "rss", site)
	})
	if err != nil {
		return nil, err
	}
	if strings.Contains(strings.ToLower(string(text)), "<rss") {
		return text, nil
	}
	dwmlBody, err := r.httpGet(ctx, "dwml", site)
	if err != nil {
		return nil, err
	}
	if _, err := r.Cache.Overwrite("rss", name, dwmlBody); err != nil {
		return nil, err
	}
	return dwmlBody, nil
}

// Fetch downloads the feed, sniffs RSS vs. DWML, and routes to the
// matching parser.
func (r *Ingestor) Fetch(ctx context.Context, site model.Site) ([]model.SourceDailyRecord, error) {
	payload, err := r.downloadFeed(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("rss: download feed: %w", err)
	}
	if strings.Contains(strings.ToLower(string(payload)), "<rss") {
		return ParseRSS(payload, site, r.Days, r.Location)
	}
	parser := dwml.New(r.Location, r.Days)
	return parser.Parse(payload, site, model.SourceNWSRSS)
}
