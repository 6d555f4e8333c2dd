package ingest

import (
	"strings"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/model"
)

// DayKey truncates t to a local-zone calendar day, matching the
// date-not-datetime invariant every SourceDailyRecord.Date carries.
func DayKey(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// FormatDayLabel renders a calendar day the way every ingestor labels it,
// e.g. "Wed May 01".
func FormatDayLabel(day time.Time) string {
	return day.Format("Mon Jan 02")
}

// EnsureRecord returns the bucket's record for day, creating it (with
// site/date/label/source populated) on first access.
func EnsureRecord(bucket map[time.Time]*model.SourceDailyRecord, site model.Site, day time.Time, source string) *model.SourceDailyRecord {
	rec, ok := bucket[day]
	if !ok {
		rec = &model.SourceDailyRecord{
			SiteName: site.Name,
			Date:     day,
			Label:    FormatDayLabel(day),
			Source:   source,
		}
		bucket[day] = rec
	}
	return rec
}

// SummarizePrecip applies the fixed priority list to a list of
// precipitation/weather-type labels (in first-seen order) and returns the
// dominant label plus a joined, deduplicated notes string.
func SummarizePrecip(types []string, priority []string, sep string) (*string, string) {
	seen := map[string]bool{}
	var unique []string
	for _, t := range types {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		unique = append(unique, t)
	}
	if len(unique) == 0 {
		return nil, ""
	}
	primary := unique[0]
	for _, label := range priority {
		if seen[label] {
			primary = label
			break
		}
	}
	result := primary
	return &result, strings.Join(unique, sep)
}

// Float64Ptr is a small convenience constructor used throughout the
// ingest packages to build *float64 fields.
func Float64Ptr(v float64) *float64 { return &v }

// StringPtr is the string analogue of Float64Ptr.
func StringPtr(v string) *string { return &v }
