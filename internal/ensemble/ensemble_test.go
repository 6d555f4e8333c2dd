package ensemble

import (
	"testing"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/model"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func day(offset int) time.Time {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestBuildSiteEnsemblesAveragesAndPicksDominantPrecip(t *testing.T) {
	records := []model.SourceDailyRecord{
		{SiteName: "Home", Date: day(0), Label: "Wed Jul 01", Source: model.SourceNBMGrib, HighF: f(90), LowF: f(70), PrecipType: s("Rain")},
		{SiteName: "Home", Date: day(0), Label: "Wed Jul 01", Source: model.SourceNWSGridpoint, HighF: f(92), LowF: f(68), PrecipType: s("Thunderstorms")},
	}

	out := BuildSiteEnsembles("Home", records, 10)
	if len(out) != 1 {
		t.Fatalf("expected 1 day, got %d", len(out))
	}
	if *out[0].HighF != 91 {
		t.Fatalf("expected mean high 91, got %v", *out[0].HighF)
	}
	if *out[0].PrecipType != "Rain" {
		t.Fatalf("expected Rain to win priority over Thunderstorms, got %v", *out[0].PrecipType)
	}
	if out[0].SourcesCount != 2 {
		t.Fatalf("expected 2 sources, got %d", out[0].SourcesCount)
	}
	if out[0].LowConfidence {
		t.Fatalf("expected high confidence with 2 sources")
	}
}

func TestBuildSiteEnsemblesDropsPoisonedLow(t *testing.T) {
	records := []model.SourceDailyRecord{
		{SiteName: "Home", Date: day(0), Source: model.SourceNBMGrib, HighF: f(60), LowF: f(65)},
	}
	out := BuildSiteEnsembles("Home", records, 10)
	if len(out) != 1 {
		t.Fatalf("expected 1 day, got %d", len(out))
	}
	if out[0].LowF != nil {
		t.Fatalf("expected low dropped when low > high, got %v", *out[0].LowF)
	}
}

func TestBuildSiteEnsemblesSanitizesOutOfRangeTemps(t *testing.T) {
	records := []model.SourceDailyRecord{
		{SiteName: "Home", Date: day(0), Source: model.SourceNBMGrib, HighF: f(200), LowF: f(-100)},
	}
	out := BuildSiteEnsembles("Home", records, 10)
	if len(out) != 0 {
		t.Fatalf("expected day dropped when both signals sanitized away, got %d", len(out))
	}
}

func TestBuildSiteEnsemblesSortsDaysAscendingAndRespectsDaysLimit(t *testing.T) {
	records := []model.SourceDailyRecord{
		{SiteName: "Home", Date: day(2), Source: model.SourceNBMGrib, HighF: f(80)},
		{SiteName: "Home", Date: day(0), Source: model.SourceNBMGrib, HighF: f(70)},
		{SiteName: "Home", Date: day(1), Source: model.SourceNBMGrib, HighF: f(75)},
	}
	out := BuildSiteEnsembles("Home", records, 2)
	if len(out) != 2 {
		t.Fatalf("expected truncation to 2 days, got %d", len(out))
	}
	if !out[0].Date.Equal(day(0)) || !out[1].Date.Equal(day(1)) {
		t.Fatalf("expected ascending date order, got %v then %v", out[0].Date, out[1].Date)
	}
}
