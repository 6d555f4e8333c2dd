package gridpoint

import (
	"testing"
	"time"
)

func TestParsePeriodHandlesInstantDurationForm(t *testing.T) {
	loc := time.UTC
	start, end, err := parsePeriod("2026-07-01T06:00:00Z/P1DT2H", loc)
	if err != nil {
		t.Fatalf("parsePeriod: %v", err)
	}
	wantStart := time.Date(2026, 7, 1, 6, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Fatalf("expected start %v, got %v", wantStart, start)
	}
	wantEnd := wantStart.Add(26 * time.Hour)
	if !end.Equal(wantEnd) {
		t.Fatalf("expected end %v, got %v", wantEnd, end)
	}
}

func TestParsePeriodHandlesPlainInstant(t *testing.T) {
	loc := time.UTC
	start, end, err := parsePeriod("2026-07-01T06:00:00Z", loc)
	if err != nil {
		t.Fatalf("parsePeriod: %v", err)
	}
	if !end.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected 1h default span for plain instant, got %v -> %v", start, end)
	}
}

func TestParseDurationDefaultsToOneHourWhenUnparsable(t *testing.T) {
	got := parseDuration("garbage")
	if got != time.Hour {
		t.Fatalf("expected default 1h for unparsable duration, got %v", got)
	}
}

func TestBucketNumericMaxVsSum(t *testing.T) {
	loc := time.UTC
	values := []valueEntry[float64]{
		{ValidTime: "2026-07-01T06:00:00Z/PT6H", Value: 10},
		{ValidTime: "2026-07-01T12:00:00Z/PT6H", Value: 20},
	}
	maxBucket := bucketNumeric(values, loc, false, nil)
	day := time.Date(2026, 7, 1, 0, 0, 0, 0, loc)
	if maxBucket[day] != 20 {
		t.Fatalf("expected max 20, got %v", maxBucket[day])
	}

	sumBucket := bucketNumeric(values, loc, true, nil)
	if sumBucket[day] != 30 {
		t.Fatalf("expected sum 30, got %v", sumBucket[day])
	}
}

func TestWeatherPhraseFormatsCoverageIntensityAttributes(t *testing.T) {
	phrase := weatherPhrase(weatherEntry{
		Coverage:   "chance",
		Intensity:  "heavy",
		Weather:    "rain_showers",
		Attributes: []string{"small_hail"},
	})
	want := "Chance Heavy Rain Showers Small Hail"
	if phrase != want {
		t.Fatalf("expected %q, got %q", want, phrase)
	}
}
