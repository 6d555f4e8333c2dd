package grib

import "testing"

const sampleIndex = `1:0:d=2026070100:TMP:2 m above ground:24 hour fcst:
2:185000:d=2026070100:TMAX:2 m above ground:24 hour fcst:
3:402000:d=2026070100:TMAX:2 m above ground:24 hour fcst:std dev
4:520000:d=2026070100:APCP:surface:0-24 hour acc fcst:`

func TestParseIndexReadsEntries(t *testing.T) {
	entries := ParseIndex(sampleIndex)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[1].Number != 2 || entries[1].Offset != 185000 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestFindEntryExcludesStdDevAndResolvesByteRange(t *testing.T) {
	entries := ParseIndex(sampleIndex)

	start, end, found := findEntry(entries, "TMAX")
	if !found {
		t.Fatalf("expected TMAX entry to be found")
	}
	if start != 185000 {
		t.Fatalf("expected start 185000, got %d", start)
	}
	if end != 401999 {
		t.Fatalf("expected end just before the std-dev entry, got %d", end)
	}
}

func TestFindEntryOpenEndedForLastEntry(t *testing.T) {
	entries := ParseIndex(sampleIndex)
	start, end, found := findEntry(entries, "APCP")
	if !found {
		t.Fatalf("expected APCP entry to be found")
	}
	if start != 520000 {
		t.Fatalf("expected start 520000, got %d", start)
	}
	if end != -1 {
		t.Fatalf("expected open-ended range (-1) for last entry, got %d", end)
	}
}

func TestFindEntryMissingFieldReturnsNotFound(t *testing.T) {
	entries := ParseIndex(sampleIndex)
	_, _, found := findEntry(entries, "ASNOW")
	if found {
		t.Fatalf("expected ASNOW to be absent from index")
	}
}

func TestConvertUnitsAppliesKelvinAndMetric(t *testing.T) {
	if got := convertUnits("TMAX", 273.15); got != 32 {
		t.Fatalf("expected 32F for 273.15K, got %v", got)
	}
	if got := convertUnits("POP12", 55); got != 55 {
		t.Fatalf("expected POP12 passthrough, got %v", got)
	}
}
