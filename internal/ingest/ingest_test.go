package ingest

import (
	"context"
	"testing"

	"github.com/i474232898/weather-data-aggregation/internal/model"
)

type stubIngestor struct{ name string }

func (s *stubIngestor) SourceName() string { return s.name }
func (s *stubIngestor) Fetch(context.Context, model.Site) ([]model.SourceDailyRecord, error) {
	return nil, nil
}

func namesOf(ingestors []Ingestor) []string {
	out := make([]string, len(ingestors))
	for i, ing := range ingestors {
		out[i] = ing.SourceName()
	}
	return out
}

func TestOrderPublicFilesPrimaryWithRSSFallback(t *testing.T) {
	grib := &stubIngestor{"grib"}
	gridpoint := &stubIngestor{"gridpoint"}
	ndfd := &stubIngestor{"ndfd"}
	rss := &stubIngestor{"rss"}

	got := namesOf(Order(PrimaryPublicFiles, true, grib, gridpoint, ndfd, rss))
	want := []string{"grib", "gridpoint", "ndfd", "rss"}
	assertEqualOrder(t, got, want)
}

func TestOrderPublicFilesPrimaryWithoutRSSFallback(t *testing.T) {
	grib := &stubIngestor{"grib"}
	gridpoint := &stubIngestor{"gridpoint"}
	ndfd := &stubIngestor{"ndfd"}
	rss := &stubIngestor{"rss"}

	got := namesOf(Order(PrimaryPublicFiles, false, grib, gridpoint, ndfd, rss))
	want := []string{"grib", "gridpoint", "ndfd"}
	assertEqualOrder(t, got, want)
}

func TestOrderRSSPrimary(t *testing.T) {
	grib := &stubIngestor{"grib"}
	gridpoint := &stubIngestor{"gridpoint"}
	ndfd := &stubIngestor{"ndfd"}
	rss := &stubIngestor{"rss"}

	got := namesOf(Order(PrimaryRSS, true, grib, gridpoint, ndfd, rss))
	want := []string{"rss", "grib", "gridpoint", "ndfd"}
	assertEqualOrder(t, got, want)
}

func assertEqualOrder(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
