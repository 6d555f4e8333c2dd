package ndfd

import (
	"strings"
	"testing"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/model"
)

var fixedNow = time.Date(2026, 7, 1, 6, 0, 0, 0, time.UTC)

func TestAttemptURLsCoversThreeParameterShapes(t *testing.T) {
	n := &Ingestor{Days: 10}
	site := model.Site{Name: "Home", Latitude: 39.123, Longitude: -77.987}

	urls := n.attemptURLs(site, fixedNow)
	if len(urls) != 3 {
		t.Fatalf("expected 3 candidate URLs, got %d", len(urls))
	}
	for _, want := range []string{"NDFDgenLatLonList", "NDFDgen", "listLatLon"} {
		found := false
		for _, u := range urls {
			if strings.Contains(u, want) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected a candidate URL containing %q, got %v", want, urls)
		}
	}
}

func TestAttemptURLsEncodesCoordinates(t *testing.T) {
	n := &Ingestor{Days: 10}
	site := model.Site{Name: "Home", Latitude: 39.1234, Longitude: -77.9876}
	urls := n.attemptURLs(site, fixedNow)
	if !strings.Contains(urls[0], "lat=39.1234") || !strings.Contains(urls[0], "lon=-77.9876") {
		t.Fatalf("expected first URL to encode lat/lon, got %s", urls[0])
	}
}

func TestAttemptURLsIncludesUnitAndWindowParams(t *testing.T) {
	n := &Ingestor{Days: 10}
	site := model.Site{Name: "Home", Latitude: 39.1234, Longitude: -77.9876}
	urls := n.attemptURLs(site, fixedNow)

	for _, want := range []string{"Unit=e", "wgust=wgust", "begin=2026-07-01T06:00:00", "end=2026-07-12T06:00:00"} {
		if !strings.Contains(urls[0], want) {
			t.Fatalf("expected URL to contain %q, got %s", want, urls[0])
		}
	}
}

func TestSourceName(t *testing.T) {
	n := &Ingestor{}
	if n.SourceName() != model.SourceNWSNDFD {
		t.Fatalf("expected SourceNWSNDFD, got %s", n.SourceName())
	}
}
