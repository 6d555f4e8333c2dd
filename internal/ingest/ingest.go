// Package ingest defines the uniform ingestor contract (C7) and the
// deterministic dispatch ordering derived from configuration (C8).
package ingest

import (
	"context"

	"github.com/i474232898/weather-data-aggregation/internal/model"
)

// Ingestor fetches one source's daily records for a single site. An empty,
// nil-error return is permitted and is reported as a non-fatal no-data
// result by the pipeline driver.
type Ingestor interface {
	SourceName() string
	Fetch(ctx context.Context, site model.Site) ([]model.SourceDailyRecord, error)
}

// PrimaryPublicFiles and PrimaryRSS are the two legal values of the
// primary_ingest config field.
const (
	PrimaryPublicFiles = "PUBLIC_FILES"
	PrimaryRSS         = "RSS"
)

// Order builds the deterministic dispatch list per spec.md §4.7: for
// PUBLIC_FILES, grib then gridpoint then ndfd, with rss appended when
// rssFallback is set; for RSS, rss first then the three public-files
// ingestors in the same order. Entries are deduplicated by identity while
// preserving first-occurrence order.
func Order(primary string, rssFallback bool, grib, gridpoint, ndfd, rss Ingestor) []Ingestor {
	publicFiles := []Ingestor{grib, gridpoint, ndfd}

	var order []Ingestor
	if primary == PrimaryRSS {
		order = append(order, rss)
		order = append(order, publicFiles...)
	} else {
		order = append(order, publicFiles...)
		if rssFallback {
			order = append(order, rss)
		}
	}

	seen := map[Ingestor]bool{}
	deduped := make([]Ingestor, 0, len(order))
	for _, i := range order {
		if seen[i] {
			continue
		}
		seen[i] = true
		deduped = append(deduped, i)
	}
	return deduped
}
