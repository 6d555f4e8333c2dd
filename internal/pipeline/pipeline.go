// Package pipeline drives one end-to-end run: ingest every source for
// every site, fuse each site's accumulator into a daily ensemble, fetch
// advisory alerts, and hand the result to the rendering collaborators.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-data-aggregation/internal/alerts"
	"github.com/i474232898/weather-data-aggregation/internal/ensemble"
	"github.com/i474232898/weather-data-aggregation/internal/ingest"
	"github.com/i474232898/weather-data-aggregation/internal/model"

	"github.com/rs/zerolog/log"
)

// Driver runs the ingest/fuse/report pipeline for the configured sites.
type Driver struct {
	Ingestors []ingest.Ingestor
	Sites     []model.Site
	Days      int
	Alerts    *alerts.Client
}

// siteAccumulator collects one site's raw records plus source bookkeeping
// across every ingestor in the dispatch order.
type siteAccumulator struct {
	mu       sync.Mutex
	records  []model.SourceDailyRecord
	sourceOK map[string]bool
	failed   []string
}

func newAccumulator() *siteAccumulator {
	return &siteAccumulator{sourceOK: map[string]bool{}}
}

// Result is one site's fused output plus the provenance the run summary
// reports.
type Result struct {
	Site      model.Site
	Ensembles []model.DailyEnsemble
	SourcesOK []string
	Failed    []string
	Alerts    []model.AlertSummary
}

// Run walks the ingestors in dispatch order; for each ingestor it fetches
// every site concurrently and waits for all of them before moving on, so
// each site's records accumulate in dispatch order regardless of
// goroutine scheduling. It then fuses each site's records and
// best-effort fetches alerts.
func (d *Driver) Run(ctx context.Context) ([]Result, error) {
	accumulators := make(map[string]*siteAccumulator, len(d.Sites))
	for _, site := range d.Sites {
		accumulators[site.Name] = newAccumulator()
	}

	for _, ingestor := range d.Ingestors {
		ingestor := ingestor
		g, gctx := errgroup.WithContext(ctx)
		for _, site := range d.Sites {
			site := site
			acc := accumulators[site.Name]
			g.Go(func() error {
				fetchOne(gctx, ingestor, site, acc)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("pipeline: unexpected fan-out error: %w", err)
		}
	}

	results := make([]Result, 0, len(d.Sites))
	for _, site := range d.Sites {
		acc := accumulators[site.Name]
		ensembles := ensemble.BuildSiteEnsembles(site.Name, acc.records, d.Days)

		var sourcesOK []string
		for s := range acc.sourceOK {
			sourcesOK = append(sourcesOK, s)
		}

		var siteAlerts []model.AlertSummary
		if d.Alerts != nil {
			fetched, err := d.Alerts.Fetch(ctx, site)
			if err != nil {
				log.Warn().Err(err).Str("site", site.Name).Msg("alerts fetch failed")
			} else {
				siteAlerts = fetched
			}
		}

		results = append(results, Result{
			Site:      site,
			Ensembles: ensembles,
			SourcesOK: sourcesOK,
			Failed:    acc.failed,
			Alerts:    siteAlerts,
		})
	}
	return results, nil
}

// fetchOne runs a single ingestor against a single site, recording success,
// no-data, or error outcomes into acc without ever propagating the error
// up — one source's failure never aborts the run.
func fetchOne(ctx context.Context, ingestor ingest.Ingestor, site model.Site, acc *siteAccumulator) {
	name := ingestor.SourceName()
	records, err := ingestor.Fetch(ctx, site)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("source", name).Str("site", site.Name).Msg("ingestor failed")
		acc.failed = append(acc.failed, fmt.Sprintf("%s: %v", name, err))
		return
	}
	if len(records) == 0 {
		acc.failed = append(acc.failed, fmt.Sprintf("%s: no data", name))
		return
	}
	acc.records = append(acc.records, records...)
	acc.sourceOK[name] = true
}

// BuildSummary assembles the RunSummary fields the CLI prints, leaving the
// report paths and email flag for the caller to fill in once rendering
// completes.
func BuildSummary(generatedAt time.Time, results []Result) model.RunSummary {
	summary := model.RunSummary{
		GeneratedAt:   generatedAt,
		SourcesOK:     map[string][]string{},
		SourcesFailed: map[string][]string{},
		Alerts:        map[string][]model.AlertSummary{},
	}
	for _, r := range results {
		summary.SourcesOK[r.Site.Name] = r.SourcesOK
		summary.SourcesFailed[r.Site.Name] = r.Failed
		summary.Alerts[r.Site.Name] = r.Alerts
	}
	return summary
}
