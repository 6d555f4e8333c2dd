package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/i474232898/weather-data-aggregation/internal/ingest"
	"github.com/i474232898/weather-data-aggregation/internal/model"
)

type fakeIngestor struct {
	name    string
	records map[string][]model.SourceDailyRecord
	err     map[string]error
}

func (f *fakeIngestor) SourceName() string { return f.name }
func (f *fakeIngestor) Fetch(_ context.Context, site model.Site) ([]model.SourceDailyRecord, error) {
	if err, ok := f.err[site.Name]; ok {
		return nil, err
	}
	return f.records[site.Name], nil
}

func f64(v float64) *float64 { return &v }

func TestDriverRunSurvivesOneIngestorFailure(t *testing.T) {
	home := model.Site{Name: "Home", Latitude: 1, Longitude: 2}

	good := &fakeIngestor{
		name: "good",
		records: map[string][]model.SourceDailyRecord{
			"Home": {{SiteName: "Home", Source: "good", HighF: f64(80), LowF: f64(60)}},
		},
	}
	bad := &fakeIngestor{
		name: "bad",
		err:  map[string]error{"Home": errors.New("boom")},
	}
	empty := &fakeIngestor{name: "empty"}

	driver := &Driver{
		Ingestors: []ingest.Ingestor{good, bad, empty},
		Sites:     []model.Site{home},
		Days:      10,
	}

	results, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 site result, got %d", len(results))
	}

	r := results[0]
	if len(r.SourcesOK) != 1 || r.SourcesOK[0] != "good" {
		t.Fatalf("expected only 'good' to report sources_ok, got %v", r.SourcesOK)
	}
	if len(r.Failed) != 2 {
		t.Fatalf("expected 2 failure entries (bad + empty), got %v", r.Failed)
	}
	if len(r.Ensembles) != 1 {
		t.Fatalf("expected 1 fused day from the surviving ingestor, got %d", len(r.Ensembles))
	}
}
