// Package model holds the data types shared across the ingest, ensemble,
// and reporting layers: sites, per-source daily records, and the fused
// daily ensemble that the classifier annotates.
package model

import "time"

// Site is an immutable per-run identity: a display name, coordinates, and
// an optional street address (populated for the work site from
// --work-address, whether or not its coordinates were geocoded from it).
type Site struct {
	Name      string
	Latitude  float64 `validate:"min=-90,max=90"`
	Longitude float64 `validate:"min=-180,max=180"`
	Address   string
}

// Known source identifiers. These are the only values SourceDailyRecord.Source
// should carry.
const (
	SourceNBMGrib      = "nbm_grib"
	SourceNWSGridpoint = "nws_gridpoint"
	SourceNWSNDFD      = "nws_ndfd"
	SourceNWSRSS       = "nws_rss"
)

// SourceDailyRecord is produced by a single ingestor for a single site/day.
// It is never persisted past the run that produced it.
type SourceDailyRecord struct {
	SiteName string
	Date     time.Time // local-zone calendar day, truncated to midnight
	Label    string
	Source   string

	HighF   *float64
	LowF    *float64
	PopPct  *float64
	QPFIn   *float64
	SnowIn  *float64
	IceIn   *float64

	PrecipType  *string
	PrecipNotes string
	WindPhrase  *string
	Notes       string
}

// HeatGuidance is the closed, five-field occupational guidance table entry.
// A struct rather than a map: the field set is fixed by spec, never grows.
type HeatGuidance struct {
	ContinuousHeavyWorkMin      string
	HydrationCupsPerMin         string
	WorkRestMin                 string
	SupervisorAssessmentsPerHr  string
	RadioCheckins               string
}

// DailyEnsemble is the reducer's output for one (site, day), annotated by
// the EHS classifier.
type DailyEnsemble struct {
	SiteName string
	Date     time.Time
	Label    string

	HighF  *float64
	LowF   *float64
	PopPct *float64
	QPFIn  *float64
	SnowIn *float64
	IceIn  *float64

	PrecipType  *string
	PrecipNotes string

	HeatCategory *string
	HeatGuidance HeatGuidance

	FreezeRiskBadge *string
	FreezeGuidance  *string

	Sources       []string
	SourcesCount  int
	LowConfidence bool
	LightningNote string
}

// AlertSummary is a best-effort advisory pulled from the alerts endpoint.
type AlertSummary struct {
	Headline    string
	Severity    string
	Expires     *time.Time
	Instruction string
}

// RunSummary is the pipeline driver's bookkeeping for one run; its JSON
// projection (html_report, png_report, csv_paths, email_sent) is what the
// CLI prints.
type RunSummary struct {
	GeneratedAt    time.Time
	SourcesOK      map[string][]string
	SourcesFailed  map[string][]string
	HTMLReport     string
	PNGReport      string
	CSVPaths       map[string]string
	EmailSent      bool
	Alerts         map[string][]AlertSummary
}
