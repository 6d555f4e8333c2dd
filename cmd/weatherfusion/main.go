// Command weatherfusion runs one end-to-end ingest/fuse/report cycle for
// a home and a work site and prints a JSON summary to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-data-aggregation/internal/alerts"
	"github.com/i474232898/weather-data-aggregation/internal/cache"
	"github.com/i474232898/weather-data-aggregation/internal/config"
	"github.com/i474232898/weather-data-aggregation/internal/httpclient"
	"github.com/i474232898/weather-data-aggregation/internal/ingest"
	"github.com/i474232898/weather-data-aggregation/internal/ingest/grib"
	"github.com/i474232898/weather-data-aggregation/internal/ingest/gridpoint"
	"github.com/i474232898/weather-data-aggregation/internal/ingest/ndfd"
	"github.com/i474232898/weather-data-aggregation/internal/ingest/rss"
	"github.com/i474232898/weather-data-aggregation/internal/logging"
	"github.com/i474232898/weather-data-aggregation/internal/mailer"
	"github.com/i474232898/weather-data-aggregation/internal/model"
	"github.com/i474232898/weather-data-aggregation/internal/pipeline"
	"github.com/i474232898/weather-data-aggregation/internal/report"
)

func main() {
	fs := flag.NewFlagSet("weatherfusion", flag.ExitOnError)
	overrides := config.RegisterFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	config.ResolveOverrides(fs, overrides)

	settings, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "weatherfusion: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(settings.LogsDir, zerolog.InfoLevel); err != nil {
		fmt.Fprintf(os.Stderr, "weatherfusion: failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	log.Logger = log.With().Str("run_id", uuid.NewString()).Logger()

	if err := run(settings); err != nil {
		log.Fatal().Err(err).Msg("weatherfusion: pipeline run failed")
	}
}

func run(settings *config.Settings) error {
	ctx := context.Background()

	loc, err := settings.Location()
	if err != nil {
		return err
	}

	ttl := settings.CacheTTL
	if settings.NoCache {
		ttl = 0
	}
	cacheDir := filepath.Join(settings.OutDir, "cache")
	cacheMgr, err := cache.New(cacheDir, ttl)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	session := httpclient.New(settings.UserAgent)

	gribIngestor := grib.New(session, cacheMgr, &grib.Wgrib2Decoder{}, settings.Days, loc)
	gridpointIngestor := &gridpoint.Ingestor{Session: session, Cache: cacheMgr, Days: settings.Days, Location: loc}
	ndfdIngestor := &ndfd.Ingestor{Session: session, Cache: cacheMgr, Days: settings.Days, Location: loc}
	rssIngestor := &rss.Ingestor{Session: session, Cache: cacheMgr, Days: settings.Days, Location: loc}

	order := ingest.Order(settings.PrimaryIngest, settings.RSSFallback, gribIngestor, gridpointIngestor, ndfdIngestor, rssIngestor)

	driver := &pipeline.Driver{
		Ingestors: order,
		Sites:     []model.Site{settings.Home, settings.Work},
		Days:      settings.Days,
		Alerts:    &alerts.Client{Session: session},
	}

	results, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	generatedAt := time.Now().In(loc)
	summary := pipeline.BuildSummary(generatedAt, results)

	var homeRows, workRows []model.DailyEnsemble
	var allAlerts []model.AlertSummary
	for _, r := range results {
		switch r.Site.Name {
		case settings.Home.Name:
			homeRows = r.Ensembles
		case settings.Work.Name:
			workRows = r.Ensembles
		}
		allAlerts = append(allAlerts, r.Alerts...)
	}

	htmlPath := filepath.Join(settings.OutDir, fmt.Sprintf("weatherfusion_%s.html", generatedAt.Format("20060102_1504")))
	htmlFile, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	if err := report.Render(htmlFile, generatedAt, homeRows, workRows, allAlerts); err != nil {
		htmlFile.Close()
		return fmt.Errorf("render html report: %w", err)
	}
	htmlFile.Close()
	summary.HTMLReport = htmlPath

	pngPath := filepath.Join(settings.OutDir, report.NewFileName(generatedAt.Format("20060102_1504")))
	pngFile, err := os.Create(pngPath)
	if err != nil {
		return fmt.Errorf("create png report: %w", err)
	}
	if err := report.RenderPNG(pngFile, append(append([]model.DailyEnsemble{}, homeRows...), workRows...)); err != nil {
		pngFile.Close()
		return fmt.Errorf("render png report: %w", err)
	}
	pngFile.Close()
	summary.PNGReport = pngPath

	csvPaths := map[string]string{}
	homeCSVPath := filepath.Join(settings.OutDir, "home.csv")
	if _, err := report.WriteHomeCSV(homeRows, homeCSVPath); err != nil {
		return fmt.Errorf("write home csv: %w", err)
	}
	csvPaths["home"] = homeCSVPath

	workCSVPath := filepath.Join(settings.OutDir, "work.csv")
	if _, err := report.WriteWorkCSV(workRows, workCSVPath); err != nil {
		return fmt.Errorf("write work csv: %w", err)
	}
	csvPaths["work"] = workCSVPath
	summary.CSVPaths = csvPaths

	emailSent := false
	if !settings.HTMLOnly && settings.Email.Enabled() {
		htmlBody, err := os.ReadFile(htmlPath)
		if err != nil {
			return fmt.Errorf("read rendered html for email: %w", err)
		}
		client := &mailer.Client{Settings: mailer.Settings{
			Enabled:   true,
			Host:      settings.Email.Host,
			Port:      settings.Email.Port,
			Username:  settings.Email.Username,
			Password:  settings.Email.Password,
			Sender:    settings.Email.Sender,
			Recipient: settings.Email.Recipient,
		}}
		sent, err := client.Send(
			fmt.Sprintf("Weather fusion report — %s", generatedAt.Format("Mon Jan 02")),
			string(htmlBody),
			[]mailer.Attachment{
				{Label: "home", Path: homeCSVPath},
				{Label: "work", Path: workCSVPath},
			},
		)
		if err != nil {
			log.Warn().Err(err).Msg("email delivery failed")
		} else {
			emailSent = sent
		}
	}
	summary.EmailSent = emailSent

	return printSummary(summary)
}

func printSummary(summary model.RunSummary) error {
	out := struct {
		HTMLReport string            `json:"html_report"`
		PNGReport  string            `json:"png_report"`
		CSVPaths   map[string]string `json:"csv_paths"`
		EmailSent  bool              `json:"email_sent"`
	}{
		HTMLReport: summary.HTMLReport,
		PNGReport:  summary.PNGReport,
		CSVPaths:   summary.CSVPaths,
		EmailSent:  summary.EmailSent,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
