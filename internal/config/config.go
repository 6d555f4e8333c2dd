// Package config loads and validates the settings for one weatherfusion
// run: CLI flags override environment variables, which override defaults,
// following the original's load_settings precedence.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelvins/geocoder"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-data-aggregation/internal/model"
)

const defaultUserAgent = "WeatherFusion/1.0 (contact: you@example.com)"

// EmailSettings configures optional SMTP delivery; Enabled is computed,
// not stored, so it can never drift from the fields backing it.
type EmailSettings struct {
	Sender    string
	Recipient string
	Host      string
	Port      int `validate:"omitempty,min=1,max=65535"`
	Username  string
	Password  string
}

// Enabled reports whether every field required to send mail is populated.
func (e EmailSettings) Enabled() bool {
	return e.Sender != "" && e.Recipient != "" && e.Host != "" && e.Username != "" && e.Password != ""
}

// Settings is the fully merged, validated configuration for one run.
type Settings struct {
	Days          int    `validate:"min=1,max=14"`
	PrimaryIngest string `validate:"oneof=PUBLIC_FILES RSS"`
	RSSFallback   bool
	CacheTTL      time.Duration
	UserAgent     string `validate:"required"`
	TZ            string `validate:"required"`
	OutDir        string `validate:"required"`
	LogsDir       string `validate:"required"`
	NoCache       bool
	HTMLOnly      bool

	Home model.Site
	Work model.Site

	Email EmailSettings
}

// CLIOverrides carries flag.Parse results into Load. Every field stays a
// pointer so Load can tell "flag not passed" apart from "flag set to the
// zero value".
type CLIOverrides struct {
	Days          *int
	Primary       *string
	RSSFallbackOn *bool
	CacheTTLHours *int
	UserAgent     *string
	TZ            *string
	OutDir        *string
	LogsDir       *string
	NoCache       *bool
	HTMLOnly      *bool

	PlaceHome *string
	HomeLat   *float64
	HomeLon   *float64

	PlaceWork   *string
	WorkLat     *float64
	WorkLon     *float64
	WorkAddress *string
}

// RegisterFlags attaches every CLI override to fs, mirroring cli.py's
// argument surface.
func RegisterFlags(fs *flag.FlagSet) *CLIOverrides {
	o := &CLIOverrides{}
	o.Days = fs.Int("days", 0, "number of days to fuse (default 10)")
	o.Primary = fs.String("primary", "", "primary ingest source: PUBLIC_FILES or RSS")
	o.RSSFallbackOn = fs.Bool("rss-fallback", true, "also run the RSS ingestor after the public-files sources")
	o.CacheTTLHours = fs.Int("cache-ttl-hours", 0, "cache freshness window in hours (default 3)")
	o.UserAgent = fs.String("user-agent", "", "HTTP User-Agent sent with every upstream request")
	o.TZ = fs.String("tz", "", "IANA timezone name (default America/New_York)")
	o.OutDir = fs.String("out-dir", "", "output directory for reports (default out)")
	o.LogsDir = fs.String("logs-dir", "", "log directory (default logs)")
	o.NoCache = fs.Bool("no-cache", false, "disable the on-disk cache")
	o.HTMLOnly = fs.Bool("html-only", false, "skip email delivery regardless of SMTP settings")
	o.PlaceHome = fs.String("place-home", "", "display name for the home site")
	o.HomeLat = fs.Float64("home-lat", 0, "home site latitude")
	o.HomeLon = fs.Float64("home-lon", 0, "home site longitude")
	o.PlaceWork = fs.String("place-work", "", "display name for the work site")
	o.WorkLat = fs.Float64("work-lat", 0, "work site latitude (skips geocoding when set with -work-lon)")
	o.WorkLon = fs.Float64("work-lon", 0, "work site longitude")
	o.WorkAddress = fs.String("work-address", "", "street address to geocode for the work site")
	return o
}

// flagPointers names every CLIOverrides field by its flag name, so
// ResolveOverrides can nil out whichever ones the user didn't actually
// pass on the command line.
func flagPointers(o *CLIOverrides) map[string]interface{} {
	return map[string]interface{}{
		"days":            &o.Days,
		"primary":         &o.Primary,
		"rss-fallback":    &o.RSSFallbackOn,
		"cache-ttl-hours": &o.CacheTTLHours,
		"user-agent":      &o.UserAgent,
		"tz":              &o.TZ,
		"out-dir":         &o.OutDir,
		"logs-dir":        &o.LogsDir,
		"no-cache":        &o.NoCache,
		"html-only":       &o.HTMLOnly,
		"place-home":      &o.PlaceHome,
		"home-lat":        &o.HomeLat,
		"home-lon":        &o.HomeLon,
		"place-work":      &o.PlaceWork,
		"work-lat":        &o.WorkLat,
		"work-lon":        &o.WorkLon,
		"work-address":    &o.WorkAddress,
	}
}

// ResolveOverrides must be called once after fs.Parse: it nils out every
// override field whose flag was never actually passed on the command
// line, so cliOrEnvInt/Float/String can tell "not set" apart from
// "explicitly set to the type's zero value" (e.g. -cache-ttl-hours=0 or
// -home-lat=0 for a site on the equator).
func ResolveOverrides(fs *flag.FlagSet, o *CLIOverrides) {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for name, ptr := range flagPointers(o) {
		if set[name] {
			continue
		}
		switch p := ptr.(type) {
		case **int:
			*p = nil
		case **string:
			*p = nil
		case **bool:
			*p = nil
		case **float64:
			*p = nil
		}
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// cliOrEnvFloat/String/Int assume the caller has already run
// ResolveOverrides, so a non-nil cli pointer means the flag was actually
// passed — including an explicit zero/empty value — not merely that it
// holds its zero-value default.
func cliOrEnvFloat(cli *float64, key string, def float64) float64 {
	if cli != nil {
		return *cli
	}
	return envFloat(key, def)
}

func cliOrEnvString(cli *string, key, def string) string {
	if cli != nil {
		return *cli
	}
	return envOr(key, def)
}

func cliOrEnvInt(cli *int, key string, def int) int {
	if cli != nil {
		return *cli
	}
	return envInt(key, def)
}

type cachedCoords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func readCachedCoords(path string) (cachedCoords, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cachedCoords{}, false
	}
	var c cachedCoords
	if err := json.Unmarshal(data, &c); err != nil {
		return cachedCoords{}, false
	}
	return c, true
}

func writeCachedCoords(path string, lat, lon float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cachedCoords{Lat: lat, Lon: lon}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// resolveWorkCoords geocodes address via the Google Maps API, caching the
// result under outDir/work_coords.json so repeated runs (and tests) don't
// re-hit the geocoding API for a street address that never moves.
func resolveWorkCoords(address, outDir string) (float64, float64, error) {
	cachePath := filepath.Join(outDir, "work_coords.json")
	if cached, ok := readCachedCoords(cachePath); ok {
		return cached.Lat, cached.Lon, nil
	}

	location, err := geocoder.Geocoding(geocoder.Address{Street: address})
	if err != nil {
		return 0, 0, fmt.Errorf("config: geocode work address %q: %w", address, err)
	}
	lat := float64(location.Latitude)
	lon := float64(location.Longitude)
	if err := writeCachedCoords(cachePath, lat, lon); err != nil {
		log.Warn().Err(err).Msg("config: failed to cache work coordinates")
	}
	return lat, lon, nil
}

// Load merges CLI overrides, environment variables, and defaults into a
// validated Settings, geocoding the work address when explicit
// coordinates weren't given.
func Load(o *CLIOverrides) (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg("no .env file found or error loading it")
	}

	outDir := cliOrEnvString(o.OutDir, "OUT_DIR", "out")
	logsDir := cliOrEnvString(o.LogsDir, "LOGS_DIR", "logs")

	homeLat := cliOrEnvFloat(o.HomeLat, "HOME_LAT", 39.3381)
	homeLon := cliOrEnvFloat(o.HomeLon, "HOME_LON", -77.7925)
	homeName := cliOrEnvString(o.PlaceHome, "PLACE_HOME", "Home")

	workAddress := cliOrEnvString(o.WorkAddress, "WORK_ADDRESS", "1042 Development Drive, Inwood, WV")

	var workLat, workLon float64
	haveExplicitWork := o.WorkLat != nil || os.Getenv("WORK_LAT") != ""
	if haveExplicitWork {
		workLat = cliOrEnvFloat(o.WorkLat, "WORK_LAT", 0)
		workLon = cliOrEnvFloat(o.WorkLon, "WORK_LON", 0)
		if err := writeCachedCoords(filepath.Join(outDir, "work_coords.json"), workLat, workLon); err != nil {
			log.Warn().Err(err).Msg("config: failed to cache explicit work coordinates")
		}
	} else {
		geocoder.ApiKey = os.Getenv("GEOCODING_API_KEY")
		lat, lon, err := resolveWorkCoords(workAddress, outDir)
		if err != nil {
			return nil, err
		}
		workLat, workLon = lat, lon
	}
	workName := cliOrEnvString(o.PlaceWork, "PLACE_WORK", workAddress)

	rssFallback := envBool("RSS_FALLBACK", true)
	if o.RSSFallbackOn != nil {
		rssFallback = *o.RSSFallbackOn
	}

	settings := &Settings{
		Days:          cliOrEnvInt(o.Days, "DAYS", 10),
		PrimaryIngest: strings.ToUpper(cliOrEnvString(o.Primary, "PRIMARY_INGEST", "PUBLIC_FILES")),
		RSSFallback:   rssFallback,
		CacheTTL:      time.Duration(cliOrEnvInt(o.CacheTTLHours, "CACHE_TTL_HOURS", 3)) * time.Hour,
		UserAgent:     cliOrEnvString(o.UserAgent, "USER_AGENT", defaultUserAgent),
		TZ:            cliOrEnvString(o.TZ, "TZ", "America/New_York"),
		OutDir:        outDir,
		LogsDir:       logsDir,
		NoCache:       o.NoCache != nil && *o.NoCache,
		HTMLOnly:      o.HTMLOnly != nil && *o.HTMLOnly,
		Home: model.Site{
			Name:      homeName,
			Latitude:  homeLat,
			Longitude: homeLon,
		},
		Work: model.Site{
			Name:      workName,
			Latitude:  workLat,
			Longitude: workLon,
			Address:   workAddress,
		},
		Email: EmailSettings{
			Sender:    os.Getenv("MAIL_FROM"),
			Recipient: os.Getenv("MAIL_TO"),
			Host:      os.Getenv("SMTP_HOST"),
			Port:      envInt("SMTP_PORT", 587),
			Username:  os.Getenv("SMTP_USER"),
			Password:  os.Getenv("SMTP_PASS"),
		},
	}

	if err := validator.New().Struct(settings); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	if err := os.MkdirAll(settings.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("config: create out dir: %w", err)
	}
	if err := os.MkdirAll(settings.LogsDir, 0o755); err != nil {
		return nil, fmt.Errorf("config: create logs dir: %w", err)
	}
	return settings, nil
}

// Location loads the IANA timezone named by TZ.
func (s *Settings) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.TZ)
	if err != nil {
		return nil, fmt.Errorf("config: load timezone %q: %w", s.TZ, err)
	}
	return loc, nil
}
