package config

import (
	"path/filepath"
	"testing"
)

func TestCliOrEnvPrecedenceCLIBeatsEnv(t *testing.T) {
	t.Setenv("DAYS", "5")
	cli := 7
	if got := cliOrEnvInt(&cli, "DAYS", 10); got != 7 {
		t.Fatalf("expected CLI override to win, got %d", got)
	}
}

func TestCliOrEnvFallsBackToEnvThenDefault(t *testing.T) {
	t.Setenv("DAYS", "5")
	if got := cliOrEnvInt(nil, "DAYS", 10); got != 5 {
		t.Fatalf("expected env value 5, got %d", got)
	}
	if got := cliOrEnvInt(nil, "UNSET_DAYS_VAR", 10); got != 10 {
		t.Fatalf("expected default 10, got %d", got)
	}
}

func TestEnvBoolParsesCommonForms(t *testing.T) {
	cases := map[string]bool{"1": true, "true": true, "yes": true, "on": true, "0": false, "false": false, "no": false, "off": false}
	for raw, want := range cases {
		t.Setenv("RSS_FALLBACK_TEST", raw)
		if got := envBool("RSS_FALLBACK_TEST", !want); got != want {
			t.Fatalf("envBool(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestWriteAndReadCachedCoordsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "work_coords.json")
	if err := writeCachedCoords(path, 39.5, -77.9); err != nil {
		t.Fatalf("writeCachedCoords: %v", err)
	}
	got, ok := readCachedCoords(path)
	if !ok {
		t.Fatalf("expected cached coords to be readable")
	}
	if got.Lat != 39.5 || got.Lon != -77.9 {
		t.Fatalf("unexpected cached coords: %+v", got)
	}
}

func TestLoadWithExplicitWorkCoordsSkipsGeocoding(t *testing.T) {
	outDir := t.TempDir()
	logsDir := t.TempDir()
	workLat, workLon := 39.1, -77.2

	o := &CLIOverrides{
		OutDir:  &outDir,
		LogsDir: &logsDir,
		WorkLat: &workLat,
		WorkLon: &workLon,
	}
	settings, err := Load(o)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.Work.Latitude != workLat || settings.Work.Longitude != workLon {
		t.Fatalf("expected explicit work coords to be used, got %+v", settings.Work)
	}
	if settings.Days != 10 {
		t.Fatalf("expected default Days 10, got %d", settings.Days)
	}
	if settings.PrimaryIngest != "PUBLIC_FILES" {
		t.Fatalf("expected default primary ingest, got %s", settings.PrimaryIngest)
	}

	cached, ok := readCachedCoords(filepath.Join(outDir, "work_coords.json"))
	if !ok || cached.Lat != workLat {
		t.Fatalf("expected explicit work coords to be cached, got %+v ok=%v", cached, ok)
	}
}

func TestEmailSettingsEnabledRequiresAllFields(t *testing.T) {
	e := EmailSettings{Sender: "a@example.com", Recipient: "b@example.com", Host: "smtp.example.com"}
	if e.Enabled() {
		t.Fatalf("expected Enabled to require username/password too")
	}
	e.Username = "u"
	e.Password = "p"
	if !e.Enabled() {
		t.Fatalf("expected Enabled once every field is populated")
	}
}
