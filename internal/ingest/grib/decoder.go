package grib

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Decoder reduces a single-record GRIB2 byte slice to the value nearest
// (lat, lon). This is spec.md §9's injectable heavy-decode capability:
// production binds to whatever native GRIB library (or CLI) is available
// rather than the core reimplementing a GRIB2 reader.
type Decoder interface {
	Decode(ctx context.Context, data []byte, shortName string, lat, lon float64) (float64, error)
}

// Wgrib2Decoder shells out to the wgrib2 CLI, the one concrete precedent
// in the retrieval pack for pulling a point value out of a GRIB2 file in
// Go (other_examples' hrrr ingest command does the same: write to a temp
// file, run wgrib2 with -csv, parse the trailing value column).
type Wgrib2Decoder struct {
	// BinaryPath overrides the "wgrib2" lookup on PATH, useful in tests.
	BinaryPath string
}

func (w *Wgrib2Decoder) binary() string {
	if w.BinaryPath != "" {
		return w.BinaryPath
	}
	return "wgrib2"
}

// Decode writes data to a temp file and asks wgrib2 for the nearest grid
// point's value in CSV form, then parses the last numeric column.
func (w *Wgrib2Decoder) Decode(ctx context.Context, data []byte, shortName string, lat, lon float64) (float64, error) {
	tmp, err := os.CreateTemp("", "weatherfusion-*.grib2")
	if err != nil {
		return 0, fmt.Errorf("grib: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("grib: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("grib: close temp file: %w", err)
	}

	csvPath := tmp.Name() + ".csv"
	defer os.Remove(csvPath)

	cmd := exec.CommandContext(ctx, w.binary(), tmp.Name(),
		"-lon", fmt.Sprintf("%f", lon), fmt.Sprintf("%f", lat),
		"-csv", csvPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("grib: wgrib2 %s failed: %w (%s)", shortName, err, string(output))
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("grib: open wgrib2 csv output: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return 0, fmt.Errorf("grib: read wgrib2 csv output: %w", err)
	}
	if len(rows) == 0 || len(rows[len(rows)-1]) == 0 {
		return 0, fmt.Errorf("grib: wgrib2 produced no rows for %s", shortName)
	}
	last := rows[len(rows)-1]
	value, err := strconv.ParseFloat(last[len(last)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("grib: parse wgrib2 value column: %w", err)
	}
	return value, nil
}
