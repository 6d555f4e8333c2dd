package dwml

import (
	"testing"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/model"
)

const sampleDWML = `<?xml version="1.0"?>
<dwml>
  <data>
    <time-layout>
      <layout-key>k-p24h-n2-1</layout-key>
      <start-valid-time>2026-07-01T06:00:00-04:00</start-valid-time>
      <start-valid-time>2026-07-02T06:00:00-04:00</start-valid-time>
    </time-layout>
    <parameters>
      <temperature type="maximum" time-layout="k-p24h-n2-1">
        <value>91</value>
        <value>88</value>
      </temperature>
      <temperature type="minimum" time-layout="k-p24h-n2-1">
        <value>70</value>
        <value>68</value>
      </temperature>
      <probability-of-precipitation time-layout="k-p24h-n2-1">
        <value>40</value>
        <value>10</value>
      </probability-of-precipitation>
      <weather time-layout="k-p24h-n2-1">
        <value weather-summary="Scattered thunderstorms">
          <weather-conditions weather-type="thunderstorms" coverage="scattered" intensity="moderate"/>
        </value>
        <value weather-summary="Sunny">
        </value>
      </weather>
    </parameters>
  </data>
</dwml>`

func TestParseBuildsPerDayRecords(t *testing.T) {
	loc := time.FixedZone("EDT", -4*60*60)
	parser := New(loc, 10)

	records, err := parser.Parse([]byte(sampleDWML), model.Site{Name: "Home"}, model.SourceNWSNDFD)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 days, got %d", len(records))
	}

	first := records[0]
	if first.HighF == nil || *first.HighF != 91 {
		t.Fatalf("expected first day high 91, got %v", first.HighF)
	}
	if first.LowF == nil || *first.LowF != 70 {
		t.Fatalf("expected first day low 70, got %v", first.LowF)
	}
	if first.PopPct == nil || *first.PopPct != 40 {
		t.Fatalf("expected first day PoP 40, got %v", first.PopPct)
	}
	if first.PrecipType == nil || *first.PrecipType != "Scattered Thunderstorms" {
		t.Fatalf("expected precip type %q, got %v", "Scattered Thunderstorms", first.PrecipType)
	}

	second := records[1]
	if second.HighF == nil || *second.HighF != 88 {
		t.Fatalf("expected second day high 88, got %v", second.HighF)
	}
}

func TestParseRejectsMalformedXML(t *testing.T) {
	parser := New(time.UTC, 10)
	_, err := parser.Parse([]byte("<not-closed"), model.Site{Name: "Home"}, model.SourceNWSNDFD)
	if err == nil {
		t.Fatalf("expected error for malformed xml")
	}
}
