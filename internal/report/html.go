package report

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/model"
)

// Sparkline is a polyline path plus the value range it was drawn from.
type Sparkline struct {
	Path string
	Min  *float64
	Max  *float64
}

func sparkline(values []*float64, width, height float64) Sparkline {
	var points []float64
	for _, v := range values {
		if v != nil {
			points = append(points, *v)
		}
	}
	if len(points) < 2 {
		return Sparkline{}
	}
	min, max := points[0], points[0]
	for _, v := range points[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := math.Max(max-min, 1e-3)
	step := width / float64(len(values)-1)

	var segments []string
	for idx, v := range values {
		if v == nil {
			continue
		}
		x := math.Round(float64(idx)*step*10) / 10
		y := math.Round((height-((*v-min)/span)*height)*10) / 10
		cmd := "L"
		if len(segments) == 0 {
			cmd = "M"
		}
		segments = append(segments, fmt.Sprintf("%s%g,%g", cmd, x, y))
	}
	minR := math.Round(min*10) / 10
	maxR := math.Round(max*10) / 10
	return Sparkline{Path: strings.Join(segments, " "), Min: &minR, Max: &maxR}
}

func tempStyle(value *float64, kind string) template.CSS {
	if value == nil {
		return ""
	}
	const clampMin, clampMax = -10.0, 110.0
	pct := (*value - clampMin) / (clampMax - clampMin)
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	color := "rgba(65, 147, 255, 0.35)"
	if kind == "high" {
		color = "rgba(255, 105, 97, 0.35)"
	}
	pctStr := fmt.Sprintf("%.1f", pct*100)
	return template.CSS(fmt.Sprintf("background: linear-gradient(90deg, %s %s%%, transparent %s%%);", color, pctStr, pctStr))
}

func formatTemp(value *float64) string {
	if value == nil {
		return "—"
	}
	return fmt.Sprintf("%.0f°", *value)
}

func formatPop(value *float64) string {
	if value == nil {
		return "—"
	}
	return fmt.Sprintf("%.0f%%", *value)
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatTemp": formatTemp,
	"formatPop":  formatPop,
	"tempStyle":  tempStyle,
}).Parse(reportTemplateSource))

type siteSection struct {
	Title    string
	Rows     []model.DailyEnsemble
	SparkHi  Sparkline
	SparkLo  Sparkline
	IsWork   bool
}

type reportContext struct {
	GeneratedAt time.Time
	Home        siteSection
	Work        siteSection
	Sections    []siteSection
	Alerts      []model.AlertSummary
}

func buildSection(title string, rows []model.DailyEnsemble, isWork bool) siteSection {
	highs := make([]*float64, len(rows))
	lows := make([]*float64, len(rows))
	for i, r := range rows {
		highs[i] = r.HighF
		lows[i] = r.LowF
	}
	return siteSection{
		Title:   title,
		Rows:    rows,
		SparkHi: sparkline(highs, 240, 56),
		SparkLo: sparkline(lows, 240, 56),
		IsWork:  isWork,
	}
}

// Render writes the HTML summary for one run to w.
func Render(w io.Writer, generatedAt time.Time, homeRows, workRows []model.DailyEnsemble, alerts []model.AlertSummary) error {
	ctx := reportContext{
		GeneratedAt: generatedAt,
		Home:        buildSection("Home", homeRows, false),
		Work:        buildSection("Work", workRows, true),
		Alerts:      alerts,
	}
	ctx.Sections = []siteSection{ctx.Home, ctx.Work}
	return reportTemplate.Execute(w, ctx)
}

const reportTemplateSource = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Weather fusion report — {{.GeneratedAt.Format "Mon Jan 02 2006 15:04"}}</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2rem; color: #1a1a1a; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { padding: 0.4rem 0.6rem; text-align: left; border-bottom: 1px solid #ddd; }
h1 { font-size: 1.3rem; }
h2 { font-size: 1.05rem; margin-top: 2rem; }
svg { background: #fafafa; border: 1px solid #eee; }
.alert { background: #fff3cd; padding: 0.5rem 0.8rem; margin-bottom: 0.5rem; border-left: 4px solid #e0a800; }
</style>
</head>
<body>
<h1>Weather fusion report</h1>
<p>Generated {{.GeneratedAt.Format "Mon Jan 02 2006 15:04 MST"}}</p>

{{range .Alerts}}
<div class="alert"><strong>{{.Severity}}: {{.Headline}}</strong><br>{{.Instruction}}</div>
{{end}}

{{range $section := .Sections}}
<h2>{{$section.Title}}</h2>
<svg width="240" height="56" viewBox="0 0 240 56">
  <path d="{{$section.SparkHi.Path}}" stroke="rgba(255,105,97,0.8)" fill="none" stroke-width="2"/>
  <path d="{{$section.SparkLo.Path}}" stroke="rgba(65,147,255,0.8)" fill="none" stroke-width="2"/>
</svg>
<table>
<tr><th>Day</th><th>High</th><th>Low</th><th>PoP</th><th>Precip</th><th>Heat</th>{{if $section.IsWork}}<th>Freeze</th>{{end}}<th>Sources</th></tr>
{{range $section.Rows}}
<tr>
  <td>{{.Label}}</td>
  <td style="{{tempStyle .HighF "high"}}">{{formatTemp .HighF}}</td>
  <td style="{{tempStyle .LowF "low"}}">{{formatTemp .LowF}}</td>
  <td>{{formatPop .PopPct}}</td>
  <td>{{if .PrecipType}}{{.PrecipType}}{{else}}—{{end}}</td>
  <td>{{if .HeatCategory}}{{.HeatCategory}}{{else}}—{{end}}</td>
  {{if $section.IsWork}}<td>{{if .FreezeRiskBadge}}{{.FreezeRiskBadge}}{{else}}—{{end}}</td>{{end}}
  <td>{{.SourcesCount}}</td>
</tr>
{{end}}
</table>
{{end}}
</body>
</html>
`
