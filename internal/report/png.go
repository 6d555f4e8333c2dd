package report

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/i474232898/weather-data-aggregation/internal/model"
)

// RenderPNG draws a compact per-day high/low bar chart, replacing the
// original's full HTML rasterization (no such library exists anywhere
// in the retrieval pack) with a stdlib-only snapshot.
func RenderPNG(w io.Writer, rows []model.DailyEnsemble) error {
	const (
		barWidth  = 36
		gap       = 12
		height    = 160
		margin    = 20
		clampMin  = -10.0
		clampMax  = 110.0
	)
	width := margin*2 + len(rows)*(barWidth+gap)
	if width < margin*2+barWidth {
		width = margin*2 + barWidth
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{250, 250, 250, 255}}, image.Point{}, draw.Src)

	highColor := color.RGBA{255, 105, 97, 255}
	lowColor := color.RGBA{65, 147, 255, 255}

	yFor := func(v float64) int {
		pct := (v - clampMin) / (clampMax - clampMin)
		if pct < 0 {
			pct = 0
		}
		if pct > 1 {
			pct = 1
		}
		return height - margin - int(pct*float64(height-2*margin))
	}

	for i, row := range rows {
		x0 := margin + i*(barWidth+gap)
		baseline := height - margin
		if row.LowF != nil {
			drawBar(img, x0, yFor(*row.LowF), x0+barWidth/2-1, baseline, lowColor)
		}
		if row.HighF != nil {
			drawBar(img, x0+barWidth/2+1, yFor(*row.HighF), x0+barWidth, baseline, highColor)
		}
	}

	return png.Encode(w, img)
}

func drawBar(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	rect := image.Rect(x0, y0, x1, y1)
	draw.Draw(img, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// NewFileName builds a deterministic PNG filename for a run timestamp.
func NewFileName(label string) string {
	return fmt.Sprintf("weatherfusion_%s.png", label)
}
