package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/bamdow/folio/internal/gravity"
)

// PosesToSVG draws a page of the given size with every body at its
// simulated pose. Pinned boxes are outlined faintly underneath so the
// scatter can be compared with the original layout.
func PosesToSVG(bodies []gravity.Body, width, height float64) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#fafafa"/>
<g fill="none" stroke="#d0d0d0" stroke-dasharray="4 3">
`, width, height, width, height))

	for _, b := range bodies {
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>
`, b.Pin.Left, b.Pin.Top, b.Pin.Width, b.Pin.Height))
	}
	sb.WriteString("</g>\n<g fill=\"#111111\" fill-opacity=\"0.85\">\n")

	for _, b := range bodies {
		w, h := b.Pin.Width, b.Pin.Height
		r := math.Min(w, h) * 0.1
		sb.WriteString(fmt.Sprintf(`<rect data-ref="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" transform="translate(%.1f %.1f) rotate(%.2f)"/>
`, html.EscapeString(b.Ref), -w/2, -h/2, w, h, r, b.Pose.X, b.Pose.Y, b.Pose.Angle*180/math.Pi))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG plots a sampled series, such as kinetic energy per step, as
// a polyline scaled to fill the image.
func SeriesToSVG(series []float64, width, height int, strokeColor string) string {
	if len(series) < 2 {
		return ""
	}

	minY, maxY := series[0], series[0]
	for _, v := range series {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	n := float64(len(series) - 1)
	for i, v := range series {
		x := float64(i) / n * float64(width)
		y := float64(height) - (v-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
