// Package render turns placement plans into SVG images.
//
// The drawing shows the full deck with its clearance bands, every placed
// block cell by cell coloured by type, block labels, and a legend. Deck
// coordinates put y=0 at the stern-side bottom edge; SVG flips the axis so
// the deck floor sits at the bottom of the image.
package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/deckpack/pkg/plan"
)

// Cell colours by block type; anything unknown renders gray.
const (
	colorCrane   = "#e8923c"
	colorTrestle = "#3c9d5d"
	colorOther   = "#9aa0a6"

	colorDeck      = "#dbe9f4"
	colorUsable    = "#e7f3e7"
	colorBowBand   = "#e9b3b3"
	colorSternBand = "#cbb8e0"
	colorRingBand  = "#f2c48d"
)

// Option configures SVG rendering.
type Option func(*svgRenderer)

type svgRenderer struct {
	cellSize float64
	grid     bool
	legend   bool
}

// WithCellSize sets the pixel size of one deck cell (default 12).
func WithCellSize(px float64) Option {
	return func(r *svgRenderer) {
		if px > 0 {
			r.cellSize = px
		}
	}
}

// WithGrid overlays the cell grid.
func WithGrid() Option {
	return func(r *svgRenderer) { r.grid = true }
}

// WithoutLegend suppresses the legend row below the deck.
func WithoutLegend() Option {
	return func(r *svgRenderer) { r.legend = false }
}

// legendHeight in cell units reserved under the deck.
const legendHeight = 2.5

// SVG renders a plan.
func SVG(p plan.Plan, opts ...Option) []byte {
	r := svgRenderer{cellSize: 12, legend: true}
	for _, opt := range opts {
		opt(&r)
	}

	cs := r.cellSize
	width := float64(p.Deck.Width) * cs
	deckHeight := float64(p.Deck.Height) * cs
	totalHeight := deckHeight
	if r.legend {
		totalHeight += legendHeight * cs
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, totalHeight, width, totalHeight)

	r.renderDeck(&buf, p)
	if r.grid {
		r.renderGrid(&buf, p)
	}
	r.renderBlocks(&buf, p)
	r.renderLabels(&buf, p)
	if r.legend {
		r.renderLegend(&buf, p, deckHeight)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// y converts a deck row to the SVG y of its top edge.
func (r *svgRenderer) y(p plan.Plan, row int) float64 {
	return float64(p.Deck.Height-row-1) * r.cellSize
}

func (r *svgRenderer) renderDeck(buf *bytes.Buffer, p plan.Plan) {
	cs := r.cellSize
	deckW := float64(p.Deck.Width) * cs
	deckH := float64(p.Deck.Height) * cs

	fmt.Fprintf(buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="%s" stroke="#1b3a5c" stroke-width="1.5"/>`+"\n",
		deckW, deckH, colorDeck)

	// Usable rectangle between the clearance bands.
	usableX := float64(p.Deck.SternClearance) * cs
	usableW := float64(p.Deck.Width-p.Deck.BowClearance-p.Deck.SternClearance) * cs
	fmt.Fprintf(buf, `  <rect x="%.1f" y="0" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
		usableX, usableW, deckH, colorUsable)

	if p.Deck.SternClearance > 0 {
		fmt.Fprintf(buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="%s" fill-opacity="0.6"/>`+"\n",
			float64(p.Deck.SternClearance)*cs, deckH, colorSternBand)
	}
	if p.Deck.BowClearance > 0 {
		fmt.Fprintf(buf, `  <rect x="%.1f" y="0" width="%.1f" height="%.1f" fill="%s" fill-opacity="0.6"/>`+"\n",
			float64(p.Deck.Width-p.Deck.BowClearance)*cs, float64(p.Deck.BowClearance)*cs, deckH, colorBowBand)
	}

	// The crane ring band is anchored at the outer bow edge and may reach
	// inside the usable area.
	if ring := p.Deck.RingBowClearance; ring > 0 {
		start := p.Deck.Width + p.Deck.BowClearance - ring
		if start < 0 {
			start = 0
		}
		fmt.Fprintf(buf, `  <rect x="%.1f" y="0" width="%.1f" height="%.1f" fill="%s" fill-opacity="0.35"/>`+"\n",
			float64(start)*cs, float64(p.Deck.Width-start)*cs, deckH, colorRingBand)
	}
}

func (r *svgRenderer) renderGrid(buf *bytes.Buffer, p plan.Plan) {
	cs := r.cellSize
	deckW := float64(p.Deck.Width) * cs
	deckH := float64(p.Deck.Height) * cs

	buf.WriteString(`  <g stroke="#8aa0b4" stroke-width="0.3" opacity="0.5">` + "\n")
	for x := 1; x < p.Deck.Width; x++ {
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="0" x2="%.1f" y2="%.1f"/>`+"\n",
			float64(x)*cs, float64(x)*cs, deckH)
	}
	for y := 1; y < p.Deck.Height; y++ {
		fmt.Fprintf(buf, `    <line x1="0" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
			float64(y)*cs, deckW, float64(y)*cs)
	}
	buf.WriteString("  </g>\n")
}

func (r *svgRenderer) renderBlocks(buf *bytes.Buffer, p plan.Plan) {
	cs := r.cellSize
	for _, pl := range p.Placements {
		fmt.Fprintf(buf, `  <g id="block-%s" fill="%s" stroke="#202020" stroke-width="0.4" fill-opacity="0.85">`+"\n",
			pl.ID, typeColor(pl.Type))
		for _, c := range pl.Cells {
			fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
				float64(c.X)*cs, r.y(p, c.Y), cs, cs)
		}
		buf.WriteString("  </g>\n")
	}
}

func (r *svgRenderer) renderLabels(buf *bytes.Buffer, p plan.Plan) {
	cs := r.cellSize
	for i, pl := range p.Placements {
		cx := (float64(pl.X) + float64(pl.Width)/2) * cs
		cy := r.y(p, pl.Y) + cs - float64(pl.Height)*cs/2
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-size="%.1f" text-anchor="middle" dominant-baseline="middle" fill="#101010">#%d %s</text>`+"\n",
			cx, cy, cs*0.6, i+1, pl.ID)
	}
}

func (r *svgRenderer) renderLegend(buf *bytes.Buffer, p plan.Plan, deckHeight float64) {
	cs := r.cellSize
	y := deckHeight + cs*0.8
	x := cs

	entries := []struct {
		color string
		label string
	}{
		{colorCrane, "crane"},
		{colorTrestle, "trestle"},
	}
	if p.Deck.BowClearance > 0 {
		entries = append(entries, struct{ color, label string }{colorBowBand, fmt.Sprintf("bow clearance (%d)", p.Deck.BowClearance)})
	}
	if p.Deck.SternClearance > 0 {
		entries = append(entries, struct{ color, label string }{colorSternBand, fmt.Sprintf("stern clearance (%d)", p.Deck.SternClearance)})
	}
	if p.Deck.RingBowClearance > 0 {
		entries = append(entries, struct{ color, label string }{colorRingBand, fmt.Sprintf("ring bow (%d)", p.Deck.RingBowClearance)})
	}

	for _, e := range entries {
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="#202020" stroke-width="0.3"/>`+"\n",
			x, y, cs*0.8, cs*0.8, e.color)
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-size="%.1f" dominant-baseline="middle" fill="#101010">%s</text>`+"\n",
			x+cs*1.1, y+cs*0.4, cs*0.55, e.label)
		x += cs*1.5 + float64(len(e.label))*cs*0.35 + cs
	}

	// Run summary in the bottom-right corner.
	m := p.Metrics
	summary := fmt.Sprintf("placed %d/%d · utilization %.1f%%", m.PlacedCount, m.TotalBlocks, m.Utilization*100)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-size="%.1f" text-anchor="end" fill="#404040">%s</text>`+"\n",
		float64(p.Deck.Width)*cs-cs*0.5, y+cs*0.4, cs*0.55, summary)
}

func typeColor(t string) string {
	switch t {
	case "crane":
		return colorCrane
	case "trestle":
		return colorTrestle
	default:
		return colorOther
	}
}
