// Package chart renders the day-by-category hours of a report window as a
// PNG stacked bar chart.
package chart

import (
	"bytes"
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"timereport/internal/domain"
	"timereport/internal/stats"
)

const (
	defaultWidth  = 1024
	defaultHeight = 512
)

type Renderer struct {
	Title  string
	Width  int
	Height int
}

func NewRenderer(title string) *Renderer {
	return &Renderer{Title: title, Width: defaultWidth, Height: defaultHeight}
}

// Render draws one bar per day of the window, stacked by category. It returns
// nil bytes when the window holds no categorized hours.
func (r *Renderer) Render(b stats.Breakdown) ([]byte, error) {
	if b.Empty() {
		return nil, nil
	}

	width, height := r.Width, r.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	bars := dayBars(b, barWidth(width, len(b.Days)))
	graph := gochart.StackedBarChart{
		Title:      fmt.Sprintf("%s (%s)", r.Title, b.Window),
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		YAxis:      gochart.Style{Hidden: true},
		Bars:       bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}
	return buf.Bytes(), nil
}

// The stacked chart scales every bar to full height, so each bar is topped
// with a background-coloured segment up to the busiest day. Bar heights then
// stay proportional to hours.
var paddingStyle = gochart.Style{FillColor: drawing.ColorWhite, StrokeColor: drawing.ColorWhite}

// dayBars builds one bar per day in b.Days. The first value is the padding;
// category segments follow in b.Categories order, skipping empty ones.
func dayBars(b stats.Breakdown, width int) []gochart.StackedBar {
	peak := domain.Hours(0)
	for _, d := range b.Days {
		peak = max(peak, dayTotal(d))
	}

	colors := make(map[domain.Category]drawing.Color, len(b.Categories))
	for i, c := range b.Categories {
		colors[c] = gochart.GetDefaultColor(i)
	}

	bars := make([]gochart.StackedBar, 0, len(b.Days))
	for _, d := range b.Days {
		total := dayTotal(d)
		values := []gochart.Value{{Label: "", Value: (peak - total).Float(), Style: paddingStyle}}
		for _, c := range b.Categories {
			h := d.Hours[c]
			if h <= 0 {
				continue
			}
			values = append(values, gochart.Value{
				Label: string(c),
				Value: h.Float(),
				Style: gochart.Style{FillColor: colors[c], StrokeColor: colors[c]},
			})
		}
		bars = append(bars, gochart.StackedBar{
			Name:   fmt.Sprintf("%s %sh", d.Day.Format("Mon 01/02"), total),
			Width:  width,
			Values: values,
		})
	}
	return bars
}

func dayTotal(d stats.DayBucket) domain.Hours {
	var total domain.Hours
	for _, h := range d.Hours {
		total += h
	}
	return total
}

func barWidth(width, bars int) int {
	if bars == 0 {
		return 0
	}
	return max(min(width/(bars*2), 120), 10)
}
