package session

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteSessionCharts renders the interactive session report as a single
// standalone HTML page: the tracked distance of each motion event, and
// the screen positions the pointer was driven to, colored by the tracked
// distance that caused the move.
func WriteSessionCharts(s *Session, events []*MotionEvent, path string) error {
	distX := make([]string, 0, len(events))
	distY := make([]opts.LineData, 0, len(events))
	moves := make([]opts.ScatterData, 0, len(events))
	for i, ev := range events {
		distX = append(distX, fmt.Sprintf("%d", i))
		distY = append(distY, opts.LineData{Value: ev.DistancePx})
		if ev.Moved {
			// Flip Y so the chart matches screen orientation.
			moves = append(moves, opts.ScatterData{
				Value: []interface{}{ev.PointerX, s.ScreenHeight - ev.PointerY, ev.DistancePx},
			})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "IR Mouse Session", Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Tracked distance per motion", Subtitle: fmt.Sprintf("session=%s events=%d", s.SessionID, len(events))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Distance (px)"}),
	)
	line.SetXAxis(distX).
		AddSeries("distance_px", distY)

	maxDistance := float32(s.PeakDistancePx)
	if maxDistance == 0 {
		maxDistance = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "560px"}),
		charts.WithTitleOpts(opts.Title{Title: "Pointer moves", Subtitle: fmt.Sprintf("moves=%d screen=%dx%d", len(moves), s.ScreenWidth, s.ScreenHeight)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: s.ScreenWidth, Name: "Screen X"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: s.ScreenHeight, Name: "Screen Y"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        maxDistance,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#3e4989", "#26828e", "#35b779", "#b5de2b", "#fde725"}},
		}),
	)
	scatter.AddSeries("pointer", moves, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	page := components.NewPage()
	page.AddCharts(line, scatter)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("render session charts: %w", err)
	}
	return nil
}
