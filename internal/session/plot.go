package session

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WriteTrajectoryPlot renders the frame-space path of a session's
// detections to an image file, format chosen by the path extension. The
// vertical axis is flipped so the plot matches the camera orientation,
// where Y grows downward.
func WriteTrajectoryPlot(s *Session, events []*MotionEvent, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("IR trajectory (%s)", s.SessionID)
	p.X.Label.Text = "Frame X (px)"
	p.Y.Label.Text = "Frame Y (px)"
	p.X.Min, p.X.Max = 0, float64(s.CaptureWidth)
	p.Y.Min, p.Y.Max = 0, float64(s.CaptureHeight)

	pts := make(plotter.XYs, 0, len(events))
	for _, ev := range events {
		pts = append(pts, plotter.XY{
			X: float64(ev.FrameX),
			Y: float64(s.CaptureHeight - ev.FrameY),
		})
	}

	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 217, G: 72, B: 1, A: 255}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("detections", line)
		p.Legend.Top = true
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save trajectory plot: %w", err)
	}
	return nil
}

// WriteDistancePlot renders the tracked distance of each motion event in
// sequence, with the jitter floor visible as the band of events that
// never moved the pointer.
func WriteDistancePlot(s *Session, events []*MotionEvent, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Tracked distance per motion (%s)", s.SessionID)
	p.X.Label.Text = "Event"
	p.Y.Label.Text = "Distance (px)"

	pts := make(plotter.XYs, 0, len(events))
	for i, ev := range events {
		pts = append(pts, plotter.XY{X: float64(i), Y: ev.DistancePx})
	}

	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("distance_px", line)
		p.Legend.Top = true
	}

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save distance plot: %w", err)
	}
	return nil
}
