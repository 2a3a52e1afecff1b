// Package report renders a persisted session's gate scores as charts:
// an interactive HTML page for browsing and a PNG timeline for sharing.
package report

import (
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/framewise/framewise/internal/gates"
	"github.com/framewise/framewise/internal/session"
)

// gateColors is one distinct line color per gate, indexed by GateIndex.
var gateColors = [gates.GateCount]color.Color{
	color.RGBA{R: 0x44, G: 0x01, B: 0x54, A: 255},
	color.RGBA{R: 0x31, G: 0x68, B: 0x8e, A: 255},
	color.RGBA{R: 0x1f, G: 0x9e, B: 0x89, A: 255},
	color.RGBA{R: 0x6e, G: 0xce, B: 0x58, A: 255},
	color.RGBA{R: 0xfd, G: 0xe7, B: 0x25, A: 255},
}

// WriteGateChartHTML renders an interactive line chart of every gate's
// score per frame.
func WriteGateChartHTML(w io.Writer, sess *session.Session, frames []*session.FrameRecord) error {
	if len(frames) == 0 {
		return fmt.Errorf("session %s has no frames", sess.ID)
	}

	xAxis := make([]string, len(frames))
	for i, f := range frames {
		xAxis[i] = fmt.Sprintf("%d", f.Seq)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Session Gate Scores",
			Theme:     "dark",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Gate scores per frame",
			Subtitle: fmt.Sprintf("session=%s shot=%s focal=%dmm frames=%d",
				sess.ID, sess.ReferenceShot, sess.ReferenceFocalMM, len(frames)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "Score"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)

	for g := gates.GateAspectRatio; g < gates.GateCount; g++ {
		data := make([]opts.LineData, len(frames))
		for i, f := range frames {
			data[i] = opts.LineData{Value: f.GateScore(g)}
		}
		line.AddSeries(g.String(), data)
	}

	mean := make([]opts.LineData, len(frames))
	for i, f := range frames {
		mean[i] = opts.LineData{Value: f.MeanScore}
	}
	line.AddSeries("mean", mean, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return line.Render(w)
}

// SaveTimelinePNG plots each gate's score against capture time and saves
// the result as a PNG.
func SaveTimelinePNG(path string, sess *session.Session, frames []*session.FrameRecord) error {
	if len(frames) == 0 {
		return fmt.Errorf("session %s has no frames", sess.ID)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s - Gate Scores", sess.ID)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Score"
	p.Y.Min = 0
	p.Y.Max = 1.05

	start := time.Unix(0, frames[0].CapturedAt)
	for g := gates.GateAspectRatio; g < gates.GateCount; g++ {
		pts := make(plotter.XYs, 0, len(frames))
		for _, f := range frames {
			elapsed := time.Unix(0, f.CapturedAt).Sub(start).Seconds()
			pts = append(pts, plotter.XY{X: elapsed, Y: f.GateScore(g)})
		}
		ln, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("gate %s line: %w", g, err)
		}
		ln.Color = gateColors[g]
		ln.Width = vg.Points(1)
		p.Add(ln)
		p.Legend.Add(g.String(), ln)
	}

	p.Legend.Top = true
	p.Legend.Left = false

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save timeline plot: %w", err)
	}
	return nil
}
