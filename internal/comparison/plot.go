package comparison

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/util"
)

var (
	accuracyColor    = color.NRGBA{R: 135, G: 206, B: 235, A: 255}
	consistencyColor = color.NRGBA{R: 144, G: 238, B: 144, A: 255}
	qualityColor     = color.NRGBA{R: 240, G: 128, B: 128, A: 255}
	thresholdColor   = color.NRGBA{R: 220, G: 20, B: 60, A: 255}
	gridColor        = color.Gray{Y: 200}

	variantPalette = []color.NRGBA{
		{R: 31, G: 119, B: 180, A: 255},
		{R: 255, G: 127, B: 14, A: 255},
		{R: 44, G: 160, B: 44, A: 255},
		{R: 214, G: 39, B: 40, A: 255},
		{R: 148, G: 103, B: 189, A: 255},
		{R: 140, G: 86, B: 75, A: 255},
	}
)

// PlotFileName returns the chart file name for format.
func PlotFileName(format string) string {
	return "comparison_plots." + format
}

type variantScores struct {
	id          string
	accuracy    float64
	consistency float64
	quality     float64
}

// plotScores reads the headline metric of each variant; a missing metric plots as 0.
func plotScores(result Result) []variantScores {
	scores := make([]variantScores, 0, len(result.IndividualResults))
	for _, v := range result.IndividualResults {
		s := variantScores{id: v.PromptID}
		m := ExtractMetrics(v.Results.Results)
		if m.Accuracy != nil {
			s.accuracy = m.Accuracy.Accuracy
		}
		if m.Consistency != nil {
			s.consistency = *m.Consistency
		}
		if m.Quality != nil {
			s.quality = m.Quality.Average
		}
		scores = append(scores, s)
	}
	return scores
}

// WritePlots renders the accuracy, consistency and quality bar charts and a radar
// overview into one image at path.
func WritePlots(path string, result Result, thresholds appconfig.Thresholds, vis appconfig.VisualizationConfig) error {
	scores := plotScores(result)
	names := make([]string, len(scores))
	var acc, cons, qual plotter.Values
	for i, s := range scores {
		names[i] = s.id
		acc = append(acc, s.accuracy)
		cons = append(cons, s.consistency)
		qual = append(qual, s.quality)
	}

	accuracy, err := barPanel("Accuracy Comparison", "Accuracy", names, acc, 1, accuracyColor)
	if err != nil {
		return err
	}
	if err := addThreshold(accuracy, thresholds.AccuracyThreshold, len(names)); err != nil {
		return err
	}
	consistency, err := barPanel("Consistency Comparison", "Consistency Score", names, cons, 1, consistencyColor)
	if err != nil {
		return err
	}
	quality, err := barPanel("Quality Comparison", "Quality Score", names, qual, 5, qualityColor)
	if err != nil {
		return err
	}
	radar, err := radarPanel(scores)
	if err != nil {
		return err
	}

	canvas, err := newCanvas(10*vg.Inch, 8*vg.Inch, vis.Format(), vis.DPI())
	if err != nil {
		return err
	}
	plots := [][]*plot.Plot{{accuracy, consistency}, {quality, radar}}
	tiles := draw.Tiles{
		Rows: 2, Cols: 2,
		PadX: 8 * vg.Millimeter, PadY: 8 * vg.Millimeter,
		PadTop: 4 * vg.Millimeter, PadBottom: 4 * vg.Millimeter,
		PadLeft: 4 * vg.Millimeter, PadRight: 4 * vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, draw.New(canvas))
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	var buf bytes.Buffer
	if _, err := canvas.WriteTo(&buf); err != nil {
		return fmt.Errorf("render comparison plots: %w", err)
	}
	return util.WriteFile(path, buf.Bytes())
}

func newCanvas(w, h vg.Length, format string, dpi int) (vg.CanvasWriterTo, error) {
	switch format {
	case "png":
		return vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))}, nil
	case "jpg", "jpeg":
		return vgimg.JpegCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))}, nil
	case "tif", "tiff":
		return vgimg.TiffCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))}, nil
	default:
		return draw.NewFormattedCanvas(w, h, format)
	}
}

func barPanel(title, ylabel string, names []string, values plotter.Values, ymax float64, fill color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel
	p.Y.Min, p.Y.Max = 0, ymax

	bars, err := plotter.NewBarChart(values, vg.Points(36))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", title, err)
	}
	bars.Color = fill
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

func addThreshold(p *plot.Plot, threshold float64, n int) error {
	line, err := plotter.NewLine(plotter.XYs{{X: -0.5, Y: threshold}, {X: float64(n) - 0.5, Y: threshold}})
	if err != nil {
		return err
	}
	line.Color = thresholdColor
	line.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("Threshold (%g)", threshold), line)
	p.Legend.Top = true
	return nil
}

var radarAxes = []string{"Accuracy", "Consistency", "Quality"}

func radarPoint(axis int, r float64) plotter.XY {
	a := math.Pi/2 + 2*math.Pi*float64(axis)/float64(len(radarAxes))
	return plotter.XY{X: r * math.Cos(a), Y: r * math.Sin(a)}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func radarPanel(scores []variantScores) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Overall Performance Comparison"
	p.HideAxes()
	p.X.Min, p.X.Max = -1.4, 1.4
	p.Y.Min, p.Y.Max = -1.2, 1.3

	for _, r := range []float64{0.25, 0.5, 0.75, 1} {
		ring := make(plotter.XYs, 0, 61)
		for i := 0; i <= 60; i++ {
			a := 2 * math.Pi * float64(i) / 60
			ring = append(ring, plotter.XY{X: r * math.Cos(a), Y: r * math.Sin(a)})
		}
		line, err := plotter.NewLine(ring)
		if err != nil {
			return nil, err
		}
		line.Color = gridColor
		p.Add(line)
	}

	labels := plotter.XYLabels{}
	for axis, name := range radarAxes {
		spoke, err := plotter.NewLine(plotter.XYs{{}, radarPoint(axis, 1)})
		if err != nil {
			return nil, err
		}
		spoke.Color = gridColor
		p.Add(spoke)
		labels.XYs = append(labels.XYs, radarPoint(axis, 1.12))
		labels.Labels = append(labels.Labels, name)
	}
	axisLabels, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, err
	}
	p.Add(axisLabels)

	for i, s := range scores {
		c := variantPalette[i%len(variantPalette)]
		vertices := plotter.XYs{
			radarPoint(0, clamp01(s.accuracy)),
			radarPoint(1, clamp01(s.consistency)),
			radarPoint(2, clamp01(s.quality/5)),
		}
		area, err := plotter.NewPolygon(vertices)
		if err != nil {
			return nil, err
		}
		fill := c
		fill.A = 64
		area.Color = fill
		area.LineStyle.Color = c
		area.LineStyle.Width = vg.Points(2)

		dots, err := plotter.NewScatter(vertices)
		if err != nil {
			return nil, err
		}
		dots.GlyphStyle.Color = c
		dots.GlyphStyle.Shape = draw.CircleGlyph{}

		p.Add(area, dots)
		p.Legend.Add(s.id, area)
	}
	p.Legend.Top = true
	return p, nil
}
