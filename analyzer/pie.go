package analyzer

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieSlice couples a category with its share of the whole.
type pieSlice struct {
	label string
	value float64
	color color.Color
}

// pieChart draws proportional wedges around the plot origin. gonum/plot
// has no pie chart, so this fills its plot.Plotter and plot.DataRanger
// extension points; panels add it to a plot with hidden axes.
type pieChart struct {
	slices []pieSlice
	total  float64
}

func newPieChart(names []string, values []float64) *pieChart {
	p := &pieChart{}
	for i, name := range names {
		p.slices = append(p.slices, pieSlice{
			label: name,
			value: values[i],
			color: plotutil.Color(i),
		})
		p.total += values[i]
	}
	return p
}

// DataRange keeps the unit circle in view with a small margin.
func (p *pieChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1.1, 1.1, -1.1, 1.1
}

// Plot implements plot.Plotter, drawing one filled wedge per slice
// clockwise from twelve o'clock.
func (p *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	if p.total <= 0 {
		return
	}
	trX, trY := plt.Transforms(&c)
	center := vg.Point{X: trX(0), Y: trY(0)}
	radius := vg.Length(math.Min(float64(trX(1)-trX(0)), float64(trY(1)-trY(0))))

	start := math.Pi / 2
	for _, s := range p.slices {
		angle := -2 * math.Pi * s.value / p.total

		var path vg.Path
		path.Move(center)
		path.Line(vg.Point{
			X: center.X + radius*vg.Length(math.Cos(start)),
			Y: center.Y + radius*vg.Length(math.Sin(start)),
		})
		path.Arc(center, radius, start, angle)
		path.Close()

		c.SetColor(s.color)
		c.Fill(path)
		start += angle
	}
}

// pieThumb is the legend swatch for one slice.
type pieThumb struct {
	color color.Color
}

func (t pieThumb) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	poly := c.ClipPolygonY(pts)
	c.FillPolygon(t.color, poly)
}
