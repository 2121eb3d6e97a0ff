package analyzer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	panelWidth  = 6 * vg.Inch
	panelHeight = 4.5 * vg.Inch
)

// RenderCharts writes the five fixed 2x2 chart panels. Each panel checks
// its capability flag and stays blank when the backing column is absent;
// the language page is skipped entirely without language data.
func RenderCharts(ds *Dataset, plotsDir string) error {
	pages := []struct {
		name   string
		skip   bool
		panels func(*Dataset) [4]*plot.Plot
	}{
		{"user_engagement.png", false, userEngagementPanels},
		{"feature_usage.png", false, featureUsagePanels},
		{"language_analysis.png", !ds.Caps.Language, languagePanels},
		{"time_patterns.png", false, timePatternPanels},
		{"environment_analysis.png", false, environmentPanels},
	}

	for _, page := range pages {
		if page.skip {
			slog.Info("skipping chart; no backing data", "name", page.name)
			continue
		}
		path := filepath.Join(plotsDir, page.name)
		if err := writePanelGrid(path, page.panels(ds)); err != nil {
			return fmt.Errorf("render %s: %w", page.name, err)
		}
		slog.Info("chart saved", "path", path)
	}
	return nil
}

// writePanelGrid rasterizes four panels as a 2x2 grid into one PNG. Nil
// panels leave their quadrant empty.
func writePanelGrid(path string, panels [4]*plot.Plot) error {
	img := vgimg.New(2*panelWidth, 2*panelHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2, Cols: 2,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 4, PadBottom: vg.Millimeter * 4,
		PadLeft: vg.Millimeter * 4, PadRight: vg.Millimeter * 4,
	}

	grid := [][]*plot.Plot{{panels[0], panels[1]}, {panels[2], panels[3]}}
	canvases := plot.Align(grid, tiles, dc)
	for r := range grid {
		for c := range grid[r] {
			if grid[r][c] != nil {
				grid[r][c].Draw(canvases[r][c])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func userEngagementPanels(ds *Dataset) [4]*plot.Plot {
	users := countBy(ds, func(r UsageRecord) string { return r.UserLogin })
	names, values := countsSlices(reversed(topCounts(users, 10)))

	var hourly [24]float64
	for _, r := range ds.Records {
		hourly[r.Hour]++
	}
	hourNames := make([]string, 24)
	for h := range hourNames {
		hourNames[h] = strconv.Itoa(h)
	}

	dayValues := make([]float64, len(weekdayOrder))
	days := countBy(ds, func(r UsageRecord) string { return r.DayOfWeek })
	for i, d := range weekdayOrder {
		dayValues[i] = float64(days[d])
	}

	return [4]*plot.Plot{
		hbarPanel("Top 10 Most Active Users", "Number of Interactions", names, values),
		lineByDatePanel("Daily Copilot Activity", "Number of Interactions", dailyCounts(ds)),
		barPanel("Usage Patterns by Hour", "Hour of Day", "Number of Interactions", hourNames, hourly[:]),
		barPanel("Usage Patterns by Day of Week", "Day of Week", "Number of Interactions", weekdayOrder, dayValues),
	}
}

func featureUsagePanels(ds *Dataset) [4]*plot.Plot {
	var panels [4]*plot.Plot
	if ds.Caps.Action {
		names, values := countsSlices(topCounts(countBy(ds, func(r UsageRecord) string { return r.Action }), 0))
		panels[0] = piePanel("Distribution of Actions", names, values)
	}
	if ds.Caps.Label {
		names, values := countsSlices(topCounts(countBy(ds, func(r UsageRecord) string { return r.Label }), 0))
		panels[1] = barPanel("Copilot Interaction Types", "Label Type", "Count", names, values)
	}
	if ds.Caps.Application {
		names, values := countsSlices(topCounts(countBy(ds, func(r UsageRecord) string { return r.Application }), 0))
		panels[2] = barPanel("Copilot Application Usage", "Application", "Count", names, values)
	}
	if ds.Caps.Category {
		names, values := countsSlices(topCounts(countBy(ds, func(r UsageRecord) string { return r.Category }), 0))
		panels[3] = barPanel("Feature Category Usage", "Category", "Count", names, values)
	}
	return panels
}

func languagePanels(ds *Dataset) [4]*plot.Plot {
	langs := countBy(ds, func(r UsageRecord) string { return r.Language })

	var panels [4]*plot.Plot
	names, values := countsSlices(reversed(topCounts(langs, 15)))
	panels[0] = hbarPanel("Top 15 Programming Languages", "Number of Interactions", names, values)

	pieNames, pieValues := countsSlices(topCounts(langs, 10))
	panels[1] = piePanel("Top 10 Languages Distribution", pieNames, pieValues)

	if len(dailyCounts(ds)) > 1 {
		top5 := topCounts(langs, 5)
		series := make(map[string]map[string]float64, len(top5))
		for _, l := range top5 {
			series[l.Label] = make(map[string]float64)
		}
		for _, r := range ds.Records {
			if byDate, ok := series[r.Language]; ok {
				byDate[r.Date]++
			}
		}
		order := make([]string, len(top5))
		for i, l := range top5 {
			order[i] = l.Label
		}
		panels[2] = multiLinePanel("Language Usage Over Time (Top 5)", "Number of Interactions", order, series)
	}

	if ds.Caps.Lines {
		linesByLang := make(map[string]float64)
		for _, r := range ds.Records {
			if r.Language != "" {
				linesByLang[r.Language] += float64(r.Lines)
			}
		}
		names, values := sumSlices(linesByLang, 10)
		panels[3] = barPanel("Total Lines by Language (Top 10)", "Language", "Total Lines", names, values)
	}
	return panels
}

func timePatternPanels(ds *Dataset) [4]*plot.Plot {
	var panels [4]*plot.Plot

	// A heatmap over fewer rows than cells is noise.
	if len(ds.Records) > 10 {
		panels[0] = heatmapPanel(ds)
	}

	users := countBy(ds, func(r UsageRecord) string { return r.UserLogin })
	perUser := make([]float64, 0, len(users))
	for _, c := range users {
		perUser = append(perUser, float64(c))
	}
	panels[1] = histPanel("User Activity Distribution", "Interactions per User", "Number of Users", perUser, 20)

	daily := dailyCounts(ds)
	if len(daily) > 1 {
		dates := sortedKeys(daily)
		cumulative := make(map[string]float64, len(dates))
		var running float64
		for _, d := range dates {
			running += daily[d]
			cumulative[d] = running
		}
		panels[2] = lineByDatePanel("Cumulative Activity Over Time", "Cumulative Interactions", cumulative)
	}

	panels[3] = histPanel("User Peak Hours Distribution", "Peak Hour", "Number of Users", userPeakHours(ds), 24)
	return panels
}

func environmentPanels(ds *Dataset) [4]*plot.Plot {
	var panels [4]*plot.Plot
	if ds.Caps.Client {
		names, values := countsSlices(topCounts(countBy(ds, func(r UsageRecord) string { return r.Client }), 0))
		panels[0] = piePanel("IDE/Client Distribution", names, values)
	}
	if ds.Caps.Device {
		names, values := countsSlices(topCounts(countBy(ds, func(r UsageRecord) string { return r.Device }), 0))
		panels[1] = barPanel("Device Type Distribution", "Device Type", "Count", names, values)
	}
	if ds.Caps.ClientVersion {
		names, values := countsSlices(reversed(topCounts(countBy(ds, func(r UsageRecord) string { return r.ClientVersion }), 10)))
		panels[2] = hbarPanel("Top 10 Client Versions", "Number of Interactions", names, values)
	}
	if ds.Caps.ActiveModel {
		names, values := countsSlices(topCounts(countBy(ds, func(r UsageRecord) string { return r.ActiveModel }), 0))
		panels[3] = barPanel("Active Model Distribution", "Active Model", "Count", names, values)
	}
	return panels
}

// userPeakHours returns, per user, the hour that user was most active in;
// ties resolve to the earliest hour.
func userPeakHours(ds *Dataset) []float64 {
	byUser := make(map[string]*[24]int)
	for _, r := range ds.Records {
		h, ok := byUser[r.UserLogin]
		if !ok {
			h = new([24]int)
			byUser[r.UserLogin] = h
		}
		h[r.Hour]++
	}
	peaks := make([]float64, 0, len(byUser))
	for _, hours := range byUser {
		peak, best := 0, 0
		for h, c := range hours {
			if c > best {
				peak, best = h, c
			}
		}
		peaks = append(peaks, float64(peak))
	}
	return peaks
}

func dailyCounts(ds *Dataset) map[string]float64 {
	daily := make(map[string]float64)
	for _, r := range ds.Records {
		daily[r.Date]++
	}
	return daily
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func countsSlices(lcs []labelCount) ([]string, []float64) {
	names := make([]string, len(lcs))
	values := make([]float64, len(lcs))
	for i, lc := range lcs {
		names[i] = lc.Label
		values[i] = float64(lc.Count)
	}
	return names, values
}

func reversed(lcs []labelCount) []labelCount {
	out := make([]labelCount, len(lcs))
	for i, lc := range lcs {
		out[len(lcs)-1-i] = lc
	}
	return out
}

// sumSlices orders a float sum map descending and keeps the top n.
func sumSlices(sums map[string]float64, n int) ([]string, []float64) {
	type kv struct {
		k string
		v float64
	}
	pairs := make([]kv, 0, len(sums))
	for k, v := range sums {
		pairs = append(pairs, kv{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].v != pairs[j].v {
			return pairs[i].v > pairs[j].v
		}
		return pairs[i].k < pairs[j].k
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	names := make([]string, len(pairs))
	values := make([]float64, len(pairs))
	for i, p := range pairs {
		names[i] = p.k
		values[i] = p.v
	}
	return names, values
}

func barPanel(title, xlabel, ylabel string, names []string, values []float64) *plot.Plot {
	if len(values) == 0 {
		return nil
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(18))
	if err != nil {
		return nil
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	return p
}

func hbarPanel(title, xlabel string, names []string, values []float64) *plot.Plot {
	if len(values) == 0 {
		return nil
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(12))
	if err != nil {
		return nil
	}
	bars.Horizontal = true
	bars.Color = plotutil.Color(2)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return p
}

func piePanel(title string, names []string, values []float64) *plot.Plot {
	if len(values) == 0 {
		return nil
	}
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	pie := newPieChart(names, values)
	p.Add(pie)
	for _, s := range pie.slices {
		p.Legend.Add(fmt.Sprintf("%s (%.1f%%)", s.label, 100*s.value/pie.total), pieThumb{color: s.color})
	}
	p.Legend.Top = true
	return p
}

func lineByDatePanel(title, ylabel string, byDate map[string]float64) *plot.Plot {
	if len(byDate) == 0 {
		return nil
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = plot.TimeTicks{Format: dateLayout}

	pts, ok := datePoints(byDate)
	if !ok {
		return nil
	}
	line, scatter, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil
	}
	line.Color = plotutil.Color(1)
	scatter.Color = plotutil.Color(1)
	p.Add(line, scatter)
	return p
}

func multiLinePanel(title, ylabel string, order []string, series map[string]map[string]float64) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = plot.TimeTicks{Format: dateLayout}

	args := make([]interface{}, 0, 2*len(order))
	for _, name := range order {
		pts, ok := datePoints(series[name])
		if !ok {
			continue
		}
		args = append(args, name, pts)
	}
	if len(args) == 0 {
		return nil
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return nil
	}
	return p
}

func datePoints(byDate map[string]float64) (plotter.XYs, bool) {
	dates := sortedKeys(byDate)
	pts := make(plotter.XYs, 0, len(dates))
	for _, d := range dates {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, false
		}
		pts = append(pts, plotter.XY{X: float64(t.Unix()), Y: byDate[d]})
	}
	return pts, true
}

func histPanel(title, xlabel, ylabel string, values []float64, bins int) *plot.Plot {
	if len(values) == 0 {
		return nil
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	// A zero-width range cannot be binned.
	if min == max {
		return nil
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil
	}
	h.FillColor = plotutil.Color(3)
	p.Add(h)
	return p
}

// hourDayGrid is the weekday-by-hour interaction matrix behind the
// activity heatmap.
type hourDayGrid struct {
	counts [7][24]float64
}

func (g *hourDayGrid) Dims() (c, r int)   { return 24, 7 }
func (g *hourDayGrid) Z(c, r int) float64 { return g.counts[r][c] }
func (g *hourDayGrid) X(c int) float64    { return float64(c) }
func (g *hourDayGrid) Y(r int) float64    { return float64(r) }

func heatmapPanel(ds *Dataset) *plot.Plot {
	dayIndex := make(map[string]int, len(weekdayOrder))
	for i, d := range weekdayOrder {
		dayIndex[d] = i
	}

	grid := &hourDayGrid{}
	for _, r := range ds.Records {
		grid.counts[dayIndex[r.DayOfWeek]][r.Hour]++
	}

	p := plot.New()
	p.Title.Text = "Activity Heatmap (Hour vs Day)"
	p.X.Label.Text = "Hour of Day"
	p.Y.Label.Text = "Day of Week"

	ticks := make([]plot.Tick, len(weekdayOrder))
	for i, d := range weekdayOrder {
		ticks[i] = plot.Tick{Value: float64(i), Label: d}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)

	p.Add(plotter.NewHeatMap(grid, palette.Heat(12, 1)))
	return p
}
