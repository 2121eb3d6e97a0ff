package engagement

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// LoadRecords reads a line-delimited JSON export. Every line must decode
// into a Record; a malformed line fails the whole load so shape problems
// surface immediately instead of skewing the charts.
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open engagement export: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("line %d: decode engagement record: %w", lineNo, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read engagement export: %w", err)
	}
	slog.Info("engagement export loaded", "records", len(records))
	return records, nil
}

// AggregateUsers sums the rollups per user, ordered by code generations
// descending (ties alphabetically).
func AggregateUsers(records []Record) []UserTotals {
	byUser := make(map[string]*UserTotals)
	for _, r := range records {
		u, ok := byUser[r.UserLogin]
		if !ok {
			u = &UserTotals{User: r.UserLogin}
			byUser[r.UserLogin] = u
		}
		u.Generated += r.CodeGenerationActivityCount
		u.Accepted += r.CodeAcceptanceActivityCount
		u.Interactions += r.UserInitiatedInteractionCount
	}

	out := make([]UserTotals, 0, len(byUser))
	for _, u := range byUser {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Generated != out[j].Generated {
			return out[i].Generated > out[j].Generated
		}
		return out[i].User < out[j].User
	})
	return out
}

// topWithOther keeps the first n users and folds the rest into one
// "Other" row summing their totals.
func topWithOther(totals []UserTotals, n int) []UserTotals {
	if n <= 0 || len(totals) <= n {
		return totals
	}
	out := make([]UserTotals, n, n+1)
	copy(out, totals[:n])
	other := UserTotals{User: "Other"}
	for _, u := range totals[n:] {
		other.Generated += u.Generated
		other.Accepted += u.Accepted
		other.Interactions += u.Interactions
	}
	return append(out, other)
}

// RenderDashboard writes the six dashboard charts for the top n users.
func RenderDashboard(records []Record, outDir string, topN int) error {
	if len(records) == 0 {
		return fmt.Errorf("no engagement records to chart")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create dashboard directory: %w", err)
	}

	totals := AggregateUsers(records)
	top := totals
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}
	topUsers := make([]string, len(top))
	for i, u := range top {
		topUsers[i] = u.User
	}

	charts := []struct {
		name  string
		build func() (*plot.Plot, error)
	}{
		{"dashboard_user_code_activity.png", func() (*plot.Plot, error) {
			return codeActivityChart(topWithOther(totals, topN))
		}},
		{"dashboard_user_engagement_heatmap.png", func() (*plot.Plot, error) {
			return engagementHeatmap(records, topUsers)
		}},
		{"dashboard_feature_usage_by_user.png", func() (*plot.Plot, error) {
			return stackedUsageChart("Feature Usage by User", topUsers, featureTotalsByUser(records))
		}},
		{"dashboard_acceptance_rate_per_user.png", func() (*plot.Plot, error) {
			return acceptanceRateChart(topWithOther(totals, topN))
		}},
		{"dashboard_ide_usage_by_user.png", func() (*plot.Plot, error) {
			return stackedUsageChart("IDE Usage by User", topUsers, ideTotalsByUser(records))
		}},
		{"dashboard_language_diversity_per_user.png", func() (*plot.Plot, error) {
			return languageDiversityChart(records, topUsers)
		}},
	}

	for _, c := range charts {
		p, err := c.build()
		if err != nil {
			return fmt.Errorf("build %s: %w", c.name, err)
		}
		path := filepath.Join(outDir, c.name)
		if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
			return fmt.Errorf("save %s: %w", c.name, err)
		}
		slog.Info("dashboard chart saved", "path", path)
	}
	return nil
}

// codeActivityChart draws generations and acceptances side by side per
// user, largest at the top.
func codeActivityChart(totals []UserTotals) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "User Code Activity"
	p.X.Label.Text = "Count"
	p.Y.Label.Text = "User"

	n := len(totals)
	names := make([]string, n)
	generated := make(plotter.Values, n)
	accepted := make(plotter.Values, n)
	for i, u := range totals {
		// Reverse so the most active user renders at the top.
		j := n - 1 - i
		names[j] = u.User
		generated[j] = u.Generated
		accepted[j] = u.Accepted
	}

	genBars, err := plotter.NewBarChart(generated, vg.Points(8))
	if err != nil {
		return nil, err
	}
	genBars.Horizontal = true
	genBars.Offset = vg.Points(4)
	genBars.Color = plotutil.Color(0)
	genBars.LineStyle.Width = 0

	accBars, err := plotter.NewBarChart(accepted, vg.Points(8))
	if err != nil {
		return nil, err
	}
	accBars.Horizontal = true
	accBars.Offset = -vg.Points(4)
	accBars.Color = plotutil.Color(1)
	accBars.LineStyle.Width = 0

	p.Add(genBars, accBars)
	p.NominalY(names...)
	p.Legend.Add("code generations", genBars)
	p.Legend.Add("code acceptances", accBars)
	p.Legend.Top = true
	return p, nil
}

func acceptanceRateChart(totals []UserTotals) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Acceptance Rate per User"
	p.X.Label.Text = "Acceptance Rate"
	p.Y.Label.Text = "User"
	p.X.Min, p.X.Max = 0, 1

	n := len(totals)
	names := make([]string, n)
	rates := make(plotter.Values, n)
	for i, u := range totals {
		j := n - 1 - i
		names[j] = u.User
		rates[j] = u.AcceptanceRate()
	}

	bars, err := plotter.NewBarChart(rates, vg.Points(10))
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = plotutil.Color(2)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

// featureTotalsByUser flattens the nested per-feature slices into
// user -> feature -> generation count.
func featureTotalsByUser(records []Record) map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, r := range records {
		for _, ft := range r.TotalsByFeature {
			if out[r.UserLogin] == nil {
				out[r.UserLogin] = make(map[string]float64)
			}
			out[r.UserLogin][ft.Feature] += ft.CodeGenerationActivityCount
		}
	}
	return out
}

func ideTotalsByUser(records []Record) map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, r := range records {
		for _, it := range r.TotalsByIDE {
			if out[r.UserLogin] == nil {
				out[r.UserLogin] = make(map[string]float64)
			}
			out[r.UserLogin][it.IDE] += it.CodeGenerationActivityCount
		}
	}
	return out
}

// stackedUsageChart stacks one bar segment per category for each of the
// top users.
func stackedUsageChart(title string, users []string, byUser map[string]map[string]float64) (*plot.Plot, error) {
	categories := make(map[string]struct{})
	for _, user := range users {
		for cat := range byUser[user] {
			categories[cat] = struct{}{}
		}
	}
	catOrder := make([]string, 0, len(categories))
	for cat := range categories {
		catOrder = append(catOrder, cat)
	}
	sort.Strings(catOrder)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "User"
	p.Y.Label.Text = "Code Generations"

	var prev *plotter.BarChart
	for i, cat := range catOrder {
		values := make(plotter.Values, len(users))
		for j, user := range users {
			values[j] = byUser[user][cat]
		}
		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return nil, err
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		if prev != nil {
			bars.StackOn(prev)
		}
		p.Add(bars)
		p.Legend.Add(cat, bars)
		prev = bars
	}
	p.NominalX(users...)
	p.Legend.Top = true
	return p, nil
}

// languageDiversityChart counts, per top user, the languages with any
// generation activity.
func languageDiversityChart(records []Record, users []string) (*plot.Plot, error) {
	langsByUser := make(map[string]map[string]struct{})
	for _, r := range records {
		for _, lt := range r.TotalsByLanguageFeature {
			if lt.CodeGenerationActivityCount <= 0 {
				continue
			}
			lang := lt.Language
			if lang == "" {
				lang = "unknown"
			}
			if langsByUser[r.UserLogin] == nil {
				langsByUser[r.UserLogin] = make(map[string]struct{})
			}
			langsByUser[r.UserLogin][lang] = struct{}{}
		}
	}

	values := make(plotter.Values, len(users))
	for i, user := range users {
		values[i] = float64(len(langsByUser[user]))
	}

	p := plot.New()
	p.Title.Text = "Language Diversity per User"
	p.X.Label.Text = "User"
	p.Y.Label.Text = "Number of Languages"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, err
	}
	bars.Color = plotutil.Color(4)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(users...)
	return p, nil
}

// userDayGrid is the user-by-day generation matrix behind the engagement
// heatmap.
type userDayGrid struct {
	users []string
	days  []string
	z     [][]float64
}

func (g *userDayGrid) Dims() (c, r int)   { return len(g.days), len(g.users) }
func (g *userDayGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g *userDayGrid) X(c int) float64    { return float64(c) }
func (g *userDayGrid) Y(r int) float64    { return float64(r) }

func engagementHeatmap(records []Record, users []string) (*plot.Plot, error) {
	daySet := make(map[string]struct{})
	for _, r := range records {
		daySet[r.Day] = struct{}{}
	}
	days := make([]string, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Strings(days)

	userIndex := make(map[string]int, len(users))
	for i, u := range users {
		userIndex[u] = i
	}
	dayIndex := make(map[string]int, len(days))
	for i, d := range days {
		dayIndex[d] = i
	}

	grid := &userDayGrid{users: users, days: days, z: make([][]float64, len(users))}
	for i := range grid.z {
		grid.z[i] = make([]float64, len(days))
	}
	for _, r := range records {
		if i, ok := userIndex[r.UserLogin]; ok {
			grid.z[i][dayIndex[r.Day]] += r.CodeGenerationActivityCount
		}
	}

	p := plot.New()
	p.Title.Text = "User Engagement Over Time"
	p.X.Label.Text = "Day"
	p.Y.Label.Text = "User"

	yTicks := make([]plot.Tick, len(users))
	for i, u := range users {
		yTicks[i] = plot.Tick{Value: float64(i), Label: u}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)

	xTicks := make([]plot.Tick, len(days))
	for i, d := range days {
		xTicks[i] = plot.Tick{Value: float64(i), Label: d}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)

	p.Add(plotter.NewHeatMap(grid, palette.Heat(12, 1)))
	return p, nil
}
