package analyzer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// weekdayOrder fixes the tie-breaking order for peak-day selection.
var weekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// UniqueUsers counts distinct user logins in the dataset.
func UniqueUsers(ds *Dataset) int {
	seen := make(map[string]struct{})
	for _, r := range ds.Records {
		seen[r.UserLogin] = struct{}{}
	}
	return len(seen)
}

type labelCount struct {
	Label string
	Count int
}

// countBy groups records by the keyed column, skipping empty keys.
func countBy(ds *Dataset, key func(UsageRecord) string) map[string]int {
	counts := make(map[string]int)
	for _, r := range ds.Records {
		if k := key(r); k != "" {
			counts[k]++
		}
	}
	return counts
}

// topCounts orders a count map descending; ties fall back to label order
// so output is deterministic. n <= 0 returns everything.
func topCounts(counts map[string]int, n int) []labelCount {
	out := make([]labelCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, labelCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// peakHour returns the hour with the most interactions; ties resolve to
// the earliest hour.
func peakHour(ds *Dataset) (hour, count int) {
	var byHour [24]int
	for _, r := range ds.Records {
		byHour[r.Hour]++
	}
	for h, c := range byHour {
		if c > count {
			hour, count = h, c
		}
	}
	return hour, count
}

// peakDay returns the weekday with the most interactions; ties resolve in
// Monday-first order.
func peakDay(ds *Dataset) (day string, count int) {
	counts := countBy(ds, func(r UsageRecord) string { return r.DayOfWeek })
	day = weekdayOrder[0]
	for _, d := range weekdayOrder {
		if counts[d] > count {
			day, count = d, counts[d]
		}
	}
	return day, count
}

func timeBounds(ds *Dataset) (min, max time.Time) {
	for i, r := range ds.Records {
		if i == 0 || r.Timestamp.Before(min) {
			min = r.Timestamp
		}
		if i == 0 || r.Timestamp.After(max) {
			max = r.Timestamp
		}
	}
	return min, max
}

// BuildReport renders the full text report. Sections backed by optional
// columns appear only when the corresponding capability flag is set.
func BuildReport(enterprise string, ds *Dataset) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	section := strings.Repeat("-", 40)
	minTS, maxTS := timeBounds(ds)
	total := len(ds.Records)

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "GITHUB COPILOT DIRECT DATA ACCESS - ANALYSIS REPORT\n")
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Enterprise: %s\n", enterprise)
	fmt.Fprintf(&b, "Data Period: %s to %s\n", minTS.Format(time.RFC3339), maxTS.Format(time.RFC3339))
	fmt.Fprintf(&b, "Total Records: %d\n\n", total)

	fmt.Fprintf(&b, "BASIC STATISTICS\n%s\n", section)
	fmt.Fprintf(&b, "Unique Users: %d\n", UniqueUsers(ds))
	if ds.Caps.MessageID {
		sessions := countBy(ds, func(r UsageRecord) string { return r.MessageID })
		fmt.Fprintf(&b, "Unique Sessions: %d\n", len(sessions))
	}
	fmt.Fprintf(&b, "Date Range: %d days\n\n", int(maxTS.Sub(minTS).Hours()/24))

	fmt.Fprintf(&b, "TOP 10 MOST ACTIVE USERS\n%s\n", section)
	users := countBy(ds, func(r UsageRecord) string { return r.UserLogin })
	for _, u := range topCounts(users, 10) {
		fmt.Fprintf(&b, "%s: %d interactions\n", u.Label, u.Count)
	}
	b.WriteString("\n")

	if ds.Caps.Label {
		fmt.Fprintf(&b, "COPILOT FEATURE USAGE\n%s\n", section)
		labels := countBy(ds, func(r UsageRecord) string { return r.Label })
		for _, l := range topCounts(labels, 0) {
			fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", l.Label, l.Count, percent(l.Count, total))
		}
		b.WriteString("\n")
	}

	if ds.Caps.Language {
		fmt.Fprintf(&b, "TOP PROGRAMMING LANGUAGES\n%s\n", section)
		langs := countBy(ds, func(r UsageRecord) string { return r.Language })
		for _, l := range topCounts(langs, 10) {
			fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", l.Label, l.Count, percent(l.Count, total))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "USAGE PATTERNS\n%s\n", section)
	hour, hourCount := peakHour(ds)
	fmt.Fprintf(&b, "Peak usage hour: %d:00 (%d interactions)\n", hour, hourCount)
	day, dayCount := peakDay(ds)
	fmt.Fprintf(&b, "Most active day: %s (%d interactions)\n\n", day, dayCount)

	if ds.Caps.Lines && ds.Caps.Chars {
		var totalLines, totalChars int64
		for _, r := range ds.Records {
			totalLines += r.Lines
			totalChars += r.Chars
		}
		fmt.Fprintf(&b, "CODE METRICS\n%s\n", section)
		fmt.Fprintf(&b, "Total lines assisted: %d\n", totalLines)
		fmt.Fprintf(&b, "Total characters assisted: %d\n", totalChars)
		fmt.Fprintf(&b, "Average lines per interaction: %.1f\n", float64(totalLines)/float64(total))
		fmt.Fprintf(&b, "Average characters per interaction: %.1f\n\n", float64(totalChars)/float64(total))
	}

	return b.String()
}

// PrintInsights writes the condensed console summary shown at the end of
// a run.
func PrintInsights(w io.Writer, ds *Dataset) {
	header := color.New(color.FgCyan, color.Bold)
	item := color.New(color.FgWhite)

	header.Fprintf(w, "\nKEY INSIGHTS %s\n", strings.Repeat("=", 47))
	item.Fprintf(w, "Total Interactions: %d\n", len(ds.Records))
	item.Fprintf(w, "Active Users: %d\n", UniqueUsers(ds))
	if ds.Caps.Language {
		langs := topCounts(countBy(ds, func(r UsageRecord) string { return r.Language }), 1)
		if len(langs) > 0 {
			item.Fprintf(w, "Top Language: %s\n", langs[0].Label)
		}
	}
	hour, _ := peakHour(ds)
	item.Fprintf(w, "Peak Hour: %d:00\n", hour)
	day, _ := peakDay(ds)
	item.Fprintf(w, "Most Active Day: %s\n", day)
	header.Fprintf(w, "%s\n", strings.Repeat("=", 60))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
