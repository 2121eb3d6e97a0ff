package analyzer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Inspect prints the exploratory views over a reloaded raw data file:
// per-user activity, language and feature shares, and an hourly
// histogram.
func Inspect(w io.Writer, ds *Dataset) {
	total := len(ds.Records)
	minTS, maxTS := timeBounds(ds)

	fmt.Fprintf(w, "COPILOT DATA EXPLORER\n%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(w, "Total records: %d\n", total)
	fmt.Fprintf(w, "Date range: %s to %s\n\n", minTS.Format(time.RFC3339), maxTS.Format(time.RFC3339))

	fmt.Fprintf(w, "USER ACTIVITY\n")
	for _, u := range userActivity(ds) {
		fmt.Fprintf(w, "%s: %d interactions, %s to %s, languages: %s\n",
			u.user, u.count,
			u.first.Format(dateLayout), u.last.Format(dateLayout),
			strings.Join(u.languages, ", "))
	}

	if ds.Caps.Language {
		fmt.Fprintf(w, "\nPROGRAMMING LANGUAGES\n")
		langs := countBy(ds, func(r UsageRecord) string { return r.Language })
		for _, l := range topCounts(langs, 0) {
			fmt.Fprintf(w, "%s: %d interactions (%.1f%%)\n", l.Label, l.Count, percent(l.Count, total))
		}
	}

	if ds.Caps.Label {
		fmt.Fprintf(w, "\nCOPILOT FEATURES\n")
		labels := countBy(ds, func(r UsageRecord) string { return r.Label })
		for _, l := range topCounts(labels, 0) {
			fmt.Fprintf(w, "%s: %d interactions (%.1f%%)\n", l.Label, l.Count, percent(l.Count, total))
		}
	}

	fmt.Fprintf(w, "\nACTIVITY BY HOUR\n")
	var byHour [24]int
	maxHourly := 1
	for _, r := range ds.Records {
		byHour[r.Hour]++
		if byHour[r.Hour] > maxHourly {
			maxHourly = byHour[r.Hour]
		}
	}
	for h, c := range byHour {
		if c == 0 {
			continue
		}
		bar := strings.Repeat("#", c*20/maxHourly)
		fmt.Fprintf(w, "%2d:00 - %d interactions %s\n", h, c, bar)
	}
}

type userSummaryLine struct {
	user      string
	count     int
	first     time.Time
	last      time.Time
	languages []string
}

func userActivity(ds *Dataset) []userSummaryLine {
	byUser := make(map[string]*userSummaryLine)
	langsByUser := make(map[string]map[string]struct{})
	for _, r := range ds.Records {
		u, ok := byUser[r.UserLogin]
		if !ok {
			u = &userSummaryLine{user: r.UserLogin, first: r.Timestamp, last: r.Timestamp}
			byUser[r.UserLogin] = u
			langsByUser[r.UserLogin] = make(map[string]struct{})
		}
		u.count++
		if r.Timestamp.Before(u.first) {
			u.first = r.Timestamp
		}
		if r.Timestamp.After(u.last) {
			u.last = r.Timestamp
		}
		if r.Language != "" {
			langsByUser[r.UserLogin][r.Language] = struct{}{}
		}
	}

	out := make([]userSummaryLine, 0, len(byUser))
	for user, u := range byUser {
		langs := make([]string, 0, len(langsByUser[user]))
		for l := range langsByUser[user] {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		if len(langs) > 3 {
			langs = langs[:3]
		}
		u.languages = langs
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].user < out[j].user })
	return out
}
