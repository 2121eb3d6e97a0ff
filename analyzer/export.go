package analyzer

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// ExportSummaries writes the grouped summary tables: per user, per
// language and per calendar day. The language table is skipped entirely
// when no language data exists.
func ExportSummaries(ds *Dataset, dataDir string) error {
	if err := exportUserSummary(ds, filepath.Join(dataDir, "user_activity_summary.csv")); err != nil {
		return err
	}
	if ds.Caps.Language {
		if err := exportLanguageSummary(ds, filepath.Join(dataDir, "language_summary.csv")); err != nil {
			return err
		}
	} else {
		slog.Info("skipping language summary export; no language data")
	}
	return exportDailySummary(ds, filepath.Join(dataDir, "daily_activity_summary.csv"))
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("summary exported", "path", path)
	return nil
}

func exportUserSummary(ds *Dataset, path string) error {
	type userAgg struct {
		count       int
		first, last time.Time
		lines       int64
		chars       int64
		languages   map[string]int
	}
	byUser := make(map[string]*userAgg)
	for _, r := range ds.Records {
		u, ok := byUser[r.UserLogin]
		if !ok {
			u = &userAgg{first: r.Timestamp, last: r.Timestamp, languages: make(map[string]int)}
			byUser[r.UserLogin] = u
		}
		u.count++
		if r.Timestamp.Before(u.first) {
			u.first = r.Timestamp
		}
		if r.Timestamp.After(u.last) {
			u.last = r.Timestamp
		}
		u.lines += r.Lines
		u.chars += r.Chars
		if r.Language != "" {
			u.languages[r.Language]++
		}
	}

	users := make([]string, 0, len(byUser))
	for user := range byUser {
		users = append(users, user)
	}
	sort.Strings(users)

	rows := make([][]string, 0, len(users))
	for _, user := range users {
		u := byUser[user]
		rows = append(rows, []string{
			user,
			strconv.Itoa(u.count),
			u.first.Format(time.RFC3339),
			u.last.Format(time.RFC3339),
			strconv.FormatInt(u.lines, 10),
			strconv.FormatInt(u.chars, 10),
			primaryLanguage(u.languages),
		})
	}
	header := []string{"user_login", "total_interactions", "first_interaction", "last_interaction", "total_lines", "total_chars", "primary_language"}
	return writeCSV(path, header, rows)
}

// primaryLanguage picks the most frequent language; ties resolve
// alphabetically and no language at all reads "unknown".
func primaryLanguage(counts map[string]int) string {
	top := topCounts(counts, 1)
	if len(top) == 0 {
		return "unknown"
	}
	return top[0].Label
}

func exportLanguageSummary(ds *Dataset, path string) error {
	type langAgg struct {
		users map[string]struct{}
		count int
		lines int64
		chars int64
	}
	byLang := make(map[string]*langAgg)
	for _, r := range ds.Records {
		if r.Language == "" {
			continue
		}
		l, ok := byLang[r.Language]
		if !ok {
			l = &langAgg{users: make(map[string]struct{})}
			byLang[r.Language] = l
		}
		l.users[r.UserLogin] = struct{}{}
		l.count++
		l.lines += r.Lines
		l.chars += r.Chars
	}

	langs := make([]string, 0, len(byLang))
	for lang := range byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	rows := make([][]string, 0, len(langs))
	for _, lang := range langs {
		l := byLang[lang]
		rows = append(rows, []string{
			lang,
			strconv.Itoa(len(l.users)),
			strconv.Itoa(l.count),
			strconv.FormatInt(l.lines, 10),
			strconv.FormatInt(l.chars, 10),
		})
	}
	header := []string{"language", "unique_users", "total_interactions", "total_lines", "total_chars"}
	return writeCSV(path, header, rows)
}

func exportDailySummary(ds *Dataset, path string) error {
	type dayAgg struct {
		users map[string]struct{}
		count int
		lines int64
		chars int64
	}
	byDay := make(map[string]*dayAgg)
	for _, r := range ds.Records {
		d, ok := byDay[r.Date]
		if !ok {
			d = &dayAgg{users: make(map[string]struct{})}
			byDay[r.Date] = d
		}
		d.users[r.UserLogin] = struct{}{}
		d.count++
		d.lines += r.Lines
		d.chars += r.Chars
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	rows := make([][]string, 0, len(days))
	for _, day := range days {
		d := byDay[day]
		rows = append(rows, []string{
			day,
			strconv.Itoa(len(d.users)),
			strconv.Itoa(d.count),
			strconv.FormatInt(d.lines, 10),
			strconv.FormatInt(d.chars, 10),
		})
	}
	header := []string{"date", "unique_users", "total_interactions", "total_lines", "total_chars"}
	return writeCSV(path, header, rows)
}
