package analyzer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestExportUserSummary(t *testing.T) {
	dir := t.TempDir()
	if err := ExportSummaries(sampleDataset(t), dir); err != nil {
		t.Fatalf("export summaries: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "user_activity_summary.csv"))
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header plus one per user", len(rows))
	}

	want := []struct {
		user, count, lang string
	}{
		{"alice", "6", "go"},
		{"bob", "4", "python"},
		{"carol", "2", "go"},
	}
	for i, w := range want {
		row := rows[i+1]
		if row[0] != w.user || row[1] != w.count || row[6] != w.lang {
			t.Errorf("row %d = %v, want user=%s count=%s primary_language=%s", i+1, row, w.user, w.count, w.lang)
		}
	}

	// First and last interactions for alice span both sample days.
	if rows[1][2] != time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC).Format(time.RFC3339) {
		t.Errorf("alice first interaction = %s, want 2025-06-02T09:30:00Z", rows[1][2])
	}
	if rows[1][3] != time.Date(2025, 6, 3, 11, 30, 0, 0, time.UTC).Format(time.RFC3339) {
		t.Errorf("alice last interaction = %s, want 2025-06-03T11:30:00Z", rows[1][3])
	}
}

func TestExportLanguageSummary(t *testing.T) {
	dir := t.TempDir()
	if err := ExportSummaries(sampleDataset(t), dir); err != nil {
		t.Fatalf("export summaries: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "language_summary.csv"))
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus go and python", len(rows))
	}
	// go: alice and carol, 7 interactions. python: alice and bob, 5.
	if rows[1][0] != "go" || rows[1][1] != "2" || rows[1][2] != "7" {
		t.Errorf("go row = %v, want 2 users and 7 interactions", rows[1])
	}
	if rows[2][0] != "python" || rows[2][1] != "2" || rows[2][2] != "5" {
		t.Errorf("python row = %v, want 2 users and 5 interactions", rows[2])
	}
}

func TestExportDailySummary(t *testing.T) {
	dir := t.TempDir()
	if err := ExportSummaries(sampleDataset(t), dir); err != nil {
		t.Fatalf("export summaries: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "daily_activity_summary.csv"))
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus two days", len(rows))
	}
	if rows[1][0] != "2025-06-02" || rows[1][1] != "3" || rows[1][2] != "6" {
		t.Errorf("first day row = %v, want 2025-06-02 with 3 users and 6 interactions", rows[1])
	}
}

func TestExportSkipsLanguageSummaryWithoutData(t *testing.T) {
	ds, err := Aggregate([][]UsageRecord{{
		{Timestamp: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), UserLogin: "alice"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dir := t.TempDir()
	if err := ExportSummaries(ds, dir); err != nil {
		t.Fatalf("export summaries: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "language_summary.csv")); !os.IsNotExist(err) {
		t.Errorf("language summary should not exist without language data, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "user_activity_summary.csv")); err != nil {
		t.Errorf("user summary should still be written: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "user_activity_summary.csv"))
	if rows[1][6] != "unknown" {
		t.Errorf("primary language = %s, want unknown without language data", rows[1][6])
	}
}
