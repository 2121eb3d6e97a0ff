package analyzer

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestUniqueUsers(t *testing.T) {
	if got := UniqueUsers(sampleDataset(t)); got != 3 {
		t.Errorf("unique users = %d, want 3", got)
	}
}

func TestTopCountsOrdering(t *testing.T) {
	counts := map[string]int{"python": 4, "go": 7, "rust": 4, "ruby": 1}
	got := topCounts(counts, 3)

	want := []labelCount{{"go", 7}, {"python", 4}, {"rust", 4}}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v (ties break alphabetically)", i, got[i], want[i])
		}
	}
}

func TestPeakHourTie(t *testing.T) {
	ds, err := Aggregate([][]UsageRecord{{
		{Timestamp: time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC), UserLogin: "a"},
		{Timestamp: time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC), UserLogin: "a"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hour, count := peakHour(ds); hour != 3 || count != 1 {
		t.Errorf("peak = (%d, %d), want earliest tied hour (3, 1)", hour, count)
	}
}

func TestPeakDayTie(t *testing.T) {
	// The sample data splits evenly across Monday and Tuesday; Monday
	// wins the tie.
	if day, count := peakDay(sampleDataset(t)); day != "Monday" || count != 6 {
		t.Errorf("peak day = (%s, %d), want (Monday, 6)", day, count)
	}
}

func TestBuildReportSections(t *testing.T) {
	report := BuildReport("fabrikam", sampleDataset(t))

	for _, want := range []string{
		"GITHUB COPILOT DIRECT DATA ACCESS - ANALYSIS REPORT",
		"Enterprise: fabrikam",
		"Total Records: 12",
		"Unique Users: 3",
		"Unique Sessions: 12",
		"TOP 10 MOST ACTIVE USERS",
		"alice: 6 interactions",
		"COPILOT FEATURE USAGE",
		"TOP PROGRAMMING LANGUAGES",
		"go: 7",
		"Peak usage hour: 9:00",
		"Most active day: Monday",
		"CODE METRICS",
		"Total lines assisted: 36",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestBuildReportOmitsOptionalSections(t *testing.T) {
	ds, err := Aggregate([][]UsageRecord{{
		{Timestamp: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), UserLogin: "alice"},
		{Timestamp: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), UserLogin: "bob"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := BuildReport("fabrikam", ds)
	for _, absent := range []string{
		"TOP PROGRAMMING LANGUAGES",
		"COPILOT FEATURE USAGE",
		"CODE METRICS",
		"Unique Sessions",
	} {
		if strings.Contains(report, absent) {
			t.Errorf("report should omit %q when the backing columns are empty", absent)
		}
	}
	if !strings.Contains(report, "USAGE PATTERNS") {
		t.Error("report should always carry the usage patterns section")
	}
}

func TestPrintInsights(t *testing.T) {
	var buf bytes.Buffer
	PrintInsights(&buf, sampleDataset(t))

	out := buf.String()
	for _, want := range []string{
		"KEY INSIGHTS",
		"Total Interactions: 12",
		"Active Users: 3",
		"Top Language: go",
		"Peak Hour: 9:00",
		"Most Active Day: Monday",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("insights missing %q", want)
		}
	}
}
