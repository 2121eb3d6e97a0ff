package analyzer

import (
	"bytes"
	"strings"
	"testing"
)

func TestInspect(t *testing.T) {
	var buf bytes.Buffer
	Inspect(&buf, sampleDataset(t))

	out := buf.String()
	for _, want := range []string{
		"COPILOT DATA EXPLORER",
		"Total records: 12",
		"USER ACTIVITY",
		"alice: 6 interactions",
		"PROGRAMMING LANGUAGES",
		"go: 7 interactions",
		"COPILOT FEATURES",
		"ACTIVITY BY HOUR",
		" 9:00 - 4 interactions",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q", want)
		}
	}

	// alice appears before bob and carol.
	if strings.Index(out, "alice:") > strings.Index(out, "bob:") {
		t.Error("user activity should be sorted by login")
	}
}

func TestUserActivityLanguages(t *testing.T) {
	lines := userActivity(sampleDataset(t))
	if len(lines) != 3 {
		t.Fatalf("got %d users, want 3", len(lines))
	}
	if lines[0].user != "alice" {
		t.Fatalf("first user = %s, want alice", lines[0].user)
	}
	if got := strings.Join(lines[0].languages, ","); got != "go,python" {
		t.Errorf("alice languages = %s, want go,python", got)
	}
}
