package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func encodeParquet(t *testing.T, rows []UsageRecord) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := parquet.Write[UsageRecord](&buf, rows); err != nil {
		t.Fatalf("encode parquet fixture: %v", err)
	}
	return buf.Bytes()
}

// newPipelineServer serves the GitHub endpoints the pipeline touches plus
// the given blobs under /blobs/<name>. The manifest handler rewrites the
// blob URIs to point back at the test server.
func newPipelineServer(t *testing.T, manifest []ManifestEntry, blobs map[string][]byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, rateLimitBody)
	})
	mux.HandleFunc("/enterprises/fabrikam/copilot/direct-data", func(w http.ResponseWriter, r *http.Request) {
		rewritten := make([]ManifestEntry, len(manifest))
		for i, e := range manifest {
			uris := make([]string, len(e.BlobURIs))
			for j, u := range e.BlobURIs {
				uris[j] = srv.URL + u
			}
			rewritten[i] = ManifestEntry{Date: e.Date, BlobURIs: uris}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rewritten)
	})
	mux.HandleFunc("/blobs/", func(w http.ResponseWriter, r *http.Request) {
		data, ok := blobs[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})
	return srv
}

func newTestAnalyzer(t *testing.T, srv *httptest.Server) *Analyzer {
	t.Helper()
	w, err := ResolveWindow("2025-06-01", "2025-06-08", testNow)
	if err != nil {
		t.Fatalf("resolve window: %v", err)
	}
	a, err := New("fabrikam", "test-token", w, filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	if err := a.client.SetBaseURL(srv.URL); err != nil {
		t.Fatalf("set base URL: %v", err)
	}
	return a
}

func TestCollectPipeline(t *testing.T) {
	rows := sampleRecords()
	srv := newPipelineServer(t,
		[]ManifestEntry{
			{Date: "2025-06-02", BlobURIs: []string{"/blobs/day1"}},
			{Date: "2025-06-03", BlobURIs: []string{"/blobs/day2"}},
		},
		map[string][]byte{
			"day1": encodeParquet(t, rows[:6]),
			"day2": encodeParquet(t, rows[6:]),
		})
	a := newTestAnalyzer(t, srv)

	ds, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(ds.Records) != len(rows) {
		t.Errorf("collected %d records, want %d", len(ds.Records), len(rows))
	}
	if got := UniqueUsers(ds); got != 3 {
		t.Errorf("unique users = %d, want 3", got)
	}
	if !ds.Caps.Language || !ds.Caps.Lines {
		t.Errorf("caps = %+v, want language and lines detected", ds.Caps)
	}

	rawPath := filepath.Join(a.OutputDir, "data", "raw_copilot_data.csv")
	reloaded, err := LoadRaw(rawPath)
	if err != nil {
		t.Fatalf("reload persisted raw data: %v", err)
	}
	if len(reloaded.Records) != len(rows) {
		t.Errorf("raw file holds %d records, want %d", len(reloaded.Records), len(rows))
	}
}

func TestCollectSkipsBadBlob(t *testing.T) {
	rows := sampleRecords()
	srv := newPipelineServer(t,
		[]ManifestEntry{
			{Date: "2025-06-02", BlobURIs: []string{"/blobs/good", "/blobs/missing"}},
		},
		map[string][]byte{
			"good": encodeParquet(t, rows[:3]),
		})
	a := newTestAnalyzer(t, srv)

	ds, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect should survive a failing blob, got: %v", err)
	}
	if len(ds.Records) != 3 {
		t.Errorf("collected %d records, want 3 from the good blob", len(ds.Records))
	}
}

func TestCollectEmptyManifest(t *testing.T) {
	srv := newPipelineServer(t, []ManifestEntry{}, nil)
	a := newTestAnalyzer(t, srv)

	_, err := a.Collect(context.Background())
	if !errors.Is(err, ErrNoData) {
		t.Errorf("collect error = %v, want ErrNoData", err)
	}
}

func TestRunWritesBundle(t *testing.T) {
	rows := sampleRecords()
	srv := newPipelineServer(t,
		[]ManifestEntry{{Date: "2025-06-02", BlobURIs: []string{"/blobs/all"}}},
		map[string][]byte{"all": encodeParquet(t, rows)})
	a := newTestAnalyzer(t, srv)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	wantFiles := []string{
		filepath.Join("data", "raw_copilot_data.csv"),
		filepath.Join("data", "user_activity_summary.csv"),
		filepath.Join("data", "language_summary.csv"),
		filepath.Join("data", "daily_activity_summary.csv"),
		filepath.Join("reports", "summary_report.txt"),
		filepath.Join("plots", "user_engagement.png"),
		filepath.Join("plots", "feature_usage.png"),
		filepath.Join("plots", "language_analysis.png"),
		filepath.Join("plots", "time_patterns.png"),
		filepath.Join("plots", "environment_analysis.png"),
	}
	for _, name := range wantFiles {
		info, err := os.Stat(filepath.Join(a.OutputDir, name))
		if err != nil {
			t.Errorf("missing output %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("output %s is empty", name)
		}
	}
}

func TestBlobFetcherDecodesParquet(t *testing.T) {
	rows := sampleRecords()[:4]
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(encodeParquet(t, rows))
	}))
	t.Cleanup(srv.Close)

	got, err := NewBlobFetcher().FetchBlob(srv.URL + "/blob")
	if err != nil {
		t.Fatalf("fetch blob: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("decoded %d records, want %d", len(got), len(rows))
	}
	for i, want := range rows {
		if got[i].UserLogin != want.UserLogin || got[i].Language != want.Language {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want)
		}
		if !got[i].Timestamp.Equal(want.Timestamp) {
			t.Errorf("record %d timestamp = %v, want %v", i, got[i].Timestamp, want.Timestamp)
		}
	}
}

func TestBlobFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "signature expired", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	if _, err := NewBlobFetcher().FetchBlob(srv.URL + "/blob"); err == nil {
		t.Fatal("expected error for 403 blob response")
	}
}

func TestBlobFetcherGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not parquet at all"))
	}))
	t.Cleanup(srv.Close)

	if _, err := NewBlobFetcher().FetchBlob(srv.URL + "/blob"); err == nil {
		t.Fatal("expected error for undecodable blob")
	}
}
