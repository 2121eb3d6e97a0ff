package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Analyzer drives the Direct Data Access pipeline for one enterprise run:
// collect, report, visualize, export. Each run owns its output bundle.
type Analyzer struct {
	Enterprise string
	Window     Window
	OutputDir  string

	client  *Client
	fetcher *BlobFetcher
}

// New prepares an analyzer and creates its run output bundle. The bundle
// path is timestamped unless an explicit output directory is given, so
// runs never overwrite each other.
func New(enterprise, token string, w Window, outputDir string) (*Analyzer, error) {
	if outputDir == "" {
		outputDir = fmt.Sprintf("copilot_analysis_%s_%s", enterprise, time.Now().Format("20060102_150405"))
	}
	for _, sub := range []string{"data", "reports", "plots"} {
		if err := os.MkdirAll(filepath.Join(outputDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	return &Analyzer{
		Enterprise: enterprise,
		Window:     w,
		OutputDir:  outputDir,
		client:     NewClient(token),
		fetcher:    NewBlobFetcher(),
	}, nil
}

// Run executes the full pipeline. Collection failures are fatal; once the
// dataset exists the report, charts and exports read it without mutation.
func (a *Analyzer) Run(ctx context.Context) error {
	ds, err := a.Collect(ctx)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			slog.Warn("no data was collected; check if there are blob URIs in the date range",
				"since", a.Window.SinceString(), "until", a.Window.UntilString())
		}
		return err
	}

	report := BuildReport(a.Enterprise, ds)
	reportPath := filepath.Join(a.OutputDir, "reports", "summary_report.txt")
	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write summary report: %w", err)
	}
	slog.Info("summary report saved", "path", reportPath)
	PrintInsights(os.Stdout, ds)

	if err := RenderCharts(ds, filepath.Join(a.OutputDir, "plots")); err != nil {
		return err
	}
	if err := ExportSummaries(ds, filepath.Join(a.OutputDir, "data")); err != nil {
		return err
	}

	slog.Info("analysis complete", "output", a.OutputDir)
	return nil
}

// Collect probes the API, fetches the manifest, downloads every blob
// sequentially and aggregates the chunks. The raw concatenation is
// persisted before returning. Per-blob failures are logged and skipped;
// everything else is fatal.
func (a *Analyzer) Collect(ctx context.Context) (*Dataset, error) {
	slog.Info("collecting Copilot usage data",
		"enterprise", a.Enterprise,
		"since", a.Window.SinceString(),
		"until", a.Window.UntilString(),
		"days", a.Window.Days())

	if err := a.client.Probe(ctx); err != nil {
		return nil, err
	}

	entries, err := a.client.FetchManifest(ctx, a.Enterprise, a.Window)
	if err != nil {
		return nil, err
	}

	var chunks [][]UsageRecord
	for _, entry := range entries {
		slog.Info("processing manifest entry", "date", entry.Date, "blobs", len(entry.BlobURIs))
		for _, uri := range entry.BlobURIs {
			chunk, err := a.fetcher.FetchBlob(uri)
			if err != nil {
				slog.Error("skipping blob", "date", entry.Date, "err", err)
				continue
			}
			slog.Info("processed blob", "records", len(chunk))
			chunks = append(chunks, chunk)
		}
	}

	ds, err := Aggregate(chunks)
	if err != nil {
		return nil, err
	}

	rawPath := filepath.Join(a.OutputDir, "data", "raw_copilot_data.csv")
	if err := WriteRaw(ds, rawPath); err != nil {
		return nil, fmt.Errorf("persist raw data: %w", err)
	}
	slog.Info("data collection complete",
		"records", len(ds.Records),
		"unique_users", UniqueUsers(ds),
		"raw", rawPath)
	return ds, nil
}
