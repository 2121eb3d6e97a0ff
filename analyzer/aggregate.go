package analyzer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrNoData reports that no usable rows were collected. Quiet windows
// legitimately return empty manifests, so callers short-circuit the rest
// of the pipeline instead of producing empty reports.
var ErrNoData = errors.New("no usage data collected")

// Aggregate concatenates the fetched chunks in fetch order (no
// deduplication), derives the time-bucket columns from each timestamp and
// computes the capability flags.
func Aggregate(chunks [][]UsageRecord) (*Dataset, error) {
	var records []UsageRecord
	for _, chunk := range chunks {
		records = append(records, chunk...)
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	for i := range records {
		deriveBuckets(&records[i])
	}
	return &Dataset{Records: records, Caps: detectCapabilities(records)}, nil
}

func deriveBuckets(r *UsageRecord) {
	r.Hour = r.Timestamp.Hour()
	r.DayOfWeek = r.Timestamp.Weekday().String()
	r.Date = r.Timestamp.Format(dateLayout)
}

func detectCapabilities(records []UsageRecord) Capabilities {
	var caps Capabilities
	for _, r := range records {
		caps.Label = caps.Label || r.Label != ""
		caps.Action = caps.Action || r.Action != ""
		caps.Application = caps.Application || r.Application != ""
		caps.Category = caps.Category || r.Category != ""
		caps.Language = caps.Language || r.Language != ""
		caps.Client = caps.Client || r.Client != ""
		caps.ClientVersion = caps.ClientVersion || r.ClientVersion != ""
		caps.Device = caps.Device || r.Device != ""
		caps.ActiveModel = caps.ActiveModel || r.ActiveModel != ""
		caps.MessageID = caps.MessageID || r.MessageID != ""
		caps.Lines = caps.Lines || r.Lines > 0
		caps.Chars = caps.Chars || r.Chars > 0
	}
	return caps
}

var rawHeader = []string{
	"hitdttm", "user_login", "label", "action", "application", "category",
	"language", "client", "client_version", "device", "active_model",
	"message_id", "lines", "chars", "hour", "day_of_week", "date",
}

// WriteRaw persists the concatenated table before any further processing,
// so a failure downstream still leaves the raw data recoverable.
func WriteRaw(ds *Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raw data file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(rawHeader); err != nil {
		f.Close()
		return err
	}
	for _, r := range ds.Records {
		row := []string{
			r.Timestamp.Format(time.RFC3339),
			r.UserLogin, r.Label, r.Action, r.Application, r.Category,
			r.Language, r.Client, r.ClientVersion, r.Device, r.ActiveModel,
			r.MessageID,
			strconv.FormatInt(r.Lines, 10),
			strconv.FormatInt(r.Chars, 10),
			strconv.Itoa(r.Hour),
			r.DayOfWeek,
			r.Date,
		}
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
	return f.Close()
}

// LoadRaw reloads a raw data file written by WriteRaw. The time buckets
// are re-derived from the parsed timestamps, which makes the write/reload
// cycle idempotent.
func LoadRaw(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raw data file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read raw data file: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	if len(rows[0]) != len(rawHeader) || rows[0][0] != rawHeader[0] {
		return nil, fmt.Errorf("unexpected raw data header: %v", rows[0])
	}

	records := make([]UsageRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse timestamp: %w", i+2, err)
		}
		lines, _ := strconv.ParseInt(row[12], 10, 64)
		chars, _ := strconv.ParseInt(row[13], 10, 64)

		r := UsageRecord{
			Timestamp:     ts,
			UserLogin:     row[1],
			Label:         row[2],
			Action:        row[3],
			Application:   row[4],
			Category:      row[5],
			Language:      row[6],
			Client:        row[7],
			ClientVersion: row[8],
			Device:        row[9],
			ActiveModel:   row[10],
			MessageID:     row[11],
			Lines:         lines,
			Chars:         chars,
		}
		deriveBuckets(&r)
		records = append(records, r)
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}
	return &Dataset{Records: records, Caps: detectCapabilities(records)}, nil
}
