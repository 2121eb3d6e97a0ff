package analyzer

import "time"

// UsageRecord is one Copilot interaction event decoded from a Direct Data
// Access blob. Only the timestamp and user login are guaranteed; every
// other column is optional in the upstream export.
type UsageRecord struct {
	Timestamp     time.Time `parquet:"hitdttm,timestamp"`
	UserLogin     string    `parquet:"user_login"`
	Label         string    `parquet:"label,optional"`
	Action        string    `parquet:"action,optional"`
	Application   string    `parquet:"application,optional"`
	Category      string    `parquet:"category,optional"`
	Language      string    `parquet:"language,optional"`
	Client        string    `parquet:"client,optional"`
	ClientVersion string    `parquet:"client_version,optional"`
	Device        string    `parquet:"device,optional"`
	ActiveModel   string    `parquet:"active_model,optional"`
	MessageID     string    `parquet:"message_id,optional"`
	Lines         int64     `parquet:"lines,optional"`
	Chars         int64     `parquet:"chars,optional"`

	// Derived time buckets, filled in by Aggregate.
	Hour      int    `parquet:"-"`
	DayOfWeek string `parquet:"-"`
	Date      string `parquet:"-"`
}

// Capabilities records which optional columns actually carry data. It is
// computed once after aggregation so that report sections, chart panels
// and exports check a flag instead of re-scanning rows.
type Capabilities struct {
	Label         bool
	Action        bool
	Application   bool
	Category      bool
	Language      bool
	Client        bool
	ClientVersion bool
	Device        bool
	ActiveModel   bool
	MessageID     bool
	Lines         bool
	Chars         bool
}

// Dataset is the aggregated table every downstream step reads. It is
// never mutated after Aggregate returns it.
type Dataset struct {
	Records []UsageRecord
	Caps    Capabilities
}

// ManifestEntry is one date's worth of blob URIs returned by the
// direct-data endpoint.
type ManifestEntry struct {
	Date     string   `json:"date"`
	BlobURIs []string `json:"blob_uris"`
}
