package analyzer

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/parquet-go/parquet-go"
)

// Blob URIs are pre-signed, so downloads skip the authenticated transport.
// The upstream API leaves the timeout unspecified; two minutes bounds even
// a large daily export without hanging the run forever.
const blobTimeout = 2 * time.Minute

// BlobFetcher downloads usage-data blobs one at a time, in manifest order.
type BlobFetcher struct {
	httpClient *http.Client
}

// NewBlobFetcher returns a fetcher with its own unauthenticated HTTP
// client and an explicit download timeout.
func NewBlobFetcher() *BlobFetcher {
	return &BlobFetcher{httpClient: &http.Client{Timeout: blobTimeout}}
}

// FetchBlob downloads one blob and decodes it as a parquet chunk. Callers
// treat a failure here as skippable: the aggregate just ends up one chunk
// short.
func (f *BlobFetcher) FetchBlob(uri string) ([]UsageRecord, error) {
	resp, err := f.httpClient.Get(uri)
	if err != nil {
		return nil, fmt.Errorf("fetch blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch blob: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob body: %w", err)
	}

	records, err := parquet.Read[UsageRecord](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode parquet blob: %w", err)
	}
	return records, nil
}
