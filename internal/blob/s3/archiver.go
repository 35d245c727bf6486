package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

// archivePrefix is the key prefix under which expired token snapshots are
// written.
const archivePrefix = "archive/tokens/"

// ExpiredLister provides read access to expired token records. The archiver
// only needs this one query, not the full token store.
type ExpiredLister interface {
	ListOlderThan(ctx context.Context, expiry time.Duration) ([]domain.TokenRecord, error)
}

// TokenArchiver implements domain.Archiver by querying the store for records
// past the expiry horizon, serializing them to JSONL, and uploading the
// result to blob storage.
//
// Deletion of the archived records from the primary store is intentionally
// NOT performed here; the scan coordinator runs the expiry delete as a
// separate step after the archive upload has succeeded.
type TokenArchiver struct {
	writer domain.BlobWriter
	store  ExpiredLister
	expiry time.Duration
	now    func() time.Time
}

// NewTokenArchiver creates a TokenArchiver for records older than expiry.
func NewTokenArchiver(writer domain.BlobWriter, store ExpiredLister, expiry time.Duration) *TokenArchiver {
	return &TokenArchiver{
		writer: writer,
		store:  store,
		expiry: expiry,
		now:    time.Now,
	}
}

// ArchiveExpired uploads all records past the expiry horizon as a single
// JSONL object at archive/tokens/<timestamp>.jsonl and returns how many
// records were written. A run with nothing to archive uploads nothing.
func (a *TokenArchiver) ArchiveExpired(ctx context.Context) (int, error) {
	records, err := a.store.ListOlderThan(ctx, a.expiry)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive expired query: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive expired marshal: %w", err)
	}

	path := archivePrefix + a.now().UTC().Format("2006-01-02T15-04-05") + ".jsonl"
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive expired upload: %w", err)
	}

	return len(records), nil
}

// multipartWriter is the optional fast path for large payloads. The S3
// Writer implements it; test fakes usually do not.
type multipartWriter interface {
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// upload sends the buffer with a plain PutObject, switching to a multipart
// upload when the payload exceeds the S3 minimum part size.
func (a *TokenArchiver) upload(ctx context.Context, path string, buf []byte) error {
	if mp, ok := a.writer.(multipartWriter); ok && int64(len(buf)) >= minPartSize {
		return mp.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*TokenArchiver)(nil)
