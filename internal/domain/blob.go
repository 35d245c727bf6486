package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// BlobLister enumerates objects in blob storage by key prefix.
type BlobLister interface {
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// Archiver snapshots expired token records to blob storage before they are
// physically deleted from the primary store.
type Archiver interface {
	// ArchiveExpired uploads all records past the expiry horizon and
	// returns how many were written.
	ArchiveExpired(ctx context.Context) (int, error)
}
