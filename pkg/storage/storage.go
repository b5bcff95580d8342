// Package storage archives uploaded statement files on the local filesystem.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about an archived statement
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	HouseholdID uuid.UUID `json:"household_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	Source      string    `json:"source,omitempty"`
	Path        string    `json:"path"` // Path relative to the household directory
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for statement archive operations
type Storage interface {
	// Archive stores a statement and returns its metadata
	Archive(ctx context.Context, householdID uuid.UUID, filename, source string, r io.Reader) (*FileInfo, error)

	// Open returns a reader for an archived statement
	Open(ctx context.Context, householdID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes an archived statement
	Delete(ctx context.Context, householdID, fileID uuid.UUID) error

	// List returns every archived statement of a household
	List(ctx context.Context, householdID uuid.UUID) ([]*FileInfo, error)

	// GetInfo returns metadata without opening the file
	GetInfo(ctx context.Context, householdID, fileID uuid.UUID) (*FileInfo, error)
}
