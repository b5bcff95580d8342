package repository

import (
	"context"

	"github.com/google/uuid"
)

const (
	PathRemote = "remote"
	PathDirect = "direct"
)

// WriteStrategy persists one batch of expense records.
type WriteStrategy interface {
	Name() string
	InsertBatch(ctx context.Context, householdID uuid.UUID, records []ExpenseRecord) (int, error)
}

type remoteWriter struct {
	repo ImportRepository
}

// NewRemoteWriter writes through the import_expenses database function.
func NewRemoteWriter(repo ImportRepository) WriteStrategy {
	return remoteWriter{repo: repo}
}

func (w remoteWriter) Name() string { return PathRemote }

func (w remoteWriter) InsertBatch(ctx context.Context, householdID uuid.UUID, records []ExpenseRecord) (int, error) {
	return w.repo.InsertRemote(ctx, householdID, records)
}

type directWriter struct {
	repo ImportRepository
}

// NewDirectWriter copies rows into the transactions table.
func NewDirectWriter(repo ImportRepository) WriteStrategy {
	return directWriter{repo: repo}
}

func (w directWriter) Name() string { return PathDirect }

func (w directWriter) InsertBatch(ctx context.Context, householdID uuid.UUID, records []ExpenseRecord) (int, error) {
	return w.repo.InsertDirect(ctx, householdID, records)
}

// SelectStrategy probes the remote path and returns the writer to start with
// plus the direct fallback. A failed probe starts on the direct path.
func SelectStrategy(ctx context.Context, repo ImportRepository, preferRemote bool) (primary, fallback WriteStrategy) {
	direct := NewDirectWriter(repo)
	if !preferRemote {
		return direct, nil
	}
	ok, err := repo.RemoteWriteAvailable(ctx)
	if err != nil || !ok {
		return direct, nil
	}
	return NewRemoteWriter(repo), direct
}
