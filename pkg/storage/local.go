package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
)

const metaDirName = ".meta"

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Archive stores a statement under <base>/<household>/ and records its checksum.
func (s *LocalStorage) Archive(ctx context.Context, householdID uuid.UUID, filename, source string, r io.Reader) (*FileInfo, error) {
	fileID := uuid.New()

	dir := s.householdDir(householdID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create household directory: %w", err)
	}

	storedName := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filename))
	filePath := filepath.Join(dir, storedName)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hash), r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		HouseholdID: householdID,
		Name:        filename,
		Size:        size,
		SHA256:      hex.EncodeToString(hash.Sum(nil)),
		Source:      source,
		Path:        storedName,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.saveMetadata(householdID, info); err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return info, nil
}

// Open returns the archived file and its metadata.
func (s *LocalStorage) Open(ctx context.Context, householdID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, householdID, fileID)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(s.householdDir(householdID), info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, info, nil
}

// Delete removes the file and its metadata.
func (s *LocalStorage) Delete(ctx context.Context, householdID, fileID uuid.UUID) error {
	info, err := s.GetInfo(ctx, householdID, fileID)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.householdDir(householdID), info.Path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := os.Remove(s.metaPath(householdID, fileID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

// List returns archived statements, oldest first.
func (s *LocalStorage) List(ctx context.Context, householdID uuid.UUID) ([]*FileInfo, error) {
	entries, err := os.ReadDir(filepath.Join(s.householdDir(householdID), metaDirName))
	if errors.Is(err, fs.ErrNotExist) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.GetInfo(ctx, householdID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})
	return files, nil
}

// GetInfo returns metadata for a file without opening it
func (s *LocalStorage) GetInfo(ctx context.Context, householdID, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(householdID, fileID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: archived file %s", common.ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

func (s *LocalStorage) householdDir(householdID uuid.UUID) string {
	return filepath.Join(s.basePath, householdID.String())
}

func (s *LocalStorage) metaPath(householdID, fileID uuid.UUID) string {
	return filepath.Join(s.householdDir(householdID), metaDirName, fileID.String()+".json")
}

func (s *LocalStorage) saveMetadata(householdID uuid.UUID, info *FileInfo) error {
	metaDir := filepath.Join(s.householdDir(householdID), metaDirName)
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(householdID, info.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	if name = replacer.Replace(strings.TrimSpace(name)); name == "" {
		return "statement"
	}
	return name
}
