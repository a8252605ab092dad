package archive

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"larder/internal/logging"
)

// dirExt is the extension for per-cycle archive files.
const dirExt = ".tar.gz"

// DirStore persists one independent gzipped tar per backup cycle, named
// <YYYYMMDD_HHMMSS>.tar.gz directly inside the destination root. CreatedAt
// comes from each file's modification time.
type DirStore struct {
	dir    string
	logger *slog.Logger
}

// NewDirStore returns a directory-of-archives store rooted at dir.
func NewDirStore(dir string, logger *slog.Logger) *DirStore {
	return &DirStore{dir: dir, logger: logging.WithComponent(logger, "archive")}
}

// List re-scans the destination directory. A destination that does not
// exist yet is an empty store, not an error.
func (s *DirStore) List(ctx context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan archive directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), dirExt) {
			continue
		}
		stem := strings.TrimSuffix(de.Name(), dirExt)
		if _, err := ParseEntryName(stem); err != nil {
			s.logger.Warn("skipping archive with unparseable name", logging.String("file", de.Name()), logging.Error(err))
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("stat archive %s: %w", de.Name(), err)
		}
		entries = append(entries, Entry{
			Name:      stem,
			CreatedAt: info.ModTime(),
			SizeBytes: info.Size(),
		})
	}

	sortEntries(entries)
	return entries, nil
}

// Add writes stagedDir as <name>.tar.gz, replacing any previous archive of
// the same name. The archive is assembled under a partial suffix and moved
// into place so a crash never leaves a truncated file behind.
func (s *DirStore) Add(ctx context.Context, stagedDir, name string) (Entry, error) {
	if _, err := ParseEntryName(name); err != nil {
		return Entry{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("create archive directory: %w", err)
	}

	final := filepath.Join(s.dir, name+dirExt)
	partial := final + ".partial"
	if err := s.writeArchive(stagedDir, partial); err != nil {
		_ = os.Remove(partial)
		return Entry{}, err
	}
	if err := os.Rename(partial, final); err != nil {
		_ = os.Remove(partial)
		return Entry{}, fmt.Errorf("finalize archive %s: %w", name, err)
	}

	info, err := os.Stat(final)
	if err != nil {
		return Entry{}, fmt.Errorf("stat new archive: %w", err)
	}
	return Entry{Name: name, CreatedAt: info.ModTime(), SizeBytes: info.Size()}, nil
}

func (s *DirStore) writeArchive(stagedDir, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	if err := writeTar(stagedDir, gz); err != nil {
		return fmt.Errorf("archive staging directory: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	return file.Close()
}

// Remove deletes the named archives. Already-absent names are ignored so a
// retention pass interrupted mid-delete converges on the next run.
func (s *DirStore) Remove(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		err := os.Remove(filepath.Join(s.dir, name+dirExt))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove archive %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
