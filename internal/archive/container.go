package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"larder/internal/logging"
)

// containerEntryExt is the extension of entries inside the container.
const containerEntryExt = ".tar"

// ContainerStore persists every cycle as a <YYYYMMDD_HHMMSS>.tar entry
// inside one zip container. CreatedAt is normalized from each entry's name
// by ParseEntryName; entries with unparseable names are reported once and
// otherwise left alone, so retention can never delete them.
type ContainerStore struct {
	path   string
	logger *slog.Logger
}

// NewContainerStore returns a single-container store backed by the zip file
// at path. The container is created by the first Add.
func NewContainerStore(path string, logger *slog.Logger) *ContainerStore {
	return &ContainerStore{path: path, logger: logging.WithComponent(logger, "archive")}
}

// List re-reads the container's central directory on every call.
func (s *ContainerStore) List(ctx context.Context) ([]Entry, error) {
	reader, err := zip.OpenReader(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open container %s: %w", s.path, err)
	}
	defer reader.Close()

	entries := make([]Entry, 0, len(reader.File))
	for _, f := range reader.File {
		if !strings.HasSuffix(f.Name, containerEntryExt) {
			s.logger.Warn("skipping container entry without .tar suffix", logging.String("entry", f.Name))
			continue
		}
		stem := strings.TrimSuffix(f.Name, containerEntryExt)
		createdAt, err := ParseEntryName(stem)
		if err != nil {
			s.logger.Warn("skipping container entry with unparseable timestamp", logging.String("entry", f.Name), logging.Error(err))
			continue
		}
		entries = append(entries, Entry{
			Name:      stem,
			CreatedAt: createdAt,
			SizeBytes: int64(f.UncompressedSize64),
		})
	}

	sortEntries(entries)
	return entries, nil
}

// Add rewrites the container with stagedDir appended as <name>.tar. An
// existing entry of the same name is replaced, not duplicated. A missing
// container is created.
func (s *ContainerStore) Add(ctx context.Context, stagedDir, name string) (Entry, error) {
	createdAt, err := ParseEntryName(name)
	if err != nil {
		return Entry{}, err
	}

	entryName := name + containerEntryExt
	drop := map[string]struct{}{entryName: {}}
	err = s.rewrite(drop, func(zw *zip.Writer) error {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     entryName,
			Method:   zip.Deflate,
			Modified: createdAt,
		})
		if err != nil {
			return fmt.Errorf("create container entry %s: %w", entryName, err)
		}
		if err := writeTar(stagedDir, w); err != nil {
			return fmt.Errorf("archive staging directory: %w", err)
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	entries, err := s.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, entry := range entries {
		if entry.Name == name {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("container entry %s missing after add", name)
}

// Remove rewrites the container once, excluding every named entry. Names
// not present are ignored; a fully absent container is an empty store.
func (s *ContainerStore) Remove(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	reader, err := zip.OpenReader(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open container %s: %w", s.path, err)
	}

	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[name+containerEntryExt] = struct{}{}
	}
	present := false
	for _, f := range reader.File {
		if _, ok := drop[f.Name]; ok {
			present = true
			break
		}
	}
	reader.Close()
	if !present {
		return nil
	}

	return s.rewrite(drop, nil)
}

// rewrite builds a replacement container under a partial suffix, carrying
// over every existing entry not named in drop, invoking add (when set) for
// new content, then atomically moves it into place.
func (s *ContainerStore) rewrite(drop map[string]struct{}, add func(*zip.Writer) error) error {
	var reader *zip.ReadCloser
	reader, err := zip.OpenReader(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("open container %s: %w", s.path, err)
		}
		reader = nil
	}
	if reader != nil {
		defer reader.Close()
	}

	partial := s.path + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	cleanup := func(cause error) error {
		_ = zw.Close()
		_ = out.Close()
		_ = os.Remove(partial)
		return cause
	}

	if reader != nil {
		for _, f := range reader.File {
			if _, skip := drop[f.Name]; skip {
				continue
			}
			if err := zw.Copy(f); err != nil {
				return cleanup(fmt.Errorf("carry over container entry %s: %w", f.Name, err))
			}
		}
	}
	if add != nil {
		if err := add(zw); err != nil {
			return cleanup(err)
		}
	}

	if err := zw.Close(); err != nil {
		return cleanup(fmt.Errorf("finalize container: %w", err))
	}
	if err := out.Close(); err != nil {
		return cleanup(fmt.Errorf("flush container: %w", err))
	}
	if err := os.Rename(partial, s.path); err != nil {
		return cleanup(fmt.Errorf("replace container: %w", err))
	}
	return nil
}
