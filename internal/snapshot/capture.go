package snapshot

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"larder/internal/config"
	"larder/internal/fileutil"
	"larder/internal/logging"
)

// Capturer copies configured source trees into a per-cycle staging
// directory. Capture is best-effort by design: a source that cannot be read
// is logged and skipped, and the cycle archives whatever did copy.
type Capturer struct {
	logger *slog.Logger
}

// NewCapturer constructs a capturer. A nil logger is replaced with a no-op.
func NewCapturer(logger *slog.Logger) *Capturer {
	return &Capturer{logger: logging.WithComponent(logger, "snapshot")}
}

// Capture copies every source into its own subdirectory of destDir. Sources
// copy concurrently (their subtrees are disjoint) and Capture returns only
// after all of them have finished, so the caller can archive the staging
// directory immediately. The error is reserved for failure to set up
// destDir itself; per-source failures only surface in the log.
func (c *Capturer) Capture(ctx context.Context, sources []config.Source, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}

	names := subdirNames(sources)
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(src config.Source, subdir string) {
			defer wg.Done()
			c.captureOne(src, filepath.Join(destDir, subdir))
		}(src, names[i])
	}
	wg.Wait()
	return nil
}

func (c *Capturer) captureOne(src config.Source, dest string) {
	copied, skipped, err := c.copyTree(src.Path, dest, src.MaxFileSizeBytes)
	if err != nil {
		c.logger.Warn("source capture failed; archive will not include it",
			logging.String("source", src.Path),
			logging.Error(err),
		)
		return
	}
	c.logger.Info("source captured",
		logging.String("source", src.Path),
		logging.Int("files", copied),
		logging.Int("skipped_oversize", skipped),
	)
}

// copyTree walks src recursively, copying regular files at or under the
// size cap and recreating the directory structure. Individual file
// failures are logged and skipped; only a failure to read src itself is
// returned.
func (c *Capturer) copyTree(src, dest string, maxBytes int64) (copied, skippedOversize int, err error) {
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == src {
				return walkErr
			}
			c.logger.Warn("skipping unreadable path", logging.String("path", path), logging.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			c.logger.Warn("skipping unstatable file", logging.String("path", path), logging.Error(infoErr))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if info.Size() > maxBytes {
			skippedOversize++
			c.logger.Debug("skipping oversized file",
				logging.String("path", path),
				logging.Int64("size_bytes", info.Size()),
				logging.Int64("cap_bytes", maxBytes),
			)
			return nil
		}
		if copyErr := fileutil.CopyFileMode(path, target, info.Mode().Perm()); copyErr != nil {
			c.logger.Warn("file copy failed", logging.String("path", path), logging.Error(copyErr))
			return nil
		}
		copied++
		return nil
	})
	return copied, skippedOversize, err
}

// subdirNames assigns each source a staging subdirectory named after its
// base path, suffixing duplicates so two sources never share a subtree.
func subdirNames(sources []config.Source) []string {
	names := make([]string, len(sources))
	used := make(map[string]int, len(sources))
	for i, src := range sources {
		base := filepath.Base(filepath.Clean(src.Path))
		if base == string(filepath.Separator) || base == "." {
			base = "root"
		}
		used[base]++
		if n := used[base]; n > 1 {
			base += "_" + strconv.Itoa(n)
		}
		names[i] = base
	}
	return names
}
