package archive

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"larder/internal/config"
)

// ContainerName is the single container file used by the container backend.
const ContainerName = "backups.zip"

// Entry describes one persisted backup. Entries are immutable after
// creation; CreatedAt is the ordering key.
type Entry struct {
	Name      string
	CreatedAt time.Time
	SizeBytes int64
}

// Age returns the entry age at now, rounded to whole minutes. The retention
// policy operates exclusively on this value.
func (e Entry) Age(now time.Time) int {
	return int(now.Sub(e.CreatedAt).Round(time.Minute) / time.Minute)
}

// Store abstracts the persisted archive set. Implementations are not safe
// for concurrent mutation; the daemon is the single writer.
type Store interface {
	// List re-scans the backing storage and returns all entries ordered by
	// CreatedAt. Results are never cached across calls.
	List(ctx context.Context) ([]Entry, error)

	// Add archives the contents of stagedDir under the given cycle name.
	// Re-adding an existing name overwrites it. The first Add creates the
	// backing storage.
	Add(ctx context.Context, stagedDir, name string) (Entry, error)

	// Remove deletes the named entries. Names that do not exist are
	// ignored. Backends that support it perform the whole set as one
	// batched operation.
	Remove(ctx context.Context, names []string) error
}

// NewStore returns the backend selected by backup.store.
func NewStore(cfg *config.Config, logger *slog.Logger) Store {
	if cfg.Backup.Store == config.StoreContainer {
		return NewContainerStore(filepath.Join(cfg.Paths.DestinationDir, ContainerName), logger)
	}
	return NewDirStore(cfg.Paths.DestinationDir, logger)
}
