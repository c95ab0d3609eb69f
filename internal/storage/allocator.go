package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"reelpress/internal/services"
)

// Allocator hands out collision-free run directories under a fixed output
// root. Sequence counting and directory creation happen under one lock so
// concurrent allocations can never observe the same count.
type Allocator struct {
	mu   sync.Mutex
	root string
}

// NewAllocator constructs an allocator rooted at outputDir.
func NewAllocator(outputDir string) *Allocator {
	return &Allocator{root: outputDir}
}

// Root returns the output root the allocator manages.
func (a *Allocator) Root() string {
	return a.root
}

// Allocate creates and returns the next run directory for the given time.
// The directory is named <seq>_<HHMM> inside a <YYYY-MM-DD> date bucket,
// where seq is the 1-based count of prior runs for that date. The returned
// directory exists on success.
func (a *Allocator) Allocate(now time.Time) (RunDir, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	date := now.Format("2006-01-02")
	bucket := filepath.Join(a.root, date)
	if err := os.MkdirAll(bucket, 0o755); err != nil {
		return RunDir{}, services.Wrap(services.ErrStorage, "allocator", "create date bucket", bucket, err)
	}

	seq, err := countRunDirs(bucket)
	if err != nil {
		return RunDir{}, services.Wrap(services.ErrStorage, "allocator", "count runs", bucket, err)
	}
	seq++

	name := fmt.Sprintf("%d_%s", seq, now.Format("1504"))
	path := filepath.Join(bucket, name)

	// MkdirAll would silently accept an existing directory; a pre-existing
	// run dir means the sequence invariant is broken, so fail loudly.
	if _, statErr := os.Stat(path); statErr == nil {
		return RunDir{}, services.Wrap(services.ErrStorage, "allocator", "allocate run dir",
			fmt.Sprintf("path %s already exists", path), nil)
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return RunDir{}, services.Wrap(services.ErrStorage, "allocator", "stat run dir", path, statErr)
	}

	if err := os.Mkdir(path, 0o755); err != nil {
		return RunDir{}, services.Wrap(services.ErrStorage, "allocator", "create run dir", path, err)
	}

	return RunDir{Path: path, Date: date, Sequence: seq}, nil
}

func countRunDirs(bucket string) (int, error) {
	entries, err := os.ReadDir(bucket)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			count++
		}
	}
	return count, nil
}
