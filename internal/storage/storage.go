// Package storage archives benchmark run files in object storage, so
// results from different machines and drivers can be collected in one place.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"time"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUploadFailed   = errors.New("upload failed")
)

// maxArchiveKeys bounds the numbered keys Archive tries for one run file.
const maxArchiveKeys = 100

// ObjectStorage is the archive backend. Keys always use forward slashes.
type ObjectStorage interface {
	// Upload copies the local file to key, replacing any existing object.
	Upload(ctx context.Context, localPath, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// RunKey returns the archive key of a run file:
// <prefix>/<yyyy>/<mm>/<dd>/<hhmmss>-<file name>, in UTC.
func RunKey(prefix string, startedAt time.Time, localPath string) string {
	return runKey(prefix, startedAt, localPath, 1)
}

// runKey numbers every key after the first: <hhmmss>-<n>-<file name>.
func runKey(prefix string, startedAt time.Time, localPath string, n int) string {
	ts := startedAt.UTC()
	stamp := ts.Format("150405")
	if n > 1 {
		stamp += "-" + strconv.Itoa(n)
	}
	return path.Join(prefix,
		ts.Format("2006"), ts.Format("01"), ts.Format("02"),
		stamp+"-"+filepath.Base(localPath))
}

// Archive uploads a run file under its RunKey and returns the key. An object
// already stored under that key is kept; the run goes to the next free
// numbered key instead.
func Archive(ctx context.Context, store ObjectStorage, prefix string, startedAt time.Time, localPath string) (string, error) {
	for n := 1; n <= maxArchiveKeys; n++ {
		key := runKey(prefix, startedAt, localPath, n)
		exists, err := store.Exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("storage: failed to check %s: %w", key, err)
		}
		if exists {
			continue
		}
		if err := store.Upload(ctx, localPath, key); err != nil {
			return "", fmt.Errorf("storage: failed to archive %s: %w", localPath, err)
		}
		return key, nil
	}
	return "", fmt.Errorf("storage: no free archive key for %s", RunKey(prefix, startedAt, localPath))
}
