package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
	lockRetryDelay = 250 * time.Millisecond
)

// ResolveDBPath makes path absolute and creates its directory. An empty path
// selects ~/.config/bogofree/bogofree.sqlite.
func ResolveDBPath(path string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, ".config", "bogofree", "bogofree.sqlite")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("could not get absolute db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

// DBLock serializes settings writers sharing one SQLite file.
type DBLock struct {
	lock *flock.Flock
}

// NewDBLock returns the lock guarding the database at dbPath.
func NewDBLock(dbPath string) (*DBLock, error) {
	abs, err := ResolveDBPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &DBLock{lock: flock.New(abs + lockFileSuffix)}, nil
}

// Lock blocks until the lock is held or ctx is done.
func (l *DBLock) Lock(ctx context.Context) error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.lock.Path(), err)
	}
	if locked {
		return nil
	}

	Log.Infof("Another bogofree process is writing settings, waiting on %s", l.lock.Path())
	locked, err = l.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("waiting for lock on %s: %w", l.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("lock on %s not acquired", l.lock.Path())
	}
	return nil
}

// Unlock releases the lock. Releasing a lock that is not held is a no-op.
func (l *DBLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release lock on %s: %w", l.lock.Path(), err)
	}
	return nil
}

// WithLock runs fn while holding the lock.
func (l *DBLock) WithLock(ctx context.Context, fn func() error) error {
	if err := l.Lock(ctx); err != nil {
		return err
	}
	defer l.Unlock()
	return fn()
}
