package main

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

const lockName = ".lock"

// acquireLock takes the instance lock in dir, creating dir if needed. Only
// one agent may hold it at a time.
func acquireLock(dir string) (*flock.Flock, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", dir)
	}
	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "acquiring instance lock failed with error")
	}
	if !ok {
		return nil, errors.Errorf("another instance holds %s", lock.Path())
	}
	return lock, nil
}
