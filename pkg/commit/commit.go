// Package commit persists the server-issued commit token between runs.
//
// The token lives in a single file named "sha" under the service location.
// There is no in-process copy: every run reads the file fresh, so the agent
// is stateless across restarts and the file has exactly one writer, the run
// in progress.
package commit

import (
	"os"
	"path/filepath"

	"github.com/bottlerocket-os/switchdog/pkg/fault"
)

// FileName is the name of the token file inside the service location.
const FileName = "sha"

// Path returns the token file for location.
func Path(location string) string {
	return filepath.Join(location, FileName)
}

// Read returns the stored token. A missing file is not an error; ok is false.
func Read(location string) (token string, ok bool, err error) {
	raw, err := os.ReadFile(Path(location))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fault.Wrap(fault.Persistence, err, "unable to read commit token")
	}
	return string(raw), true, nil
}

// Write replaces the stored token with token. The bytes are written to a
// temporary file in the same directory, synced, and renamed over the token
// file, so readers see either the old or the new token.
func Write(location, token string) error {
	target := Path(location)
	dir := filepath.Dir(target)

	tmp, err := os.CreateTemp(dir, ".sha-*")
	if err != nil {
		return fault.Wrap(fault.Persistence, err, "unable to create temporary commit token file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		return fault.Wrap(fault.Persistence, err, "unable to write commit token")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fault.Wrap(fault.Persistence, err, "unable to flush commit token")
	}
	if err := tmp.Close(); err != nil {
		return fault.Wrap(fault.Persistence, err, "unable to close commit token file")
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fault.Wrap(fault.Persistence, err, "unable to set commit token permissions")
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fault.Wrapf(fault.Persistence, err, "unable to persist commit token to %s", target)
	}
	return nil
}
