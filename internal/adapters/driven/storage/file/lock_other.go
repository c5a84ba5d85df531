//go:build !unix

package file

import "os"

// lockFile creates the lock file without locking it. Writers still replace
// the status file atomically.
func lockFile(path string, _ bool) (func(), error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return func() { f.Close() }, nil
}
