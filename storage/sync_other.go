//go:build !linux

package storage

import "os"

func datasync(f *os.File) error {
	return f.Sync()
}

// syncDir is a no-op where directories cannot be opened for syncing
func syncDir(string) error {
	return nil
}
