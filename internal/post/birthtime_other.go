//go:build !linux

package post

import (
	"os"
	"time"
)

// createdAt returns the modification time of path in the local zone.
func createdAt(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime().Local(), nil
}
