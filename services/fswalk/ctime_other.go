//go:build !linux

package fswalk

import (
	"os"
	"time"
)

// creationTime falls back to the modification time on platforms without a
// portable change-time field.
func creationTime(fi os.FileInfo) *time.Time {
	t := fi.ModTime().UTC()
	return &t
}
