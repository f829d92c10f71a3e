//go:build linux

package fswalk

import (
	"os"
	"syscall"
	"time"
)

// creationTime reports the inode change time, the closest thing to a file
// creation timestamp the kernel exposes.
func creationTime(fi os.FileInfo) *time.Time {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	t := time.Unix(st.Ctim.Sec, st.Ctim.Nsec).UTC()
	return &t
}
