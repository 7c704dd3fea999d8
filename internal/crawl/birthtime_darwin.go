//go:build darwin

package crawl

import (
	"os"
	"syscall"
	"time"
)

// birthtime reads the file creation time from the underlying stat data.
func birthtime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	}
	return info.ModTime()
}
