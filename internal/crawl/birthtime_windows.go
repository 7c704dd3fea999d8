//go:build windows

package crawl

import (
	"os"
	"syscall"
	"time"
)

// birthtime reads the file creation time from the underlying stat data.
func birthtime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, st.CreationTime.Nanoseconds())
	}
	return info.ModTime()
}
