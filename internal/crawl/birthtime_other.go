//go:build !darwin && !windows

package crawl

import (
	"os"
	"time"
)

// birthtime falls back to the modification time; Linux exposes no creation
// time through os.FileInfo.
func birthtime(info os.FileInfo) time.Time {
	return info.ModTime()
}
