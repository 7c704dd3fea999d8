package extract

import (
	"fmt"
	"os"
	"strings"
)

// Text reads a plain text file. The extension is checked so a mis-routed
// binary file fails loudly instead of producing garbage chunks.
func Text(path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".txt") {
		return "", fmt.Errorf("not a .txt file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return string(data), nil
}
