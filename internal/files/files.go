// Package files expands synced folders into concrete file paths and hashes
// file content for chunk identity.
package files

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vegalabs/syncagent/internal/extract"
)

// hashWorkers bounds concurrent file reads while hashing a crawl set.
const hashWorkers = 8

// IsAllowed reports whether the file's extension is in the synced set.
func IsAllowed(path string) bool {
	return extract.SupportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Allowed expands folders recursively, merges in the explicit file paths,
// drops duplicates preserving discovery order, and filters by the allowed
// extension set.
func Allowed(folders, filePaths []string) ([]string, error) {
	var all []string
	for _, dir := range folders {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				all = append(all, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", dir, err)
		}
	}
	all = append(all, filePaths...)

	seen := make(map[string]bool, len(all))
	allowed := make([]string, 0, len(all))
	for _, path := range all {
		if seen[path] || !IsAllowed(path) {
			continue
		}
		seen[path] = true
		allowed = append(allowed, path)
	}
	return allowed, nil
}

// Hash returns the SHA-256 hex digest of the file's bytes.
func Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Hashes computes content hashes for all paths concurrently, preserving
// input order.
func Hashes(ctx context.Context, paths []string) ([]string, error) {
	hashes := make([]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(hashWorkers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := Hash(path)
			if err != nil {
				return err
			}
			hashes[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}
