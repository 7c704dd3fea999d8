package files

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIsAllowed(t *testing.T) {
	assert.True(t, IsAllowed("/a/b/report.PDF"))
	assert.True(t, IsAllowed("notes.txt"))
	assert.True(t, IsAllowed("slides.pptx"))
	assert.False(t, IsAllowed("archive.tar.gz"))
	assert.False(t, IsAllowed("binary"))
}

func TestAllowed_RecursiveFilterDedupe(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.txt"), "a")
	touch(t, filepath.Join(dir, "sub", "b.pdf"), "b")
	touch(t, filepath.Join(dir, "sub", "deep", "c.docx"), "c")
	touch(t, filepath.Join(dir, "sub", "skip.exe"), "x")
	extra := filepath.Join(dir, "a.txt") // duplicate of a discovered file

	got, err := Allowed([]string{dir}, []string{extra, "/nonexistent/d.odt"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "sub", "b.pdf"),
		filepath.Join(dir, "sub", "deep", "c.docx"),
		"/nonexistent/d.odt", // enumeration does not stat explicit paths
	}, got)
}

func TestAllowed_MissingFolder(t *testing.T) {
	_, err := Allowed([]string{"/definitely/not/here"}, nil)
	require.Error(t, err)
}

func TestHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	touch(t, path, "hello")

	want := sha256.Sum256([]byte("hello"))
	got, err := Hash(path)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestHashes_OrderPreserved(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	var want []string
	for _, content := range []string{"one", "two", "three", "four"} {
		p := filepath.Join(dir, content+".txt")
		touch(t, p, content)
		paths = append(paths, p)
		sum := sha256.Sum256([]byte(content))
		want = append(want, hex.EncodeToString(sum[:]))
	}

	got, err := Hashes(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHashes_MissingFile(t *testing.T) {
	_, err := Hashes(context.Background(), []string{"/no/such/file.txt"})
	require.Error(t, err)
}
