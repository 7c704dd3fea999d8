package chunk

import (
	"reflect"
	"strings"
	"testing"
)

const testHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

// line returns a line of exactly n bytes built from space-separated words.
func line(n int) string {
	var b strings.Builder
	for b.Len() < n {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("word")
	}
	return b.String()[:n]
}

func TestSplit_SingleChunkSpansWholeUnit(t *testing.T) {
	content := line(400) + "\n" + line(400) + "\n" + line(400)
	chunks := Split(content, testHash, Options{MinSize: 800, MaxSize: 2000})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.StartOffset != 0 || c.EndOffset != len(content) {
		t.Errorf("expected offsets [0,%d], got [%d,%d]", len(content), c.StartOffset, c.EndOffset)
	}
	if c.Text != content {
		t.Errorf("chunk text does not equal the whole unit")
	}
}

func TestSplit_OffsetsSliceOriginal(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, line(300))
	}
	content := strings.Join(lines, "\n")

	chunks := Split(content, testHash, Options{MinSize: 800, MaxSize: 2000})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.StartOffset > c.EndOffset {
			t.Fatalf("chunk %d: inverted offsets [%d,%d]", i, c.StartOffset, c.EndOffset)
		}
		if got := content[c.StartOffset:c.EndOffset]; got != c.Text {
			t.Errorf("chunk %d: offsets do not reproduce text\nwant %q\ngot  %q", i, c.Text, got)
		}
	}
}

func TestSplit_OffsetsMonotonic(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, line(250))
	}
	chunks := Split(strings.Join(lines, "\n"), testHash, Options{})

	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartOffset < chunks[i-1].StartOffset {
			t.Errorf("chunk %d start %d before chunk %d start %d",
				i, chunks[i].StartOffset, i-1, chunks[i-1].StartOffset)
		}
	}
}

func TestSplit_SizeBounds(t *testing.T) {
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, line(500))
	}
	chunks := Split(strings.Join(lines, "\n"), testHash, Options{MinSize: 800, MaxSize: 2000})

	for i, c := range chunks {
		if len(c.Text) > 2000 {
			t.Errorf("chunk %d: %d bytes exceeds max 2000", i, len(c.Text))
		}
	}
}

func TestSplit_SizeBoundHoldsWithNearMaxLines(t *testing.T) {
	// Lines near MaxSize leave no room for an overlap seed: a seeded chunk
	// would exceed the bound even though no single line does.
	content := line(1900) + "\n" + line(1900) + "\n" + line(1900)
	chunks := Split(content, testHash, Options{MinSize: 800, MaxSize: 2000})

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > 2000 {
			t.Errorf("chunk %d: %d bytes exceeds max 2000", i, len(c.Text))
		}
		if got := content[c.StartOffset:c.EndOffset]; got != c.Text {
			t.Errorf("chunk %d: offsets do not reproduce text", i)
		}
	}
	// With the seed skipped, each chunk is exactly one line.
	for i, c := range chunks {
		if c.Text != line(1900) {
			t.Errorf("chunk %d: expected a bare line, got %d bytes", i, len(c.Text))
		}
	}
}

func TestSplit_OverlapSharedWithPreviousChunk(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, line(300))
	}
	content := strings.Join(lines, "\n")
	chunks := Split(content, testHash, Options{MinSize: 800, MaxSize: 2000})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		overlap := prev.EndOffset - cur.StartOffset
		if overlap < 0 {
			t.Fatalf("chunk %d: gap between chunks (%d..%d)", i, prev.EndOffset, cur.StartOffset)
		}
		if overlap > overlapLimit {
			t.Errorf("chunk %d: overlap %d exceeds %d", i, overlap, overlapLimit)
		}
		// Overlap must not begin mid-word: the byte before it is a separator.
		if overlap > 0 && cur.StartOffset > 0 {
			if b := content[cur.StartOffset-1]; b != ' ' && b != '\n' {
				t.Errorf("chunk %d: overlap starts mid-word at offset %d", i, cur.StartOffset)
			}
		}
	}
}

func TestSplit_OversizedLineHardSplit(t *testing.T) {
	content := line(5000)
	chunks := Split(content, testHash, Options{MinSize: 800, MaxSize: 2000})

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > 2000 {
			t.Errorf("chunk %d: %d bytes exceeds max 2000", i, len(c.Text))
		}
		if got := content[c.StartOffset:c.EndOffset]; got != c.Text {
			t.Errorf("chunk %d: offsets do not reproduce text", i)
		}
	}
	// The first two cuts land on a word boundary.
	for i := 0; i < 2; i++ {
		if end := chunks[i].EndOffset; content[end] != ' ' {
			t.Errorf("chunk %d: cut at %d is not a word boundary", i, chunks[i].EndOffset)
		}
	}
}

func TestSplit_OversizedLineNoSpaces(t *testing.T) {
	content := strings.Repeat("x", 4500)
	chunks := Split(content, testHash, Options{MinSize: 800, MaxSize: 2000})

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	want := []int{2000, 2000, 500}
	for i, c := range chunks {
		if len(c.Text) != want[i] {
			t.Errorf("chunk %d: expected %d bytes, got %d", i, want[i], len(c.Text))
		}
	}
}

func TestSplit_BufferFlushedBeforeOversizedLine(t *testing.T) {
	content := line(900) + "\n" + line(3000) + "\n" + line(900)
	chunks := Split(content, testHash, Options{MinSize: 800, MaxSize: 2000})

	if len(chunks) < 4 {
		t.Fatalf("expected at least 4 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != line(900) {
		t.Errorf("expected first chunk to be the flushed buffer")
	}
	// The chunk after the hard-split pieces starts fresh: an oversized line
	// contributes no overlap context.
	last := chunks[len(chunks)-1]
	if last.Text != line(900) {
		t.Errorf("expected final chunk without overlap, got %d bytes", len(last.Text))
	}
}

func TestSplit_Idempotent(t *testing.T) {
	var lines []string
	for i := 0; i < 15; i++ {
		lines = append(lines, line(350))
	}
	content := strings.Join(lines, "\n")

	a := Split(content, testHash, Options{})
	b := Split(content, testHash, Options{})
	if !reflect.DeepEqual(a, b) {
		t.Error("re-chunking the same input produced a different sequence")
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	if chunks := Split("", testHash, Options{}); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty input, got %d", len(chunks))
	}
}

func TestSplitPages_Renumbering(t *testing.T) {
	pages := []string{line(1000), line(1000)}
	chunks := SplitPages(pages, testHash, Options{MinSize: 200, MaxSize: 600})

	if len(chunks) < 4 {
		t.Fatalf("expected chunks from both pages, got %d", len(chunks))
	}
	sawPage2 := false
	for i, c := range chunks {
		if strings.HasSuffix(c.ChunkID, "-2") {
			sawPage2 = true
		} else if !strings.HasSuffix(c.ChunkID, "-1") {
			t.Errorf("chunk %d: unexpected id suffix %q", i, c.ChunkID)
		}
		if sawPage2 && strings.HasSuffix(c.ChunkID, "-1") {
			t.Errorf("chunk %d: page 1 id after page 2 started", i)
		}
		if len(c.ChunkID) != len(testHash) {
			t.Errorf("chunk %d: id length %d differs from hash length %d", i, len(c.ChunkID), len(testHash))
		}
	}
	if !sawPage2 {
		t.Error("no chunks carried the page 2 suffix")
	}
}

func TestID(t *testing.T) {
	if got := ID("abcdef", 0); got != "abcd-0" {
		t.Errorf("page 0: expected abcd-0, got %q", got)
	}
	if got := ID("abcdef", 3); got != "abcd-3" {
		t.Errorf("page 3: expected abcd-3, got %q", got)
	}
	if got := ID("abcdef", 12); got != "abc-12" {
		t.Errorf("page 12: expected abc-12, got %q", got)
	}
	if got := ID("ab", 123); got != "-123" {
		t.Errorf("short hash: expected -123, got %q", got)
	}
}
