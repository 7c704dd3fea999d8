// Package chunk splits extracted document text into bounded, overlapping
// segments with byte offsets into the source unit. A unit is either a whole
// flat document or a single page of a paginated one.
package chunk

import (
	"strconv"
	"strings"
)

// Default size bounds in bytes.
const (
	DefaultMinSize = 800
	DefaultMaxSize = 2000
)

// overlapLimit caps the context carried from one chunk into the next.
const overlapLimit = 200

// TextChunk is one segment of a unit. StartOffset/EndOffset are byte offsets
// into the unit's text; the covered region includes the overlap prefix, so
// unit[StartOffset:EndOffset] reproduces Text exactly.
type TextChunk struct {
	Text        string
	ChunkID     string
	StartOffset int
	EndOffset   int
}

// Options controls the size bounds. Zero values fall back to the defaults.
type Options struct {
	MinSize int
	MaxSize int
}

func (o Options) withDefaults() Options {
	if o.MinSize <= 0 {
		o.MinSize = DefaultMinSize
	}
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	return o
}

// ID derives a chunk id from a content hash and a page index: the suffix
// "-{page}" replaces the same number of trailing hash characters, keeping the
// id length stable. Page 0 marks flat input; paged input is 1-based.
func ID(fileHash string, page int) string {
	suffix := "-" + strconv.Itoa(page)
	cut := len(fileHash) - len(suffix)
	if cut < 0 {
		cut = 0
	}
	return fileHash[:cut] + suffix
}

// Split chunks a flat unit. All chunks share the id derived for page 0.
func Split(content, fileHash string, opts Options) []TextChunk {
	return split(content, ID(fileHash, 0), opts.withDefaults())
}

// SplitPages chunks each page independently and renumbers chunk ids with a
// 1-based page suffix.
func SplitPages(pages []string, fileHash string, opts Options) []TextChunk {
	opts = opts.withDefaults()
	var all []TextChunk
	for i, page := range pages {
		all = append(all, split(page, ID(fileHash, i+1), opts)...)
	}
	return all
}

// split accumulates newline-delimited lines into chunks of [MinSize, MaxSize]
// bytes. Lines longer than MaxSize are hard-split at word boundaries and do
// not contribute overlap context. When a size-bounded flush happens, the next
// chunk is seeded with the trailing portion of the previous line so
// consecutive chunks share context, except when the seed plus the incoming
// line would already exceed MaxSize.
func split(content, chunkID string, opts Options) []TextChunk {
	var chunks []TextChunk
	lines := strings.Split(content, "\n")

	var (
		current       strings.Builder
		currentStart  int
		position      int
		lastLine      string
		lastLineStart int
	)

	for i, line := range lines {
		if i > 0 {
			position++ // the joining newline
		}
		lineStart := position

		// A single line beyond MaxSize: flush whatever accumulated, then
		// hard-split the line itself.
		if len(line) > opts.MaxSize {
			if current.Len() > 0 {
				end := lineStart
				if i > 0 {
					end--
				}
				chunks = append(chunks, TextChunk{
					Text:        current.String(),
					ChunkID:     chunkID,
					StartOffset: currentStart,
					EndOffset:   end,
				})
				current.Reset()
			}

			for offset := 0; offset < len(line); {
				size := opts.MaxSize
				if rem := len(line) - offset; rem < size {
					size = rem
				}
				// Prefer cutting at the last space within the limit.
				if offset+size < len(line) {
					if sp := strings.LastIndexByte(line[:offset+size+1], ' '); sp > offset {
						size = sp - offset
					}
				}
				chunks = append(chunks, TextChunk{
					Text:        line[offset : offset+size],
					ChunkID:     chunkID,
					StartOffset: lineStart + offset,
					EndOffset:   lineStart + offset + size,
				})
				offset += size
				if offset < len(line) && line[offset] == ' ' {
					offset++
				}
			}

			position = lineStart + len(line)
			// An oversized line never seeds overlap context.
			lastLine, lastLineStart = "", 0
			continue
		}

		joined := current.Len() + len(line)
		if current.Len() > 0 {
			joined++
		}

		if joined > opts.MaxSize && current.Len() >= opts.MinSize {
			end := lineStart
			if i > 0 {
				end--
			}
			chunks = append(chunks, TextChunk{
				Text:        current.String(),
				ChunkID:     chunkID,
				StartOffset: currentStart,
				EndOffset:   end,
			})
			current.Reset()

			if overlap := overlapText(lastLine); overlap != "" && len(overlap)+1+len(line) <= opts.MaxSize {
				current.WriteString(overlap)
				currentStart = lastLineStart + (len(lastLine) - len(overlap))
			} else {
				// Seeding would push the next chunk past MaxSize.
				currentStart = lineStart
			}
		}

		if current.Len() > 0 {
			current.WriteByte('\n')
		} else {
			currentStart = lineStart
		}
		current.WriteString(line)

		position = lineStart + len(line)
		lastLine, lastLineStart = line, lineStart
	}

	if current.Len() > 0 {
		chunks = append(chunks, TextChunk{
			Text:        current.String(),
			ChunkID:     chunkID,
			StartOffset: currentStart,
			EndOffset:   position,
		})
	}

	return chunks
}

// overlapText returns the trailing portion of line to seed the next chunk,
// capped at overlapLimit bytes and trimmed forward to a word boundary. A line
// with no space inside the search region is cut mid-word.
func overlapText(line string) string {
	if len(line) <= overlapLimit {
		return line
	}
	tail := line[len(line)-overlapLimit:]
	if sp := strings.IndexByte(tail, ' '); sp >= 0 {
		return tail[sp+1:]
	}
	return tail
}
