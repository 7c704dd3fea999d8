// Package wire encodes the broker messages in protobuf wire format. The
// codecs are hand-rolled over encoding/protowire; field numbers below are the
// contract with the remote index and must never be renumbered.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Platform tags where a chunk came from.
type Platform int32

const (
	PlatformUnspecified Platform = 0
	PlatformLocal       Platform = 1
)

// Sentinel contents on the chunk topic.
const (
	FileDone  = "<file_done>"
	CrawlDone = "<crawl_done>"
)

// Metadata identifies one chunk of one file.
//
// Fields: 1 dateCreated (unix ms), 2 dateLastModified (unix ms), 3 userId,
// 4 filePath, 5 start, 6 end, 7 title, 8 platform, 9 chunkId.
type Metadata struct {
	DateCreated      int64
	DateLastModified int64
	UserID           string
	FilePath         string
	Start            int64
	End              int64
	Title            string
	Platform         Platform
	ChunkID          string
}

// TextChunkMessage carries one chunk, or a FileDone/CrawlDone sentinel.
//
// Fields: 1 metadata, 2 content.
type TextChunkMessage struct {
	Metadata *Metadata
	Content  string
}

// NewCrawl asks the remote index to (re)index the listed files. The two
// slices are parallel.
//
// Fields: 1 filePaths (repeated), 2 fileHashes (repeated).
type NewCrawl struct {
	FilePaths  []string
	FileHashes []string
}

// QueryRequestMessage asks for exact byte ranges of specific files.
//
// Fields: 1 requestId, 2 requestedChunks (repeated).
type QueryRequestMessage struct {
	RequestID       string
	RequestedChunks []*Metadata
}

// QueryResponseMessage aggregates every resolvable requested range.
//
// Fields: 1 requestId, 2 textChunks (repeated).
type QueryResponseMessage struct {
	RequestID  string
	TextChunks []*TextChunkMessage
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func (m *Metadata) Marshal() []byte {
	return m.appendTo(nil)
}

func (m *Metadata) appendTo(b []byte) []byte {
	b = appendInt64(b, 1, m.DateCreated)
	b = appendInt64(b, 2, m.DateLastModified)
	b = appendString(b, 3, m.UserID)
	b = appendString(b, 4, m.FilePath)
	b = appendInt64(b, 5, m.Start)
	b = appendInt64(b, 6, m.End)
	b = appendString(b, 7, m.Title)
	b = appendInt64(b, 8, int64(m.Platform))
	b = appendString(b, 9, m.ChunkID)
	return b
}

func (m *Metadata) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case typ == protowire.VarintType && (num >= 1 && num <= 8):
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			switch num {
			case 1:
				m.DateCreated = int64(v)
			case 2:
				m.DateLastModified = int64(v)
			case 5:
				m.Start = int64(v)
			case 6:
				m.End = int64(v)
			case 8:
				m.Platform = Platform(v)
			}
		case typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			switch num {
			case 3:
				m.UserID = v
			case 4:
				m.FilePath = v
			case 7:
				m.Title = v
			case 9:
				m.ChunkID = v
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}

func (m *TextChunkMessage) Marshal() []byte {
	var b []byte
	if m.Metadata != nil {
		b = appendMessage(b, 1, m.Metadata.Marshal())
	}
	b = appendString(b, 2, m.Content)
	return b
}

func (m *TextChunkMessage) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			meta := &Metadata{}
			if err := meta.Unmarshal(v); err != nil {
				return fmt.Errorf("metadata: %w", err)
			}
			m.Metadata = meta
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			m.Content = v
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}

func (m *NewCrawl) Marshal() []byte {
	var b []byte
	for _, p := range m.FilePaths {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, p)
	}
	for _, h := range m.FileHashes {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, h)
	}
	return b
}

func (m *NewCrawl) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			m.FilePaths = append(m.FilePaths, v)
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			m.FileHashes = append(m.FileHashes, v)
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}

func (m *QueryRequestMessage) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.RequestID)
	for _, c := range m.RequestedChunks {
		b = appendMessage(b, 2, c.Marshal())
	}
	return b
}

func (m *QueryRequestMessage) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			m.RequestID = v
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			meta := &Metadata{}
			if err := meta.Unmarshal(v); err != nil {
				return fmt.Errorf("requested chunk: %w", err)
			}
			m.RequestedChunks = append(m.RequestedChunks, meta)
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}

func (m *QueryResponseMessage) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.RequestID)
	for _, c := range m.TextChunks {
		b = appendMessage(b, 2, c.Marshal())
	}
	return b
}

func (m *QueryResponseMessage) Unmarshal(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			m.RequestID = v
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			chunk := &TextChunkMessage{}
			if err := chunk.Unmarshal(v); err != nil {
				return fmt.Errorf("text chunk: %w", err)
			}
			m.TextChunks = append(m.TextChunks, chunk)
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}
