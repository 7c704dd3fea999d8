package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestMetadata_FieldNumbering(t *testing.T) {
	m := &Metadata{
		DateCreated:      1700000000000,
		DateLastModified: 1700000001000,
		UserID:           "u-1",
		FilePath:         "/docs/a.txt",
		Start:            10,
		End:              20,
		Title:            "a.txt",
		Platform:         PlatformLocal,
		ChunkID:          "abc-0",
	}

	// Walk the raw encoding and record which field numbers appear; these are
	// the contract with the remote index.
	data := m.Marshal()
	seen := map[protowire.Number]bool{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		require.GreaterOrEqual(t, n, 0)
		data = data[n:]
		seen[num] = true
		n = protowire.ConsumeFieldValue(num, typ, data)
		require.GreaterOrEqual(t, n, 0)
		data = data[n:]
	}
	for num := protowire.Number(1); num <= 9; num++ {
		assert.True(t, seen[num], "field %d missing from encoding", num)
	}
}

func TestMetadata_ZeroFieldsOmitted(t *testing.T) {
	m := &Metadata{UserID: "u"}
	data := m.Marshal()

	num, _, n := protowire.ConsumeTag(data)
	require.GreaterOrEqual(t, n, 0)
	assert.Equal(t, protowire.Number(3), num, "only userId should be encoded")
}

func TestTextChunkMessage_Roundtrip(t *testing.T) {
	in := &TextChunkMessage{
		Metadata: &Metadata{
			UserID:   "u-1",
			FilePath: "/docs/a.pdf",
			Start:    0,
			End:      42,
			Title:    "a.pdf",
			Platform: PlatformLocal,
			ChunkID:  "hash-1",
		},
		Content: "some chunk text",
	}

	out := &TextChunkMessage{}
	require.NoError(t, out.Unmarshal(in.Marshal()))
	assert.Equal(t, in, out)
}

func TestNewCrawl_ParallelArrays(t *testing.T) {
	in := &NewCrawl{
		FilePaths:  []string{"/a.txt", "/b.pdf"},
		FileHashes: []string{"h1", "h2"},
	}
	out := &NewCrawl{}
	require.NoError(t, out.Unmarshal(in.Marshal()))
	assert.Equal(t, in.FilePaths, out.FilePaths)
	assert.Equal(t, in.FileHashes, out.FileHashes)
}

func TestQueryRequest_Roundtrip(t *testing.T) {
	in := &QueryRequestMessage{
		RequestID: "req-123",
		RequestedChunks: []*Metadata{
			{FilePath: "/a.pdf", Start: 0, End: 10, ChunkID: "h-1"},
			{FilePath: "/b.txt", Start: 5, End: 15, ChunkID: "h-0"},
		},
	}
	out := &QueryRequestMessage{}
	require.NoError(t, out.Unmarshal(in.Marshal()))
	assert.Equal(t, in, out)
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	data := (&TextChunkMessage{Content: "keep"}).Marshal()
	// A future field 15 must not break older agents.
	data = protowire.AppendTag(data, 15, protowire.VarintType)
	data = protowire.AppendVarint(data, 7)

	out := &TextChunkMessage{}
	require.NoError(t, out.Unmarshal(data))
	assert.Equal(t, "keep", out.Content)
}

func TestUnmarshal_Truncated(t *testing.T) {
	data := (&QueryResponseMessage{RequestID: "r"}).Marshal()
	out := &QueryResponseMessage{}
	require.Error(t, out.Unmarshal(data[:len(data)-1]))
}
