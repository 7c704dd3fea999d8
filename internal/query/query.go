// Package query answers remote byte-range requests against live file
// content. Ranges that cannot be resolved are omitted from the response,
// never turned into request-level failures.
package query

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vegalabs/syncagent/internal/extract"
	"github.com/vegalabs/syncagent/internal/session"
	"github.com/vegalabs/syncagent/internal/wire"
)

// Transport is the slice of the session the responder needs.
type Transport interface {
	Topics() session.Topics
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Responder resolves inbound QueryRequests.
type Responder struct {
	transport   Transport
	log         *slog.Logger
	extractPage func(raw []byte, page int) (string, error)
}

// New creates a responder publishing through the given transport.
func New(transport Transport, log *slog.Logger) *Responder {
	return &Responder{transport: transport, log: log, extractPage: extract.PDFPage}
}

// HandleQueryRequest resolves every requested range it can and publishes one
// aggregated response keyed by the request id.
func (r *Responder) HandleQueryRequest(ctx context.Context, payload []byte) {
	var req wire.QueryRequestMessage
	if err := req.Unmarshal(payload); err != nil {
		r.log.Error("bad query request payload", "error", err)
		return
	}
	log := r.log.With("request_id", req.RequestID)

	// Group requested ranges by file so each file is loaded once.
	var order []string
	byFile := make(map[string][]*wire.Metadata)
	for _, m := range req.RequestedChunks {
		if m.FilePath == "" {
			log.Error("requested chunk without file path, skipping")
			continue
		}
		if _, ok := byFile[m.FilePath]; !ok {
			order = append(order, m.FilePath)
		}
		byFile[m.FilePath] = append(byFile[m.FilePath], m)
	}

	var (
		mu       sync.Mutex
		resolved []*wire.TextChunkMessage
		g        errgroup.Group
	)
	for _, path := range order {
		path := path
		metas := byFile[path]
		g.Go(func() error {
			chunks := r.resolveFile(path, metas, log)
			mu.Lock()
			resolved = append(resolved, chunks...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	resp := wire.QueryResponseMessage{RequestID: req.RequestID, TextChunks: resolved}
	if err := r.transport.Publish(ctx, r.transport.Topics().QueryRes, resp.Marshal()); err != nil {
		log.Error("publish query response failed", "error", err)
		return
	}
	log.Info("query answered", "requested", len(req.RequestedChunks), "resolved", len(resolved))
}

// resolveFile loads one file and slices every requested range out of it.
func (r *Responder) resolveFile(path string, metas []*wire.Metadata, log *slog.Logger) []*wire.TextChunkMessage {
	log = log.With("file", path)

	if _, err := os.Stat(path); err != nil {
		log.Error("file unavailable, skipping its ranges", "error", err)
		return nil
	}

	// Paginated formats keep the raw bytes and re-extract per page; flat
	// formats extract the full text once.
	paginated := strings.EqualFold(filepath.Ext(path), ".pdf")
	var (
		raw  []byte
		text string
	)
	if paginated {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			log.Error("read failed, skipping its ranges", "error", err)
			return nil
		}
	} else {
		doc, err := extract.File(path)
		if err != nil {
			log.Error("extraction failed, skipping its ranges", "error", err)
			return nil
		}
		text = doc.Text
	}

	var out []*wire.TextChunkMessage
	for _, m := range metas {
		var (
			content string
			ok      bool
		)
		if paginated {
			content, ok = r.resolvePage(raw, m, log)
		} else {
			content, ok = resolveFlat(text, m, log)
		}
		if ok {
			out = append(out, &wire.TextChunkMessage{Metadata: m, Content: content})
		}
	}
	return out
}

// resolvePage extracts the page named by the chunk id's trailing component
// and slices the requested range, clamped to the page text.
func (r *Responder) resolvePage(raw []byte, m *wire.Metadata, log *slog.Logger) (string, bool) {
	page := pageIndex(m.ChunkID)
	pageText, err := r.extractPage(raw, page)
	if err != nil {
		log.Error("page extraction failed, skipping range", "chunk_id", m.ChunkID, "error", err)
		return "", false
	}

	start, end := int(m.Start), int(m.End)
	if start < 0 {
		start = 0
	}
	if end > len(pageText) {
		end = len(pageText)
	}
	if start >= end {
		log.Error("empty range after clamping, skipping", "chunk_id", m.ChunkID, "start", m.Start, "end", m.End)
		return "", false
	}
	return pageText[start:end], true
}

// resolveFlat slices the requested range from the full extracted text after
// strict bounds validation.
func resolveFlat(text string, m *wire.Metadata, log *slog.Logger) (string, bool) {
	start, end := int(m.Start), int(m.End)
	if start < 0 || end > len(text) || start >= end {
		log.Error("invalid chunk boundaries, skipping range",
			"chunk_id", m.ChunkID, "start", m.Start, "end", m.End, "length", len(text))
		return "", false
	}
	return text[start:end], true
}

// pageIndex reads the page number from the trailing component of a chunk id;
// ids without a numeric suffix resolve to page 0 (flat).
func pageIndex(chunkID string) int {
	parts := strings.Split(chunkID, "-")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return n
}
