// Package crawl implements the full re-index pass: enumerate the synced
// set, extract and chunk each file, and publish the chunk stream with
// completion markers.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vegalabs/syncagent/internal/chunk"
	"github.com/vegalabs/syncagent/internal/extract"
	"github.com/vegalabs/syncagent/internal/files"
	"github.com/vegalabs/syncagent/internal/secrets"
	"github.com/vegalabs/syncagent/internal/session"
	"github.com/vegalabs/syncagent/internal/wire"
)

// Transport is the slice of the session the crawler needs.
type Transport interface {
	Connected() bool
	Topics() session.Topics
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Crawler drives one crawl at a time. Inbound triggers that arrive while a
// crawl is running are dropped, not queued.
type Crawler struct {
	transport Transport
	store     secrets.Store
	log       *slog.Logger

	chunkOpts      chunk.Options
	extractTimeout time.Duration
	extractFn      func(path string) (extract.Document, error)

	crawling atomic.Bool
}

// New creates a crawler publishing through the given transport.
func New(transport Transport, store secrets.Store, log *slog.Logger, opts chunk.Options, extractTimeout time.Duration) *Crawler {
	return &Crawler{
		transport:      transport,
		store:          store,
		log:            log,
		chunkOpts:      opts,
		extractTimeout: extractTimeout,
		extractFn:      extract.File,
	}
}

// MakeCrawlRequest enumerates the synced selection and publishes a NewCrawl
// announcement. A no-op when the session is down.
func (c *Crawler) MakeCrawlRequest(ctx context.Context) error {
	if !c.transport.Connected() {
		c.log.Warn("not connected, skipping crawl request")
		return nil
	}

	folders, err := c.store.SyncedFolderPaths()
	if err != nil {
		return fmt.Errorf("read synced folders: %w", err)
	}
	filePaths, err := c.store.SyncedFilePaths()
	if err != nil {
		return fmt.Errorf("read synced files: %w", err)
	}

	paths, err := files.Allowed(folders, filePaths)
	if err != nil {
		return fmt.Errorf("enumerate synced files: %w", err)
	}
	hashes, err := files.Hashes(ctx, paths)
	if err != nil {
		return fmt.Errorf("hash synced files: %w", err)
	}

	req := wire.NewCrawl{FilePaths: paths, FileHashes: hashes}
	if err := c.transport.Publish(ctx, c.transport.Topics().NewCrawl, req.Marshal()); err != nil {
		return fmt.Errorf("publish crawl request: %w", err)
	}
	c.log.Info("crawl request published", "files", len(paths))
	return nil
}

// HandleCrawlRequest processes one inbound crawl trigger: every listed file
// is extracted, chunked, and streamed concurrently; one file's failure never
// aborts its siblings. A single <crawl_done> follows once all files settle.
func (c *Crawler) HandleCrawlRequest(ctx context.Context, payload []byte) {
	if !c.crawling.CompareAndSwap(false, true) {
		c.log.Warn("crawl already in progress, dropping trigger")
		return
	}
	defer c.crawling.Store(false)

	var req wire.NewCrawl
	if err := req.Unmarshal(payload); err != nil {
		c.log.Error("bad crawl request payload", "error", err)
		return
	}

	id, err := c.store.Identity()
	if err != nil {
		c.log.Error("crawl without identity", "error", err)
		return
	}

	c.log.Info("crawl started", "files", len(req.FilePaths))

	var g errgroup.Group
	for _, path := range req.FilePaths {
		path := path
		g.Go(func() error {
			// Per-file errors are logged inside; the group only fans in.
			c.publishFile(ctx, id.UserID, path)
			return nil
		})
	}
	_ = g.Wait()

	done := &wire.TextChunkMessage{
		Metadata: &wire.Metadata{UserID: id.UserID, Platform: wire.PlatformLocal},
		Content:  wire.CrawlDone,
	}
	if err := c.transport.Publish(ctx, c.transport.Topics().NewChunk, done.Marshal()); err != nil {
		c.log.Error("publish crawl_done failed", "error", err)
		return
	}
	c.log.Info("crawl finished")
}

// publishFile streams one file's chunks in order, then its <file_done>
// marker. Any failure abandons the file after a log line.
func (c *Crawler) publishFile(ctx context.Context, userID, path string) {
	log := c.log.With("file", path)

	info, err := os.Stat(path)
	if err != nil {
		log.Error("stat failed, skipping file", "error", err)
		return
	}
	hash, err := files.Hash(path)
	if err != nil {
		log.Error("hash failed, skipping file", "error", err)
		return
	}

	doc, err := c.extractFile(ctx, path)
	if err != nil {
		log.Error("extraction failed, skipping file", "error", err)
		return
	}

	var chunks []chunk.TextChunk
	if doc.Paginated() {
		chunks = chunk.SplitPages(doc.Pages, hash, c.chunkOpts)
	} else {
		chunks = chunk.Split(doc.Text, hash, c.chunkOpts)
	}

	meta := wire.Metadata{
		DateCreated:      birthtime(info).UnixMilli(),
		DateLastModified: info.ModTime().UnixMilli(),
		UserID:           userID,
		FilePath:         path,
		Title:            filepath.Base(path),
		Platform:         wire.PlatformLocal,
	}

	topic := c.transport.Topics().NewChunk
	for _, tc := range chunks {
		m := meta
		m.Start = int64(tc.StartOffset)
		m.End = int64(tc.EndOffset)
		m.ChunkID = tc.ChunkID
		msg := wire.TextChunkMessage{Metadata: &m, Content: tc.Text}
		if err := c.transport.Publish(ctx, topic, msg.Marshal()); err != nil {
			log.Error("chunk publish failed, abandoning file", "error", err)
			return
		}
	}

	fileDone := wire.TextChunkMessage{Metadata: &meta, Content: wire.FileDone}
	if err := c.transport.Publish(ctx, topic, fileDone.Marshal()); err != nil {
		log.Error("file_done publish failed", "error", err)
		return
	}
	log.Info("file published", "chunks", len(chunks))
}

// extractFile runs extraction under the configured timeout. Extraction has
// no cancellation points of its own, so a timed-out run is left to finish on
// its goroutine while the file is skipped.
func (c *Crawler) extractFile(ctx context.Context, path string) (extract.Document, error) {
	if c.extractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.extractTimeout)
		defer cancel()
	}

	type result struct {
		doc extract.Document
		err error
	}
	ch := make(chan result, 1)
	go func() {
		doc, err := c.extractFn(path)
		ch <- result{doc, err}
	}()

	select {
	case <-ctx.Done():
		return extract.Document{}, ctx.Err()
	case r := <-ch:
		return r.doc, r.err
	}
}
