// Package indexer feeds uploaded documents into the internal vector index.
package indexer

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/embedding"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/vectordb"
)

const (
	defaultChunkTokens = 400
	embedBatch         = 64
)

// Indexer chunks, embeds and stores documents found in Dir.
type Indexer struct {
	Dir         string
	Tokenizer   llm.Tokenizer
	ChunkTokens int
	Embed       embedding.Embedder
	Store       vectordb.Store
	// Watch keeps ingesting files created or written after Start.
	Watch bool

	mu      sync.Mutex
	digests map[string]string
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// Start ingests the directory once, then watches it when Watch is set.
func (ix *Indexer) Start(ctx context.Context) error {
	if err := os.MkdirAll(ix.Dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	n, err := ix.IndexDir(ctx)
	if err != nil {
		return err
	}
	logger.Infof("indexer: initial ingestion of %s stored %d chunks", ix.Dir, n)
	if !ix.Watch {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(ix.Dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", ix.Dir, err)
	}
	ix.mu.Lock()
	ix.watcher = w
	ix.stopCh = make(chan struct{})
	ix.mu.Unlock()

	ix.wg.Add(1)
	go ix.watchLoop(ctx, w, ix.stopCh)
	return nil
}

// Stop ends the watch loop. It is safe to call more than once.
func (ix *Indexer) Stop() error {
	ix.mu.Lock()
	w, stop := ix.watcher, ix.stopCh
	ix.watcher, ix.stopCh = nil, nil
	ix.mu.Unlock()
	if w == nil {
		return nil
	}
	close(stop)
	err := w.Close()
	ix.wg.Wait()
	return err
}

func (ix *Indexer) watchLoop(ctx context.Context, w *fsnotify.Watcher, stop <-chan struct{}) {
	defer ix.wg.Done()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !Supported(event.Name) {
				continue
			}
			n, err := ix.IndexFile(ctx, event.Name)
			if err != nil {
				logger.Warnf("indexer: %s: %v", filepath.Base(event.Name), err)
				continue
			}
			if n > 0 {
				logger.Infof("indexer: %s stored %d chunks", filepath.Base(event.Name), n)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Errorf("indexer: watcher error: %v", err)
		}
	}
}

// IndexDir ingests every supported file under Dir and returns the chunk count.
func (ix *Indexer) IndexDir(ctx context.Context) (int, error) {
	total := 0
	err := filepath.WalkDir(ix.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !Supported(path) {
			logger.Warnf("indexer: skipping unsupported file %s", d.Name())
			return nil
		}
		n, err := ix.IndexFile(ctx, path)
		if err != nil {
			return fmt.Errorf("index %s: %w", d.Name(), err)
		}
		total += n
		return nil
	})
	return total, err
}

// IndexFile ingests one file. Unchanged content is not indexed again. Chunks
// from an earlier version of the file are replaced, and chunk IDs derive from
// the content so re-ingesting after a restart overwrites instead of duplicating.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	sum := sha1.Sum(data)
	digest := hex.EncodeToString(sum[:])
	if !ix.markDigest(path, digest) {
		return 0, nil
	}
	n, err := ix.store(ctx, path, digest, data)
	if err != nil {
		ix.forget(path)
		return 0, err
	}
	return n, nil
}

func (ix *Indexer) store(ctx context.Context, path, digest string, data []byte) (int, error) {
	text, err := extract(path, data)
	if err != nil {
		return 0, err
	}
	limit := ix.ChunkTokens
	if limit <= 0 {
		limit = defaultChunkTokens
	}
	chunks := Chunk(ix.Tokenizer, text, limit)

	docs := make([]schema.Document, 0, len(chunks))
	now := time.Now()
	name := filepath.Base(path)
	for i, c := range chunks {
		docs = append(docs, schema.Document{
			ID:      uuid.NewSHA1(uuid.NameSpaceURL, []byte(digest+"#"+strconv.Itoa(i))).String(),
			Content: c,
			Metadata: map[string]interface{}{
				schema.MetaFile:   name,
				schema.MetaSource: "upload",
				"chunk":           i,
			},
			CreatedAt: now,
		})
	}
	for start := 0; start < len(docs); start += embedBatch {
		end := start + embedBatch
		if end > len(docs) {
			end = len(docs)
		}
		if err := ix.embed(ctx, docs[start:end]); err != nil {
			return 0, err
		}
	}
	if err := ix.Store.DeleteFile(ctx, name); err != nil {
		return 0, err
	}
	if err := ix.Store.Upsert(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (ix *Indexer) embed(ctx context.Context, docs []schema.Document) error {
	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Content
	}
	vecs, err := ix.Embed.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(docs))
	}
	for i := range docs {
		docs[i].Vector = vecs[i]
	}
	return nil
}

// markDigest records the digest and reports whether it changed.
func (ix *Indexer) markDigest(path, digest string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.digests == nil {
		ix.digests = make(map[string]string)
	}
	if ix.digests[path] == digest {
		return false
	}
	ix.digests[path] = digest
	return true
}

func (ix *Indexer) forget(path string) {
	ix.mu.Lock()
	delete(ix.digests, path)
	ix.mu.Unlock()
}
