// Package rag is the service facade over the orchestrator and its collaborators.
package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/cache"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/indexer"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/orchestrator"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/retriever"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/vectordb"
)

const (
	Version     = "1.0.0"
	ExitCommand = "exit"
	ExitMessage = "Exiting the app."
)

// Runner answers one question.
type Runner interface {
	Run(ctx context.Context, question string) (*orchestrator.Answer, error)
}

// Service owns the collaborators of one process.
type Service struct {
	cfg      *config.Config
	orch     Runner
	internal retriever.Retriever
	indexer  *indexer.Indexer
	store    vectordb.Store
	redis    *cache.RedisCache
}

// NewWithRunner wires a service around an existing runner and internal retriever.
// Either may be nil. Used by tests and embedders.
func NewWithRunner(cfg *config.Config, run Runner, internal retriever.Retriever) *Service {
	return &Service{cfg: cfg, orch: run, internal: internal}
}

// Ask answers question. The exit command is acknowledged without a run.
func (s *Service) Ask(ctx context.Context, question string) (*orchestrator.Answer, error) {
	if strings.EqualFold(strings.TrimSpace(question), ExitCommand) {
		return &orchestrator.Answer{Message: ExitMessage}, nil
	}
	if s.orch == nil {
		return nil, errors.New("rag: orchestrator not configured")
	}
	return s.orch.Run(ctx, question)
}

// SearchContext returns the internal index snippets for query.
func (s *Service) SearchContext(ctx context.Context, query string, topK int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.New(errs.ErrInvalidQuestion, "rag.search_context", "empty query")
	}
	if s.internal == nil {
		return nil, errs.New(errs.ErrRetrievalUnavailable, "rag.search_context", "internal index not configured")
	}
	if topK <= 0 {
		topK = s.cfg.Index.TopK
	}
	out, err := retriever.Texts(ctx, s.internal, query, topK)
	if err != nil {
		return nil, errs.Wrap(errs.ErrRetrievalUnavailable, "rag.search_context", err)
	}
	return out, nil
}

// SaveUpload stores r under the upload directory and returns the stored name.
// The file is written under a temporary name and renamed once complete.
func (s *Service) SaveUpload(ctx context.Context, name string, r io.Reader) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, ".") {
		return "", errs.New(errs.ErrInvalidUpload, "rag.upload", "missing or invalid file name")
	}
	dir := s.cfg.Upload.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer os.Remove(tmp.Name())

	limit := s.cfg.Upload.MaxBytes
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if limit > 0 && n > limit {
		return "", errs.New(errs.ErrInvalidUpload, "rag.upload", fmt.Sprintf("file exceeds %d bytes", limit))
	}
	dst := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	logger.Infof("rag: stored upload %s (%d bytes)", name, n)

	if s.indexer != nil && !s.cfg.Index.Watch && indexer.Supported(dst) {
		if _, err := s.indexer.IndexFile(ctx, dst); err != nil {
			logger.Warnf("rag: indexing %s failed: %v", name, err)
		}
	}
	return name, nil
}

// IndexDir ingests dir once into the internal vector index.
func (s *Service) IndexDir(ctx context.Context, dir string) (int, error) {
	if s.indexer == nil {
		return 0, fmt.Errorf("rag: index provider %q has no local indexer", s.cfg.Index.Provider)
	}
	ix := &indexer.Indexer{
		Dir:         dir,
		Tokenizer:   s.indexer.Tokenizer,
		ChunkTokens: s.indexer.ChunkTokens,
		Embed:       s.indexer.Embed,
		Store:       s.indexer.Store,
	}
	return ix.IndexDir(ctx)
}

// Start runs the initial ingestion and the upload watcher.
func (s *Service) Start(ctx context.Context) error {
	if s.indexer == nil {
		return nil
	}
	return s.indexer.Start(ctx)
}

// Stop releases the watcher, the vector store and the Redis client.
func (s *Service) Stop() error {
	var errList []error
	if s.indexer != nil {
		errList = append(errList, s.indexer.Stop())
	}
	if s.store != nil {
		errList = append(errList, s.store.Close())
	}
	if s.redis != nil {
		errList = append(errList, s.redis.Close())
	}
	return errors.Join(errList...)
}
