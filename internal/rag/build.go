package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/agents"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/cache"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/httpx"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/crag"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/embedding"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/gate"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/indexer"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/orchestrator"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/retriever"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/search"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/vectordb"
)

// New builds every collaborator from cfg. Call Start to begin indexing and
// Stop to release connections.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg}
	client := httpx.NewFromConfig(&cfg.HTTP)

	shared, err := s.buildCache(ctx)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm provider failed, err: %w", err)
	}
	if shared != nil {
		provider = llm.NewCached(provider, shared, cfg.LLM.Model, s.cacheTTL())
	}
	tok := llm.NewTokenizer(cfg.LLM.Model)
	budget := llm.NewBudget(tok, cfg.LLM.ContextTokens)

	internal, err := s.buildInternal(ctx, client, shared, tok)
	if err != nil {
		s.Stop()
		return nil, err
	}

	var external retriever.Retriever
	if cfg.Search.Enabled {
		cascade, err := search.NewFromConfig(cfg.Search, client)
		if err != nil {
			s.Stop()
			return nil, fmt.Errorf("create search cascade failed, err: %w", err)
		}
		logger.Infof("rag: external cascade %v", cascade.Sources())
		external = cascade
	} else {
		logger.Warnf("rag: external search disabled; questions the internal index cannot answer will fail")
	}

	compliance, relevance, err := buildGates(cfg, provider, client, budget)
	if err != nil {
		s.Stop()
		return nil, err
	}

	s.internal = internal
	s.orch = &orchestrator.Orchestrator{
		Compliance:  compliance,
		Relevance:   relevance,
		Internal:    internal,
		External:    external,
		Decomposer:  &agents.Decomposer{LLM: provider, Structured: cfg.LLM.StructuredOutput, Budget: budget},
		Analyst:     &agents.Analyst{LLM: provider, Budget: budget},
		Synthesizer: &agents.Synthesizer{LLM: provider, Budget: budget},
		FollowUp:    &agents.FollowUp{LLM: provider, Budget: budget},
		Opts:        orchestrator.OptionsFromConfig(cfg),
	}
	return s, nil
}

func (s *Service) cacheTTL() time.Duration {
	return time.Duration(s.cfg.Cache.TTLSeconds) * time.Second
}

// buildCache returns nil when caching is disabled. An unreachable Redis
// degrades to the in-process cache.
func (s *Service) buildCache(ctx context.Context) (cache.Cache, error) {
	cc := s.cfg.Cache
	if !cc.Enable {
		return nil, nil
	}
	l1 := cache.NewLRU(cc.MaxEntries, s.cacheTTL())
	if cc.RedisURL == "" {
		return l1, nil
	}
	rc, err := cache.NewRedis(ctx, cc.RedisURL, cc.Prefix, s.cacheTTL())
	if err != nil {
		logger.Warnf("rag: redis cache unavailable, using in-process cache only: %v", err)
		return l1, nil
	}
	s.redis = rc
	return cache.NewTiered(l1, rc), nil
}

func (s *Service) buildInternal(ctx context.Context, client *httpx.Client, shared cache.Cache, tok llm.Tokenizer) (retriever.Retriever, error) {
	ic := s.cfg.Index
	timeout := config.Ms(ic.TimeoutMs, 10*time.Second)
	if ic.Provider == "pathway" {
		return retriever.WithTimeout(&retriever.PathwayRetriever{Endpoint: ic.Endpoint, TopK: ic.TopK, Client: client}, timeout), nil
	}

	emb, err := embedding.NewEmbedder(s.cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedding provider failed, err: %w", err)
	}
	if shared != nil {
		emb = embedding.NewCached(emb, shared, s.cacheTTL())
	}
	store, err := vectordb.NewMilvus(ctx, s.cfg.VectorDB, emb.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("create vector store provider failed, err: %w", err)
	}
	s.store = store
	s.indexer = &indexer.Indexer{
		Dir:         s.cfg.Upload.Dir,
		Tokenizer:   tok,
		ChunkTokens: ic.ChunkTokens,
		Embed:       emb,
		Store:       store,
		Watch:       ic.Watch,
	}
	vr := &retriever.VectorRetriever{Embed: emb, Store: store, TopK: ic.TopK, Threshold: ic.Threshold}
	return retriever.WithTimeout(vr, timeout), nil
}

func buildGates(cfg *config.Config, p llm.Provider, client *httpx.Client, budget *llm.Budget) (gate.Compliance, gate.Relevance, error) {
	gc := cfg.Gate
	lc, err := gate.NewLLMCompliance(p, gc.DenyPatterns)
	if err != nil {
		return nil, nil, fmt.Errorf("create compliance gate failed, err: %w", err)
	}
	var compliance gate.Compliance = lc

	rc := gc.Relevance
	var ev crag.Evaluator
	switch rc.Provider {
	case "llm":
		ev = &crag.LLMEvaluator{Provider: p, CorrectTh: rc.Correct, IncorrectTh: rc.Incorrect}
	case "http":
		ev = &crag.HTTPEvaluator{Endpoint: rc.Endpoint, Client: client, CorrectTh: rc.Correct, IncorrectTh: rc.Incorrect}
	default:
		ev = &crag.BinaryGrader{Provider: p}
	}
	var relevance gate.Relevance = &gate.EvaluatorRelevance{
		Evaluator:         ev,
		AmbiguousRelevant: rc.AmbiguousAs == "relevant",
		Budget:            budget,
	}

	d := config.Ms(gc.TimeoutMs, 0)
	compliance = gate.WithComplianceTimeout(compliance, d)
	relevance = gate.WithRelevanceTimeout(relevance, d)
	if gc.FailMode == "open" {
		compliance = gate.FailOpenCompliance(compliance)
		relevance = gate.FailOpenRelevance(relevance)
	}
	return compliance, relevance, nil
}
