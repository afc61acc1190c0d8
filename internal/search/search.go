package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/httpx"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/retriever"
)

// NewFromConfig builds the cascade in the order given by cfg.Cascade.
func NewFromConfig(cfg config.SearchConfig, client *httpx.Client) (*Cascade, error) {
	sources := make([]retriever.Retriever, 0, len(cfg.Cascade))
	for _, name := range cfg.Cascade {
		src, err := newSource(strings.ToLower(name), cfg, client)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return NewCascade(config.Ms(cfg.TimeoutMs, 20*time.Second), sources...), nil
}

func newSource(name string, cfg config.SearchConfig, client *httpx.Client) (retriever.Retriever, error) {
	switch name {
	case "serper":
		return &SerperSource{
			APIKey:     cfg.Serper.APIKey,
			Endpoint:   cfg.Serper.Endpoint,
			SearchType: cfg.Serper.SearchType,
			GL:         cfg.Serper.GL,
			HL:         cfg.Serper.HL,
			K:          cfg.TopK,
			Client:     client,
		}, nil
	case "serpapi":
		return &SerpAPISource{
			APIKey:        cfg.SerpAPI.APIKey,
			Endpoint:      cfg.SerpAPI.Endpoint,
			Engine:        cfg.SerpAPI.Engine,
			MaxScrapeURLs: cfg.SerpAPI.MaxScrapeURLs,
			StockInfo:     cfg.SerpAPI.StockInfo,
			Client:        client,
			Scraper:       &Scraper{Client: client, MaxChars: cfg.SerpAPI.ScrapeChars},
		}, nil
	case "bing":
		return &BingSource{Endpoint: cfg.Bing.Endpoint, APIKey: cfg.Bing.APIKey, Client: client}, nil
	case "duckduckgo":
		return &DuckDuckGoSource{Endpoint: cfg.DuckDuckGo.Endpoint, Client: client}, nil
	default:
		return nil, fmt.Errorf("unknown search source %q", name)
	}
}
