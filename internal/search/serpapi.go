package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/httpx"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

// SerpAPISource searches serpapi.com, scrapes the linked pages and adds
// AI overview and stock price snippets.
// Context order: scraped pages, AI overview blocks, stock sentences.
type SerpAPISource struct {
	APIKey   string
	Endpoint string // default https://serpapi.com/search
	Engine   string // default google_finance
	// MaxScrapeURLs caps how many linked pages are fetched per query.
	MaxScrapeURLs int
	// StockInfo enables the second engine=google lookup for answer box prices.
	StockInfo bool
	Client    *httpx.Client
	Scraper   *Scraper
}

func (s *SerpAPISource) Type() string { return "serpapi" }

type serpResponse struct {
	Error          string `json:"error"`
	KnowledgeGraph *struct {
		Source      any    `json:"source"`
		Description string `json:"description"`
	} `json:"knowledge_graph"`
	RelatedQuestions []struct {
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"related_questions"`
	AIOverview *struct {
		TextBlocks []struct {
			Snippet string `json:"snippet"`
			List    []struct {
				Snippet string `json:"snippet"`
			} `json:"list"`
		} `json:"text_blocks"`
	} `json:"ai_overview"`
	AnswerBox map[string]any `json:"answer_box"`
}

// sourceLink is one knowledge graph or related question entry.
type sourceLink struct {
	URL         string
	Description string
}

func (s *SerpAPISource) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("serpapi search requires api key")
	}
	if s.Client == nil {
		return nil, fmt.Errorf("serpapi http client not configured")
	}

	links, overview, err := s.searchGoogle(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]schema.SearchResult, 0, len(links)+len(overview)+2)
	out = append(out, s.scrapeLinks(ctx, links)...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, snip := range overview {
		out = append(out, webResult("", "ai_overview", snip, s.Type()))
	}
	if s.StockInfo {
		stock, err := s.stockPrice(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, line := range stock {
			out = append(out, webResult("", "answer_box", line, s.Type()))
		}
	}
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *SerpAPISource) searchGoogle(ctx context.Context, query string) ([]sourceLink, []string, error) {
	var resp serpResponse
	if err := s.call(ctx, orDefault(s.Engine, "google_finance"), query, &resp); err != nil {
		return nil, nil, err
	}

	var links []sourceLink
	if kg := resp.KnowledgeGraph; kg != nil {
		// finance knowledge graphs report source either as a string or an object with a link
		links = append(links, sourceLink{URL: linkOf(kg.Source), Description: kg.Description})
	}
	for _, q := range resp.RelatedQuestions {
		links = append(links, sourceLink{URL: q.Link, Description: q.Snippet})
	}

	var overview []string
	if resp.AIOverview != nil {
		for _, block := range resp.AIOverview.TextBlocks {
			if block.Snippet != "" {
				overview = append(overview, block.Snippet)
			}
			for _, item := range block.List {
				if item.Snippet != "" {
					overview = append(overview, item.Snippet)
				}
			}
		}
	}
	return links, overview, nil
}

// scrapeLinks fetches links concurrently and keeps their order; pages that
// fail or have no text are skipped.
func (s *SerpAPISource) scrapeLinks(ctx context.Context, links []sourceLink) []schema.SearchResult {
	if s.Scraper == nil {
		return nil
	}
	targets := make([]sourceLink, 0, len(links))
	for _, l := range links {
		if l.URL == "" {
			continue
		}
		if s.MaxScrapeURLs > 0 && len(targets) >= s.MaxScrapeURLs {
			break
		}
		targets = append(targets, l)
	}

	pages := make([]string, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, l := range targets {
		g.Go(func() error {
			content, err := s.Scraper.Scrape(gctx, l.URL)
			if err != nil {
				logger.Debugf("serpapi: scrape %s failed: %v", l.URL, err)
				return nil
			}
			pages[i] = content
			return nil
		})
	}
	_ = g.Wait()

	out := make([]schema.SearchResult, 0, len(targets))
	for i, l := range targets {
		if pages[i] == "" {
			continue
		}
		out = append(out, webResult(l.URL, l.Description, pages[i], s.Type()))
	}
	return out
}

func (s *SerpAPISource) stockPrice(ctx context.Context, query string) ([]string, error) {
	var resp serpResponse
	if err := s.call(ctx, "google", query, &resp); err != nil {
		return nil, err
	}
	return stockSentences(resp.AnswerBox), nil
}

func stockSentences(box map[string]any) []string {
	if len(box) == 0 {
		return nil
	}
	var out []string
	if list, ok := box["list"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	price, ok := box["price"]
	if !ok {
		return out
	}
	stock := stringOr(box["stock"], "Stock")
	currency := stringOr(box["currency"], "")
	exchange := stringOr(box["exchange"], "an Exchange")
	out = append(out, fmt.Sprintf("According to %s, the stock price is %s %v for %s.", exchange, currency, price, stock))
	return out
}

func (s *SerpAPISource) call(ctx context.Context, engine, query string, out *serpResponse) error {
	endpoint := orDefault(s.Endpoint, "https://serpapi.com/search")
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("engine", engine)
	q.Set("q", query)
	q.Set("api_key", s.APIKey)
	u.RawQuery = q.Encode()
	if err := s.Client.DoJSON(ctx, http.MethodGet, u.String(), nil, nil, out); err != nil {
		return err
	}
	if out.Error != "" && !strings.Contains(out.Error, "returned any results") {
		return fmt.Errorf("serpapi: %s", out.Error)
	}
	return nil
}

func linkOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if l, ok := t["link"].(string); ok {
			return l
		}
	}
	return ""
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}
