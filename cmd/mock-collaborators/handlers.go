package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/gorilla/mux"
)

type passage struct {
	Path string
	Text string
}

type corpus struct {
	passages []passage
}

// loadCorpus splits every .txt/.md file under dir into blank-line separated passages.
func loadCorpus(dir string) (*corpus, error) {
	c := &corpus{}
	if dir == "" {
		return c, nil
	}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, p := range strings.Split(string(data), "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				c.passages = append(c.passages, passage{Path: path, Text: p})
			}
		}
		return nil
	})
	return c, err
}

func terms(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(f) > 2 {
			out[f] = struct{}{}
		}
	}
	return out
}

// overlap is the share of query terms present in text.
func overlap(query, text string) float64 {
	q := terms(query)
	if len(q) == 0 {
		return 0
	}
	t := terms(text)
	hit := 0
	for w := range q {
		if _, ok := t[w]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(q))
}

type retrieveReq struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type retrieveDoc struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Dist     float64        `json:"dist"`
}

func (c *corpus) retrieve(q string, k int) []retrieveDoc {
	if k <= 0 {
		k = 5
	}
	type scored struct {
		p     passage
		score float64
	}
	var hits []scored
	for _, p := range c.passages {
		if s := overlap(q, p.Text); s > 0 {
			hits = append(hits, scored{p, s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]retrieveDoc, 0, len(hits))
	for _, h := range hits {
		out = append(out, retrieveDoc{
			Text:     h.p.Text,
			Metadata: map[string]any{"path": h.p.Path},
			Dist:     1 - h.score,
		})
	}
	return out
}

type evalReq struct {
	Query   string `json:"query"`
	Context string `json:"context"`
}

type evalResp struct {
	Score   float64 `json:"score"`
	Verdict string  `json:"verdict"`
}

func evaluate(req evalReq) evalResp {
	if strings.TrimSpace(req.Context) == "" {
		return evalResp{Score: 0.2, Verdict: "incorrect"}
	}
	s := overlap(req.Query, req.Context)
	switch {
	case s >= 0.5:
		return evalResp{Score: s, Verdict: "correct"}
	case s < 0.2:
		return evalResp{Score: s, Verdict: "incorrect"}
	default:
		return evalResp{Score: s, Verdict: "ambiguous"}
	}
}

func newRouter(c *corpus) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/eval", func(w http.ResponseWriter, r *http.Request) {
		var req evalReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, evaluate(req))
	}).Methods(http.MethodPost)
	r.HandleFunc("/v1/retrieve", func(w http.ResponseWriter, r *http.Request) {
		var req retrieveReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, c.retrieve(req.Query, req.K))
	}).Methods(http.MethodPost)
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
