package indexer

import (
	"strings"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/llm"
)

// Chunk packs paragraphs into pieces of at most limit tokens. A paragraph
// longer than limit is split on token boundaries.
func Chunk(tok llm.Tokenizer, text string, limit int) []string {
	if tok == nil {
		tok = llm.EstimateTokenizer{}
	}
	var (
		out  []string
		cur  strings.Builder
		used int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
		used = 0
	}
	for _, para := range paragraphs(text) {
		n := tok.Count(para)
		if limit > 0 && n > limit {
			flush()
			for _, piece := range tok.Split(para, limit) {
				if s := strings.TrimSpace(piece); s != "" {
					out = append(out, s)
				}
			}
			continue
		}
		if limit > 0 && used+n > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
		used += n
	}
	flush()
	return out
}

func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
