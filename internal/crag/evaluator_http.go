package crag

import (
	"context"
	"net/http"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/httpx"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
)

// HTTPEvaluator calls an external service to evaluate (query, context) relevance.
// Request: {"query":"...","context":"..."}
// Response: {"score":0.85,"verdict":"correct"}
// When the service omits the verdict it is derived from the score and thresholds.
type HTTPEvaluator struct {
	Endpoint    string
	Client      *httpx.Client
	CorrectTh   float64
	IncorrectTh float64
}

type evalReq struct {
	Query   string `json:"query"`
	Context string `json:"context"`
}

type evalResp struct {
	Score   float64 `json:"score"`
	Verdict string  `json:"verdict"`
}

func (h *HTTPEvaluator) Evaluate(ctx context.Context, query string, contextText string) (float64, Verdict, error) {
	if h.Client == nil {
		h.Client = httpx.NewFromConfig(nil)
	}
	var er evalResp
	if err := h.Client.DoJSON(ctx, http.MethodPost, h.Endpoint, nil, evalReq{Query: query, Context: contextText}, &er); err != nil {
		return 0, VerdictAmbiguous, errs.Wrap(errs.ErrClassifierUnavailable, "crag.http_evaluate", err)
	}
	if er.Verdict == "" {
		return er.Score, Thresholds{Correct: h.CorrectTh, Incorrect: h.IncorrectTh}.verdict(er.Score), nil
	}
	return er.Score, ParseVerdict(er.Verdict), nil
}
