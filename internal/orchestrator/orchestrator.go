package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/agents"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/gate"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/metrics"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/retriever"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

const DefaultRejectionPrefix = "Inappropriate query "

type Decomposer interface {
	Decompose(ctx context.Context, question string, snippets []string) (agents.Subtasks, error)
	DecomposeFurther(ctx context.Context, question string, prev agents.Subtasks, snippets []string) (agents.Subtasks, error)
}

type Analyst interface {
	Analyze(ctx context.Context, subtask string, bundle []string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, question string, combined []string, response1, response2 string) (string, error)
	SynthesizeFinal(ctx context.Context, question string, combined []string, roundOne, response3, response4 string) (string, error)
}

type FollowUp interface {
	IsComplete(ctx context.Context, question string, snippets []string, answer string) (bool, error)
}

// Options tunes a run. Zero values fall back to defaults.
type Options struct {
	// ExternalEnabled routes not-relevant questions to External.
	ExternalEnabled  bool
	MaxRounds        int
	DecomposeRetries int
	// FollowUpFailMode is "complete" or "fail".
	FollowUpFailMode string
	StepTimeout      time.Duration
	Sequential       bool
	TopK             int
	ProbeTopK        int
	RejectionPrefix  string
}

// OptionsFromConfig maps the relevant config sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ExternalEnabled:  cfg.Search.Enabled,
		MaxRounds:        cfg.Orchestrator.MaxRounds,
		DecomposeRetries: cfg.Orchestrator.DecomposeRetries,
		FollowUpFailMode: cfg.Orchestrator.FollowUpFailMode,
		StepTimeout:      config.Ms(cfg.Orchestrator.StepTimeoutMs, 0),
		Sequential:       cfg.Orchestrator.Sequential,
		TopK:             cfg.Index.TopK,
		ProbeTopK:        cfg.Gate.Relevance.ProbeTopK,
	}
}

func (o Options) normalized() Options {
	if o.MaxRounds <= 0 || o.MaxRounds > 2 {
		o.MaxRounds = 2
	}
	if o.DecomposeRetries < 0 {
		o.DecomposeRetries = 0
	}
	if o.FollowUpFailMode == "" {
		o.FollowUpFailMode = "complete"
	}
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.ProbeTopK <= 0 {
		o.ProbeTopK = 5
	}
	if o.RejectionPrefix == "" {
		o.RejectionPrefix = DefaultRejectionPrefix
	}
	return o
}

// Answer is the outcome of one run.
type Answer struct {
	Message  string   `json:"message"`
	Rejected bool     `json:"rejected,omitempty"`
	Route    Route    `json:"route,omitempty"`
	Rounds   int      `json:"rounds"`
	RunID    string   `json:"run_id"`
	Trace    []string `json:"trace,omitempty"`
}

// Orchestrator sequences the gate, decomposition, analysis and synthesis steps.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	Compliance  gate.Compliance
	Relevance   gate.Relevance
	Internal    retriever.Retriever
	External    retriever.Retriever
	Decomposer  Decomposer
	Analyst     Analyst
	Synthesizer Synthesizer
	FollowUp    FollowUp
	Opts        Options
}

// run bundles the per-request state handed between steps.
type run struct {
	o    *Orchestrator
	opts Options
	rs   *RunState
	rec  *metrics.RunRecord
}

// Run answers one question.
func (o *Orchestrator) Run(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errs.New(errs.ErrInvalidQuestion, "orchestrator.run", "empty question")
	}
	r := &run{
		o:    o,
		opts: o.Opts.normalized(),
		rs:   &RunState{Question: question},
		rec:  metrics.NewRunRecord(uuid.NewString(), question),
	}
	ans, err := r.execute(ctx)

	r.rec.Route = string(r.rs.Route)
	r.rec.Rounds = r.rs.Round
	r.rec.States = r.rs.traceNames()
	r.rec.Finish(err)
	r.rec.Log()
	if err != nil {
		logger.Errorf("orchestrator: run %s failed after %v: %v", r.rec.RunID, r.rs.Trace, err)
		return nil, err
	}
	ans.RunID = r.rec.RunID
	ans.Route = r.rs.Route
	ans.Rounds = r.rs.Round
	ans.Trace = r.rs.traceNames()
	if !ans.Rejected {
		metrics.IncRounds(r.rs.Round)
	}
	return ans, nil
}

func (r *run) execute(ctx context.Context) (*Answer, error) {
	rs := r.rs
	rs.enter(StateStart)

	rs.enter(StateGateCheck)
	decision, err := r.compliance(ctx)
	if err != nil {
		return nil, err
	}
	if decision.Verdict == gate.Reject {
		rs.enter(StateRejected)
		logger.Infof("orchestrator: question rejected by compliance gate")
		return &Answer{Message: r.opts.RejectionPrefix + decision.Explanation, Rejected: true}, nil
	}

	rs.enter(StateRetrieveProbe)
	probe, err := r.probe(ctx)
	if err != nil {
		return nil, err
	}

	rs.enter(StateRouteSelect)
	if err := r.route(ctx, probe); err != nil {
		return nil, err
	}
	source := r.o.Internal
	var decomposeCtx []string
	if rs.Route == RouteExternal {
		source = r.o.External
	} else {
		decomposeCtx = probe
	}

	rs.Round = 1
	rs.enter(StateDecompose1)
	st, err := r.decompose(ctx, func(ctx context.Context) (agents.Subtasks, error) {
		return r.o.Decomposer.Decompose(ctx, rs.Question, decomposeCtx)
	})
	if err != nil {
		return nil, err
	}
	rs.Subtasks = append(rs.Subtasks, st)
	logger.Infof("orchestrator: route=%s subtask1=%q subtask2=%q", rs.Route, st.First, st.Second)

	bundles, responses, err := r.round(ctx, source, st, StateRetrievePerSubtask, StateAnalyzeParallel1)
	if err != nil {
		return nil, err
	}
	roundOneCtx := combined(bundles...)

	answer := responses[0]
	if st.Split() {
		rs.enter(StateSynthesize1)
		answer, err = r.synthesize(ctx, func(ctx context.Context) (string, error) {
			return r.o.Synthesizer.Synthesize(ctx, rs.Question, roundOneCtx, responses[0], responses[1])
		}, "synthesize")
		if err != nil {
			return nil, err
		}
	}

	if r.opts.MaxRounds < 2 || (rs.Route == RouteExternal && !st.Split()) {
		return r.done(answer), nil
	}

	rs.enter(StateFollowUpCheck)
	complete, err := r.followUp(ctx, roundOneCtx, answer)
	if err != nil {
		return nil, err
	}
	if complete {
		return r.done(answer), nil
	}

	rs.Round = 2
	rs.enter(StateDecompose2)
	furtherCtx := roundOneCtx
	if rs.Route == RouteInternal {
		furtherCtx = probe
	}
	st2, err := r.decompose(ctx, func(ctx context.Context) (agents.Subtasks, error) {
		return r.o.Decomposer.DecomposeFurther(ctx, rs.Question, st, furtherCtx)
	})
	if err != nil {
		return nil, err
	}
	rs.Subtasks = append(rs.Subtasks, st2)
	logger.Infof("orchestrator: round 2 subtask3=%q subtask4=%q", st2.First, st2.Second)

	_, responses2, err := r.round(ctx, source, st2, StateRetrievePerSubtask2, StateAnalyzeParallel2)
	if err != nil {
		return nil, err
	}

	rs.enter(StateSynthesize2)
	final, err := r.synthesize(ctx, func(ctx context.Context) (string, error) {
		return r.o.Synthesizer.SynthesizeFinal(ctx, rs.Question, combined(rs.Contexts...), answer, responses2[0], responses2[1])
	}, "synthesize_final")
	if err != nil {
		return nil, err
	}
	return r.done(final), nil
}

func (r *run) done(answer string) *Answer {
	r.rs.enter(StateDone)
	r.rs.Answer = answer
	return &Answer{Message: answer}
}

// stepCtx applies the per-step ceiling when one is configured.
func (r *run) stepCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.StepTimeout > 0 {
		return context.WithTimeout(ctx, r.opts.StepTimeout)
	}
	return context.WithCancel(ctx)
}

func (r *run) compliance(ctx context.Context) (gate.Decision, error) {
	start := time.Now()
	defer metrics.ObserveStep("compliance", start)
	sctx, cancel := r.stepCtx(ctx)
	defer cancel()
	d, err := r.o.Compliance.Check(sctx, r.rs.Question)
	if err != nil {
		return gate.Decision{}, errs.Wrap(errs.ErrClassifierUnavailable, "orchestrator.compliance", err)
	}
	metrics.IncGateVerdict("compliance", d.Verdict.String())
	return d, nil
}

func (r *run) probe(ctx context.Context) ([]string, error) {
	res, err := r.search(ctx, r.o.Internal, r.rs.Question, r.opts.ProbeTopK)
	if err != nil {
		return nil, err
	}
	r.rec.ProbeCount = len(res)
	if len(res) > 0 {
		r.rec.ProbeTop1 = res[0].Score
		metrics.ObserveProbeTop1(res[0].Score)
	}
	return schema.Texts(res), nil
}

// route grades the probe and fixes the retrieval path for the rest of the run.
func (r *run) route(ctx context.Context, probe []string) error {
	start := time.Now()
	sctx, cancel := r.stepCtx(ctx)
	relevant, err := r.o.Relevance.Grade(sctx, r.rs.Question, probe)
	cancel()
	metrics.ObserveStep("relevance", start)
	if err != nil {
		return errs.Wrap(errs.ErrClassifierUnavailable, "orchestrator.relevance", err)
	}
	label := "not_relevant"
	if relevant {
		label = "relevant"
	}
	r.rec.Relevance = label
	metrics.IncGateVerdict("relevance", label)

	r.rs.Route = RouteInternal
	if !relevant {
		if !r.opts.ExternalEnabled || r.o.External == nil {
			return errs.New(errs.ErrRetrievalUnavailable, "orchestrator.route",
				"internal index graded not relevant and external search is disabled")
		}
		r.rs.Route = RouteExternal
	}
	metrics.IncRoute(string(r.rs.Route))
	return nil
}

// decompose calls fn, retrying format errors up to DecomposeRetries times.
func (r *run) decompose(ctx context.Context, fn func(context.Context) (agents.Subtasks, error)) (agents.Subtasks, error) {
	start := time.Now()
	defer metrics.ObserveStep("decompose", start)
	for attempt := 0; ; attempt++ {
		sctx, cancel := r.stepCtx(ctx)
		st, err := fn(sctx)
		cancel()
		if err == nil && strings.TrimSpace(st.First) == "" {
			err = errs.New(errs.ErrDecompositionFormat, "orchestrator.decompose", "empty first subtask")
		}
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, errs.ErrDecompositionFormat) || attempt >= r.opts.DecomposeRetries {
			return agents.Subtasks{}, err
		}
		r.rec.Retries++
		metrics.IncDecompositionRetry()
		logger.Warnf("orchestrator: decomposition unparseable, retrying: %v", err)
	}
}

// round retrieves and analyzes the non-empty subtasks of one decomposition.
// Results keep subtask positions; an empty second subtask yields "".
func (r *run) round(ctx context.Context, source retriever.Retriever, st agents.Subtasks, retrieveState, analyzeState State) ([][]string, [2]string, error) {
	var responses [2]string
	legs := []string{st.First}
	if st.Split() {
		legs = append(legs, st.Second)
	}

	r.rs.enter(retrieveState)
	bundles := make([][]string, len(legs))
	err := r.fanOut(ctx, len(legs), func(ctx context.Context, i int) error {
		res, err := r.search(ctx, source, legs[i], r.opts.TopK)
		if err != nil {
			return err
		}
		bundles[i] = schema.Texts(res)
		return nil
	})
	if err != nil {
		return nil, responses, err
	}
	r.rs.Contexts = append(r.rs.Contexts, bundles...)

	r.rs.enter(analyzeState)
	start := time.Now()
	err = r.fanOut(ctx, len(legs), func(ctx context.Context, i int) error {
		sctx, cancel := r.stepCtx(ctx)
		defer cancel()
		out, err := r.o.Analyst.Analyze(sctx, legs[i], bundles[i])
		if err != nil {
			return errs.Wrap(errs.ErrGenerationUnavailable, "orchestrator.analyze", err)
		}
		responses[i] = out
		return nil
	})
	metrics.ObserveStep("analyze", start)
	if err != nil {
		return nil, responses, err
	}
	r.rec.AnalystRuns += len(legs)
	r.rec.Subtasks = append(r.rec.Subtasks, legs...)
	return bundles, responses, nil
}

// fanOut runs fn for every index and joins before returning.
func (r *run) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if r.opts.Sequential || n == 1 {
		for i := 0; i < n; i++ {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(gctx, i) })
	}
	return g.Wait()
}

func (r *run) search(ctx context.Context, source retriever.Retriever, query string, topK int) ([]schema.SearchResult, error) {
	if source == nil {
		return nil, errs.New(errs.ErrRetrievalUnavailable, "orchestrator.retrieve", "no retriever configured")
	}
	start := time.Now()
	sctx, cancel := r.stepCtx(ctx)
	defer cancel()
	res, err := source.Search(sctx, query, topK)
	r.rec.AddSource(source.Type(), time.Since(start), len(res))
	if err != nil {
		return nil, errs.Wrap(errs.ErrRetrievalUnavailable, "orchestrator.retrieve", err)
	}
	return res, nil
}

func (r *run) synthesize(ctx context.Context, fn func(context.Context) (string, error), step string) (string, error) {
	start := time.Now()
	defer metrics.ObserveStep(step, start)
	sctx, cancel := r.stepCtx(ctx)
	defer cancel()
	out, err := fn(sctx)
	if err != nil {
		return "", errs.Wrap(errs.ErrGenerationUnavailable, "orchestrator."+step, err)
	}
	r.rec.SynthRuns++
	return out, nil
}

func (r *run) followUp(ctx context.Context, snippets []string, answer string) (bool, error) {
	start := time.Now()
	defer metrics.ObserveStep("followup", start)
	sctx, cancel := r.stepCtx(ctx)
	defer cancel()
	complete, err := r.o.FollowUp.IsComplete(sctx, r.rs.Question, snippets, answer)
	if err != nil {
		if r.opts.FollowUpFailMode == "fail" || ctx.Err() != nil {
			return false, errs.Wrap(errs.ErrGenerationUnavailable, "orchestrator.followup", err)
		}
		logger.Warnf("orchestrator: follow-up evaluator failed, keeping round 1 answer: %v", err)
		return true, nil
	}
	return complete, nil
}
