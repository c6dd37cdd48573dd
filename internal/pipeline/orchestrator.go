// Package pipeline runs the Research, Account, Recommend and Summarize
// stages in order over a PipelineContext. The first failure stops the run and
// is reported as a StageError naming the stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"equityscope/backend-go/internal/logging"
	"equityscope/backend-go/internal/models"
)

// Deps are the collaborators needed to build the standard four stages.
type Deps struct {
	Financials     FinancialsFetcher
	Calculator     Calculator
	Generator      TextGenerator
	Reconciler     VerdictReconciler
	Summarizer     Summarizer
	DefaultVerdict models.Verdict
}

type Orchestrator struct {
	stages   []Stage
	validate *validator.Validate
	logger   arbor.ILogger
}

// New wires the standard Research -> Account -> Recommend -> Summarize chain.
func New(deps Deps, logger arbor.ILogger) *Orchestrator {
	summarizer := deps.Summarizer
	if summarizer == nil {
		summarizer = LocalSummarizer{}
	}
	return NewOrchestrator(logger,
		NewResearchStage(deps.Financials),
		NewAccountStage(deps.Calculator),
		NewRecommendStage(deps.Generator, deps.Reconciler, deps.DefaultVerdict),
		NewSummarizeStage(summarizer),
	)
}

func NewOrchestrator(logger arbor.ILogger, stages ...Stage) *Orchestrator {
	return &Orchestrator{
		stages:   stages,
		validate: validator.New(),
		logger:   logger,
	}
}

// Run executes every stage in order. On failure the returned error is always
// a *StageError and no response is produced.
func (o *Orchestrator) Run(ctx context.Context, req models.AnalysisRequest) (models.AnalyzeResponse, error) {
	logger := logging.FromContext(ctx, o.logger)
	req.StockTicker = strings.ToUpper(strings.TrimSpace(req.StockTicker))
	pc := NewPipelineContext(req)

	if err := o.validateRequest(req); err != nil {
		pc.fail(err)
		logger.Warn().Str("stage", string(err.Stage)).Str("kind", err.Kind.String()).Err(err.Err).Msg("Analysis request rejected")
		return models.AnalyzeResponse{}, err
	}

	started := time.Now()
	for _, stage := range o.stages {
		if err := o.runStage(ctx, pc, stage, logger); err != nil {
			pc.fail(err)
			logger.Error().
				Str("ticker", req.StockTicker).
				Str("stage", string(err.Stage)).
				Str("kind", err.Kind.String()).
				Str("state", pc.State().String()).
				Err(err.Err).
				Msg("Pipeline failed")
			return models.AnalyzeResponse{}, err
		}
	}
	pc.finish()

	resp, ok := pc.Response()
	if !ok {
		err := Failed(StageSummarize, KindComputation, fmt.Errorf("pipeline ended in state %s", pc.State()))
		pc.fail(err)
		return models.AnalyzeResponse{}, err
	}
	logger.Info().
		Str("ticker", req.StockTicker).
		Str("recommendation", string(resp.Recommendation)).
		Dur("duration", time.Since(started)).
		Msg("Pipeline completed")
	return resp, nil
}

func (o *Orchestrator) runStage(ctx context.Context, pc *PipelineContext, stage Stage, logger arbor.ILogger) *StageError {
	name := stage.Name()
	if err := ctx.Err(); err != nil {
		kind := KindTimeout
		if errors.Is(err, context.Canceled) {
			kind = KindExternalService
		}
		return Failed(name, kind, err)
	}
	if err := pc.ready(name); err != nil {
		return Failed(name, KindComputation, err)
	}

	start := time.Now()
	if err := stage.Run(ctx, pc); err != nil {
		if se, ok := AsStageError(err); ok {
			return se
		}
		return adapterFailure(ctx, name, kindFor(name), err)
	}
	if err := pc.advance(name); err != nil {
		return Failed(name, KindComputation, err)
	}

	if rec := pc.Recommendation; name == StageRecommend && rec != nil && rec.Reconciled {
		precedence := ""
		if p, ok := stage.(interface{ Precedence() string }); ok {
			precedence = p.Precedence()
		}
		logger.Info().
			Str("model_verdict", string(rec.Candidate)).
			Str("verdict", string(rec.Verdict)).
			Str("precedence", precedence).
			Msg("Verdict overridden by rationale")
	}

	logger.Debug().
		Str("stage", string(name)).
		Str("state", pc.State().String()).
		Dur("duration", time.Since(start)).
		Msg("Stage completed")
	return nil
}

// kindFor is the failure kind for an untagged error from a stage.
func kindFor(name StageName) ErrorKind {
	switch name {
	case StageResearch:
		return KindUpstreamData
	case StageAccount:
		return KindComputation
	}
	return KindExternalService
}

func (o *Orchestrator) validateRequest(req models.AnalysisRequest) *StageError {
	if req.StockTicker == "" {
		return Failed(StageResearch, KindValidation, ErrTickerRequired)
	}
	if err := o.validate.Struct(req); err != nil {
		return Failed(StageResearch, KindValidation, tickerValidationError(err))
	}
	return nil
}

func tickerValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Tag() {
	case "required":
		return ErrTickerRequired
	case "alphanum":
		return errors.New("stock ticker must be alphanumeric")
	case "max":
		return fmt.Errorf("stock ticker must be at most %s characters", verrs[0].Param())
	}
	return fmt.Errorf("stock ticker is invalid (%s)", verrs[0].Tag())
}
