package pipeline

import (
	"fmt"

	"equityscope/backend-go/internal/models"
)

type State int

const (
	StateStart State = iota
	StateResearched
	StateAccounted
	StateRecommended
	StateSummarized
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateResearched:
		return "researched"
	case StateAccounted:
		return "accounted"
	case StateRecommended:
		return "recommended"
	case StateSummarized:
		return "summarized"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PipelineContext accumulates stage outputs for a single run. It is owned by
// one Orchestrator invocation and never shared.
type PipelineContext struct {
	Request        models.AnalysisRequest
	Snapshot       *models.FinancialSnapshot
	News           []models.NewsItem
	Ratios         *models.RatioSet
	Recommendation *models.Recommendation
	Summary        *string

	state   State
	failure *StageError
}

func NewPipelineContext(req models.AnalysisRequest) *PipelineContext {
	return &PipelineContext{Request: req, state: StateStart}
}

func (pc *PipelineContext) State() State {
	return pc.state
}

// Failure returns the error that moved the run to StateFailed, if any.
func (pc *PipelineContext) Failure() *StageError {
	return pc.failure
}

// expected maps each stage to the state it must start from.
var expected = map[StageName]State{
	StageResearch:  StateStart,
	StageAccount:   StateResearched,
	StageRecommend: StateAccounted,
	StageSummarize: StateRecommended,
}

func (pc *PipelineContext) ready(name StageName) error {
	want, ok := expected[name]
	if !ok {
		return fmt.Errorf("unknown stage %q", name)
	}
	if pc.state != want {
		return fmt.Errorf("stage %s cannot run from state %s", name, pc.state)
	}
	return nil
}

// advance moves one state forward after checking that the stage populated
// its output.
func (pc *PipelineContext) advance(name StageName) error {
	var produced bool
	switch name {
	case StageResearch:
		produced = pc.Snapshot != nil
	case StageAccount:
		produced = pc.Ratios != nil
	case StageRecommend:
		produced = pc.Recommendation != nil
	case StageSummarize:
		produced = pc.Summary != nil
	}
	if !produced {
		return ErrNoOutput
	}
	pc.state++
	return nil
}

func (pc *PipelineContext) fail(err *StageError) {
	pc.state = StateFailed
	pc.failure = err
}

func (pc *PipelineContext) finish() {
	if pc.state == StateSummarized {
		pc.state = StateDone
	}
}

// Response assembles the wire response. Only a completed run has one.
func (pc *PipelineContext) Response() (models.AnalyzeResponse, bool) {
	if pc.state != StateDone {
		return models.AnalyzeResponse{}, false
	}
	news := pc.News
	if news == nil {
		news = []models.NewsItem{}
	}
	return models.AnalyzeResponse{
		Recommendation: pc.Recommendation.Verdict,
		Reasoning:      pc.Recommendation.Rationale,
		Summary:        *pc.Summary,
		ModelVerdict:   pc.Recommendation.Candidate,
		Reconciled:     pc.Recommendation.Reconciled,
		ResearcherData: models.ResearcherData{
			FinancialData: *pc.Snapshot,
			News:          news,
		},
		AccountantAnalysis: *pc.Ratios,
	}, true
}
