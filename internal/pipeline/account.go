package pipeline

import (
	"context"
	"errors"
	"fmt"

	"equityscope/backend-go/internal/models"
)

// Calculator derives ratios from a snapshot. Implementations must be total.
type Calculator interface {
	Compute(s models.FinancialSnapshot) models.RatioSet
}

type AccountStage struct {
	calc Calculator
}

func NewAccountStage(calc Calculator) *AccountStage {
	return &AccountStage{calc: calc}
}

func (s *AccountStage) Name() StageName { return StageAccount }

func (s *AccountStage) Run(_ context.Context, pc *PipelineContext) (err error) {
	if pc.Snapshot == nil {
		return Failed(StageAccount, KindComputation, errors.New("no financial snapshot"))
	}
	defer func() {
		if r := recover(); r != nil {
			err = Failed(StageAccount, KindComputation, fmt.Errorf("ratio computation panicked: %v", r))
		}
	}()
	ratios := s.calc.Compute(*pc.Snapshot)
	pc.Ratios = &ratios
	return nil
}
