package appraisal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "appraisal-engine"

// StageError wraps a failure with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Engine runs the appraisal pipeline. It holds no per-request state; one
// Engine serves concurrent runs.
type Engine struct {
	cfg    EngineConfig
	tracer trace.Tracer
}

func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg, tracer: otel.Tracer(tracerName)}
}

// Run executes validation, ranking, highest and best use, the applicable
// valuation approaches, and reconciliation. The three approaches execute in
// parallel; a failure in one is captured and reconciliation proceeds with
// whatever completed. Validation errors halt the run before any approach.
func (e *Engine) Run(ctx context.Context, subject SubjectProperty, comps []Comparable, market MarketData, opts Options) (*AppraisalResult, error) {
	ctx, span := e.tracer.Start(ctx, "appraisal.run",
		trace.WithAttributes(attribute.String("property.type", string(subject.PropertyType))))
	defer span.End()

	asOf := opts.EffectiveDate
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	result := &AppraisalResult{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Subject:   subject,
		Options:   opts,
		Metadata: RunMetadata{
			StartedAt:      time.Now().UTC(),
			EffectiveDate:  asOf,
			ApproachErrors: map[string]string{},
		},
		Disclaimer: Disclaimer,
	}

	result.Validation = e.stageValidate(ctx, subject, comps, market, opts, asOf)
	result.Metadata.StagesExecuted = append(result.Metadata.StagesExecuted, "validation")
	if !result.Validation.IsValid {
		result.Metadata.EarlyExitReason = result.Validation.Errors[0].Message
		result.Metadata.CompletedAt = time.Now().UTC()
		return result, &StageError{Stage: "validation", Err: fmt.Errorf("%s: %s",
			result.Validation.Errors[0].Field, result.Validation.Errors[0].Message)}
	}

	result.Ranked = e.stageRank(ctx, subject, comps, asOf)
	result.Metadata.StagesExecuted = append(result.Metadata.StagesExecuted, "ranking")

	result.HBU = e.stageHBU(ctx, subject, market)
	result.Metadata.StagesExecuted = append(result.Metadata.StagesExecuted, "highest_best_use")

	e.runApproaches(ctx, result, subject, comps, market, opts, asOf)

	if result.Sales == nil && result.Income == nil && result.Cost == nil {
		result.Metadata.EarlyExitReason = "no valuation approach completed"
		result.Metadata.CompletedAt = time.Now().UTC()
		return result, &StageError{Stage: "approaches", Err: fmt.Errorf(
			"no valuation approach completed: %v", result.Metadata.ApproachErrors)}
	}

	rec, err := e.stageReconcile(ctx, result, subject, opts, asOf)
	if err != nil {
		result.Metadata.CompletedAt = time.Now().UTC()
		return result, &StageError{Stage: "reconciliation", Err: err}
	}
	result.Reconciliation = rec
	result.FinalValue = rec.FinalValue
	result.ValueRange = rec.ValueRange
	result.Confidence = rec.Confidence
	result.Metadata.StagesExecuted = append(result.Metadata.StagesExecuted, "reconciliation")
	result.Metadata.CompletedAt = time.Now().UTC()
	return result, nil
}

func (e *Engine) stageValidate(ctx context.Context, subject SubjectProperty, comps []Comparable, market MarketData, opts Options, asOf time.Time) ValidationResult {
	_, span := e.tracer.Start(ctx, "appraisal.validate")
	defer span.End()
	v := Validate(subject, comps, market, opts.UserAdjustments, e.cfg, asOf)
	span.SetAttributes(
		attribute.Bool("valid", v.IsValid),
		attribute.Int("quality_score", v.QualityScore),
	)
	return v
}

func (e *Engine) stageRank(ctx context.Context, subject SubjectProperty, comps []Comparable, asOf time.Time) []RankedComparable {
	_, span := e.tracer.Start(ctx, "appraisal.rank")
	defer span.End()
	return Rank(subject, comps, e.cfg, asOf)
}

func (e *Engine) stageHBU(ctx context.Context, subject SubjectProperty, market MarketData) *HBUResult {
	_, span := e.tracer.Start(ctx, "appraisal.highest_best_use")
	defer span.End()
	return HighestBestUse(subject, market, e.cfg)
}

// runApproaches evaluates the applicable approaches concurrently. Each writes
// only its own slot; errors land in the metadata rather than failing the run.
func (e *Engine) runApproaches(ctx context.Context, result *AppraisalResult, subject SubjectProperty, comps []Comparable, market MarketData, opts Options, asOf time.Time) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Metadata.ApproachErrors[name] = err.Error()
			result.Metadata.StagesSkipped = append(result.Metadata.StagesSkipped, name)
		} else {
			result.Metadata.StagesExecuted = append(result.Metadata.StagesExecuted, name)
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, span := e.tracer.Start(ctx, "appraisal.sales_comparison")
		defer span.End()
		sales, err := SalesComparison(subject, comps, market, opts.UserAdjustments, e.cfg, asOf)
		if err == nil {
			result.Sales = sales
		}
		record("sales_comparison", err)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, span := e.tracer.Start(ctx, "appraisal.income_capitalization")
		defer span.End()
		income, err := IncomeCapitalization(subject, market, e.cfg, asOf)
		if err == nil {
			result.Income = income
		}
		record("income_capitalization", err)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, span := e.tracer.Start(ctx, "appraisal.cost_approach")
		defer span.End()
		age := yearsOld(subject.Physical.YearBuilt, asOf)
		if age >= 30 && !opts.IncludeAllApproaches {
			record("cost_approach", fmt.Errorf("skipped: building age %d years; pass include_all_approaches to force", age))
			return
		}
		cost, err := CostApproach(subject, comps, market, e.cfg, asOf)
		if err == nil {
			result.Cost = cost
		}
		record("cost_approach", err)
	}()

	wg.Wait()
}

func (e *Engine) stageReconcile(ctx context.Context, result *AppraisalResult, subject SubjectProperty, opts Options, asOf time.Time) (*ReconciliationResult, error) {
	_, span := e.tracer.Start(ctx, "appraisal.reconcile")
	defer span.End()
	rec, err := Reconcile(result.Sales, result.Income, result.Cost, subject, opts, e.cfg, asOf)
	if err == nil {
		span.SetAttributes(attribute.Float64("final_value", rec.FinalValue))
	}
	return rec, err
}
