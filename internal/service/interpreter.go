package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cgps-group/AMRIE/internal/breakpoint"
	"github.com/cgps-group/AMRIE/internal/catalog"
	"github.com/cgps-group/AMRIE/internal/codes"
	"github.com/cgps-group/AMRIE/internal/domain"
)

// DefaultMaxConcurrency bounds InterpretBatch when no limit is configured.
const DefaultMaxConcurrency = 8

// BreakpointLookup converts a numeric measurement into a category. It reports
// false when it has no breakpoint for the organism and antibiotic.
type BreakpointLookup interface {
	Interpret(org *domain.Organism, id domain.AntibioticIdentifier, m breakpoint.Measurement) (domain.Category, bool)
}

// DecisionRecorder receives every completed decision.
type DecisionRecorder interface {
	Record(ctx context.Context, req domain.Request, d *domain.Decision)
}

// InterpreterDeps are the collaborators of an Interpreter. Breakpoints and
// Recorder are optional.
type InterpreterDeps struct {
	Organisms   *catalog.OrganismCatalog
	Antibiotics *catalog.AntibioticCatalog
	Decoder     *codes.Decoder
	Engine      *ExpertRuleEngine
	Breakpoints BreakpointLookup
	Recorder    DecisionRecorder
}

// Interpreter turns raw AST observations into decisions. It holds no mutable
// state besides the decode cache, so one instance serves concurrent callers.
type Interpreter struct {
	logger      *logrus.Logger
	organisms   *catalog.OrganismCatalog
	antibiotics *catalog.AntibioticCatalog
	decoder     *codes.Decoder
	engine      *ExpertRuleEngine
	breakpoints BreakpointLookup
	recorder    DecisionRecorder

	batchSemaphore chan struct{}
}

// NewInterpreter creates an interpreter. maxConcurrency bounds the number of
// requests InterpretBatch evaluates at once.
func NewInterpreter(logger *logrus.Logger, deps InterpreterDeps, maxConcurrency int) *Interpreter {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Interpreter{
		logger:         logger,
		organisms:      deps.Organisms,
		antibiotics:    deps.Antibiotics,
		decoder:        deps.Decoder,
		engine:         deps.Engine,
		breakpoints:    deps.Breakpoints,
		recorder:       deps.Recorder,
		batchSemaphore: make(chan struct{}, maxConcurrency),
	}
}

// Interpret produces the decision for one observation. Failures wrap one of
// the domain sentinel errors and leave the interpreter usable.
func (s *Interpreter) Interpret(ctx context.Context, req domain.Request) (*domain.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for code, c := range req.Related {
		if !c.IsValid() {
			return nil, fmt.Errorf("related result %s=%q: %w", code, c, domain.ErrInvalidRawResult)
		}
	}
	startTime := time.Now()

	// Step 1: resolve the organism, following one merge redirect
	org, merged, err := s.organisms.Resolve(req.OrganismCode)
	if err != nil {
		return nil, err
	}

	// Step 2: decode the compound antibiotic code
	id, err := s.decoder.Decode(req.AntibioticCode)
	if err != nil {
		return nil, err
	}

	decision := &domain.Decision{
		OrganismCode:   org.Code,
		Antibiotic:     id,
		AppliedRuleIDs: []string{},
		Flags:          []domain.Flag{},
	}
	if merged {
		decision.RequestedCode = req.OrganismCode
		decision.AddFlag(domain.FlagOrganismMerged)
	}

	// Step 3: find the drug; user-defined drugs are not catalogued
	var abx *domain.Antibiotic
	if !id.UserDefined {
		var ok bool
		abx, ok = s.antibiotics.Lookup(id.BaseCode)
		if !ok {
			return nil, fmt.Errorf("antibiotic %q: %w", id.BaseCode, domain.ErrUnknownAntibiotic)
		}
	}

	// Step 4: settle the raw category
	raw, err := s.rawCategory(org, id, req.Raw, decision)
	if err != nil {
		return nil, err
	}
	decision.RawCategory = raw
	decision.FinalCategory = raw

	// Step 5: expert rules
	switch {
	case id.UserDefined:
		decision.AddFlag(domain.FlagUserDefinedAntibiotic)
	case !abx.AppliesTo(id.Guideline):
		decision.AddFlag(domain.FlagGuidelineNotApplicable)
	default:
		eval := s.engine.Evaluate(&RuleInput{
			Organism:   org,
			Antibiotic: abx,
			Identifier: id,
			Raw:        raw,
			Related:    req.Related,
		})
		decision.FinalCategory = eval.FinalCategory
		decision.AppliedRuleIDs = eval.AppliedRuleIDs
		for _, f := range eval.Flags {
			decision.AddFlag(f)
		}
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, req, decision)
	}

	s.logger.WithFields(logrus.Fields{
		"organism":        decision.OrganismCode,
		"antibiotic":      req.AntibioticCode,
		"raw_category":    decision.RawCategory,
		"final_category":  decision.FinalCategory,
		"rules_applied":   len(decision.AppliedRuleIDs),
		"flags":           len(decision.Flags),
		"processing_time": time.Since(startTime),
	}).Info("Interpretation completed")

	return decision, nil
}

// rawCategory validates a laboratory category, or converts a measurement
// through the breakpoint lookup. A measurement without a breakpoint is
// unresolved.
func (s *Interpreter) rawCategory(org *domain.Organism, id domain.AntibioticIdentifier, raw domain.RawResult, d *domain.Decision) (domain.Category, error) {
	if raw.Category != "" && raw.Value != "" {
		return "", fmt.Errorf("both category %q and measurement %q given: %w", raw.Category, raw.Value, domain.ErrInvalidRawResult)
	}
	if raw.Category != "" {
		c, ok := domain.ParseRawCategory(raw.Category)
		if !ok {
			return "", fmt.Errorf("category %q: %w", raw.Category, domain.ErrInvalidRawResult)
		}
		return c, nil
	}
	if !raw.IsMeasurement() {
		return "", fmt.Errorf("no category or measurement given: %w", domain.ErrInvalidRawResult)
	}

	m, err := breakpoint.ParseMeasurement(raw.Value, raw.Unit)
	if err != nil {
		return "", err
	}
	if s.breakpoints != nil {
		if c, ok := s.breakpoints.Interpret(org, id, m); ok {
			return c, nil
		}
	}
	d.AddFlag(domain.FlagNoBreakpoint)
	return domain.Unresolved, nil
}

// InterpretBatch evaluates independent requests concurrently. Each outcome
// holds either a decision or the structured error of its own request, in
// request order.
func (s *Interpreter) InterpretBatch(ctx context.Context, reqs []domain.Request) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(reqs))
	if len(reqs) == 0 {
		return outcomes
	}

	s.logger.WithField("batch_size", len(reqs)).Info("Starting batch interpretation")

	var wg sync.WaitGroup
	for i, req := range reqs {
		outcomes[i].Request = req
		wg.Add(1)
		go func(i int, req domain.Request) {
			defer wg.Done()

			// Acquire semaphore to limit concurrency
			select {
			case s.batchSemaphore <- struct{}{}:
				defer func() { <-s.batchSemaphore }()
			case <-ctx.Done():
				outcomes[i].Error = domain.NewInterpretationError(ctx.Err())
				return
			}

			decision, err := s.Interpret(ctx, req)
			if err != nil {
				outcomes[i].Error = domain.NewInterpretationError(err)
				return
			}
			outcomes[i].Decision = decision
		}(i, req)
	}
	wg.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Error != nil {
			failed++
		}
	}
	s.logger.WithFields(logrus.Fields{
		"batch_size": len(reqs),
		"successful": len(reqs) - failed,
		"failed":     failed,
	}).Info("Completed batch interpretation")

	return outcomes
}

// CodeDescription is the decoded form of a compound antibiotic code together
// with its catalog record, when there is one.
type CodeDescription struct {
	Code       string                      `json:"code"`
	ShortCode  string                      `json:"short_code"`
	Identifier domain.AntibioticIdentifier `json:"identifier"`
	Antibiotic *domain.Antibiotic          `json:"antibiotic,omitempty"`
	Applicable bool                        `json:"guideline_applicable"`
}

// DescribeCode decodes a compound antibiotic code and looks up its drug.
func (s *Interpreter) DescribeCode(code string) (*CodeDescription, error) {
	id, err := s.decoder.Decode(code)
	if err != nil {
		return nil, err
	}
	desc := &CodeDescription{
		Code:       code,
		ShortCode:  codes.ShortCode(id.BaseCode),
		Identifier: id,
	}
	if abx, ok := s.antibiotics.Lookup(id.BaseCode); ok {
		desc.Antibiotic = abx
		desc.Applicable = abx.AppliesTo(id.Guideline)
	}
	return desc, nil
}

// OrganismLookup is the resolved form of an organism code.
type OrganismLookup struct {
	RequestedCode string           `json:"requested_code"`
	Merged        bool             `json:"merged"`
	Organism      *domain.Organism `json:"organism"`
}

// LookupOrganism resolves an organism code through the merge map.
func (s *Interpreter) LookupOrganism(code string) (*OrganismLookup, error) {
	org, merged, err := s.organisms.Resolve(code)
	if err != nil {
		return nil, err
	}
	return &OrganismLookup{RequestedCode: code, Merged: merged, Organism: org}, nil
}

// DecoderStats exposes the decode cache counters.
func (s *Interpreter) DecoderStats() codes.DecoderStats {
	return s.decoder.Stats()
}
