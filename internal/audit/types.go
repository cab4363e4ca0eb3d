// Package audit keeps an optional trail of interpretation decisions. Audit
// failures are logged and never change or delay a decision.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cgps-group/AMRIE/internal/domain"
)

// Record is one persisted decision.
type Record struct {
	ID             string            `json:"id"`
	OrganismCode   string            `json:"organism_code"`
	RequestedCode  string            `json:"requested_organism_code,omitempty"`
	AntibioticCode string            `json:"antibiotic_code"`
	BaseCode       string            `json:"base_code"`
	Guideline      domain.Guideline  `json:"guideline"`
	TestMethod     domain.TestMethod `json:"test_method"`
	RawValue       string            `json:"raw_value,omitempty"`
	RawCategory    domain.Category   `json:"raw_category"`
	FinalCategory  domain.Category   `json:"final_category"`
	AppliedRuleIDs []string          `json:"applied_rule_ids"`
	Flags          []domain.Flag     `json:"flags"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewRecord builds an audit record for a completed decision.
func NewRecord(req domain.Request, d *domain.Decision) *Record {
	raw := req.Raw.Category
	if raw == "" {
		raw = req.Raw.Value
		if req.Raw.Unit != "" {
			raw += " " + req.Raw.Unit
		}
	}
	return &Record{
		ID:             uuid.NewString(),
		OrganismCode:   d.OrganismCode,
		RequestedCode:  d.RequestedCode,
		AntibioticCode: req.AntibioticCode,
		BaseCode:       d.Antibiotic.BaseCode,
		Guideline:      d.Antibiotic.Guideline,
		TestMethod:     d.Antibiotic.TestMethod,
		RawValue:       raw,
		RawCategory:    d.RawCategory,
		FinalCategory:  d.FinalCategory,
		AppliedRuleIDs: d.AppliedRuleIDs,
		Flags:          d.Flags,
	}
}

// Store defines the interface for decision audit storage.
type Store interface {
	// Save persists a record. CreatedAt is set when zero.
	Save(ctx context.Context, r *Record) error

	// Get retrieves a record by ID, or an error wrapping domain.ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records newest first with pagination.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// Close releases resources.
	Close() error
}
