package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgps-group/AMRIE/internal/catalog/catalogtest"
	"github.com/cgps-group/AMRIE/internal/classification"
	"github.com/cgps-group/AMRIE/internal/domain"
	"github.com/cgps-group/AMRIE/internal/rules"
)

func newTestEngine(t *testing.T, doc string) (*ExpertRuleEngine, *classification.Index) {
	t.Helper()
	tables, err := rules.Parse([]byte(doc))
	require.NoError(t, err)
	index := classification.NewIndex(catalogtest.Antibiotics(t))
	return NewExpertRuleEngine(testLogger(), index, tables), index
}

func TestExpertRuleEngine_RulesInFixedOrder(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	var ids []string
	for _, r := range engine.Rules() {
		ids = append(ids, r.ID)
		assert.NotEmpty(t, r.Name)
		assert.NotNil(t, r.Evaluator)
	}
	assert.Equal(t, rules.Order, ids)

	rule, ok := engine.Rule(rules.AmpCCeph3)
	require.True(t, ok)
	assert.Equal(t, rules.AmpCCeph3, rule.ID)
	_, ok = engine.Rule("PVS1")
	assert.False(t, ok)
}

func TestExpertRuleEngine_FirstForcingRuleWins(t *testing.T) {
	const doc = `
guidelines:
  CLSI:
    organism_types: ["+"]
    rules: [INTRINSIC, MRS_BETALACTAM]
methicillin_resistance:
  genera: [Staphylococcus]
  markers: [OXA]
intrinsic:
  - {organism: sau, drugs: [AMP], effect: non_susceptible}
`
	engine, _ := newTestEngine(t, doc)
	abx := &domain.Antibiotic{Code: "AMP", Class: "Penicillins"}
	sau := &domain.Organism{Code: "sau", Genus: "Staphylococcus", Type: "+"}

	eval := engine.Evaluate(&RuleInput{
		Organism:   sau,
		Antibiotic: abx,
		Identifier: domain.AntibioticIdentifier{BaseCode: "AMP", Guideline: domain.CLSI, TestMethod: domain.MIC},
		Raw:        domain.Susceptible,
		Related:    map[string]domain.Category{"OXA": domain.Resistant},
	})

	assert.Equal(t, domain.NonSusceptible, eval.FinalCategory, "a later rule must not override an earlier forced category")
	assert.Equal(t, []string{rules.Intrinsic, rules.MRSBetaLactam}, eval.AppliedRuleIDs)
	assert.Equal(t, []domain.Flag{domain.FlagIntrinsicResistanceInconsistent, domain.FlagMethicillinResistance}, eval.Flags)
}

func TestExpertRuleEngine_DisabledRulesSkipped(t *testing.T) {
	const doc = `
guidelines:
  EUCAST:
    organism_types: ["+"]
    rules: [ICR_CLINDAMYCIN]
methicillin_resistance:
  genera: [Staphylococcus]
  markers: [OXA]
`
	engine, _ := newTestEngine(t, doc)

	eval := engine.Evaluate(&RuleInput{
		Organism:   &domain.Organism{Code: "sau", Genus: "Staphylococcus", Type: "+"},
		Antibiotic: &domain.Antibiotic{Code: "AMP", Class: "Penicillins"},
		Identifier: domain.AntibioticIdentifier{BaseCode: "AMP", Guideline: domain.EUCAST, TestMethod: domain.MIC},
		Raw:        domain.Susceptible,
		Related:    map[string]domain.Category{"OXA": domain.Resistant},
	})

	assert.Equal(t, domain.Susceptible, eval.FinalCategory)
	assert.Empty(t, eval.AppliedRuleIDs)
	assert.Empty(t, eval.Flags)
}

func TestExpertRuleEngine_IntrinsicEffects(t *testing.T) {
	const doc = `
guidelines:
  CLSI:
    organism_types: ["-"]
    rules: [INTRINSIC]
intrinsic:
  - {genus: Proteus, classes: [Polymyxins], effect: resistant}
  - {genus: Serratia, drugs: [COL], effect: non_susceptible}
  - {organism_type: "-", drugs: [VAN], effect: flag}
`
	engine, _ := newTestEngine(t, doc)
	col := &domain.Antibiotic{Code: "COL", Class: "Polymyxins"}
	van := &domain.Antibiotic{Code: "VAN", Class: "Glycopeptides"}

	tests := []struct {
		name    string
		genus   string
		abx     *domain.Antibiotic
		raw     domain.Category
		final   domain.Category
		applied bool
	}{
		{"resistant from S", "Proteus", col, domain.Susceptible, domain.Resistant, true},
		{"resistant from unresolved", "Proteus", col, domain.Unresolved, domain.Resistant, true},
		{"non-susceptible from I", "Serratia", col, domain.Intermediate, domain.NonSusceptible, true},
		{"non-susceptible keeps R", "Serratia", col, domain.Resistant, domain.Resistant, false},
		{"flag only", "Escherichia", van, domain.Susceptible, domain.Susceptible, true},
		{"flag not raised for R", "Escherichia", van, domain.Resistant, domain.Resistant, false},
		{"no entry", "Escherichia", col, domain.Susceptible, domain.Susceptible, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := engine.Evaluate(&RuleInput{
				Organism:   &domain.Organism{Code: "x", Genus: tt.genus, Type: "-"},
				Antibiotic: tt.abx,
				Identifier: domain.AntibioticIdentifier{BaseCode: tt.abx.Code, Guideline: domain.CLSI, TestMethod: domain.MIC},
				Raw:        tt.raw,
			})
			assert.Equal(t, tt.final, eval.FinalCategory)
			assert.Equal(t, tt.applied, len(eval.AppliedRuleIDs) == 1)
		})
	}
}

func TestExpertRuleEngine_UnresolvedGuideline(t *testing.T) {
	engine, _ := newTestEngine(t, "guidelines:\n  CLSI: {organism_types: [\"-\"], rules: [INTRINSIC]}\n")
	abx := &domain.Antibiotic{Code: "AMP", Class: "Penicillins"}

	for _, id := range []domain.AntibioticIdentifier{
		{BaseCode: "AMP", Guideline: domain.EUCAST, TestMethod: domain.MIC},
		{BaseCode: "AMP", Guideline: domain.CLSI, TestMethod: domain.Disk},
	} {
		t.Run(id.String(), func(t *testing.T) {
			eval := engine.Evaluate(&RuleInput{
				Organism:   &domain.Organism{Code: "sau", Genus: "Staphylococcus", Type: "+"},
				Antibiotic: abx,
				Identifier: id,
				Raw:        domain.Intermediate,
			})
			assert.Equal(t, domain.Intermediate, eval.FinalCategory)
			assert.Equal(t, []domain.Flag{domain.FlagUnresolvedGuideline}, eval.Flags)
			assert.Empty(t, eval.AppliedRuleIDs)
		})
	}
}

func TestExpertRuleEngine_InducibleClindamycinGroups(t *testing.T) {
	const doc = `
guidelines:
  CLSI:
    organism_types: ["+"]
    rules: [ICR_CLINDAMYCIN]
inducible_clindamycin:
  genera: [Staphylococcus]
  inducer_classes: [Macrolides]
  target_classes: [Streptogramins]
`
	engine, index := newTestEngine(t, doc)
	assert.Equal(t, []string{"SYN"}, index.Named("ICR_TARGETS:Streptogramins", nil).Codes())
	assert.Equal(t, []string{"ERY"}, index.Named("ICR_INDUCERS:Macrolides", nil).Codes())

	tests := []struct {
		name    string
		abx     *domain.Antibiotic
		related map[string]domain.Category
		flagged bool
	}{
		{"configured target", &domain.Antibiotic{Code: "SYN", Class: "Streptogramins"}, map[string]domain.Category{"ERY": domain.Resistant}, true},
		{"lincosamide not a target", &domain.Antibiotic{Code: "CLI", Class: "Lincosamides"}, map[string]domain.Category{"ERY": domain.Resistant}, false},
		{"inducer susceptible", &domain.Antibiotic{Code: "SYN", Class: "Streptogramins"}, map[string]domain.Category{"ERY": domain.Susceptible}, false},
		{"non-inducer resistant", &domain.Antibiotic{Code: "SYN", Class: "Streptogramins"}, map[string]domain.Category{"CLI": domain.Resistant}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := engine.Evaluate(&RuleInput{
				Organism:   &domain.Organism{Code: "sau", Genus: "Staphylococcus", Type: "+"},
				Antibiotic: tt.abx,
				Identifier: domain.AntibioticIdentifier{BaseCode: tt.abx.Code, Guideline: domain.CLSI, TestMethod: domain.MIC},
				Raw:        domain.Susceptible,
				Related:    tt.related,
			})
			if tt.flagged {
				assert.Equal(t, []domain.Flag{domain.FlagPossibleInducibleResistance}, eval.Flags)
				assert.Equal(t, []string{rules.ICRClindamycin}, eval.AppliedRuleIDs)
			} else {
				assert.Empty(t, eval.Flags)
				assert.Empty(t, eval.AppliedRuleIDs)
			}
		})
	}
}
