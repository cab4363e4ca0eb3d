package service

import (
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cgps-group/AMRIE/internal/classification"
	"github.com/cgps-group/AMRIE/internal/domain"
	"github.com/cgps-group/AMRIE/internal/rules"
)

// ExpertRuleEngine applies guideline expert rules to a raw interpretive
// category. Rules run in a fixed order; the first rule that forces a
// category wins and later rules can only add flags.
type ExpertRuleEngine struct {
	logger *logrus.Logger
	index  *classification.Index
	tables *rules.Tables
	rules  []*ExpertRule
	byID   map[string]*ExpertRule

	icrInducers classification.DrugSet
	icrTargets  classification.DrugSet
}

// ExpertRule is one rule family.
type ExpertRule struct {
	ID          string
	Name        string
	Description string
	Evaluator   func(in *RuleInput) RuleEffect
}

// RuleInput is everything a rule may look at for one observation.
type RuleInput struct {
	Organism   *domain.Organism
	Antibiotic *domain.Antibiotic
	Identifier domain.AntibioticIdentifier
	Raw        domain.Category
	Related    map[string]domain.Category
}

// RuleEffect is a rule's verdict. Force is empty when the rule leaves the
// category alone.
type RuleEffect struct {
	Applies bool
	Force   domain.Category
	Flags   []domain.Flag
}

// Evaluation is the engine's contribution to a decision.
type Evaluation struct {
	FinalCategory  domain.Category
	AppliedRuleIDs []string
	Flags          []domain.Flag
}

// NewExpertRuleEngine creates an engine over a classification index and a set
// of rule tables.
func NewExpertRuleEngine(logger *logrus.Logger, index *classification.Index, tables *rules.Tables) *ExpertRuleEngine {
	engine := &ExpertRuleEngine{
		logger: logger,
		index:  index,
		tables: tables,
		byID:   make(map[string]*ExpertRule),
	}

	icr := tables.InducibleClindamycin
	engine.icrInducers = index.Named("ICR_INDUCERS:"+strings.Join(icr.InducerClasses, ","),
		classification.InClasses(icr.InducerClasses...))
	engine.icrTargets = index.Named("ICR_TARGETS:"+strings.Join(icr.TargetClasses, ","),
		classification.InClasses(icr.TargetClasses...))

	engine.initializeRules()

	return engine
}

// initializeRules registers the rule families in evaluation order.
func (e *ExpertRuleEngine) initializeRules() {
	e.addRule(rules.Intrinsic, "Intrinsic resistance",
		"Organism is expected to resist the drug regardless of the test result", e.evaluateIntrinsic)
	e.addRule(rules.MRSBetaLactam, "Methicillin-resistant staphylococci",
		"Marker drug resistant in Staphylococcus: report beta-lactams resistant", e.evaluateMethicillinResistance)
	e.addRule(rules.ICRClindamycin, "Inducible clindamycin resistance",
		"Macrolide resistant while lincosamide tests active: flag possible inducible resistance", e.evaluateInducibleClindamycin)
	e.addRule(rules.AmpCCeph3, "AmpC derepression",
		"Third-generation cephalosporin active against an AmpC producer: flag derepression risk", e.evaluateAmpC)
}

func (e *ExpertRuleEngine) addRule(id, name, description string, evaluator func(in *RuleInput) RuleEffect) {
	rule := &ExpertRule{
		ID:          id,
		Name:        name,
		Description: description,
		Evaluator:   evaluator,
	}
	e.rules = append(e.rules, rule)
	e.byID[id] = rule
}

// Rules returns the registered rules in evaluation order.
func (e *ExpertRuleEngine) Rules() []*ExpertRule {
	return slices.Clone(e.rules)
}

// Rule returns a registered rule by identifier.
func (e *ExpertRuleEngine) Rule(id string) (*ExpertRule, bool) {
	rule, ok := e.byID[id]
	return rule, ok
}

// Evaluate runs the rules enabled for the observation's guideline. A
// guideline without a table, or whose table does not cover the organism type,
// passes the raw category through with UnresolvedGuideline.
func (e *ExpertRuleEngine) Evaluate(in *RuleInput) Evaluation {
	result := Evaluation{
		FinalCategory:  in.Raw,
		AppliedRuleIDs: []string{},
		Flags:          []domain.Flag{},
	}

	table, ok := e.tables.For(in.Identifier.Guideline)
	if !ok || !table.Covers(in.Organism.Type) {
		e.logger.WithFields(logrus.Fields{
			"guideline":     in.Identifier.Guideline,
			"organism":      in.Organism.Code,
			"organism_type": in.Organism.Type,
		}).Debug("No rule table covers the organism")
		result.Flags = append(result.Flags, domain.FlagUnresolvedGuideline)
		return result
	}

	forced := false
	for _, rule := range e.rules {
		if !table.Enables(rule.ID) {
			continue
		}

		effect := rule.Evaluator(in)
		if !effect.Applies {
			continue
		}

		tookHold := false
		if effect.Force != "" && !forced {
			forced = true
			if effect.Force != result.FinalCategory {
				result.FinalCategory = effect.Force
				tookHold = true
			}
		}
		for _, f := range effect.Flags {
			if !slices.Contains(result.Flags, f) {
				result.Flags = append(result.Flags, f)
				tookHold = true
			}
		}

		e.logger.WithFields(logrus.Fields{
			"rule":       rule.ID,
			"antibiotic": in.Identifier.BaseCode,
			"organism":   in.Organism.Code,
			"force":      effect.Force,
			"took_hold":  tookHold,
		}).Debug("Expert rule qualified")

		if tookHold {
			result.AppliedRuleIDs = append(result.AppliedRuleIDs, rule.ID)
		}
	}

	return result
}

// evaluateIntrinsic checks the intrinsic resistance entries. The first entry
// matching both the organism and the drug decides.
func (e *ExpertRuleEngine) evaluateIntrinsic(in *RuleInput) RuleEffect {
	for i := range e.tables.Intrinsic {
		entry := &e.tables.Intrinsic[i]
		if !entry.MatchesOrganism(in.Organism) || !entry.MatchesDrug(in.Antibiotic.Code, in.Antibiotic.Class) {
			continue
		}

		var flags []domain.Flag
		if in.Raw.IsNotResistant() {
			flags = []domain.Flag{domain.FlagIntrinsicResistanceInconsistent}
		}

		switch entry.Effect {
		case rules.EffectResistant:
			return RuleEffect{Applies: true, Force: domain.Resistant, Flags: flags}
		case rules.EffectNonSusceptible:
			if in.Raw == domain.Resistant {
				return RuleEffect{}
			}
			return RuleEffect{Applies: true, Force: domain.NonSusceptible, Flags: flags}
		default:
			return RuleEffect{Applies: flags != nil, Flags: flags}
		}
	}
	return RuleEffect{}
}

// evaluateMethicillinResistance forces broad beta-lactams to resistant when a
// marker drug tested resistant on the same staphylococcal isolate. The marker
// may be the observation itself.
func (e *ExpertRuleEngine) evaluateMethicillinResistance(in *RuleInput) RuleEffect {
	params := e.tables.MethicillinResistance
	if !slices.Contains(params.Genera, in.Organism.Genus) {
		return RuleEffect{}
	}
	if !e.index.BetaLactamBroad().Contains(in.Antibiotic.Code) {
		return RuleEffect{}
	}

	for _, marker := range params.Markers {
		if in.Related[marker] == domain.Resistant ||
			(in.Antibiotic.Code == marker && in.Raw == domain.Resistant) {
			return RuleEffect{
				Applies: true,
				Force:   domain.Resistant,
				Flags:   []domain.Flag{domain.FlagMethicillinResistance},
			}
		}
	}
	return RuleEffect{}
}

// evaluateInducibleClindamycin flags an active lincosamide when a macrolide
// tested resistant on the same isolate. The category is never changed.
func (e *ExpertRuleEngine) evaluateInducibleClindamycin(in *RuleInput) RuleEffect {
	params := e.tables.InducibleClindamycin
	if !slices.Contains(params.Genera, in.Organism.Genus) {
		return RuleEffect{}
	}
	if !e.index.MLS().Contains(in.Antibiotic.Code) || !e.icrTargets.Contains(in.Antibiotic.Code) {
		return RuleEffect{}
	}
	if !in.Raw.IsNotResistant() {
		return RuleEffect{}
	}

	for code, category := range in.Related {
		if category == domain.Resistant && e.index.MLS().Contains(code) && e.icrInducers.Contains(code) {
			return RuleEffect{
				Applies: true,
				Flags:   []domain.Flag{domain.FlagPossibleInducibleResistance},
			}
		}
	}
	return RuleEffect{}
}

// evaluateAmpC flags active third-generation cephalosporins against organisms
// with a chromosomal AmpC that can be derepressed during therapy.
func (e *ExpertRuleEngine) evaluateAmpC(in *RuleInput) RuleEffect {
	if !slices.Contains(e.tables.AmpC.Genera, in.Organism.Genus) {
		return RuleEffect{}
	}
	if !e.index.Ceph3().Contains(in.Antibiotic.Code) || !in.Raw.IsNotResistant() {
		return RuleEffect{}
	}
	return RuleEffect{
		Applies: true,
		Flags:   []domain.Flag{domain.FlagAmpCDerepressionRisk},
	}
}
