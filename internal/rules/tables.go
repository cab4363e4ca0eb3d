// Package rules holds the expert rule tables: which rules each guideline
// enables, which organism types its tables cover, and the parameters of each
// rule family.
package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cgps-group/AMRIE/internal/domain"
)

// Rule identifiers, listed in evaluation order.
const (
	Intrinsic      = "INTRINSIC"
	MRSBetaLactam  = "MRS_BETALACTAM"
	ICRClindamycin = "ICR_CLINDAMYCIN"
	AmpCCeph3      = "AMPC_CEPH3"
)

// Order is the fixed evaluation order of the rule families.
var Order = []string{Intrinsic, MRSBetaLactam, ICRClindamycin, AmpCCeph3}

// Effect is what an intrinsic resistance entry does to a contradicting result.
type Effect string

const (
	EffectResistant      Effect = "resistant"
	EffectNonSusceptible Effect = "non_susceptible"
	EffectFlag           Effect = "flag"
)

//go:embed rules.yaml
var defaultTables []byte

// GuidelineTable is the rule table of one guideline.
type GuidelineTable struct {
	OrganismTypes []string `yaml:"organism_types"`
	Rules         []string `yaml:"rules"`
}

// Covers reports whether the table applies to an organism type.
func (g *GuidelineTable) Covers(organismType string) bool {
	return slices.Contains(g.OrganismTypes, organismType)
}

// Enables reports whether the rule is switched on for the guideline.
func (g *GuidelineTable) Enables(ruleID string) bool {
	return slices.Contains(g.Rules, ruleID)
}

// MethicillinResistance parameterizes the MRS_BETALACTAM rule.
type MethicillinResistance struct {
	Genera  []string `yaml:"genera"`
	Markers []string `yaml:"markers"`
}

// InducibleClindamycin parameterizes the ICR_CLINDAMYCIN rule.
type InducibleClindamycin struct {
	Genera         []string `yaml:"genera"`
	InducerClasses []string `yaml:"inducer_classes"`
	TargetClasses  []string `yaml:"target_classes"`
}

// AmpC parameterizes the AMPC_CEPH3 rule.
type AmpC struct {
	Genera []string `yaml:"genera"`
}

// IntrinsicEntry names organisms that are expected to resist a set of drugs.
// The organism side matches by code, genus or organism type; the drug side by
// code or class.
type IntrinsicEntry struct {
	Organism     string   `yaml:"organism,omitempty"`
	Genus        string   `yaml:"genus,omitempty"`
	OrganismType string   `yaml:"organism_type,omitempty"`
	Drugs        []string `yaml:"drugs,omitempty"`
	Classes      []string `yaml:"classes,omitempty"`
	Effect       Effect   `yaml:"effect"`
}

// MatchesOrganism reports whether the entry covers org.
func (e *IntrinsicEntry) MatchesOrganism(org *domain.Organism) bool {
	switch {
	case e.Organism != "":
		return e.Organism == org.Code
	case e.Genus != "":
		return e.Genus == org.Genus
	default:
		return e.OrganismType == org.Type
	}
}

// MatchesDrug reports whether the entry covers a drug code of the given class.
func (e *IntrinsicEntry) MatchesDrug(code, class string) bool {
	return slices.Contains(e.Drugs, code) || (class != "" && slices.Contains(e.Classes, class))
}

// Tables is the complete, validated rule configuration.
type Tables struct {
	Guidelines            map[domain.Guideline]*GuidelineTable `yaml:"guidelines"`
	MethicillinResistance MethicillinResistance                `yaml:"methicillin_resistance"`
	InducibleClindamycin  InducibleClindamycin                 `yaml:"inducible_clindamycin"`
	AmpC                  AmpC                                 `yaml:"ampc"`
	Intrinsic             []IntrinsicEntry                     `yaml:"intrinsic"`
}

// Default returns the embedded rule tables.
func Default() (*Tables, error) {
	return Parse(defaultTables)
}

// LoadFile reads rule tables from path. An empty path selects the embedded
// tables.
func LoadFile(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule tables: %w", err)
	}
	return Parse(data)
}

// Load reads rule tables from r.
func Load(r io.Reader) (*Tables, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule tables: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML rule document.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse rule tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks guideline names, rule identifiers and intrinsic entries.
func (t *Tables) Validate() error {
	for g, table := range t.Guidelines {
		if !g.IsValid() {
			return fmt.Errorf("rule tables: unknown guideline %q", g)
		}
		if table == nil {
			return fmt.Errorf("rule tables: guideline %s has an empty table", g)
		}
		for _, id := range table.Rules {
			if !slices.Contains(Order, id) {
				return fmt.Errorf("rule tables: guideline %s enables unknown rule %q", g, id)
			}
		}
	}

	for i, e := range t.Intrinsic {
		scopes := 0
		for _, s := range []string{e.Organism, e.Genus, e.OrganismType} {
			if s != "" {
				scopes++
			}
		}
		if scopes != 1 {
			return fmt.Errorf("rule tables: intrinsic entry %d needs exactly one of organism, genus or organism_type", i+1)
		}
		if len(e.Drugs) == 0 && len(e.Classes) == 0 {
			return fmt.Errorf("rule tables: intrinsic entry %d names no drugs or classes", i+1)
		}
		switch e.Effect {
		case EffectResistant, EffectNonSusceptible, EffectFlag:
		default:
			return fmt.Errorf("rule tables: intrinsic entry %d has unknown effect %q", i+1, e.Effect)
		}
	}
	return nil
}

// For returns the table of a guideline.
func (t *Tables) For(g domain.Guideline) (*GuidelineTable, bool) {
	table, ok := t.Guidelines[g]
	return table, ok
}
