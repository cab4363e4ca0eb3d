// Package breakpoint converts numeric susceptibility measurements into
// interpretive categories using guideline breakpoint rows.
package breakpoint

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cgps-group/AMRIE/internal/domain"
)

// threshold is a breakpoint value kept as an exact decimal.
type threshold struct {
	decimal.Decimal
}

func (t *threshold) UnmarshalYAML(n *yaml.Node) error {
	d, err := decimal.NewFromString(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid breakpoint %q", n.Line, n.Value)
	}
	t.Decimal = d
	return nil
}

// Row is one breakpoint: the susceptible and resistant thresholds for a drug
// tested by one method under one guideline, scoped to a genus or a single
// organism code.
type Row struct {
	Guideline domain.Guideline  `yaml:"guideline"`
	Method    domain.TestMethod `yaml:"method"`
	Drug      string            `yaml:"drug"`
	Genus     string            `yaml:"genus,omitempty"`
	Organism  string            `yaml:"organism,omitempty"`
	S         threshold         `yaml:"s"`
	R         threshold         `yaml:"r"`
}

type document struct {
	Breakpoints []Row `yaml:"breakpoints"`
}

type key struct {
	guideline domain.Guideline
	method    domain.TestMethod
	drug      string
}

type scoped struct {
	byOrganism map[string]*Row
	byGenus    map[string]*Row
}

// Table is an immutable set of breakpoint rows.
type Table struct {
	rows map[key]*scoped
	size int
}

// NewTable returns a table with no rows. Every lookup misses.
func NewTable() *Table {
	return &Table{rows: make(map[key]*scoped)}
}

// LoadFile reads a YAML breakpoint document from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open breakpoint table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a YAML breakpoint document. Rows must name a valid guideline
// and method, a drug, and exactly one of genus or organism. Duplicate scopes
// and thresholds that overlap in the wrong direction fail the load.
func Load(r io.Reader) (*Table, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse breakpoint table: %w", err)
	}

	t := NewTable()
	for i := range doc.Breakpoints {
		if err := t.add(&doc.Breakpoints[i]); err != nil {
			return nil, fmt.Errorf("breakpoint %d: %w", i+1, err)
		}
	}
	return t, nil
}

func (t *Table) add(row *Row) error {
	if !row.Guideline.IsValid() {
		return fmt.Errorf("unknown guideline %q", row.Guideline)
	}
	if !row.Method.IsValid() {
		return fmt.Errorf("unsupported method %q", row.Method)
	}
	if row.Drug == "" {
		return errors.New("drug is required")
	}
	if (row.Genus == "") == (row.Organism == "") {
		return fmt.Errorf("%s: exactly one of genus or organism is required", row.Drug)
	}

	switch row.Method {
	case domain.MIC:
		if row.S.GreaterThan(row.R.Decimal) {
			return fmt.Errorf("%s: MIC susceptible breakpoint %s exceeds resistant %s", row.Drug, row.S, row.R)
		}
	case domain.Disk:
		if row.S.LessThan(row.R.Decimal) {
			return fmt.Errorf("%s: disk susceptible breakpoint %s is below resistant %s", row.Drug, row.S, row.R)
		}
	}

	k := key{guideline: row.Guideline, method: row.Method, drug: row.Drug}
	s, ok := t.rows[k]
	if !ok {
		s = &scoped{byOrganism: make(map[string]*Row), byGenus: make(map[string]*Row)}
		t.rows[k] = s
	}

	scope, name := s.byGenus, row.Genus
	if row.Organism != "" {
		scope, name = s.byOrganism, row.Organism
	}
	if _, dup := scope[name]; dup {
		return fmt.Errorf("%s: duplicate breakpoint for %s", row.Drug, name)
	}
	scope[name] = row
	t.size++
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.size
}

// Find returns the row for an organism and antibiotic. A row for the exact
// organism code wins over a row for its genus.
func (t *Table) Find(org *domain.Organism, id domain.AntibioticIdentifier) (*Row, bool) {
	s, ok := t.rows[key{guideline: id.Guideline, method: id.TestMethod, drug: id.BaseCode}]
	if !ok {
		return nil, false
	}
	if row, ok := s.byOrganism[org.Code]; ok {
		return row, true
	}
	if org.Genus == "" {
		return nil, false
	}
	row, ok := s.byGenus[org.Genus]
	return row, ok
}

// Interpret categorizes a measurement. It reports false when no row covers
// the organism and antibiotic.
func (t *Table) Interpret(org *domain.Organism, id domain.AntibioticIdentifier, m Measurement) (domain.Category, bool) {
	row, ok := t.Find(org, id)
	if !ok {
		return domain.Unresolved, false
	}
	return row.Categorize(m), true
}

// Categorize applies the row's thresholds. Low MICs and large zones are
// susceptible.
func (r *Row) Categorize(m Measurement) domain.Category {
	v := m.effective(r.Method)
	if r.Method == domain.Disk {
		switch {
		case v.GreaterThanOrEqual(r.S.Decimal):
			return domain.Susceptible
		case v.LessThanOrEqual(r.R.Decimal):
			return domain.Resistant
		default:
			return domain.Intermediate
		}
	}
	switch {
	case v.LessThanOrEqual(r.S.Decimal):
		return domain.Susceptible
	case v.GreaterThanOrEqual(r.R.Decimal):
		return domain.Resistant
	default:
		return domain.Intermediate
	}
}
