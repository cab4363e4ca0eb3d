// Package domain contains the core entities and vocabularies used to interpret
// antimicrobial susceptibility test (AST) results against clinical guidelines.
//
// The guideline and test-method vocabularies are closed: every code is mapped
// through an explicit table and anything outside it decodes to a typed error.
package domain

import (
	"fmt"
)

// Guideline identifies the clinical standards body whose breakpoints and
// expert rules apply to a result.
type Guideline string

const (
	CLSI   Guideline = "CLSI"
	EUCAST Guideline = "EUCAST"
	SFM    Guideline = "SFM"
	SRGA   Guideline = "SRGA"
	BSAC   Guideline = "BSAC"
	DIN    Guideline = "DIN"
	NEO    Guideline = "NEO"
	AFA    Guideline = "AFA"
)

// guidelineCodes maps the single character used in compound antibiotic codes
// to the guideline it stands for.
var guidelineCodes = map[byte]Guideline{
	'N': CLSI,
	'E': EUCAST,
	'F': SFM,
	'S': SRGA,
	'D': DIN,
	'T': NEO,
	'B': BSAC,
	'A': AFA,
}

// AllGuidelines lists the guideline vocabulary in a stable order.
var AllGuidelines = []Guideline{CLSI, EUCAST, SFM, SRGA, BSAC, DIN, NEO, AFA}

// GuidelineFromCode expands a guideline character into its guideline.
func GuidelineFromCode(code byte) (Guideline, error) {
	g, ok := guidelineCodes[code]
	if !ok {
		return "", &CodeError{Code: string(code), Segment: "guideline", Reason: "unknown guideline code"}
	}
	return g, nil
}

// Code returns the single-character code for the guideline.
func (g Guideline) Code() byte {
	for c, v := range guidelineCodes {
		if v == g {
			return c
		}
	}
	return 0
}

// IsValid reports whether g belongs to the guideline vocabulary.
func (g Guideline) IsValid() bool {
	return g.Code() != 0
}

func (g Guideline) String() string {
	return string(g)
}

// TestMethod is the laboratory method that produced a measurement.
type TestMethod string

const (
	Disk  TestMethod = "DISK"
	MIC   TestMethod = "MIC"
	ETest TestMethod = "ETEST"
)

// testMethodCodes maps method characters to methods. ETest gradient strips
// share the MIC breakpoint rows so both decode to MIC.
var testMethodCodes = map[byte]TestMethod{
	'D': Disk,
	'M': MIC,
	'E': MIC,
}

// TestMethodFromCode expands a method character into the method whose
// breakpoints apply.
func TestMethodFromCode(code byte) (TestMethod, error) {
	m, ok := testMethodCodes[code]
	if !ok {
		return "", &CodeError{Code: string(code), Segment: "method", Reason: "unknown test method code"}
	}
	return m, nil
}

// IsValid reports whether the method is one the engine can look up
// breakpoints for.
func (m TestMethod) IsValid() bool {
	switch m {
	case Disk, MIC:
		return true
	default:
		return false
	}
}

func (m TestMethod) String() string {
	return string(m)
}

// Category is an interpretive category for a single result.
type Category string

const (
	Susceptible    Category = "S"
	Intermediate   Category = "I"
	Resistant      Category = "R"
	NonSusceptible Category = "NS"
	Unresolved     Category = "UNRESOLVED"
)

// ParseRawCategory accepts the categories a laboratory may report directly.
// Non-susceptible and unresolved are engine outputs only.
func ParseRawCategory(s string) (Category, bool) {
	switch Category(s) {
	case Susceptible, Intermediate, Resistant:
		return Category(s), true
	default:
		return "", false
	}
}

// IsValid reports whether c is one of the decision categories.
func (c Category) IsValid() bool {
	switch c {
	case Susceptible, Intermediate, Resistant, NonSusceptible, Unresolved:
		return true
	default:
		return false
	}
}

// Description returns a readable name for reports and logs.
func (c Category) Description() string {
	switch c {
	case Susceptible:
		return "Susceptible"
	case Intermediate:
		return "Intermediate"
	case Resistant:
		return "Resistant"
	case NonSusceptible:
		return "Non-susceptible"
	case Unresolved:
		return "Unresolved"
	default:
		return "Unknown"
	}
}

// IsNotResistant is true for results that would be reported as active.
func (c Category) IsNotResistant() bool {
	return c == Susceptible || c == Intermediate
}

func (c Category) String() string {
	return string(c)
}

// Flag is an advisory code attached to a decision. Flags never change the
// category on their own.
type Flag string

const (
	FlagGuidelineNotApplicable          Flag = "GuidelineNotApplicable"
	FlagUnresolvedGuideline             Flag = "UnresolvedGuideline"
	FlagUserDefinedAntibiotic           Flag = "UserDefinedAntibiotic"
	FlagNoBreakpoint                    Flag = "NoBreakpoint"
	FlagOrganismMerged                  Flag = "OrganismMerged"
	FlagIntrinsicResistanceInconsistent Flag = "IntrinsicResistanceInconsistent"
	FlagMethicillinResistance           Flag = "MethicillinResistance"
	FlagPossibleInducibleResistance     Flag = "PossibleInducibleClindamycinResistance"
	FlagAmpCDerepressionRisk            Flag = "AmpCDerepressionRisk"
)

// AntibioticIdentifier is a decomposed compound antibiotic code such as
// "CIP_NM" or "X_ABC_ED".
type AntibioticIdentifier struct {
	BaseCode    string     `json:"base_code"`
	Guideline   Guideline  `json:"guideline"`
	TestMethod  TestMethod `json:"test_method"`
	UserDefined bool       `json:"user_defined,omitempty"`
}

func (id AntibioticIdentifier) String() string {
	return fmt.Sprintf("%s[%s/%s]", id.BaseCode, id.Guideline, id.TestMethod)
}
