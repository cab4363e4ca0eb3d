package domain

// RawResult is the laboratory's result before expert rules: either a
// category or a measured value with its unit.
type RawResult struct {
	Category string `json:"category,omitempty"`
	Value    string `json:"value,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// IsMeasurement reports whether the result carries a measured value rather
// than a category.
func (r RawResult) IsMeasurement() bool {
	return r.Category == "" && r.Value != ""
}

// Request is a single observation to interpret.
type Request struct {
	OrganismCode   string    `json:"organism_code"`
	AntibioticCode string    `json:"antibiotic_code"`
	Raw            RawResult `json:"raw"`

	// Related holds already-interpreted categories of other drugs tested on
	// the same isolate, keyed by base drug code. Rules that depend on a
	// companion or marker drug read it; it is never modified.
	Related map[string]Category `json:"related,omitempty"`
}

// Decision is the engine's output for one observation.
type Decision struct {
	OrganismCode   string               `json:"organism_code"`
	RequestedCode  string               `json:"requested_organism_code,omitempty"`
	Antibiotic     AntibioticIdentifier `json:"antibiotic"`
	RawCategory    Category             `json:"raw_category"`
	FinalCategory  Category             `json:"final_category"`
	AppliedRuleIDs []string             `json:"applied_rule_ids"`
	Flags          []Flag               `json:"flags"`
}

// HasFlag reports whether f was raised for the decision.
func (d *Decision) HasFlag(f Flag) bool {
	for _, v := range d.Flags {
		if v == f {
			return true
		}
	}
	return false
}

// AddFlag records f once, preserving the order in which flags were raised.
func (d *Decision) AddFlag(f Flag) {
	if !d.HasFlag(f) {
		d.Flags = append(d.Flags, f)
	}
}

// Outcome pairs a request with either its decision or its structured error.
type Outcome struct {
	Request  Request              `json:"request"`
	Decision *Decision            `json:"decision,omitempty"`
	Error    *InterpretationError `json:"error,omitempty"`
}
