package domain

import (
	"time"
)

// Antibiotic is one row of the antibiotic reference catalog.
type Antibiotic struct {
	Code       string `json:"code"`
	WHOCode    string `json:"who_code,omitempty"`
	DINCode    string `json:"din_code,omitempty"`
	JACCode    string `json:"jac_code,omitempty"`
	EUCASTCode string `json:"eucast_code,omitempty"`
	UserCode   string `json:"user_code,omitempty"`
	Name       string `json:"name"`
	Guidelines string `json:"guidelines,omitempty"`

	// One applicability flag per guideline.
	Applicability map[Guideline]bool `json:"applicability"`

	Number       string     `json:"abx_number,omitempty"`
	Potency      string     `json:"potency,omitempty"`
	ATCCode      string     `json:"atc_code,omitempty"`
	Class        string     `json:"class,omitempty"`
	ProfClass    string     `json:"prof_class,omitempty"`
	CIACategory  string     `json:"cia_category,omitempty"`
	CLSIOrder    string     `json:"clsi_order,omitempty"`
	EUCASTOrder  string     `json:"eucast_order,omitempty"`
	Human        bool       `json:"human"`
	Veterinary   bool       `json:"veterinary"`
	AnimalGP     bool       `json:"animal_gp"`
	LOINC        LOINCCodes `json:"loinc"`
	DateEntered  time.Time  `json:"date_entered"`
	DateModified time.Time  `json:"date_modified"`
	Comments     string     `json:"comments,omitempty"`
}

// LOINCCodes groups the per-method LOINC identifiers of an antibiotic.
type LOINCCodes struct {
	Component string `json:"component,omitempty"`
	General   string `json:"general,omitempty"`
	Disk      string `json:"disk,omitempty"`
	MIC       string `json:"mic,omitempty"`
	ETest     string `json:"etest,omitempty"`
	Slow      string `json:"slow,omitempty"`
	AFB       string `json:"afb,omitempty"`
	SBT       string `json:"sbt,omitempty"`
	MLC       string `json:"mlc,omitempty"`
}

// AppliesTo reports whether the guideline publishes breakpoints for this drug.
func (a *Antibiotic) AppliesTo(g Guideline) bool {
	return a.Applicability[g]
}
