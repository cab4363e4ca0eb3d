// Package codes decodes compound antibiotic codes such as "CIP_NM" into the
// drug, guideline and test method they name.
//
// Two shapes are accepted:
//
//	<drug>_<guideline><method>
//	X_<user code>_<guideline><method>
//
// The second shape marks a user-defined antibiotic. The sentinel and the user
// code together form the base code, and the guideline and method move one
// segment to the right.
package codes

import (
	"strings"

	"github.com/cgps-group/AMRIE/internal/domain"
)

// UserDefinedSentinel is the first segment of a user-defined antibiotic code.
const UserDefinedSentinel = "X"

const (
	separator      = "_"
	shortCodeWidth = 3
)

// Decompose splits a compound antibiotic code into its identifier. Any code
// that does not follow one of the two shapes, or whose guideline or method
// character is outside the fixed vocabulary, fails with a *domain.CodeError.
func Decompose(full string) (domain.AntibioticIdentifier, error) {
	segments := strings.Split(full, separator)

	base, gmIndex := segments[0], 1
	userDefined := base == UserDefinedSentinel
	if userDefined {
		gmIndex = 2
	}

	if len(segments) <= gmIndex {
		return domain.AntibioticIdentifier{}, &domain.CodeError{
			Code:    full,
			Segment: "antibiotic",
			Reason:  "too few segments",
		}
	}
	if userDefined {
		base = strings.Join(segments[:2], separator)
	}
	if base == "" || (userDefined && segments[1] == "") {
		return domain.AntibioticIdentifier{}, &domain.CodeError{
			Code:    full,
			Segment: "antibiotic",
			Reason:  "empty drug code",
		}
	}

	gm := segments[gmIndex]
	if len(gm) < 2 {
		return domain.AntibioticIdentifier{}, &domain.CodeError{
			Code:    full,
			Segment: "antibiotic",
			Reason:  "guideline and method segment needs two characters",
		}
	}

	guideline, err := domain.GuidelineFromCode(gm[0])
	if err != nil {
		return domain.AntibioticIdentifier{}, err
	}
	method, err := domain.TestMethodFromCode(gm[1])
	if err != nil {
		return domain.AntibioticIdentifier{}, err
	}

	return domain.AntibioticIdentifier{
		BaseCode:    base,
		Guideline:   guideline,
		TestMethod:  method,
		UserDefined: userDefined,
	}, nil
}

// Compose builds the standard compound code for a drug, guideline and method.
func Compose(base string, g domain.Guideline, m domain.TestMethod) string {
	method := byte('M')
	if m == domain.Disk {
		method = 'D'
	}
	return base + separator + string([]byte{g.Code(), method})
}

// ShortCode returns the leading three characters of a drug code, the form
// used by older exports.
func ShortCode(code string) string {
	if len(code) <= shortCodeWidth {
		return code
	}
	return code[:shortCodeWidth]
}
