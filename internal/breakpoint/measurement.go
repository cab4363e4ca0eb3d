package breakpoint

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cgps-group/AMRIE/internal/domain"
)

// Qualifier is the comparison prefix a laboratory puts on an off-scale value.
type Qualifier string

const (
	Exact          Qualifier = ""
	Less           Qualifier = "<"
	LessOrEqual    Qualifier = "<="
	Greater        Qualifier = ">"
	GreaterOrEqual Qualifier = ">="
)

// qualifiers is ordered so two-character prefixes match before one.
var qualifiers = []Qualifier{LessOrEqual, GreaterOrEqual, Less, Greater}

var two = decimal.NewFromInt(2)

// Measurement is a numeric raw result: an MIC in mg/L or a zone diameter in mm.
type Measurement struct {
	Qualifier Qualifier       `json:"qualifier,omitempty"`
	Value     decimal.Decimal `json:"value"`
	Unit      string          `json:"unit,omitempty"`
}

// ParseMeasurement reads values such as "0.25", "<=0.5", ">32" or "=18".
func ParseMeasurement(value, unit string) (Measurement, error) {
	s := strings.TrimSpace(value)
	m := Measurement{Unit: strings.TrimSpace(unit)}

	for _, q := range qualifiers {
		if strings.HasPrefix(s, string(q)) {
			m.Qualifier = q
			s = strings.TrimSpace(s[len(q):])
			break
		}
	}
	if m.Qualifier == Exact {
		s = strings.TrimSpace(strings.TrimPrefix(s, "="))
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Measurement{}, fmt.Errorf("measurement %q: %w", value, domain.ErrInvalidRawResult)
	}
	if d.IsNegative() {
		return Measurement{}, fmt.Errorf("measurement %q is negative: %w", value, domain.ErrInvalidRawResult)
	}
	m.Value = d
	return m, nil
}

// effective returns the value compared against breakpoints. Strictly
// off-scale MICs move one doubling dilution past the reported value; zone
// diameters are compared as reported.
func (m Measurement) effective(method domain.TestMethod) decimal.Decimal {
	if method != domain.MIC {
		return m.Value
	}
	switch m.Qualifier {
	case Greater:
		return m.Value.Mul(two)
	case Less:
		return m.Value.Div(two)
	default:
		return m.Value
	}
}

func (m Measurement) String() string {
	s := string(m.Qualifier) + m.Value.String()
	if m.Unit != "" {
		s += " " + m.Unit
	}
	return s
}
