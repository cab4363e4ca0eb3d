package catalog

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cgps-group/AMRIE/internal/domain"
)

const antibioticSource = "antibiotics"

// Antibiotic catalog column names.
const (
	colAbxCode      = "WHONET_ABX_CODE"
	colWHOCode      = "WHO_CODE"
	colDINCode      = "DIN_CODE"
	colJACCode      = "JAC_CODE"
	colEUCASTCode   = "EUCAST_CODE"
	colUserCode     = "USER_CODE"
	colAntibiotic   = "ANTIBIOTIC"
	colGuidelines   = "GUIDELINES"
	colAbxNumber    = "ABX_NUMBER"
	colPotency      = "POTENCY"
	colATCCode      = "ATC_CODE"
	colClass        = "CLASS"
	colProfClass    = "PROF_CLASS"
	colCIACategory  = "CIA_CATEGORY"
	colCLSIOrder    = "CLSI_ORDER"
	colEUCASTOrder  = "EUCAST_ORDER"
	colHuman        = "HUMAN"
	colVeterinary   = "VETERINARY"
	colAnimalGP     = "ANIMAL_GP"
	colLOINCComp    = "LOINCCOMP"
	colLOINCGen     = "LOINCGEN"
	colLOINCDisk    = "LOINCDISK"
	colLOINCMIC     = "LOINCMIC"
	colLOINCETest   = "LOINCETEST"
	colLOINCSlow    = "LOINCSLOW"
	colLOINCAFB     = "LOINCAFB"
	colLOINCSBT     = "LOINCSBT"
	colLOINCMLC     = "LOINCMLC"
	colDateEntered  = "DATE_ENTERED"
	colDateModified = "DATE_MODIFIED"
	colComments     = "COMMENTS"
)

// AntibioticColumns lists the header columns an antibiotic source must carry.
// Guideline applicability columns are named after the guideline itself.
var AntibioticColumns = func() []string {
	cols := []string{
		colAbxCode, colWHOCode, colDINCode, colJACCode, colEUCASTCode, colUserCode,
		colAntibiotic, colGuidelines,
	}
	for _, g := range domain.AllGuidelines {
		cols = append(cols, string(g))
	}
	return append(cols,
		colAbxNumber, colPotency, colATCCode, colClass, colProfClass, colCIACategory,
		colCLSIOrder, colEUCASTOrder, colHuman, colVeterinary, colAnimalGP,
		colLOINCComp, colLOINCGen, colLOINCDisk, colLOINCMIC, colLOINCETest,
		colLOINCSlow, colLOINCAFB, colLOINCSBT, colLOINCMLC,
		colDateEntered, colDateModified, colComments,
	)
}()

// AntibioticCatalog is the immutable table of known antibiotics. It is safe
// for concurrent readers; records it hands out must not be modified.
type AntibioticCatalog struct {
	records []domain.Antibiotic
	byCode  map[string]int
}

// LoadAntibiotics reads an antibiotic catalog. Any malformed row, duplicate
// drug code or class outside the controlled vocabularies fails the load.
func LoadAntibiotics(r io.Reader, opts ...Option) (*AntibioticCatalog, error) {
	o := buildOptions(opts)

	t, err := readTable(antibioticSource, r, AntibioticColumns)
	if err != nil {
		return nil, fmt.Errorf("loading antibiotic catalog: %w", err)
	}

	classes := newVocabulary(o.classes)
	profClasses := newVocabulary(o.profClass)

	c := &AntibioticCatalog{
		records: make([]domain.Antibiotic, 0, len(t.rows)),
		byCode:  make(map[string]int, len(t.rows)),
	}

	for _, row := range t.rows {
		abx, err := parseAntibiotic(row, classes, profClasses)
		if err != nil {
			return nil, fmt.Errorf("loading antibiotic catalog: %w", err)
		}
		if _, dup := c.byCode[abx.Code]; dup {
			return nil, fmt.Errorf("loading antibiotic catalog: %w",
				row.errorf(colAbxCode, "duplicate drug code %q", abx.Code))
		}
		c.byCode[abx.Code] = len(c.records)
		c.records = append(c.records, abx)
	}

	o.logger.WithFields(logrus.Fields{
		"source":      antibioticSource,
		"antibiotics": len(c.records),
	}).Info("Loaded antibiotic catalog")

	return c, nil
}

func parseAntibiotic(row row, classes, profClasses vocabulary) (domain.Antibiotic, error) {
	code := strings.TrimSpace(row.get(colAbxCode))
	if code == "" {
		return domain.Antibiotic{}, row.errorf(colAbxCode, "drug code is empty")
	}

	class := row.get(colClass)
	if !classes.allows(class) {
		return domain.Antibiotic{}, row.errorf(colClass, "class %q is not in the controlled vocabulary", class)
	}
	profClass := row.get(colProfClass)
	if !profClasses.allows(profClass) {
		return domain.Antibiotic{}, row.errorf(colProfClass, "professional class %q is not in the controlled vocabulary", profClass)
	}

	entered, err := row.date(colDateEntered)
	if err != nil {
		return domain.Antibiotic{}, err
	}
	modified, err := row.date(colDateModified)
	if err != nil {
		return domain.Antibiotic{}, err
	}

	applicability := make(map[domain.Guideline]bool, len(domain.AllGuidelines))
	for _, g := range domain.AllGuidelines {
		applicability[g] = row.flag(string(g))
	}

	return domain.Antibiotic{
		Code:          code,
		WHOCode:       row.get(colWHOCode),
		DINCode:       row.get(colDINCode),
		JACCode:       row.get(colJACCode),
		EUCASTCode:    row.get(colEUCASTCode),
		UserCode:      row.get(colUserCode),
		Name:          row.get(colAntibiotic),
		Guidelines:    row.get(colGuidelines),
		Applicability: applicability,
		Number:        row.get(colAbxNumber),
		Potency:       row.get(colPotency),
		ATCCode:       row.get(colATCCode),
		Class:         class,
		ProfClass:     profClass,
		CIACategory:   row.get(colCIACategory),
		CLSIOrder:     row.get(colCLSIOrder),
		EUCASTOrder:   row.get(colEUCASTOrder),
		Human:         row.flag(colHuman),
		Veterinary:    row.flag(colVeterinary),
		AnimalGP:      row.flag(colAnimalGP),
		LOINC: domain.LOINCCodes{
			Component: row.get(colLOINCComp),
			General:   row.get(colLOINCGen),
			Disk:      row.get(colLOINCDisk),
			MIC:       row.get(colLOINCMIC),
			ETest:     row.get(colLOINCETest),
			Slow:      row.get(colLOINCSlow),
			AFB:       row.get(colLOINCAFB),
			SBT:       row.get(colLOINCSBT),
			MLC:       row.get(colLOINCMLC),
		},
		DateEntered:  entered,
		DateModified: modified,
		Comments:     row.get(colComments),
	}, nil
}

// Lookup returns the antibiotic with the given drug code.
func (c *AntibioticCatalog) Lookup(code string) (*domain.Antibiotic, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return nil, false
	}
	return &c.records[i], true
}

// All yields every antibiotic in load order. The sequence can be ranged over
// any number of times.
func (c *AntibioticCatalog) All() iter.Seq[*domain.Antibiotic] {
	return func(yield func(*domain.Antibiotic) bool) {
		for i := range c.records {
			if !yield(&c.records[i]) {
				return
			}
		}
	}
}

// Len returns the number of antibiotics in the catalog.
func (c *AntibioticCatalog) Len() int {
	return len(c.records)
}
