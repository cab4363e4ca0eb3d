// Package catalogtest builds synthetic reference catalogs for tests.
package catalogtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cgps-group/AMRIE/internal/catalog"
	"github.com/cgps-group/AMRIE/internal/domain"
)

// Drug describes one antibiotic row.
type Drug struct {
	Code       string
	Name       string
	Class      string
	ProfClass  string
	Guidelines []domain.Guideline
	Entered    string
}

// Org describes one organism row.
type Org struct {
	Code       string
	Name       string
	Status     string
	Type       string
	Family     string
	Genus      string
	ReplacedBy string
}

// DefaultGuidelines are applied to drugs that do not list their own.
var DefaultGuidelines = []domain.Guideline{domain.CLSI, domain.EUCAST, domain.SFM}

// Drugs is the standard synthetic antibiotic set.
var Drugs = []Drug{
	{Code: "OXA", Name: "Oxacillin", Class: "Penicillins", ProfClass: "PENASE_STABLE"},
	{Code: "FOX", Name: "Cefoxitin", Class: "Cephems", ProfClass: "CEPHAMYCIN"},
	{Code: "AMP", Name: "Ampicillin", Class: "Penicillins", ProfClass: "AMINOPEN"},
	{Code: "AMC", Name: "Amoxicillin/clavulanic acid", Class: "Beta-lactam+Inhibitors", ProfClass: "BLI"},
	{Code: "CRO", Name: "Ceftriaxone", Class: "Cephems", ProfClass: "CEPH3"},
	{Code: "CTX", Name: "Cefotaxime", Class: "Cephems", ProfClass: "CEPH3"},
	{Code: "CAZ", Name: "Ceftazidime", Class: "Cephems", ProfClass: "CEPH3"},
	{Code: "CPT", Name: "Ceftaroline", Class: "Cephems", ProfClass: "CEPH5"},
	{Code: "BPR", Name: "Ceftobiprole", Class: "Cephems", ProfClass: "CEPH5"},
	{Code: "CFR", Name: "Cefaclor", Class: "Cephems-Oral", ProfClass: "CEPH2", Guidelines: []domain.Guideline{domain.CLSI}},
	{Code: "MEM", Name: "Meropenem", Class: "Penems", ProfClass: "CARBAPENEM"},
	{Code: "ATM", Name: "Aztreonam", Class: "Monobactams", ProfClass: "MONOBACTAM"},
	{Code: "ERY", Name: "Erythromycin", Class: "Macrolides", ProfClass: "MACROLIDE"},
	{Code: "CLI", Name: "Clindamycin", Class: "Lincosamides", ProfClass: "LINCOSAMIDE"},
	{Code: "SYN", Name: "Quinupristin/dalfopristin", Class: "Streptogramins", ProfClass: "STREPTOGRAMIN"},
	{Code: "CIP", Name: "Ciprofloxacin", Class: "Quinolones", ProfClass: "FLUOROQUINOLONE"},
	{Code: "VAN", Name: "Vancomycin", Class: "Glycopeptides", ProfClass: "GLYCOPEPTIDE"},
	{Code: "GEN", Name: "Gentamicin", Class: "Aminoglycosides", ProfClass: "AMINOGLYCOSIDE"},
	{Code: "COL", Name: "Colistin", Class: "Polymyxins", ProfClass: "POLYMYXIN", Entered: "2012-05-01"},
}

// Orgs is the standard synthetic organism set, including deprecated codes.
var Orgs = []Org{
	{Code: "sau", Name: "Staphylococcus aureus", Type: "+", Family: "Staphylococcaceae", Genus: "Staphylococcus"},
	{Code: "sep", Name: "Staphylococcus epidermidis", Type: "+", Family: "Staphylococcaceae", Genus: "Staphylococcus"},
	{Code: "ORG2", Name: "Staphylococcus sp.", Type: "+", Family: "Staphylococcaceae", Genus: "Staphylococcus"},
	{Code: "spy", Name: "Streptococcus pyogenes", Type: "+", Family: "Streptococcaceae", Genus: "Streptococcus"},
	{Code: "eco", Name: "Escherichia coli", Type: "-", Family: "Enterobacteriaceae", Genus: "Escherichia"},
	{Code: "ecl", Name: "Enterobacter cloacae", Type: "-", Family: "Enterobacteriaceae", Genus: "Enterobacter"},
	{Code: "kpn", Name: "Klebsiella pneumoniae", Type: "-", Family: "Enterobacteriaceae", Genus: "Klebsiella"},
	{Code: "pae", Name: "Pseudomonas aeruginosa", Type: "-", Family: "Pseudomonadaceae", Genus: "Pseudomonas"},
	{Code: "can", Name: "Candida albicans", Type: "F", Family: "Debaryomycetaceae", Genus: "Candida"},
	{Code: "ORG1", Name: "Staphylococcus old name", Status: "S", Type: "+", Genus: "Staphylococcus", ReplacedBy: "ORG2"},
	{Code: "ORG1", Name: "Staphylococcus older name", Status: "S", Type: "+", Genus: "Staphylococcus", ReplacedBy: "sep"},
	{Code: "eae", Name: "Enterobacter aerogenes", Status: "S", Type: "-", Genus: "Enterobacter", ReplacedBy: "ecl"},
	{Code: "CH1", Name: "Chained name", Status: "S", Type: "-", ReplacedBy: "CH2"},
	{Code: "CH2", Name: "Chained intermediate", Status: "S", Type: "-", ReplacedBy: "eco"},
	{Code: "xxo", Name: "Withdrawn name", Status: "O", Type: "-"},
}

// AntibioticsTSV renders drugs as a tab-delimited antibiotic source.
func AntibioticsTSV(drugs ...Drug) string {
	var b strings.Builder
	b.WriteString(strings.Join(catalog.AntibioticColumns, "\t"))
	b.WriteString("\n")
	for _, d := range drugs {
		guidelines := d.Guidelines
		if guidelines == nil {
			guidelines = DefaultGuidelines
		}
		cells := make([]string, len(catalog.AntibioticColumns))
		for i, col := range catalog.AntibioticColumns {
			switch col {
			case "WHONET_ABX_CODE":
				cells[i] = d.Code
			case "ANTIBIOTIC":
				cells[i] = d.Name
			case "CLASS":
				cells[i] = d.Class
			case "PROF_CLASS":
				cells[i] = d.ProfClass
			case "HUMAN":
				cells[i] = catalog.Marker
			case "DATE_ENTERED":
				cells[i] = d.Entered
			default:
				for _, g := range guidelines {
					if col == string(g) {
						cells[i] = catalog.Marker
					}
				}
			}
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

// OrganismsTSV renders orgs as a tab-delimited organism source.
func OrganismsTSV(orgs ...Org) string {
	var b strings.Builder
	b.WriteString(strings.Join(catalog.OrganismColumns, "\t"))
	b.WriteString("\n")
	for _, o := range orgs {
		status := o.Status
		if status == "" {
			status = domain.CurrentTaxonomicStatus
		}
		cells := make([]string, len(catalog.OrganismColumns))
		for i, col := range catalog.OrganismColumns {
			switch col {
			case "WHONET_ORG_CODE":
				cells[i] = o.Code
			case "ORGANISM":
				cells[i] = o.Name
			case "TAXONOMIC_STATUS":
				cells[i] = status
			case "ORGANISM_TYPE":
				cells[i] = o.Type
			case "KINGDOM":
				cells[i] = "Bacteria"
			case "FAMILY":
				cells[i] = o.Family
			case "GENUS":
				cells[i] = o.Genus
			case "REPLACED_BY":
				cells[i] = o.ReplacedBy
			}
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

// Antibiotics loads the standard antibiotic set.
func Antibiotics(t testing.TB) *catalog.AntibioticCatalog {
	t.Helper()
	c, err := catalog.LoadAntibiotics(strings.NewReader(AntibioticsTSV(Drugs...)))
	require.NoError(t, err)
	return c
}

// Organisms loads the standard organism set.
func Organisms(t testing.TB) *catalog.OrganismCatalog {
	t.Helper()
	c, err := catalog.LoadOrganisms(strings.NewReader(OrganismsTSV(Orgs...)))
	require.NoError(t, err)
	return c
}
