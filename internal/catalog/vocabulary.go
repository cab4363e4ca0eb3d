package catalog

// DefaultClassVocabulary is the controlled list of pharmacological drug
// classes accepted in the CLASS column.
var DefaultClassVocabulary = []string{
	"Aminocyclitols",
	"Aminoglycosides",
	"Ansamycins",
	"Antifungals",
	"Antimycobacterials",
	"Beta-lactam+Inhibitors",
	"Beta-lactamase inhibitors",
	"Cephems",
	"Cephems-Oral",
	"Fluoroquinolones",
	"Folate pathway inhibitors",
	"Fosfomycins",
	"Fusidanes",
	"Glycopeptides",
	"Glycylcyclines",
	"Lincosamides",
	"Lipoglycopeptides",
	"Lipopeptides",
	"Macrolides",
	"Monobactams",
	"Nitrofurans",
	"Nitroimidazoles",
	"Oxazolidinones",
	"Penems",
	"Penicillins",
	"Phenicols",
	"Polymyxins",
	"Pseudomonic acids",
	"Quinolones",
	"Steroidal antibacterials",
	"Streptogramins",
	"Tetracyclines",
	"Other",
}

// DefaultProfClassVocabulary is the controlled list of professional
// (therapeutic) class tags accepted in the PROF_CLASS column.
var DefaultProfClassVocabulary = []string{
	"PEN",
	"AMINOPEN",
	"ANTIPSEUDOPEN",
	"PENASE_STABLE",
	"BLI",
	"CEPH1",
	"CEPH2",
	"CEPH3",
	"CEPH4",
	"CEPH5",
	"CEPHAMYCIN",
	"CARBAPENEM",
	"MONOBACTAM",
	"AMINOGLYCOSIDE",
	"MACROLIDE",
	"LINCOSAMIDE",
	"STREPTOGRAMIN",
	"GLYCOPEPTIDE",
	"LIPOPEPTIDE",
	"OXAZOLIDINONE",
	"QUINOLONE",
	"FLUOROQUINOLONE",
	"TETRACYCLINE",
	"GLYCYLCYCLINE",
	"FOLATE",
	"PHENICOL",
	"POLYMYXIN",
	"NITROFURAN",
	"NITROIMIDAZOLE",
	"FOSFOMYCIN",
	"RIFAMYCIN",
	"ANTIFUNGAL",
	"ANTIMYCOBACTERIAL",
	"OTHER",
}

type vocabulary map[string]struct{}

func newVocabulary(terms []string) vocabulary {
	v := make(vocabulary, len(terms))
	for _, t := range terms {
		v[t] = struct{}{}
	}
	return v
}

// allows reports whether term is blank or part of the vocabulary.
func (v vocabulary) allows(term string) bool {
	if term == "" {
		return true
	}
	_, ok := v[term]
	return ok
}
