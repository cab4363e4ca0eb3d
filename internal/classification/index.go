// Package classification precomputes the drug groupings that expert rules use
// as predicates. Groups are derived from the antibiotic catalog once and then
// shared read-only for the life of the process.
package classification

import (
	"maps"
	"slices"
	"sync"

	"github.com/cgps-group/AMRIE/internal/catalog"
	"github.com/cgps-group/AMRIE/internal/domain"
)

// Group names.
const (
	GroupCeph3           = "CEPH3"
	GroupBetaLactamBroad = "BETA_LACTAM_BROAD"
	GroupMLS             = "MLS"
)

// Ceph3ProfClass is the professional class tag of third-generation
// cephalosporins.
const Ceph3ProfClass = "CEPH3"

// BetaLactamClasses are the pharmacological classes pooled into the broad
// beta-lactam group.
var BetaLactamClasses = []string{
	"Penicillins",
	"Cephems",
	"Cephems-Oral",
	"Monobactams",
	"Penems",
	"Beta-lactam+Inhibitors",
	"Beta-lactamase inhibitors",
}

// BetaLactamExclusions are the anti-MRSA cephalosporins that keep their own
// result when methicillin resistance is detected.
var BetaLactamExclusions = []string{"CPT", "BPR"}

// MLSClasses make up the macrolide, lincosamide and streptogramin family.
var MLSClasses = []string{"Macrolides", "Lincosamides", "Streptogramins"}

// DrugSet is an unordered set of drug codes.
type DrugSet map[string]struct{}

// NewDrugSet builds a set from codes.
func NewDrugSet(codes ...string) DrugSet {
	s := make(DrugSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports whether code is a member.
func (s DrugSet) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

// Len returns the number of members.
func (s DrugSet) Len() int {
	return len(s)
}

// Codes returns the members sorted.
func (s DrugSet) Codes() []string {
	return slices.Sorted(maps.Keys(s))
}

// Predicate selects catalog records.
type Predicate func(*domain.Antibiotic) bool

// Index holds the memoized groups over one antibiotic catalog.
type Index struct {
	catalog *catalog.AntibioticCatalog

	ceph3 DrugSet
	broad DrugSet
	mls   DrugSet

	mu    sync.RWMutex
	named map[string]DrugSet
}

// NewIndex scans the catalog and registers the fixed groups.
func NewIndex(c *catalog.AntibioticCatalog) *Index {
	idx := &Index{
		catalog: c,
		named:   make(map[string]DrugSet),
	}
	idx.ceph3 = idx.Named(GroupCeph3, WithProfClass(Ceph3ProfClass))
	idx.broad = idx.Named(GroupBetaLactamBroad, Excluding(InClasses(BetaLactamClasses...), BetaLactamExclusions...))
	idx.mls = idx.Named(GroupMLS, InClasses(MLSClasses...))
	return idx
}

// Ceph3 returns the third-generation cephalosporins.
func (x *Index) Ceph3() DrugSet { return x.ceph3 }

// BetaLactamBroad returns every beta-lactam except the anti-MRSA
// cephalosporins.
func (x *Index) BetaLactamBroad() DrugSet { return x.broad }

// MLS returns the macrolide, lincosamide and streptogramin family.
func (x *Index) MLS() DrugSet { return x.mls }

// MembersWhere scans the catalog for records matching pred. The result is not
// memoized; use Named for groups that are consulted repeatedly.
func (x *Index) MembersWhere(pred Predicate) DrugSet {
	s := make(DrugSet)
	for abx := range x.catalog.All() {
		if pred(abx) {
			s[abx.Code] = struct{}{}
		}
	}
	return s
}

// Named returns the group registered under name, computing it from pred on
// first use. Later calls with the same name return the memoized set and
// ignore pred.
func (x *Index) Named(name string, pred Predicate) DrugSet {
	x.mu.RLock()
	s, ok := x.named[name]
	x.mu.RUnlock()
	if ok {
		return s
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if s, ok := x.named[name]; ok {
		return s
	}
	s = x.MembersWhere(pred)
	x.named[name] = s
	return s
}

// InClasses matches records whose pharmacological class is one of classes.
func InClasses(classes ...string) Predicate {
	set := NewDrugSet(classes...)
	return func(a *domain.Antibiotic) bool {
		return set.Contains(a.Class)
	}
}

// WithProfClass matches records carrying the professional class tag.
func WithProfClass(tag string) Predicate {
	return func(a *domain.Antibiotic) bool {
		return a.ProfClass == tag
	}
}

// Excluding matches what pred matches, minus the listed drug codes.
func Excluding(pred Predicate, codes ...string) Predicate {
	excluded := NewDrugSet(codes...)
	return func(a *domain.Antibiotic) bool {
		return !excluded.Contains(a.Code) && pred(a)
	}
}
