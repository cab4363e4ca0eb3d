package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cgps-group/AMRIE/internal/domain"
)

const organismSource = "organisms"

// Organism catalog column names.
const (
	colOrgCode         = "WHONET_ORG_CODE"
	colOrganism        = "ORGANISM"
	colTaxonomicStatus = "TAXONOMIC_STATUS"
	colCommon          = "COMMON"
	colOrganismType    = "ORGANISM_TYPE"
	colAnaerobe        = "ANAEROBE"
	colMorphology      = "MORPHOLOGY"
	colSubkingdomCode  = "SUBKINGDOM_CODE"
	colFamilyCode      = "FAMILY_CODE"
	colGenusGroup      = "GENUS_GROUP"
	colGenusCode       = "GENUS_CODE"
	colSpeciesGroup    = "SPECIES_GROUP"
	colSerovarGroup    = "SEROVAR_GROUP"
	colSCTCode         = "SCT_CODE"
	colSCTText         = "SCT_TEXT"
	colGBIFTaxonID     = "GBIF_TAXON_ID"
	colGBIFDatasetID   = "GBIF_DATASET_ID"
	colGBIFStatus      = "GBIF_TAXONOMIC_STATUS"
	colKingdom         = "KINGDOM"
	colPhylum          = "PHYLUM"
	colTaxClass        = "CLASS"
	colOrder           = "ORDER"
	colFamily          = "FAMILY"
	colGenus           = "GENUS"
	colReplacedBy      = "REPLACED_BY"
)

// OrganismColumns lists the header columns an organism source must carry.
var OrganismColumns = []string{
	colOrgCode, colOrganism, colTaxonomicStatus, colCommon, colOrganismType, colAnaerobe,
	colMorphology, colSubkingdomCode, colFamilyCode, colGenusGroup, colGenusCode,
	colSpeciesGroup, colSerovarGroup, colSCTCode, colSCTText, colGBIFTaxonID,
	colGBIFDatasetID, colGBIFStatus, colKingdom, colPhylum, colTaxClass, colOrder,
	colFamily, colGenus, colReplacedBy,
}

// OrganismCatalog holds the current organism taxonomy and the redirect map
// from deprecated codes to the codes that replaced them.
type OrganismCatalog struct {
	current map[string]*domain.Organism
	merged  map[string]string
}

// LoadOrganisms reads an organism catalog. Only current rows become records;
// deprecated rows contribute at most a redirect entry.
func LoadOrganisms(r io.Reader, opts ...Option) (*OrganismCatalog, error) {
	o := buildOptions(opts)

	t, err := readTable(organismSource, r, OrganismColumns)
	if err != nil {
		return nil, fmt.Errorf("loading organism catalog: %w", err)
	}

	current, err := loadCurrentOrganisms(t)
	if err != nil {
		return nil, fmt.Errorf("loading organism catalog: %w", err)
	}

	c := &OrganismCatalog{
		current: current,
		merged:  loadMergedOrganisms(t),
	}

	o.logger.WithFields(logrus.Fields{
		"source":  organismSource,
		"current": len(c.current),
		"merged":  len(c.merged),
	}).Info("Loaded organism catalog")

	return c, nil
}

// loadCurrentOrganisms keeps rows whose taxonomic status is current.
func loadCurrentOrganisms(t *table) (map[string]*domain.Organism, error) {
	current := make(map[string]*domain.Organism)
	for _, row := range t.rows {
		if row.get(colTaxonomicStatus) != domain.CurrentTaxonomicStatus {
			continue
		}

		code := strings.TrimSpace(row.get(colOrgCode))
		if code == "" {
			return nil, row.errorf(colOrgCode, "organism code is empty")
		}
		if _, dup := current[code]; dup {
			return nil, row.errorf(colOrgCode, "duplicate current organism code %q", code)
		}

		current[code] = &domain.Organism{
			Code:              code,
			Name:              row.get(colOrganism),
			TaxonomicStatus:   domain.CurrentTaxonomicStatus,
			Common:            row.flag(colCommon),
			Type:              row.get(colOrganismType),
			Anaerobe:          row.flag(colAnaerobe),
			Morphology:        row.get(colMorphology),
			SubkingdomCode:    row.get(colSubkingdomCode),
			FamilyCode:        row.get(colFamilyCode),
			GenusGroup:        row.get(colGenusGroup),
			GenusCode:         row.get(colGenusCode),
			SpeciesGroup:      row.get(colSpeciesGroup),
			SerovarGroup:      row.get(colSerovarGroup),
			SCTCode:           row.get(colSCTCode),
			SCTText:           row.get(colSCTText),
			GBIFTaxonID:       row.get(colGBIFTaxonID),
			GBIFDatasetID:     row.get(colGBIFDatasetID),
			GBIFTaxonomicStat: row.get(colGBIFStatus),
			Kingdom:           row.get(colKingdom),
			Phylum:            row.get(colPhylum),
			Class:             row.get(colTaxClass),
			Order:             row.get(colOrder),
			Family:            row.get(colFamily),
			Genus:             row.get(colGenus),
		}
	}
	return current, nil
}

// loadMergedOrganisms maps deprecated codes to their replacement. The first
// mapping seen for a code wins, and self references are ignored.
func loadMergedOrganisms(t *table) map[string]string {
	merged := make(map[string]string)
	for _, row := range t.rows {
		if row.get(colTaxonomicStatus) == domain.CurrentTaxonomicStatus {
			continue
		}
		oldCode := strings.TrimSpace(row.get(colOrgCode))
		newCode := strings.TrimSpace(row.get(colReplacedBy))
		if oldCode == "" || newCode == "" || oldCode == newCode {
			continue
		}
		if _, seen := merged[oldCode]; !seen {
			merged[oldCode] = newCode
		}
	}
	return merged
}

// LookupCurrent returns the current organism with the given code.
func (c *OrganismCatalog) LookupCurrent(code string) (*domain.Organism, bool) {
	org, ok := c.current[code]
	return org, ok
}

// ResolveMerge returns the code that replaced a deprecated code. Only one
// redirect hop is followed.
func (c *OrganismCatalog) ResolveMerge(code string) (string, bool) {
	target, ok := c.merged[code]
	return target, ok
}

// Resolve finds the current organism for code, following at most one merge
// redirect. merged reports whether a redirect was used.
func (c *OrganismCatalog) Resolve(code string) (org *domain.Organism, merged bool, err error) {
	if org, ok := c.current[code]; ok {
		return org, false, nil
	}
	if target, ok := c.merged[code]; ok {
		if org, ok := c.current[target]; ok {
			return org, true, nil
		}
		return nil, false, fmt.Errorf("organism %q redirects to %q which is not current: %w", code, target, domain.ErrUnknownOrganism)
	}
	return nil, false, fmt.Errorf("organism %q: %w", code, domain.ErrUnknownOrganism)
}

// CurrentCount returns the number of current organisms.
func (c *OrganismCatalog) CurrentCount() int {
	return len(c.current)
}

// MergedCount returns the number of deprecated codes with a redirect.
func (c *OrganismCatalog) MergedCount() int {
	return len(c.merged)
}
