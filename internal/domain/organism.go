package domain

// Organism is one current entry of the organism taxonomy catalog.
type Organism struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	TaxonomicStatus   string `json:"taxonomic_status"`
	Common            bool   `json:"common"`
	Type              string `json:"organism_type"`
	Anaerobe          bool   `json:"anaerobe"`
	Morphology        string `json:"morphology,omitempty"`
	SubkingdomCode    string `json:"subkingdom_code,omitempty"`
	FamilyCode        string `json:"family_code,omitempty"`
	GenusGroup        string `json:"genus_group,omitempty"`
	GenusCode         string `json:"genus_code,omitempty"`
	SpeciesGroup      string `json:"species_group,omitempty"`
	SerovarGroup      string `json:"serovar_group,omitempty"`
	SCTCode           string `json:"sct_code,omitempty"`
	SCTText           string `json:"sct_text,omitempty"`
	GBIFTaxonID       string `json:"gbif_taxon_id,omitempty"`
	GBIFDatasetID     string `json:"gbif_dataset_id,omitempty"`
	GBIFTaxonomicStat string `json:"gbif_taxonomic_status,omitempty"`
	Kingdom           string `json:"kingdom,omitempty"`
	Phylum            string `json:"phylum,omitempty"`
	Class             string `json:"class,omitempty"`
	Order             string `json:"order,omitempty"`
	Family            string `json:"family,omitempty"`
	Genus             string `json:"genus,omitempty"`
}

// CurrentTaxonomicStatus marks catalog rows that are the canonical taxonomy.
const CurrentTaxonomicStatus = "C"

// IsCurrent reports whether the record is part of the canonical taxonomy.
func (o *Organism) IsCurrent() bool {
	return o.TaxonomicStatus == CurrentTaxonomicStatus
}
