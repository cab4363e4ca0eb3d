package catalog_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgps-group/AMRIE/internal/catalog"
	"github.com/cgps-group/AMRIE/internal/catalog/catalogtest"
	"github.com/cgps-group/AMRIE/internal/domain"
)

func TestLoadAntibiotics(t *testing.T) {
	c := catalogtest.Antibiotics(t)

	assert.Equal(t, len(catalogtest.Drugs), c.Len())

	cip, ok := c.Lookup("CIP")
	require.True(t, ok)
	assert.Equal(t, "Ciprofloxacin", cip.Name)
	assert.Equal(t, "Quinolones", cip.Class)
	assert.True(t, cip.Human)
	assert.False(t, cip.Veterinary)
	assert.True(t, cip.AppliesTo(domain.CLSI))
	assert.True(t, cip.AppliesTo(domain.EUCAST))
	assert.False(t, cip.AppliesTo(domain.BSAC))
	assert.True(t, cip.DateEntered.IsZero(), "blank date should read as the minimum date")

	cfr, ok := c.Lookup("CFR")
	require.True(t, ok)
	assert.True(t, cfr.AppliesTo(domain.CLSI))
	assert.False(t, cfr.AppliesTo(domain.EUCAST))

	col, ok := c.Lookup("COL")
	require.True(t, ok)
	assert.Equal(t, time.Date(2012, 5, 1, 0, 0, 0, 0, time.UTC), col.DateEntered)

	_, ok = c.Lookup("NOPE")
	assert.False(t, ok)
}

func TestAntibioticCatalog_AllPreservesLoadOrder(t *testing.T) {
	c := catalogtest.Antibiotics(t)

	var codes []string
	for abx := range c.All() {
		codes = append(codes, abx.Code)
	}
	require.Len(t, codes, len(catalogtest.Drugs))
	for i, d := range catalogtest.Drugs {
		assert.Equal(t, d.Code, codes[i])
	}

	// The sequence is restartable.
	var again int
	for range c.All() {
		again++
	}
	assert.Equal(t, len(codes), again)
}

func TestLoadAntibiotics_Failures(t *testing.T) {
	header := strings.Join(catalog.AntibioticColumns, "\t")

	tests := []struct {
		name   string
		source string
		column string
	}{
		{
			name:   "empty source",
			source: "",
		},
		{
			name:   "missing required column",
			source: strings.Replace(header, "PROF_CLASS", "PROFESSIONAL_CLASS", 1) + "\n",
			column: "PROF_CLASS",
		},
		{
			name:   "duplicate column",
			source: header + "\tCLASS\n",
			column: "CLASS",
		},
		{
			name:   "wrong column count",
			source: header + "\nCIP\tCiprofloxacin\n",
		},
		{
			name: "duplicate drug code",
			source: catalogtest.AntibioticsTSV(
				catalogtest.Drug{Code: "CIP", Name: "Ciprofloxacin", Class: "Quinolones"},
				catalogtest.Drug{Code: "CIP", Name: "Ciprofloxacin again", Class: "Quinolones"},
			),
			column: "WHONET_ABX_CODE",
		},
		{
			name:   "empty drug code",
			source: catalogtest.AntibioticsTSV(catalogtest.Drug{Name: "Nameless"}),
			column: "WHONET_ABX_CODE",
		},
		{
			name:   "class outside vocabulary",
			source: catalogtest.AntibioticsTSV(catalogtest.Drug{Code: "ZZZ", Class: "Snake oils"}),
			column: "CLASS",
		},
		{
			name:   "professional class outside vocabulary",
			source: catalogtest.AntibioticsTSV(catalogtest.Drug{Code: "ZZZ", ProfClass: "CEPH9"}),
			column: "PROF_CLASS",
		},
		{
			name:   "unparseable date",
			source: catalogtest.AntibioticsTSV(catalogtest.Drug{Code: "ZZZ", Entered: "yesterday"}),
			column: "DATE_ENTERED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := catalog.LoadAntibiotics(strings.NewReader(tt.source))
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, domain.ErrMalformedCatalogRow))

			var rowErr *domain.CatalogRowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, "antibiotics", rowErr.Source)
			assert.Equal(t, tt.column, rowErr.Column)
		})
	}
}

func TestLoadAntibiotics_ToleratesFormatting(t *testing.T) {
	source := catalogtest.AntibioticsTSV(catalogtest.Drug{Code: "CIP", Name: "Ciprofloxacin", Class: "Quinolones"})
	source = "\ufeff" + strings.ReplaceAll(source, "\n", "\r\n") + "\r\n"

	c, err := catalog.LoadAntibiotics(strings.NewReader(source))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Lookup("CIP")
	assert.True(t, ok)
}

func TestLoadAntibiotics_CustomVocabulary(t *testing.T) {
	source := catalogtest.AntibioticsTSV(catalogtest.Drug{Code: "ZZZ", Class: "Snake oils"})

	c, err := catalog.LoadAntibiotics(strings.NewReader(source),
		catalog.WithClassVocabulary([]string{"Snake oils"}))
	require.NoError(t, err)
	abx, ok := c.Lookup("ZZZ")
	require.True(t, ok)
	assert.Equal(t, "Snake oils", abx.Class)
}

func TestLoadOrganisms(t *testing.T) {
	c := catalogtest.Organisms(t)

	var current int
	for _, o := range catalogtest.Orgs {
		if o.Status == "" {
			current++
		}
	}
	assert.Equal(t, current, c.CurrentCount())
	// ORG1 appears twice but only counts once; xxo has no replacement.
	assert.Equal(t, 4, c.MergedCount())

	sau, ok := c.LookupCurrent("sau")
	require.True(t, ok)
	assert.Equal(t, "Staphylococcus aureus", sau.Name)
	assert.Equal(t, "Staphylococcus", sau.Genus)
	assert.Equal(t, "+", sau.Type)
	assert.True(t, sau.IsCurrent())

	_, ok = c.LookupCurrent("ORG1")
	assert.False(t, ok, "deprecated codes are not current records")
	_, ok = c.LookupCurrent("xxo")
	assert.False(t, ok)
}

func TestOrganismCatalog_ResolveMerge(t *testing.T) {
	c := catalogtest.Organisms(t)

	tests := []struct {
		code   string
		target string
		found  bool
	}{
		{"ORG1", "ORG2", true},
		{"eae", "ecl", true},
		{"CH1", "CH2", true},
		{"sau", "", false},
		{"xxo", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			target, ok := c.ResolveMerge(tt.code)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.target, target)
		})
	}
}

func TestOrganismCatalog_Resolve(t *testing.T) {
	c := catalogtest.Organisms(t)

	tests := []struct {
		name    string
		code    string
		want    string
		merged  bool
		wantErr bool
	}{
		{name: "current", code: "sau", want: "sau"},
		{name: "merged", code: "ORG1", want: "ORG2", merged: true},
		{name: "chain is not followed", code: "CH1", wantErr: true},
		{name: "retired without replacement", code: "xxo", wantErr: true},
		{name: "unknown", code: "zzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			org, merged, err := c.Resolve(tt.code)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrUnknownOrganism))
				assert.Nil(t, org)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, org.Code)
			assert.Equal(t, tt.merged, merged)
		})
	}
}

func TestLoadOrganisms_Failures(t *testing.T) {
	tests := []struct {
		name string
		orgs []catalogtest.Org
	}{
		{
			name: "duplicate current code",
			orgs: []catalogtest.Org{
				{Code: "sau", Name: "Staphylococcus aureus"},
				{Code: "sau", Name: "Staphylococcus aureus again"},
			},
		},
		{
			name: "empty current code",
			orgs: []catalogtest.Org{{Name: "Nameless"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.LoadOrganisms(strings.NewReader(catalogtest.OrganismsTSV(tt.orgs...)))
			require.Error(t, err)

			var rowErr *domain.CatalogRowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, "organisms", rowErr.Source)
			assert.Equal(t, "WHONET_ORG_CODE", rowErr.Column)
		})
	}
}

func TestLoadOrganisms_SelfReferenceIgnored(t *testing.T) {
	source := catalogtest.OrganismsTSV(
		catalogtest.Org{Code: "eco", Name: "Escherichia coli"},
		catalogtest.Org{Code: "old", Status: "S", ReplacedBy: "old"},
	)
	c, err := catalog.LoadOrganisms(strings.NewReader(source))
	require.NoError(t, err)

	assert.Equal(t, 0, c.MergedCount())
}
