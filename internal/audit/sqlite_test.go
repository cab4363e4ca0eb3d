package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgps-group/AMRIE/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "audit", "decisions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleDecision() (domain.Request, *domain.Decision) {
	req := domain.Request{
		OrganismCode:   "ORG1",
		AntibioticCode: "AMP_NM",
		Raw:            domain.RawResult{Category: "S"},
		Related:        map[string]domain.Category{"OXA": domain.Resistant},
	}
	d := &domain.Decision{
		OrganismCode:   "ORG2",
		RequestedCode:  "ORG1",
		Antibiotic:     domain.AntibioticIdentifier{BaseCode: "AMP", Guideline: domain.CLSI, TestMethod: domain.MIC},
		RawCategory:    domain.Susceptible,
		FinalCategory:  domain.Resistant,
		AppliedRuleIDs: []string{"MRS_BETALACTAM"},
		Flags:          []domain.Flag{domain.FlagOrganismMerged, domain.FlagMethicillinResistance},
	}
	return req, d
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "audit.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
	assert.Equal(t, dbPath, store.Path())
}

func TestNewRecord(t *testing.T) {
	req, d := sampleDecision()
	r := NewRecord(req, d)

	assert.Len(t, r.ID, 36)
	assert.Equal(t, "ORG2", r.OrganismCode)
	assert.Equal(t, "ORG1", r.RequestedCode)
	assert.Equal(t, "AMP_NM", r.AntibioticCode)
	assert.Equal(t, "AMP", r.BaseCode)
	assert.Equal(t, "S", r.RawValue)
	assert.NotEqual(t, r.ID, NewRecord(req, d).ID)

	req.Raw = domain.RawResult{Value: "<=0.5", Unit: "mg/L"}
	assert.Equal(t, "<=0.5 mg/L", NewRecord(req, d).RawValue)
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	req, d := sampleDecision()
	record := NewRecord(req, d)
	require.NoError(t, store.Save(ctx, record))
	assert.False(t, record.CreatedAt.IsZero(), "CreatedAt should be set")

	got, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "ORG2", got.OrganismCode)
	assert.Equal(t, "ORG1", got.RequestedCode)
	assert.Equal(t, domain.CLSI, got.Guideline)
	assert.Equal(t, domain.MIC, got.TestMethod)
	assert.Equal(t, domain.Susceptible, got.RawCategory)
	assert.Equal(t, domain.Resistant, got.FinalCategory)
	assert.Equal(t, []string{"MRS_BETALACTAM"}, got.AppliedRuleIDs)
	assert.Equal(t, []domain.Flag{domain.FlagOrganismMerged, domain.FlagMethicillinResistance}, got.Flags)

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// IDs are unique.
	assert.Error(t, store.Save(ctx, record))
}

func TestSQLiteStore_ListAndCount(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 5 {
		req, d := sampleDecision()
		d.AppliedRuleIDs = nil
		d.Flags = nil
		r := NewRecord(req, d)
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, r))
		ids = append(ids, r.ID)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	page, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID, "newest first")
	assert.Equal(t, ids[3], page[1].ID)
	assert.Equal(t, []string{}, page[0].AppliedRuleIDs)
	assert.Equal(t, []domain.Flag{}, page[0].Flags)

	rest, err := store.List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestSQLiteStore_DatabaseErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS decisions").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := newSQLiteStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	req, d := sampleDecision()

	mock.ExpectExec("INSERT INTO decisions").WillReturnError(errors.New("disk I/O error"))
	err = store.Save(ctx, NewRecord(req, d))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert")

	mock.ExpectQuery("SELECT id, organism_code").WillReturnError(errors.New("database is locked"))
	_, err = store.List(ctx, 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query")

	mock.ExpectQuery("SELECT id, organism_code").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organism_code", "requested_code", "antibiotic_code", "base_code",
			"guideline", "test_method", "raw_value", "raw_category", "final_category",
			"applied_rule_ids", "flags", "created_at",
		}).AddRow("abc", "sau", "", "CIP_NM", "CIP", "CLSI", "MIC", "S", "S", "S", "not json", "[]", time.Now()))
	_, err = store.Get(ctx, "abc")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_SchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("read-only database"))
	_, err = newSQLiteStore(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create schema")
}
