// Package setup assembles the interpretation runtime from configuration:
// catalogs, classification groups, rule tables, breakpoints, the rule engine
// and the optional audit trail.
package setup

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cgps-group/AMRIE/internal/audit"
	"github.com/cgps-group/AMRIE/internal/breakpoint"
	"github.com/cgps-group/AMRIE/internal/catalog"
	"github.com/cgps-group/AMRIE/internal/classification"
	"github.com/cgps-group/AMRIE/internal/codes"
	"github.com/cgps-group/AMRIE/internal/config"
	"github.com/cgps-group/AMRIE/internal/rules"
	"github.com/cgps-group/AMRIE/internal/service"
)

// Runtime is a fully wired interpreter and the parts it was built from.
type Runtime struct {
	Antibiotics *catalog.AntibioticCatalog
	Organisms   *catalog.OrganismCatalog
	Index       *classification.Index
	Tables      *rules.Tables
	Breakpoints *breakpoint.Table
	Decoder     *codes.Decoder
	Engine      *service.ExpertRuleEngine
	Interpreter *service.Interpreter

	// Decisions is nil when the audit trail is disabled.
	Decisions audit.Store
}

// Build loads every reference source named by cfg. Any source that fails to
// load aborts startup.
func Build(cfg *config.Config, logger *logrus.Logger) (*Runtime, error) {
	antibiotics, organisms, err := LoadCatalogs(cfg.Catalog, logger)
	if err != nil {
		return nil, err
	}

	tables, err := rules.LoadFile(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}

	bp := breakpoint.NewTable()
	if cfg.Breakpoints.Path != "" {
		if bp, err = breakpoint.LoadFile(cfg.Breakpoints.Path); err != nil {
			return nil, err
		}
	}

	decoder, err := codes.NewDecoder(cfg.Cache.DecodeSize, logger)
	if err != nil {
		return nil, err
	}

	index := classification.NewIndex(antibiotics)
	engine := service.NewExpertRuleEngine(logger, index, tables)

	rt := &Runtime{
		Antibiotics: antibiotics,
		Organisms:   organisms,
		Index:       index,
		Tables:      tables,
		Breakpoints: bp,
		Decoder:     decoder,
		Engine:      engine,
	}

	deps := service.InterpreterDeps{
		Organisms:   organisms,
		Antibiotics: antibiotics,
		Decoder:     decoder,
		Engine:      engine,
		Breakpoints: bp,
	}
	if cfg.Audit.Enabled {
		store, err := audit.NewSQLiteStore(cfg.Audit.DBPath)
		if err != nil {
			return nil, err
		}
		rt.Decisions = store
		deps.Recorder = audit.NewRecorder(store, logger, audit.RecorderConfig{})
		logger.WithField("db_path", store.Path()).Info("Decision audit enabled")
	}

	rt.Interpreter = service.NewInterpreter(logger, deps, cfg.Engine.MaxConcurrency)

	logger.WithFields(logrus.Fields{
		"antibiotics":  antibiotics.Len(),
		"organisms":    organisms.CurrentCount(),
		"breakpoints":  bp.Len(),
		"rules":        len(engine.Rules()),
		"audit":        cfg.Audit.Enabled,
		"decode_cache": cfg.Cache.DecodeSize,
	}).Info("Interpretation runtime ready")

	return rt, nil
}

// LoadCatalogs opens and loads both reference catalogs.
func LoadCatalogs(cfg config.CatalogConfig, logger *logrus.Logger) (*catalog.AntibioticCatalog, *catalog.OrganismCatalog, error) {
	af, err := os.Open(cfg.AntibioticsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open antibiotic catalog: %w", err)
	}
	defer af.Close()

	antibiotics, err := catalog.LoadAntibiotics(af, catalog.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	of, err := os.Open(cfg.OrganismsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open organism catalog: %w", err)
	}
	defer of.Close()

	organisms, err := catalog.LoadOrganisms(of, catalog.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	return antibiotics, organisms, nil
}

// Close releases the audit store, if any.
func (r *Runtime) Close() error {
	if r.Decisions == nil {
		return nil
	}
	return r.Decisions.Close()
}

// CatalogStatus summarizes loaded reference data.
type CatalogStatus struct {
	Antibiotics      int      `json:"antibiotics"`
	CurrentOrganisms int      `json:"current_organisms"`
	MergedOrganisms  int      `json:"merged_organisms"`
	Ceph3            []string `json:"ceph3"`
	BetaLactamBroad  []string `json:"beta_lactam_broad"`
	MLS              []string `json:"mls"`
}

// CheckCatalogs loads both catalogs and reports their sizes and the fixed
// drug groups derived from them.
func CheckCatalogs(cfg config.CatalogConfig, logger *logrus.Logger) (*CatalogStatus, error) {
	antibiotics, organisms, err := LoadCatalogs(cfg, logger)
	if err != nil {
		return nil, err
	}
	index := classification.NewIndex(antibiotics)

	status := &CatalogStatus{
		Antibiotics:      antibiotics.Len(),
		CurrentOrganisms: organisms.CurrentCount(),
		MergedOrganisms:  organisms.MergedCount(),
		Ceph3:            index.Ceph3().Codes(),
		BetaLactamBroad:  index.BetaLactamBroad().Codes(),
		MLS:              index.MLS().Codes(),
	}
	if status.Antibiotics == 0 {
		return status, errors.New("antibiotic catalog is empty")
	}
	if status.CurrentOrganisms == 0 {
		return status, errors.New("organism catalog has no current organisms")
	}
	return status, nil
}
