// Package store persists completed investigations to SQLite. The full
// report is stored as JSON for exact round-trips; summary columns and
// per-entity rows exist so investigations can be listed and queried
// without decoding every report.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
)

// ErrNotFound is returned when no investigation has the requested id.
var ErrNotFound = errors.New("investigation not found")

// Store persists investigation reports.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Investigation is one stored report's summary row.
type Investigation struct {
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Subject   string    `db:"subject_name" json:"subject"`
	City      string    `db:"subject_city" json:",omitempty"`
	State     string    `db:"subject_state" json:",omitempty"`
	ID        int64     `db:"id" json:"id"`
	Confirmed int       `db:"confirmed" json:"confirmed"`
	Possible  int       `db:"possible" json:"possible"`
	Rejected  int       `db:"rejected" json:"rejected"`
}

// Open connects to the SQLite database at path, creating the schema when
// missing. A nil logger defaults to slog.Default().
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS investigations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			subject_name TEXT NOT NULL,
			subject_city TEXT NOT NULL DEFAULT '',
			subject_state TEXT NOT NULL DEFAULT '',
			confirmed INTEGER NOT NULL,
			possible INTEGER NOT NULL,
			rejected INTEGER NOT NULL,
			report_json TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS findings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			investigation_id INTEGER NOT NULL,
			locator TEXT NOT NULL,
			source TEXT NOT NULL,
			category TEXT NOT NULL,
			tier TEXT NOT NULL,
			class TEXT NOT NULL,
			confidence REAL NOT NULL,
			factors TEXT NOT NULL DEFAULT '',
			FOREIGN KEY(investigation_id) REFERENCES investigations(id)
		)`,

		`CREATE TABLE IF NOT EXISTS relatives (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			investigation_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			relation TEXT NOT NULL,
			confidence REAL NOT NULL,
			shared_addresses INTEGER NOT NULL DEFAULT 0,
			overlap_years INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(investigation_id) REFERENCES investigations(id)
		)`,

		`CREATE TABLE IF NOT EXISTS addresses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			investigation_id INTEGER NOT NULL,
			address TEXT NOT NULL,
			confidence REAL NOT NULL,
			matched_subject TEXT NOT NULL DEFAULT '',
			owners TEXT NOT NULL DEFAULT '',
			FOREIGN KEY(investigation_id) REFERENCES investigations(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_investigations_subject ON investigations(subject_name)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_investigation ON findings(investigation_id)`,
	}

	for _, tableSQL := range tables {
		if _, err := s.db.Exec(tableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// SaveReport stores a report and returns its investigation id. The write
// is transactional: either the whole report lands or none of it.
func (s *Store) SaveReport(ctx context.Context, report *evidence.Report) (int64, error) {
	if report == nil {
		return 0, errors.New("nil report")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("encode report: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		`INSERT INTO investigations (subject_name, subject_city, subject_state, confirmed, possible, rejected, report_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.Subject.Name, report.Subject.City, report.Subject.State,
		len(report.Confirmed), len(report.Possible), report.Rejected, string(reportJSON))
	if err != nil {
		return 0, fmt.Errorf("insert investigation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read investigation id: %w", err)
	}

	for _, m := range report.Confirmed {
		if err := insertFinding(ctx, tx, id, m); err != nil {
			return 0, err
		}
	}
	for _, m := range report.Possible {
		if err := insertFinding(ctx, tx, id, m); err != nil {
			return 0, err
		}
	}

	for _, rel := range report.Relatives {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO relatives (investigation_id, name, relation, confidence, shared_addresses, overlap_years)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, rel.Name, string(rel.Relation), rel.Confidence, rel.SharedAddresses, rel.OverlapYears); err != nil {
			return 0, fmt.Errorf("insert relative: %w", err)
		}
	}

	for _, addr := range report.Addresses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO addresses (investigation_id, address, confidence, matched_subject, owners)
			 VALUES (?, ?, ?, ?, ?)`,
			id, addr.Address, addr.Confidence, addr.MatchedSubject, strings.Join(addr.Owners, "; ")); err != nil {
			return 0, fmt.Errorf("insert address: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("report persisted", "id", id, "subject", report.Subject.Name,
		"confirmed", len(report.Confirmed), "possible", len(report.Possible))
	return id, nil
}

func insertFinding(ctx context.Context, tx *sqlx.Tx, id int64, m evidence.MatchResult) error {
	tags := make([]string, 0, len(m.Factors))
	for _, factor := range m.Factors {
		tags = append(tags, string(factor.Tag))
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO findings (investigation_id, locator, source, category, tier, class, confidence, factors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.Finding.Locator, m.Finding.Source, string(m.Finding.Category),
		string(m.Tier), string(m.Class), m.Confidence, strings.Join(tags, ",")); err != nil {
		return fmt.Errorf("insert finding: %w", err)
	}
	return nil
}

// ListInvestigations returns stored investigations, newest first.
func (s *Store) ListInvestigations(ctx context.Context) ([]Investigation, error) {
	var rows []Investigation
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, subject_name, subject_city, subject_state, confirmed, possible, rejected, created_at
		 FROM investigations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list investigations: %w", err)
	}
	return rows, nil
}

// GetReport returns the stored report for an investigation id.
func (s *Store) GetReport(ctx context.Context, id int64) (*evidence.Report, error) {
	var reportJSON string
	err := s.db.GetContext(ctx, &reportJSON,
		`SELECT report_json FROM investigations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}

	var report evidence.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
