// Package changelog persists the mutations the repair executor applies to
// a document, keyed by audit run. The file decoder/encoder sit outside
// this core; the journal is the contract that lets the encoder serialize
// back only the engine's own changes (attribute rebinds, deletions)
// without understanding the wire encoding.
package changelog

import (
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Mutation operations.
const (
	OpSetAttr      = "set_attr"
	OpDeleteEntity = "delete_entity"
	OpDeleteBlock  = "delete_block"
)

// Mutation is one recorded graph change.
type Mutation struct {
	Seq          int64  `json:"seq"`
	Op           string `json:"op"`
	EntityHandle string `json:"entity_handle,omitempty"`
	BlockName    string `json:"block_name,omitempty"`
	Attr         string `json:"attr,omitempty"`
	OldValue     string `json:"old_value,omitempty"`
	NewValue     string `json:"new_value,omitempty"`
}

// Journal provides durable storage for repair mutations.
// Uses SQLite with WAL mode for concurrent read access.
type Journal struct {
	db *sql.DB

	mu  sync.Mutex
	seq map[string]int64 // next seq per run, assigned on Record
}

// Open creates or opens a SQLite journal at the given path.
// Applies required pragmas and the schema automatically; idempotent.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent Record calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Journal{db: db, seq: make(map[string]int64)}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends a mutation to the run's log. The sequence number is
// assigned here; the caller-provided Seq is ignored.
func (j *Journal) Record(runID string, m Mutation) error {
	j.mu.Lock()
	j.seq[runID]++
	m.Seq = j.seq[runID]
	j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO mutations (run_id, seq, op, entity_handle, block_name, attr, old_value, new_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, m.Seq, m.Op, m.EntityHandle, m.BlockName, m.Attr, m.OldValue, m.NewValue,
	)
	if err != nil {
		return fmt.Errorf("record mutation: %w", err)
	}
	return nil
}

// Mutations returns all mutations recorded for a run, in sequence order.
func (j *Journal) Mutations(runID string) ([]Mutation, error) {
	rows, err := j.db.Query(`
		SELECT seq, op, entity_handle, block_name, attr, old_value, new_value
		FROM mutations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}
	defer rows.Close()

	var out []Mutation
	for rows.Next() {
		var m Mutation
		if err := rows.Scan(&m.Seq, &m.Op, &m.EntityHandle, &m.BlockName, &m.Attr, &m.OldValue, &m.NewValue); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Runs returns the distinct run IDs present in the journal.
func (j *Journal) Runs() ([]string, error) {
	rows, err := j.db.Query(`SELECT DISTINCT run_id FROM mutations ORDER BY run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
