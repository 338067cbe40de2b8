// Package store owns the SQLite schema and every piece of persisted
// pipeline state: the pokemon table, the three lookup registries with their
// relation tables, the evolution edge table, and the run audit log.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pokemon (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	height INTEGER,
	weight INTEGER,
	base_experience INTEGER,
	species_url TEXT
);
CREATE INDEX IF NOT EXISTS idx_pokemon_name ON pokemon(name);

CREATE TABLE IF NOT EXISTS type (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS ability (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS stat (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS pokemon_type (
	pokemon_id INTEGER NOT NULL,
	type_id INTEGER NOT NULL,
	slot INTEGER,
	PRIMARY KEY (pokemon_id, type_id)
);
CREATE TABLE IF NOT EXISTS pokemon_ability (
	pokemon_id INTEGER NOT NULL,
	ability_id INTEGER NOT NULL,
	is_hidden INTEGER NOT NULL DEFAULT 0,
	slot INTEGER,
	PRIMARY KEY (pokemon_id, ability_id)
);
CREATE TABLE IF NOT EXISTS pokemon_stat (
	pokemon_id INTEGER NOT NULL,
	stat_id INTEGER NOT NULL,
	base_stat INTEGER,
	effort INTEGER,
	PRIMARY KEY (pokemon_id, stat_id)
);

CREATE TABLE IF NOT EXISTS evolution (
	from_pokemon_id INTEGER NOT NULL,
	to_pokemon_id INTEGER,
	evolution_details TEXT,
	PRIMARY KEY (from_pokemon_id, to_pokemon_id)
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	finished_at INTEGER,
	fetch_limit INTEGER NOT NULL,
	processed INTEGER NOT NULL DEFAULT 0,
	edges INTEGER NOT NULL DEFAULT 0
);
`

// Pokemon is the flattened primary record. Optional numeric attributes are
// nil when the source document omits them.
type Pokemon struct {
	ID             int64
	Name           string
	Height         *int64
	Weight         *int64
	BaseExperience *int64
	SpeciesURL     *string
}

// TypeRel links a pokemon to a type by name, with its ordering slot.
type TypeRel struct {
	Name string
	Slot *int64
}

// AbilityRel links a pokemon to an ability by name.
type AbilityRel struct {
	Name   string
	Hidden bool
	Slot   *int64
}

// StatRel links a pokemon to a stat by name, with its measured values.
type StatRel struct {
	Name   string
	Base   *int64
	Effort *int64
}

// Store wraps the SQLite handle. Each logical write commits independently;
// there is no run-spanning transaction, re-runs are idempotent instead.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
// exists before any pipeline work runs.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertPokemon inserts or replaces the primary record, keyed by the
// source-assigned id.
func (s *Store) UpsertPokemon(p Pokemon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO pokemon (id, name, height, weight, base_experience, species_url)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Height, p.Weight, p.BaseExperience, p.SpeciesURL)
	if err != nil {
		return fmt.Errorf("upsert pokemon %s: %w", p.Name, err)
	}
	return nil
}

var lookupTables = map[string]bool{
	"type":    true,
	"ability": true,
	"stat":    true,
}

// LookupID returns the local id for name in the given lookup table,
// inserting a new row on first sighting. Repeated calls with the same name
// return the same id; rows are never updated or deleted.
func (s *Store) LookupID(table, name string) (int64, error) {
	if !lookupTables[table] {
		return 0, fmt.Errorf("unknown lookup table %q", table)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.db.QueryRow(fmt.Sprintf("SELECT id FROM %s WHERE name = ?", table), name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup %s %q: %w", table, name, err)
	}
	res, err := s.db.Exec(fmt.Sprintf("INSERT INTO %s (name) VALUES (?)", table), name)
	if err != nil {
		return 0, fmt.Errorf("insert %s %q: %w", table, name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s %q: %w", table, name, err)
	}
	return id, nil
}

// ReplaceTypes replaces the pokemon's type relations wholesale.
func (s *Store) ReplaceTypes(pokemonID int64, rels []TypeRel) error {
	ids := make([]int64, len(rels))
	for i, r := range rels {
		id, err := s.LookupID("type", r.Name)
		if err != nil {
			return err
		}
		ids[i] = id
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM pokemon_type WHERE pokemon_id = ?", pokemonID); err != nil {
		return fmt.Errorf("clear types for %d: %w", pokemonID, err)
	}
	for i, r := range rels {
		_, err := s.db.Exec(`
			INSERT OR REPLACE INTO pokemon_type (pokemon_id, type_id, slot)
			VALUES (?, ?, ?)
		`, pokemonID, ids[i], r.Slot)
		if err != nil {
			return fmt.Errorf("insert type %s for %d: %w", r.Name, pokemonID, err)
		}
	}
	return nil
}

// ReplaceAbilities replaces the pokemon's ability relations wholesale.
func (s *Store) ReplaceAbilities(pokemonID int64, rels []AbilityRel) error {
	ids := make([]int64, len(rels))
	for i, r := range rels {
		id, err := s.LookupID("ability", r.Name)
		if err != nil {
			return err
		}
		ids[i] = id
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM pokemon_ability WHERE pokemon_id = ?", pokemonID); err != nil {
		return fmt.Errorf("clear abilities for %d: %w", pokemonID, err)
	}
	for i, r := range rels {
		_, err := s.db.Exec(`
			INSERT OR REPLACE INTO pokemon_ability (pokemon_id, ability_id, is_hidden, slot)
			VALUES (?, ?, ?, ?)
		`, pokemonID, ids[i], r.Hidden, r.Slot)
		if err != nil {
			return fmt.Errorf("insert ability %s for %d: %w", r.Name, pokemonID, err)
		}
	}
	return nil
}

// ReplaceStats replaces the pokemon's stat relations wholesale.
func (s *Store) ReplaceStats(pokemonID int64, rels []StatRel) error {
	ids := make([]int64, len(rels))
	for i, r := range rels {
		id, err := s.LookupID("stat", r.Name)
		if err != nil {
			return err
		}
		ids[i] = id
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM pokemon_stat WHERE pokemon_id = ?", pokemonID); err != nil {
		return fmt.Errorf("clear stats for %d: %w", pokemonID, err)
	}
	for i, r := range rels {
		_, err := s.db.Exec(`
			INSERT OR REPLACE INTO pokemon_stat (pokemon_id, stat_id, base_stat, effort)
			VALUES (?, ?, ?, ?)
		`, pokemonID, ids[i], r.Base, r.Effort)
		if err != nil {
			return fmt.Errorf("insert stat %s for %d: %w", r.Name, pokemonID, err)
		}
	}
	return nil
}

// UpsertEvolutionEdge writes one directed edge. toID nil records an edge
// whose target was never loaded locally.
func (s *Store) UpsertEvolutionEdge(fromID int64, toID *int64, details *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if toID == nil {
		// SQLite treats NULLs as distinct under the composite primary key,
		// so INSERT OR REPLACE alone would stack unresolved edges on every
		// re-run. Clear the previous unresolved edge for this source first.
		if _, err := s.db.Exec(
			"DELETE FROM evolution WHERE from_pokemon_id = ? AND to_pokemon_id IS NULL", fromID); err != nil {
			return fmt.Errorf("clear unresolved edge from %d: %w", fromID, err)
		}
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO evolution (from_pokemon_id, to_pokemon_id, evolution_details)
		VALUES (?, ?, ?)
	`, fromID, toID, details)
	if err != nil {
		return fmt.Errorf("upsert edge from %d: %w", fromID, err)
	}
	return nil
}

// PokemonIDByName resolves a species name against the pokemon table.
// ok is false when the name was never loaded.
func (s *Store) PokemonIDByName(name string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var id int64
	err := s.db.QueryRow("SELECT id FROM pokemon WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolve name %q: %w", name, err)
	}
	return id, true, nil
}

// SpeciesURL returns the stored species reference for a pokemon, nil when
// the record has none (or does not exist).
func (s *Store) SpeciesURL(pokemonID int64) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var u sql.NullString
	err := s.db.QueryRow("SELECT species_url FROM pokemon WHERE id = ?", pokemonID).Scan(&u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("species url for %d: %w", pokemonID, err)
	}
	if !u.Valid {
		return nil, nil
	}
	return &u.String, nil
}

// BeginRun records the start of a pipeline run and returns its id.
func (s *Store) BeginRun(fetchLimit int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO runs (id, started_at, fetch_limit) VALUES (?, ?, ?)
	`, id, time.Now().Unix(), fetchLimit)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// FinishRun finalizes the run's audit row with its counters.
func (s *Store) FinishRun(id string, processed, edges int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, processed = ?, edges = ? WHERE id = ?
	`, time.Now().Unix(), processed, edges, id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}
