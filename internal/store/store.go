// Package store is the literature repository: a SQLite database holding
// entities, alias mappings, citation edges, unresolved reference nodes, and
// the advisory in-flight table. It is the single source of truth;
// at-most-one committed entity per DOI or arXiv id is enforced by unique
// indexes, not by upstream checks.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/litgraph/litgraph/internal/literature"
	"github.com/litgraph/litgraph/internal/normalize"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection.
type DB struct {
	db *sql.DB
}

const selectEntityFields = `lid, doi, arxiv_id, pmid, url, pdf_url, source_page_url,
	title, authors_json, pub_year, venue, abstract, keywords_json, external_ids_json,
	raw_refs_json, components_json, quality_score, created_at, updated_at`

// Open opens or creates the repository database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entities (
			lid TEXT PRIMARY KEY,
			doi TEXT,
			arxiv_id TEXT,
			pmid TEXT,
			url TEXT,
			pdf_url TEXT,
			source_page_url TEXT,
			title TEXT NOT NULL,
			authors_json TEXT NOT NULL,
			pub_year INTEGER,
			venue TEXT,
			abstract TEXT,
			keywords_json TEXT,
			external_ids_json TEXT,
			raw_refs_json TEXT,
			components_json TEXT NOT NULL,
			quality_score INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		-- the real concurrency guard: one committed entity per identifier
		CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_doi
			ON entities(doi) WHERE doi IS NOT NULL AND doi != '';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_arxiv
			ON entities(arxiv_id) WHERE arxiv_id IS NOT NULL AND arxiv_id != '';

		-- full-text index over normalized titles for fuzzy candidates
		CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts USING fts5(
			lid,
			title_norm,
			authors_text
		);

		CREATE TABLE IF NOT EXISTS aliases (
			kind TEXT NOT NULL,
			value TEXT NOT NULL,
			lid TEXT NOT NULL,
			confidence REAL NOT NULL DEFAULT 1.0,
			source TEXT,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (kind, value)
		);
		CREATE INDEX IF NOT EXISTS idx_aliases_lid ON aliases(lid);

		CREATE TABLE IF NOT EXISTS edges (
			from_lid TEXT NOT NULL,
			to_lid TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'cites',
			confidence REAL NOT NULL DEFAULT 1.0,
			match_source TEXT,
			metadata_json TEXT,
			verified INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (from_lid, to_lid, kind)
		);
		CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_lid);

		CREATE TABLE IF NOT EXISTS unresolved (
			id TEXT PRIMARY KEY,
			title_norm TEXT NOT NULL,
			title TEXT NOT NULL,
			pub_year INTEGER,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_unresolved_title ON unresolved(title_norm);

		-- advisory only; races are resolved by the unique entity indexes
		CREATE TABLE IF NOT EXISTS inflight (
			kind TEXT NOT NULL,
			value TEXT NOT NULL,
			task_id TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			PRIMARY KEY (kind, value)
		);
	`
	_, err := db.Exec(schema)
	return err
}

// IsUniqueViolation reports whether err is a unique-constraint failure, the
// signal for an identifier or LID collision during insert.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreatePlaceholder inserts a provisional entity carrying the identifiers
// known before any fetch. The title is the processing placeholder until
// Finalize commits real metadata.
func (d *DB) CreatePlaceholder(e *literature.Entity) error {
	if e.Meta.Title == "" {
		e.Meta.Title = literature.TitleProcessing
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	return d.insertEntity(e)
}

// Finalize rewrites a placeholder with its final LID and fetched state.
// Callers hitting a unique violation on the new LID regenerate the suffix
// and retry.
func (d *DB) Finalize(placeholderLID string, e *literature.Entity) error {
	e.UpdatedAt = time.Now()
	cols, err := marshalEntity(e)
	if err != nil {
		return err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning finalize: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE entities SET
			lid = ?, doi = ?, arxiv_id = ?, pmid = ?, url = ?, pdf_url = ?,
			source_page_url = ?, title = ?, authors_json = ?, pub_year = ?,
			venue = ?, abstract = ?, keywords_json = ?, external_ids_json = ?,
			raw_refs_json = ?, components_json = ?, quality_score = ?, updated_at = ?
		WHERE lid = ?`,
		e.LID, cols.doi, cols.arxivID, cols.pmid, cols.url, cols.pdfURL,
		cols.sourcePage, e.Meta.Title, cols.authorsJSON, cols.year,
		cols.venue, cols.abstract, cols.keywordsJSON, cols.externalJSON,
		cols.rawRefsJSON, cols.componentsJSON, e.QualityScore, e.UpdatedAt.Unix(),
		placeholderLID)
	if err != nil {
		return fmt.Errorf("finalizing %s: %w", placeholderLID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finalizing %s: %w", placeholderLID, sql.ErrNoRows)
	}

	if _, err := tx.Exec(`DELETE FROM entities_fts WHERE lid = ?`, placeholderLID); err != nil {
		return fmt.Errorf("clearing fts for %s: %w", placeholderLID, err)
	}
	if err := insertFTS(tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites an existing entity in place, keeping its LID.
func (d *DB) Update(e *literature.Entity) error {
	return d.Finalize(e.LID, e)
}

// GetByLID retrieves an entity, or nil if absent.
func (d *DB) GetByLID(lid string) (*literature.Entity, error) {
	row := d.db.QueryRow(`SELECT `+selectEntityFields+` FROM entities WHERE lid = ?`, lid)
	return scanEntity(row)
}

// FindByDOI retrieves the entity holding the normalized DOI, or nil.
func (d *DB) FindByDOI(doi string) (*literature.Entity, error) {
	doi = normalize.DOI(doi)
	if doi == "" {
		return nil, nil
	}
	row := d.db.QueryRow(`SELECT `+selectEntityFields+` FROM entities WHERE doi = ?`, doi)
	return scanEntity(row)
}

// FindByArxivID retrieves the entity holding the normalized arXiv id, or nil.
func (d *DB) FindByArxivID(arxivID string) (*literature.Entity, error) {
	id, _ := normalize.ArxivID(arxivID)
	if id == "" {
		return nil, nil
	}
	row := d.db.QueryRow(`SELECT `+selectEntityFields+` FROM entities WHERE arxiv_id = ?`, id)
	return scanEntity(row)
}

// FindByExternalID retrieves the entity whose external-id map contains the
// given source-specific paper id under any source name, or nil.
func (d *DB) FindByExternalID(id string) (*literature.Entity, error) {
	if id == "" {
		return nil, nil
	}
	row := d.db.QueryRow(`SELECT `+selectEntityFields+` FROM entities
		WHERE external_ids_json IS NOT NULL
		  AND EXISTS (SELECT 1 FROM json_each(entities.external_ids_json) WHERE json_each.value = ?)`, id)
	return scanEntity(row)
}

// FindByFuzzyTitle returns candidate entities whose normalized titles share
// terms with the given title, for the fuzzy dedup stage. The caller applies
// the similarity thresholds; this only narrows the candidate set.
func (d *DB) FindByFuzzyTitle(title string, limit int) ([]literature.Entity, error) {
	ftsQuery := titleFTSQuery(title)
	if ftsQuery == "" {
		return nil, nil
	}
	rows, err := d.db.Query(`
		SELECT `+selectEntityFields+`
		FROM entities
		WHERE lid IN (SELECT lid FROM entities_fts WHERE entities_fts MATCH ?)
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy title search: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// UpdateComponentStatus replaces one component's status and bumps the
// entity's updated timestamp.
func (d *DB) UpdateComponentStatus(lid, component string, cs literature.ComponentStatus) error {
	e, err := d.GetByLID(lid)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("updating component for %s: %w", lid, sql.ErrNoRows)
	}
	e.Components = e.Components.Set(component, cs)

	componentsJSON, err := json.Marshal(e.Components)
	if err != nil {
		return fmt.Errorf("marshaling components for %s: %w", lid, err)
	}
	_, err = d.db.Exec(`UPDATE entities SET components_json = ?, updated_at = ? WHERE lid = ?`,
		string(componentsJSON), time.Now().Unix(), lid)
	return err
}

// SetQualityScore persists the metadata completeness score.
func (d *DB) SetQualityScore(lid string, score int) error {
	_, err := d.db.Exec(`UPDATE entities SET quality_score = ?, updated_at = ? WHERE lid = ?`,
		score, time.Now().Unix(), lid)
	return err
}

// DeleteByLID removes an entity together with its aliases and edges. Used
// by stale-entity cleanup and administrative removal of failed entities.
func (d *DB) DeleteByLID(lid string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entities WHERE lid = ?`, lid); err != nil {
		return fmt.Errorf("deleting entity %s: %w", lid, err)
	}
	if _, err := tx.Exec(`DELETE FROM entities_fts WHERE lid = ?`, lid); err != nil {
		return fmt.Errorf("deleting fts row for %s: %w", lid, err)
	}
	if _, err := tx.Exec(`DELETE FROM aliases WHERE lid = ?`, lid); err != nil {
		return fmt.Errorf("deleting aliases for %s: %w", lid, err)
	}
	if _, err := tx.Exec(`DELETE FROM edges WHERE from_lid = ? OR to_lid = ?`, lid, lid); err != nil {
		return fmt.Errorf("deleting edges for %s: %w", lid, err)
	}
	return tx.Commit()
}

// ListAll returns all entities, optionally limited.
func (d *DB) ListAll(limit int) ([]literature.Entity, error) {
	query := `SELECT ` + selectEntityFields + ` FROM entities ORDER BY lid`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// Count returns the number of stored entities.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM entities`).Scan(&count)
	return count, err
}

func (d *DB) insertEntity(e *literature.Entity) error {
	cols, err := marshalEntity(e)
	if err != nil {
		return err
	}
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO entities (
			lid, doi, arxiv_id, pmid, url, pdf_url, source_page_url,
			title, authors_json, pub_year, venue, abstract, keywords_json,
			external_ids_json, raw_refs_json, components_json, quality_score,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.LID, cols.doi, cols.arxivID, cols.pmid, cols.url, cols.pdfURL,
		cols.sourcePage, e.Meta.Title, cols.authorsJSON, cols.year,
		cols.venue, cols.abstract, cols.keywordsJSON, cols.externalJSON,
		cols.rawRefsJSON, cols.componentsJSON, e.QualityScore,
		e.CreatedAt.Unix(), e.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("inserting %s: %w", e.LID, err)
	}
	if err := insertFTS(tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func insertFTS(tx execer, e *literature.Entity) error {
	_, err := tx.Exec(`INSERT INTO entities_fts (lid, title_norm, authors_text) VALUES (?, ?, ?)`,
		e.LID, normalize.Title(e.Meta.Title), formatAuthorsText(e.Meta.Authors))
	if err != nil {
		return fmt.Errorf("inserting fts for %s: %w", e.LID, err)
	}
	return nil
}

// formatAuthorsText creates a searchable text representation of authors.
func formatAuthorsText(authors []literature.Author) string {
	var names []string
	for _, a := range authors {
		if a.First != "" {
			names = append(names, a.First+" "+a.Last)
		} else {
			names = append(names, a.Last)
		}
	}
	return strings.Join(names, ", ")
}

// titleFTSQuery builds an OR query over the title's meaningful terms so the
// FTS index returns near-miss candidates, not just exact phrase matches.
func titleFTSQuery(title string) string {
	var terms []string
	for _, w := range strings.Fields(normalize.Title(title)) {
		if len(w) < 3 {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(w, `"`, `""`)+`"`)
	}
	if len(terms) == 0 {
		return ""
	}
	return "title_norm: (" + strings.Join(terms, " OR ") + ")"
}
