package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/litgraph/litgraph/internal/literature"
)

// UpsertEdge writes a citation edge, merging by the (from, to, kind) tuple.
// Re-upserting the same pair updates confidence and match source instead of
// duplicating, so it is safe to race.
func (d *DB) UpsertEdge(e literature.CitationEdge) error {
	if err := e.ValidateForCreate(); err != nil {
		return err
	}
	var metaJSON sql.NullString
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling edge metadata: %w", err)
		}
		metaJSON = nullable(string(b))
	}

	_, err := d.db.Exec(`
		INSERT INTO edges (from_lid, to_lid, kind, confidence, match_source, metadata_json, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (from_lid, to_lid, kind) DO UPDATE SET
			confidence = MAX(confidence, excluded.confidence),
			match_source = excluded.match_source,
			verified = MAX(verified, excluded.verified)`,
		e.FromLID, e.ToLID, e.Kind, e.Confidence, nullable(e.MatchSource),
		metaJSON, boolInt(e.Verified), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upserting edge %s -> %s: %w", e.FromLID, e.ToLID, err)
	}
	return nil
}

// EdgesFrom returns the outgoing edges of an entity.
func (d *DB) EdgesFrom(lid string) ([]literature.CitationEdge, error) {
	return d.queryEdges(`SELECT `+selectEdgeFields+` FROM edges WHERE from_lid = ?`, lid)
}

// EdgesTouching returns edges with either endpoint in lids and confidence
// at or above minConfidence, for graph queries.
func (d *DB) EdgesTouching(lids []string, minConfidence float64) ([]literature.CitationEdge, error) {
	if len(lids) == 0 {
		return nil, nil
	}
	ph := strings.Repeat("?,", len(lids))
	ph = ph[:len(ph)-1]

	args := make([]interface{}, 0, 2*len(lids)+1)
	for _, l := range lids {
		args = append(args, l)
	}
	for _, l := range lids {
		args = append(args, l)
	}
	args = append(args, minConfidence)

	return d.queryEdges(`
		SELECT `+selectEdgeFields+`
		FROM edges
		WHERE (from_lid IN (`+ph+`) OR to_lid IN (`+ph+`)) AND confidence >= ?`,
		args...)
}

// RewriteEdgeTargets repoints every edge aimed at oldID to newLID, used when
// an unresolved placeholder is promoted to a real entity. The match source
// becomes fuzzy since promotion matches on normalized title and year. Edges
// that would duplicate an existing (from, new, kind) tuple are dropped rather
// than duplicated.
func (d *DB) RewriteEdgeTargets(oldID, newLID string) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning rewrite: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE OR IGNORE edges SET to_lid = ?, match_source = ? WHERE to_lid = ?`,
		newLID, literature.MatchFuzzy, oldID)
	if err != nil {
		return 0, fmt.Errorf("rewriting edges %s -> %s: %w", oldID, newLID, err)
	}
	n, _ := res.RowsAffected()

	// leftovers are duplicates the update skipped
	if _, err := tx.Exec(`DELETE FROM edges WHERE to_lid = ?`, oldID); err != nil {
		return 0, fmt.Errorf("clearing stale edges for %s: %w", oldID, err)
	}
	return int(n), tx.Commit()
}

const selectEdgeFields = `from_lid, to_lid, kind, confidence, match_source, metadata_json, verified, created_at`

func (d *DB) queryEdges(query string, args ...interface{}) ([]literature.CitationEdge, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var out []literature.CitationEdge
	for rows.Next() {
		var e literature.CitationEdge
		var matchSource, metaJSON sql.NullString
		var verified int
		var createdAt int64
		if err := rows.Scan(&e.FromLID, &e.ToLID, &e.Kind, &e.Confidence,
			&matchSource, &metaJSON, &verified, &createdAt); err != nil {
			return nil, err
		}
		e.MatchSource = matchSource.String
		e.Verified = verified != 0
		e.CreatedAt = time.Unix(createdAt, 0)
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("parsing edge metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
