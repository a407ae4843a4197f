package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/litgraph/litgraph/internal/literature"
)

// UpsertAlias records an alias mapping. Aliases are first-writer-wins: when
// the (kind, value) pair already points at a different LID, the write is
// skipped and the existing owner is returned. The boolean reports whether
// the mapping was written.
func (d *DB) UpsertAlias(a literature.AliasMapping) (string, bool, error) {
	if !literature.ValidAliasKind(a.Kind) {
		return "", false, fmt.Errorf("invalid alias kind %q", a.Kind)
	}
	if a.Value == "" || a.LID == "" {
		return "", false, fmt.Errorf("alias value and lid are required")
	}

	existing, err := d.ResolveAlias(a.Kind, a.Value)
	if err != nil {
		return "", false, err
	}
	if existing != "" {
		return existing, existing == a.LID, nil
	}

	_, err = d.db.Exec(`
		INSERT INTO aliases (kind, value, lid, confidence, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, value) DO NOTHING`,
		string(a.Kind), a.Value, a.LID, a.Confidence, nullable(a.Source), time.Now().Unix())
	if err != nil {
		return "", false, fmt.Errorf("inserting alias %s:%s: %w", a.Kind, a.Value, err)
	}

	// re-read: a concurrent writer may have won the conflict
	owner, err := d.ResolveAlias(a.Kind, a.Value)
	if err != nil {
		return "", false, err
	}
	return owner, owner == a.LID, nil
}

// ResolveAlias returns the LID the alias points to, or "" if unmapped.
func (d *DB) ResolveAlias(kind literature.AliasKind, value string) (string, error) {
	var lid string
	err := d.db.QueryRow(`SELECT lid FROM aliases WHERE kind = ? AND value = ?`,
		string(kind), value).Scan(&lid)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving alias %s:%s: %w", kind, value, err)
	}
	return lid, nil
}

// AliasesByLID returns every alias pointing at the given entity.
func (d *DB) AliasesByLID(lid string) ([]literature.AliasMapping, error) {
	rows, err := d.db.Query(`
		SELECT kind, value, lid, confidence, source, created_at
		FROM aliases WHERE lid = ? ORDER BY kind, value`, lid)
	if err != nil {
		return nil, fmt.Errorf("listing aliases for %s: %w", lid, err)
	}
	defer rows.Close()

	var out []literature.AliasMapping
	for rows.Next() {
		var a literature.AliasMapping
		var kind string
		var source sql.NullString
		var createdAt int64
		if err := rows.Scan(&kind, &a.Value, &a.LID, &a.Confidence, &source, &createdAt); err != nil {
			return nil, err
		}
		a.Kind = literature.AliasKind(kind)
		a.Source = source.String
		a.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}
