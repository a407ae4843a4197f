package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/litgraph/litgraph/internal/normalize"
)

// UnresolvedNode is a provisional graph node for a cited paper that has no
// entity yet. Edges may point at it; it is promoted and discarded once the
// real entity is ingested.
type UnresolvedNode struct {
	ID        string
	TitleNorm string
	Title     string
	Year      int
	CreatedAt time.Time
}

// CreateUnresolved materializes a placeholder node for a cited title,
// reusing an existing node with the same normalized title if one exists.
func (d *DB) CreateUnresolved(title string, year int) (UnresolvedNode, error) {
	norm := normalize.Title(title)
	if norm == "" {
		return UnresolvedNode{}, fmt.Errorf("unresolved node needs a title")
	}

	existing, err := d.findUnresolvedByNorm(norm)
	if err != nil {
		return UnresolvedNode{}, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	node := UnresolvedNode{
		ID:        "unres-" + uuid.NewString(),
		TitleNorm: norm,
		Title:     title,
		Year:      year,
		CreatedAt: time.Now(),
	}
	_, err = d.db.Exec(`
		INSERT INTO unresolved (id, title_norm, title, pub_year, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		node.ID, node.TitleNorm, node.Title, node.Year, node.CreatedAt.Unix())
	if err != nil {
		return UnresolvedNode{}, fmt.Errorf("inserting unresolved node: %w", err)
	}
	return node, nil
}

// FindUnresolvedByTitle returns placeholder nodes whose normalized title
// matches exactly and whose year is within ±1 (a zero stored year matches
// any).
func (d *DB) FindUnresolvedByTitle(title string, year int) ([]UnresolvedNode, error) {
	nodes, err := d.findUnresolvedByNorm(normalize.Title(title))
	if err != nil {
		return nil, err
	}
	var out []UnresolvedNode
	for _, n := range nodes {
		if n.Year == 0 || year == 0 || absInt(n.Year-year) <= 1 {
			out = append(out, n)
		}
	}
	return out, nil
}

// GetUnresolved retrieves a placeholder node by id, or nil if absent.
func (d *DB) GetUnresolved(id string) (*UnresolvedNode, error) {
	row := d.db.QueryRow(`
		SELECT id, title_norm, title, pub_year, created_at
		FROM unresolved WHERE id = ?`, id)
	var n UnresolvedNode
	var createdAt int64
	err := row.Scan(&n.ID, &n.TitleNorm, &n.Title, &n.Year, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading unresolved node: %w", err)
	}
	n.CreatedAt = time.Unix(createdAt, 0)
	return &n, nil
}

// DeleteUnresolved discards a placeholder node after promotion.
func (d *DB) DeleteUnresolved(id string) error {
	_, err := d.db.Exec(`DELETE FROM unresolved WHERE id = ?`, id)
	return err
}

func (d *DB) findUnresolvedByNorm(norm string) ([]UnresolvedNode, error) {
	if norm == "" {
		return nil, nil
	}
	rows, err := d.db.Query(`
		SELECT id, title_norm, title, pub_year, created_at
		FROM unresolved WHERE title_norm = ?`, norm)
	if err != nil {
		return nil, fmt.Errorf("querying unresolved nodes: %w", err)
	}
	defer rows.Close()

	var out []UnresolvedNode
	for rows.Next() {
		var n UnresolvedNode
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.TitleNorm, &n.Title, &n.Year, &createdAt); err != nil {
			return nil, err
		}
		n.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, n)
	}
	return out, rows.Err()
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
