package store

import (
	"database/sql"
	"fmt"
	"time"
)

// inflightTTL expires advisory marks left behind by crashed tasks.
const inflightTTL = 10 * time.Minute

// MarkInFlight records that a task is resolving the given identifier and
// reports whether the mark was acquired. This is advisory only: two tasks
// can both pass it, and the entity unique indexes remain the correctness
// guard. An expired mark is silently taken over.
func (d *DB) MarkInFlight(kind, value, taskID string) (bool, error) {
	now := time.Now()
	cutoff := now.Add(-inflightTTL).Unix()

	if _, err := d.db.Exec(`DELETE FROM inflight WHERE started_at < ?`, cutoff); err != nil {
		return false, fmt.Errorf("expiring inflight marks: %w", err)
	}

	res, err := d.db.Exec(`
		INSERT INTO inflight (kind, value, task_id, started_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, value) DO NOTHING`,
		kind, value, taskID, now.Unix())
	if err != nil {
		return false, fmt.Errorf("marking inflight %s:%s: %w", kind, value, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// InFlightTask returns the task id currently holding the identifier, or ""
// when none is in flight.
func (d *DB) InFlightTask(kind, value string) (string, error) {
	var taskID string
	var startedAt int64
	err := d.db.QueryRow(`SELECT task_id, started_at FROM inflight WHERE kind = ? AND value = ?`,
		kind, value).Scan(&taskID, &startedAt)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("checking inflight %s:%s: %w", kind, value, err)
	}
	if time.Since(time.Unix(startedAt, 0)) > inflightTTL {
		return "", nil
	}
	return taskID, nil
}

// ClearInFlight drops the advisory mark when a task finishes, successfully
// or not.
func (d *DB) ClearInFlight(kind, value, taskID string) error {
	_, err := d.db.Exec(`DELETE FROM inflight WHERE kind = ? AND value = ? AND task_id = ?`,
		kind, value, taskID)
	return err
}
