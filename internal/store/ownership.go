package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jward/gildash/internal/model"
)

// Ownership is the watcher_owner repository backing the ownership protocol
// of §4.8. It only exposes row-level primitives; the acquire/release state
// machine lives in the watch package.
type Ownership struct{ s *Store }

func (s *Store) Ownership() *Ownership { return &Ownership{s: s} }

// Get returns the singleton ownership row, or nil if absent.
func (o *Ownership) Get(tx *Tx) (*model.Ownership, error) {
	row := tx.QueryRow(`SELECT pid, heartbeat_at, instance_id FROM watcher_owner LIMIT 1`)
	var pid int
	var heartbeat string
	var instanceID sql.NullString
	err := row.Scan(&pid, &heartbeat, &instanceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ownership row: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, heartbeat)
	if err != nil {
		// An unparsable timestamp is reported as the zero time. Callers that
		// need to tell "unparsable" apart from "very old" (watch.Acquire)
		// read the raw string via GetRaw instead.
		t = time.Time{}
	}
	out := &model.Ownership{PID: pid, HeartbeatAt: t}
	if instanceID.Valid {
		id := instanceID.String
		out.InstanceID = &id
	}
	return out, nil
}

// GetRaw returns the ownership row with its heartbeat left as the stored
// string, so callers can distinguish "unparsable" from "very old" per the
// acquire() step 2 special case.
func (o *Ownership) GetRaw(tx *Tx) (pid int, heartbeatRaw string, instanceID *string, found bool, err error) {
	row := tx.QueryRow(`SELECT pid, heartbeat_at, instance_id FROM watcher_owner LIMIT 1`)
	var ns sql.NullString
	scanErr := row.Scan(&pid, &heartbeatRaw, &ns)
	if scanErr == sql.ErrNoRows {
		return 0, "", nil, false, nil
	}
	if scanErr != nil {
		return 0, "", nil, false, fmt.Errorf("get ownership row: %w", scanErr)
	}
	if ns.Valid {
		id := ns.String
		instanceID = &id
	}
	return pid, heartbeatRaw, instanceID, true, nil
}

// Replace deletes any existing row and inserts (pid, now, instanceID),
// keeping "at most one row" (invariant 5) without relying on a unique
// constraint the migration would need to retrofit.
func (o *Ownership) Replace(tx *Tx, pid int, now time.Time, instanceID *string) error {
	if _, err := tx.Exec(`DELETE FROM watcher_owner`); err != nil {
		return fmt.Errorf("clear ownership row: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO watcher_owner (pid, heartbeat_at, instance_id) VALUES (?, ?, ?)`,
		pid, now.UTC().Format(time.RFC3339Nano), instanceID); err != nil {
		return fmt.Errorf("insert ownership row: %w", err)
	}
	return nil
}

// Insert is Replace's counterpart for the "no row present" branch of
// acquire(); kept distinct for readability at call sites.
func (o *Ownership) Insert(tx *Tx, pid int, now time.Time, instanceID *string) error {
	return o.Replace(tx, pid, now, instanceID)
}

// UpdateHeartbeat updates the timestamp iff the current row's pid equals pid.
func (o *Ownership) UpdateHeartbeat(tx *Tx, pid int, now time.Time) error {
	_, err := tx.Exec(`UPDATE watcher_owner SET heartbeat_at = ? WHERE pid = ?`, now.UTC().Format(time.RFC3339Nano), pid)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// Release deletes the row iff its pid equals pid.
func (o *Ownership) Release(tx *Tx, pid int) error {
	_, err := tx.Exec(`DELETE FROM watcher_owner WHERE pid = ?`, pid)
	if err != nil {
		return fmt.Errorf("release ownership: %w", err)
	}
	return nil
}
