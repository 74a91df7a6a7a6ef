// Package watch implements the watcher ownership protocol of §4.8 and the
// debounced filesystem watch loop of §4.9.
package watch

import (
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jward/gildash/internal/gderr"
	"github.com/jward/gildash/internal/store"
)

// Role is the coordinator role returned by Acquire.
type Role string

const (
	Owner  Role = "owner"
	Reader Role = "reader"
)

// DefaultStaleAfter is the ownership stale threshold of §6's option table.
const DefaultStaleAfter = 60 * time.Second

// LivenessProbe reports whether the process identified by pid is alive.
// DefaultLiveness sends signal 0: ESRCH means dead, other errors (e.g.
// EPERM) mean alive, and unknown errors default to alive to be
// conservative, per §4.8 step 3.
func DefaultLiveness(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return true
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, syscall.ESRCH) {
		return false
	}
	return true
}

// AcquireOptions configures a single Acquire call.
type AcquireOptions struct {
	Now              func() time.Time
	IsAlive          func(pid int) bool
	StaleAfter       time.Duration
	InstanceID       *string
}

// NewInstanceID generates a random per-process instance identifier via
// google/uuid, used to defeat PID recycling in the acquire() state machine.
func NewInstanceID() string {
	return uuid.NewString()
}

// Acquire runs the §4.8 acquire(store, pid, opts) state machine inside an
// immediate (write-reserving) transaction and returns the caller's role.
func Acquire(s *store.Store, pid int, opts AcquireOptions) (Role, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	isAlive := opts.IsAlive
	if isAlive == nil {
		isAlive = DefaultLiveness
	}
	staleAfter := opts.StaleAfter
	if staleAfter < 0 {
		staleAfter = 0
	}

	var role Role
	err := s.ImmediateTransaction(func(tx *store.Tx) error {
		ownRepo := s.Ownership()
		rowPID, heartbeatRaw, rowInstanceID, found, err := ownRepo.GetRaw(tx)
		if err != nil {
			return err
		}
		n := now()
		if !found {
			if err := ownRepo.Insert(tx, pid, n, opts.InstanceID); err != nil {
				return err
			}
			role = Owner
			return nil
		}

		heartbeatAgeSeconds := int64(0)
		if parsed, perr := time.Parse(time.RFC3339Nano, heartbeatRaw); perr == nil {
			age := n.Sub(parsed)
			if age > 0 {
				heartbeatAgeSeconds = int64(age / time.Second)
			}
		}
		// An unparsable timestamp falls through with age 0, which step 5
		// below treats as stale whenever staleAfter == 0 and fresh
		// otherwise — matching the "unparsable = age 0" rule of §4.8 step 2.

		pidAlive := isAlive(rowPID)

		// PID-recycling branch: the *same* pid is recorded and still
		// "alive" per the liveness probe, but the recorded instance
		// identifier differs from the caller's — a new process reusing a
		// recycled pid. A different pid presenting a different instance id
		// is just a second, distinct process (the common reader case) and
		// must not steal ownership here.
		if pidAlive && rowInstanceID != nil && opts.InstanceID != nil &&
			*rowInstanceID != *opts.InstanceID && rowPID == pid {
			if err := ownRepo.Replace(tx, pid, n, opts.InstanceID); err != nil {
				return err
			}
			role = Owner
			return nil
		}

		if pidAlive && time.Duration(heartbeatAgeSeconds)*time.Second < staleAfter {
			role = Reader
			return nil
		}

		if err := ownRepo.Replace(tx, pid, n, opts.InstanceID); err != nil {
			return err
		}
		role = Owner
		return nil
	})
	if err != nil {
		return "", gderr.New(gderr.Ownership, "acquire", err)
	}
	return role, nil
}

// UpdateHeartbeat refreshes the row's timestamp iff its pid matches.
func UpdateHeartbeat(s *store.Store, pid int, now time.Time) error {
	err := s.Transaction(func(tx *store.Tx) error {
		return s.Ownership().UpdateHeartbeat(tx, pid, now)
	})
	if err != nil {
		return gderr.New(gderr.Ownership, "updateHeartbeat", err)
	}
	return nil
}

// Release deletes the row iff its pid matches. Calling Release twice is
// observationally equal to calling it once (§8 idempotence).
func Release(s *store.Store, pid int) error {
	err := s.Transaction(func(tx *store.Tx) error {
		return s.Ownership().Release(tx, pid)
	})
	if err != nil {
		return gderr.New(gderr.Ownership, "release", err)
	}
	return nil
}

// HeartbeatInterval returns the owner loop's refresh period, which must be
// strictly less than half the stale threshold per §4.8.
func HeartbeatInterval(staleAfter time.Duration) time.Duration {
	quarter := staleAfter / 4
	if quarter <= 0 {
		return time.Second
	}
	return quarter
}

// ReaderPollInterval returns the reader's re-probe cadence, bounded by the
// stale threshold per §4.8.
func ReaderPollInterval(staleAfter time.Duration) time.Duration {
	if staleAfter <= 0 {
		return time.Second
	}
	return staleAfter
}

