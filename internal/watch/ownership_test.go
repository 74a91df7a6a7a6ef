package watch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jward/gildash/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "gildash.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAcquireFirstCallerBecomesOwner(t *testing.T) {
	s := openTestStore(t)
	id := NewInstanceID()

	role, err := Acquire(s, 100, AcquireOptions{StaleAfter: DefaultStaleAfter, InstanceID: &id})
	require.NoError(t, err)
	require.Equal(t, Owner, role)
}

func TestAcquireSecondCallerBecomesReaderWhileOwnerFresh(t *testing.T) {
	s := openTestStore(t)
	ownerID := NewInstanceID()
	readerID := NewInstanceID()

	_, err := Acquire(s, 100, AcquireOptions{StaleAfter: DefaultStaleAfter, InstanceID: &ownerID})
	require.NoError(t, err)

	role, err := Acquire(s, 200, AcquireOptions{
		StaleAfter: DefaultStaleAfter,
		InstanceID: &readerID,
		IsAlive:    func(pid int) bool { return true },
	})
	require.NoError(t, err)
	require.Equal(t, Reader, role)
}

func TestAcquirePromotesReaderWhenOwnerHeartbeatStale(t *testing.T) {
	s := openTestStore(t)
	ownerID := NewInstanceID()
	readerID := NewInstanceID()

	base := time.Now()
	_, err := Acquire(s, 100, AcquireOptions{
		StaleAfter: time.Second,
		InstanceID: &ownerID,
		Now:        func() time.Time { return base },
	})
	require.NoError(t, err)

	role, err := Acquire(s, 200, AcquireOptions{
		StaleAfter: time.Second,
		InstanceID: &readerID,
		IsAlive:    func(pid int) bool { return true },
		Now:        func() time.Time { return base.Add(10 * time.Second) },
	})
	require.NoError(t, err)
	require.Equal(t, Owner, role)
}

func TestAcquireDoesNotPromoteDifferentPIDWithMismatchedInstanceID(t *testing.T) {
	s := openTestStore(t)
	ownerID := NewInstanceID()
	recycledID := NewInstanceID()

	base := time.Now()
	_, err := Acquire(s, 100, AcquireOptions{
		StaleAfter: DefaultStaleAfter,
		InstanceID: &ownerID,
		Now:        func() time.Time { return base },
	})
	require.NoError(t, err)

	// A different pid with a fresh heartbeat and a mismatched instance id,
	// with the liveness probe reporting the original pid alive (recycled by
	// the OS to an unrelated process), should not be promoted — only a
	// caller presenting the *same* pid with a new instance id triggers the
	// recycling branch.
	role, err := Acquire(s, 300, AcquireOptions{
		StaleAfter: DefaultStaleAfter,
		InstanceID: &recycledID,
		IsAlive:    func(pid int) bool { return true },
		Now:        func() time.Time { return base.Add(time.Millisecond) },
	})
	require.NoError(t, err)
	require.Equal(t, Reader, role)
}

func TestAcquirePromotesSamePIDWithNewInstanceIDWhenRecycled(t *testing.T) {
	s := openTestStore(t)
	ownerID := NewInstanceID()
	recycledID := NewInstanceID()

	base := time.Now()
	_, err := Acquire(s, 100, AcquireOptions{
		StaleAfter: DefaultStaleAfter,
		InstanceID: &ownerID,
		Now:        func() time.Time { return base },
	})
	require.NoError(t, err)

	// The OS reused pid 100 for an unrelated new process. The liveness
	// probe reports it alive (it is — just not the same process), the
	// heartbeat is fresh, but the instance id no longer matches: this is
	// exactly the recycling branch and must promote to Owner.
	role, err := Acquire(s, 100, AcquireOptions{
		StaleAfter: DefaultStaleAfter,
		InstanceID: &recycledID,
		IsAlive:    func(pid int) bool { return true },
		Now:        func() time.Time { return base.Add(time.Millisecond) },
	})
	require.NoError(t, err)
	require.Equal(t, Owner, role)
}

func TestReleaseIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	id := NewInstanceID()

	_, err := Acquire(s, 100, AcquireOptions{StaleAfter: DefaultStaleAfter, InstanceID: &id})
	require.NoError(t, err)

	require.NoError(t, Release(s, 100))
	require.NoError(t, Release(s, 100))

	role, err := Acquire(s, 200, AcquireOptions{StaleAfter: DefaultStaleAfter, InstanceID: &id})
	require.NoError(t, err)
	require.Equal(t, Owner, role)
}

func TestHeartbeatIntervalIsQuarterOfStaleAfter(t *testing.T) {
	require.Equal(t, 15*time.Second, HeartbeatInterval(60*time.Second))
	require.Equal(t, time.Second, HeartbeatInterval(0))
}

func TestReaderPollIntervalMatchesStaleAfter(t *testing.T) {
	require.Equal(t, 60*time.Second, ReaderPollInterval(60*time.Second))
	require.Equal(t, time.Second, ReaderPollInterval(0))
}
