package watch

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jward/gildash/internal/gderr"
	"github.com/jward/gildash/internal/store"
)

// DebounceWindow is the coalescing window of §4.9 — events within this
// window for the same path are batched into one incremental call.
const DebounceWindow = 50 * time.Millisecond

// ChangeKind classifies a coalesced filesystem event.
type ChangeKind string

const (
	ChangeUpsert ChangeKind = "upsert"
	ChangeDelete ChangeKind = "delete"
)

// Change is one coalesced entry handed to the coordinator's incremental
// entry point.
type Change struct {
	Path string
	Kind ChangeKind
}

// Coordinator is the subset of the index coordinator the loop drives.
type Coordinator interface {
	Incremental(ctx context.Context, changes []Change) error
}

// Loop runs the owner/reader state machine of §4.9: owner subscribes to
// filesystem events and dispatches debounced batches to the coordinator;
// reader polls ownership and promotes itself when Acquire returns Owner.
type Loop struct {
	Store       *store.Store
	Root        string
	PID         int
	InstanceID  string
	StaleAfter  time.Duration
	Coordinator Coordinator
	Logger      *log.Logger

	OnRoleChanged func(Role)
	OnError       func(error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

func (l *Loop) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}

func (l *Loop) emitError(err error) {
	if l.OnError != nil {
		l.OnError(err)
		return
	}
	l.logger().Printf("watch error=%v", err)
}

func (l *Loop) emitRole(r Role) {
	if l.OnRoleChanged != nil {
		l.OnRoleChanged(r)
	}
}

// Run blocks until ctx is cancelled or a SIGINT/SIGTERM is received,
// releasing ownership on the way out if this process held it.
func (l *Loop) Run(ctx context.Context) error {
	staleAfter := l.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	instanceID := l.InstanceID
	role := Reader
	for {
		select {
		case <-sigCtx.Done():
			if role == Owner {
				if err := Release(l.Store, l.PID); err != nil {
					l.emitError(err)
				}
			}
			l.closeWatcher()
			return nil
		default:
		}

		newRole, err := Acquire(l.Store, l.PID, AcquireOptions{
			StaleAfter: staleAfter,
			InstanceID: &instanceID,
		})
		if err != nil {
			l.emitError(err)
			newRole = Reader
		}
		if newRole != role {
			role = newRole
			l.emitRole(role)
			if role == Owner {
				if err := l.startWatching(sigCtx); err != nil {
					l.emitError(gderr.New(gderr.Watcher, "start watch", err))
					role = Reader
				}
			} else {
				l.closeWatcher()
			}
		}

		var wait time.Duration
		if role == Owner {
			wait = HeartbeatInterval(staleAfter)
			if err := UpdateHeartbeat(l.Store, l.PID, time.Now()); err != nil {
				l.emitError(err)
			}
		} else {
			wait = ReaderPollInterval(staleAfter)
		}

		select {
		case <-sigCtx.Done():
			continue
		case <-time.After(wait):
		}
	}
}

func (l *Loop) closeWatcher() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher != nil {
		l.watcher.Close()
		l.watcher = nil
	}
}

func (l *Loop) startWatching(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(l.Root); err != nil {
		w.Close()
		return err
	}
	l.mu.Lock()
	l.watcher = w
	l.mu.Unlock()

	go l.debounceLoop(ctx, w)
	return nil
}

// debounceLoop coalesces events within DebounceWindow per path and
// dispatches the resulting batch to the coordinator. Every I/O or
// coordinator failure is reported through OnError — the reference
// implementation's catch(()=>{}) pattern named in §7 is deliberately not
// reproduced here.
func (l *Loop) debounceLoop(ctx context.Context, w *fsnotify.Watcher) {
	pending := map[string]ChangeKind{}
	timer := time.NewTimer(DebounceWindow)
	timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]Change, 0, len(pending))
		for path, kind := range pending {
			batch = append(batch, Change{Path: path, Kind: kind})
		}
		pending = map[string]ChangeKind{}
		if l.Coordinator == nil {
			return
		}
		if err := l.Coordinator.Incremental(ctx, batch); err != nil {
			l.emitError(gderr.New(gderr.Watcher, "incremental", err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			kind := ChangeUpsert
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				kind = ChangeDelete
			}
			pending[ev.Name] = kind
			timer.Reset(DebounceWindow)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.emitError(gderr.New(gderr.Watcher, "fsnotify", err))
		case <-timer.C:
			flush()
		}
	}
}
