// Package gildash is a local code-intelligence engine for a typed
// JavaScript-family source tree: it indexes files into symbol and relation
// tables backed by SQLite, exposes a dependency graph over the relations,
// and coordinates a single filesystem watcher across cooperating processes
// sharing the same project.
package gildash

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jward/gildash/internal/gderr"
	"github.com/jward/gildash/internal/graph"
	"github.com/jward/gildash/internal/index"
	"github.com/jward/gildash/internal/resolve"
	"github.com/jward/gildash/internal/store"
	"github.com/jward/gildash/internal/watch"
)

// Engine is the coordinator facade of §6: it owns the store, the indexer,
// the dependency graph cache, and (in watch mode) the ownership/loop state
// machine for exactly one project root.
type Engine struct {
	store       *store.Store
	coordinator *index.Coordinator
	projectRoot string

	staleAfter         time.Duration
	heartbeatInterval  time.Duration
	readerPollInterval time.Duration
	watchMode          bool
	semantic           bool

	graphCache  map[string]*graphCacheEntry
	graphBuilds singleflight.Group

	loop *watch.Loop

	OnIndexed     func(changed, deleted []string)
	OnFileChanged func(path string, kind watch.ChangeKind)
	OnRoleChanged func(watch.Role)
	OnError       func(error)
}

type graphCacheEntry struct {
	g       *graph.Graph
	builtAt time.Time
}

// Option configures an Engine at Open time.
type Option func(*engineConfig)

type engineConfig struct {
	extensions          []string
	ignorePatterns      []string
	watchMode           bool
	semantic            bool
	parserCacheCapacity int
	staleAfter          time.Duration
	heartbeatInterval   time.Duration
	readerPollInterval  time.Duration
	aliases             resolve.AliasTable
	aliasBaseDir        string
}

// WithExtensions overrides the §6 default file-extension include list.
func WithExtensions(exts ...string) Option {
	return func(c *engineConfig) { c.extensions = exts }
}

// WithIgnorePatterns sets glob patterns excluded from discovery.
func WithIgnorePatterns(patterns ...string) Option {
	return func(c *engineConfig) { c.ignorePatterns = patterns }
}

// WithWatchMode starts a filesystem watcher and joins the ownership
// protocol of §4.8 when the Engine opens.
func WithWatchMode(enabled bool) Option {
	return func(c *engineConfig) { c.watchMode = enabled }
}

// WithSemantic records whether an external type-checker bridge is wanted.
// Non-goal §13 excludes implementing the bridge itself; no bridge exists in
// this package and the flag is only stored on the Engine.
func WithSemantic(enabled bool) Option {
	return func(c *engineConfig) { c.semantic = enabled }
}

// WithParserCacheCapacity overrides the parsed-AST LRU capacity.
func WithParserCacheCapacity(n int) Option {
	return func(c *engineConfig) { c.parserCacheCapacity = n }
}

// WithStaleAfter overrides the ownership stale threshold (default 60s).
func WithStaleAfter(d time.Duration) Option {
	return func(c *engineConfig) { c.staleAfter = d }
}

// WithHeartbeatInterval sets the owner heartbeat period recorded on the
// Engine. The watch loop derives its heartbeat period from the stale
// threshold and does not read this value.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *engineConfig) { c.heartbeatInterval = d }
}

// WithReaderPollInterval sets the reader ownership re-probe interval
// recorded on the Engine. The watch loop derives its poll period from the
// stale threshold and does not read this value.
func WithReaderPollInterval(d time.Duration) Option {
	return func(c *engineConfig) { c.readerPollInterval = d }
}

// WithAliases supplies the path-alias table used by the relation indexer.
func WithAliases(baseDir string, aliases resolve.AliasTable) Option {
	return func(c *engineConfig) { c.aliasBaseDir = baseDir; c.aliases = aliases }
}

// dbPath returns the storage location of §6: <projectRoot>/.gildash/gildash.db.
func dbPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".gildash", "gildash.db")
}

// Open opens (creating if absent) the store at <projectRoot>/.gildash, runs
// a full index, and — when WithWatchMode is set — joins the ownership
// protocol and starts the watch loop in the background.
func Open(projectRoot string, opts ...Option) (*Engine, error) {
	cfg := engineConfig{
		staleAfter: watch.DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.heartbeatInterval == 0 {
		cfg.heartbeatInterval = watch.HeartbeatInterval(cfg.staleAfter)
	}
	if cfg.readerPollInterval == 0 {
		cfg.readerPollInterval = watch.ReaderPollInterval(cfg.staleAfter)
	}

	path := dbPath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, gderr.New(gderr.IO, "open", err)
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, gderr.New(gderr.IO, "open", err)
	}

	e := &Engine{
		store:              s,
		projectRoot:        projectRoot,
		staleAfter:         cfg.staleAfter,
		heartbeatInterval:  cfg.heartbeatInterval,
		readerPollInterval: cfg.readerPollInterval,
		watchMode:          cfg.watchMode,
		semantic:           cfg.semantic,
		graphCache:         map[string]*graphCacheEntry{},
	}
	e.coordinator = index.New(s, index.Config{
		ProjectRoot:         projectRoot,
		Extensions:          cfg.extensions,
		IgnorePatterns:      cfg.ignorePatterns,
		ParserCacheCapacity: cfg.parserCacheCapacity,
		Aliases:             cfg.aliases,
		AliasBaseDir:        cfg.aliasBaseDir,
	})
	e.coordinator.OnIndexed = func(r index.Result) {
		e.invalidateGraphs()
		if e.OnIndexed != nil {
			e.OnIndexed(r.Changed, r.Deleted)
		}
	}

	if _, err := e.coordinator.FullIndex(context.Background()); err != nil {
		s.Close()
		return nil, err
	}

	if cfg.watchMode {
		if err := e.startWatch(); err != nil {
			s.Close()
			return nil, err
		}
	}

	return e, nil
}

func (e *Engine) startWatch() error {
	instanceID := watch.NewInstanceID()
	e.loop = &watch.Loop{
		Store: e.store, Root: e.projectRoot, PID: os.Getpid(), InstanceID: instanceID,
		StaleAfter: e.staleAfter, Coordinator: e.coordinator,
		OnRoleChanged: func(r watch.Role) {
			if e.OnRoleChanged != nil {
				e.OnRoleChanged(r)
			}
		},
		OnError: func(err error) {
			if e.OnError != nil {
				e.OnError(err)
			}
		},
	}
	go func() {
		_ = e.loop.Run(context.Background())
	}()
	return nil
}

func (e *Engine) invalidateGraphs() {
	e.graphCache = map[string]*graphCacheEntry{}
}

// Reindex forces a full reindex, per the coordinator's fullIndex() entry
// point exposed through the facade.
func (e *Engine) Reindex(ctx context.Context) error {
	_, err := e.coordinator.FullIndex(ctx)
	return err
}

// Close releases the store and stops the watch loop, if running. It does
// not mark the Engine as closed: later operations reach the closed store
// and return its error, not an error of kind gderr.Closed.
func (e *Engine) Close() error {
	if e.loop != nil {
		_ = watch.Release(e.store, os.Getpid())
	}
	if err := e.store.Close(); err != nil {
		return gderr.New(gderr.IO, "close", err)
	}
	return nil
}

// Store exposes the underlying store for direct repository access.
func (e *Engine) Store() *store.Store {
	return e.store
}
