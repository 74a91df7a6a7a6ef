// Package index implements the index coordinator of §4.6: the two-phase
// files-then-symbols/relations pipeline, for both a full reindex and
// watcher-driven incremental updates.
package index

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jward/gildash/internal/discover"
	"github.com/jward/gildash/internal/extract"
	"github.com/jward/gildash/internal/gderr"
	"github.com/jward/gildash/internal/model"
	"github.com/jward/gildash/internal/resolve"
	"github.com/jward/gildash/internal/store"
)

// Config is the subset of the facade's options the coordinator needs.
type Config struct {
	ProjectRoot          string
	Extensions           []string
	IgnorePatterns       []string
	ParserCacheCapacity  int
	Aliases              resolve.AliasTable
	AliasBaseDir         string
}

// Result is the §6 "indexed" event payload.
type Result struct {
	Changed  []string // "<project>::<path>"
	Deleted  []string
	Failures []Failure
}

// Failure records one file whose read or parse step failed. Per §7's
// disposition table, parse and per-file I/O errors are recorded here and
// the file is skipped rather than poisoning the rest of the batch.
type Failure struct {
	Project string
	Path    string
	Err     error
}

// Coordinator owns the store connection, the AST cache, and the current
// discovery configuration.
type Coordinator struct {
	store  *store.Store
	cache  *astCache
	config Config

	OnIndexed func(Result)
}

// New builds a Coordinator against an already-open store.
func New(s *store.Store, cfg Config) *Coordinator {
	return &Coordinator{
		store:  s,
		cache:  newASTCache(cfg.ParserCacheCapacity),
		config: cfg,
	}
}

type parsedFile struct {
	project     string
	path        string
	absPath     string
	contentHash string
	ast         *extract.AST
	lineCount   int
	size        int64
	mtimeMillis int64
	isNew       bool
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%x", sum)
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	return strings.Count(string(content), "\n") + 1
}

// readAndParse performs the suspension-point work of §5: file I/O and
// parsing may block, but touch no shared mutable state.
func readAndParse(ctx context.Context, root, project, relPath string) (*parsedFile, error) {
	abs := filepath.Join(root, relPath)
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, gderr.New(gderr.IO, "read "+relPath, err)
	}
	lang, ok := extract.LanguageForFile(relPath)
	if !ok {
		return nil, nil
	}
	ast, err := extract.Parse(ctx, content, lang)
	if err != nil {
		return nil, gderr.New(gderr.Parse, "parse "+relPath, err)
	}
	info, statErr := os.Stat(abs)
	var mtimeMillis int64
	var size int64
	if statErr == nil {
		mtimeMillis = info.ModTime().UnixMilli()
		size = info.Size()
	}
	return &parsedFile{
		project: project, path: relPath, absPath: abs,
		contentHash: hashContent(content), ast: ast,
		lineCount: countLines(content), size: size, mtimeMillis: mtimeMillis,
	}, nil
}

// parseConcurrently runs readAndParse over every path with bounded
// parallelism, the coordinator's one deliberate concurrency point (§5: "no
// suspension occurs inside a single replaceFileRelations call" — all the
// suspending work happens here, before any transaction opens). A per-file
// read or parse error is recorded as a Failure and the file is dropped from
// the result; it does not cancel the rest of the batch (§7).
func parseConcurrently(ctx context.Context, root string, paths []discover.Discovered, projectFor func(string) string) ([]*parsedFile, []Failure, error) {
	results := make([]*parsedFile, len(paths))
	failures := make([]*Failure, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			project := projectFor(p.Path)
			pf, err := readAndParse(gctx, root, project, p.Path)
			if err != nil {
				if gderr.Is(err, gderr.IO) || gderr.Is(err, gderr.Parse) {
					failures[i] = &Failure{Project: project, Path: p.Path, Err: err}
					return nil
				}
				return err
			}
			results[i] = pf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	out := make([]*parsedFile, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	var failed []Failure
	for _, f := range failures {
		if f != nil {
			failed = append(failed, *f)
		}
	}
	return out, failed, nil
}

// FullIndex implements §4.6's fullIndex(): discover projects, load
// existing file maps, then run the two-pass pipeline inside one top-level
// transaction.
func (c *Coordinator) FullIndex(ctx context.Context) (Result, error) {
	boundaries, err := discover.BuildBoundaries(c.config.ProjectRoot, discover.Options{
		Extensions: c.config.Extensions, IgnorePatterns: c.config.IgnorePatterns,
	})
	if err != nil {
		return Result{}, gderr.New(gderr.IO, "build boundaries", err)
	}

	discovered, err := discover.Walk(c.config.ProjectRoot, discover.Options{
		Extensions: c.config.Extensions, IgnorePatterns: c.config.IgnorePatterns,
	})
	if err != nil {
		return Result{}, gderr.New(gderr.IO, "walk project", err)
	}

	parsed, failures, err := parseConcurrently(ctx, c.config.ProjectRoot, discovered, boundaries.ProjectFor)
	if err != nil {
		return Result{}, err
	}

	result := Result{Failures: failures}
	err = c.store.Transaction(func(tx *store.Tx) error {
		existingByProject := map[string]map[string]model.File{}
		discoveredSet := map[string]bool{}

		for _, pf := range parsed {
			discoveredSet[resolve.Key(pf.project, pf.path)] = true
			if _, ok := existingByProject[pf.project]; !ok {
				m, err := c.store.Files().MapByPath(tx, pf.project)
				if err != nil {
					return err
				}
				existingByProject[pf.project] = m
			}
		}
		// A project whose files have all disappeared has no parsed file, but
		// its stored rows still need loading so they are deleted below.
		for _, dir := range boundaries.Dirs {
			if _, ok := existingByProject[dir]; ok {
				continue
			}
			m, err := c.store.Files().MapByPath(tx, dir)
			if err != nil {
				return err
			}
			existingByProject[dir] = m
		}

		var toReindex []*parsedFile
		for _, pf := range parsed {
			existing, ok := existingByProject[pf.project][pf.path]
			if ok && existing.ContentHash == pf.contentHash {
				continue
			}
			pf.isNew = !ok
			toReindex = append(toReindex, pf)
			lineCount := pf.lineCount
			if err := c.store.Files().Upsert(tx, model.File{
				Project: pf.project, Path: pf.path, MTimeMillis: pf.mtimeMillis,
				Size: pf.size, ContentHash: pf.contentHash, UpdatedAt: time.Now(), LineCount: &lineCount,
			}); err != nil {
				return err
			}
			result.Changed = append(result.Changed, resolve.Key(pf.project, pf.path))
		}

		for project, existing := range existingByProject {
			for p := range existing {
				if !discoveredSet[resolve.Key(project, p)] {
					if err := c.store.Files().Delete(tx, project, p); err != nil {
						return err
					}
					result.Deleted = append(result.Deleted, resolve.Key(project, p))
				}
			}
		}

		knownFiles, err := c.buildKnownFiles(tx, uniqueProjects(parsed))
		if err != nil {
			return err
		}

		for _, pf := range toReindex {
			if err := c.indexOne(tx, pf, knownFiles, boundaries); err != nil {
				return err
			}
			c.cache.put(pf.project, pf.path, pf.ast)
		}
		return nil
	})
	if err != nil {
		return Result{}, gderr.New(gderr.StoreBusy, "full index", err)
	}

	if c.OnIndexed != nil {
		c.OnIndexed(result)
	}
	return result, nil
}

func uniqueProjects(parsed []*parsedFile) []string {
	seen := map[string]bool{}
	var out []string
	for _, pf := range parsed {
		if !seen[pf.project] {
			seen[pf.project] = true
			out = append(out, pf.project)
		}
	}
	return out
}

// buildKnownFiles implements §4.6 step 4: the knownFiles set is built from
// the now-current file rows across the given projects.
func (c *Coordinator) buildKnownFiles(tx *store.Tx, projects []string) (resolve.KnownFileSet, error) {
	out := resolve.KnownFileSet{}
	for _, project := range projects {
		files, err := c.store.Files().ListAll(tx, project)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			out[resolve.Key(project, f.Path)] = true
		}
	}
	return out, nil
}

func (c *Coordinator) indexOne(tx *store.Tx, pf *parsedFile, knownFiles resolve.KnownFileSet, boundaries discover.Boundaries) error {
	if err := IndexSymbols(tx, c.store.Symbols(), pf.project, pf.path, pf.contentHash, pf.ast); err != nil {
		return fmt.Errorf("index symbols %s/%s: %w", pf.project, pf.path, err)
	}
	if err := IndexRelations(tx, c.store.Relations(), pf.project, pf.path, c.config.Aliases, c.config.AliasBaseDir, knownFiles, boundaries, pf.ast); err != nil {
		return fmt.Errorf("index relations %s/%s: %w", pf.project, pf.path, err)
	}
	return nil
}
