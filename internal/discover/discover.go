// Package discover walks a project root honoring include-extension filters
// and ignore patterns, and builds the project-boundary table used by the
// index coordinator (§4.6) and the relation indexer (§4.5).
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultExtensions is the §6 option-table default for "extensions".
var DefaultExtensions = []string{".ts", ".mts", ".cts"}

// DefaultManifestGlob finds project roots: any directory containing a
// package.json is treated as a project boundary.
const DefaultManifestGlob = "**/package.json"

// Options configures a Walk/Boundaries call.
type Options struct {
	Extensions     []string
	IgnorePatterns []string
	ManifestGlob   string
}

func (o Options) extensions() []string {
	if len(o.Extensions) > 0 {
		return o.Extensions
	}
	return DefaultExtensions
}

func (o Options) manifestGlob() string {
	if o.ManifestGlob != "" {
		return o.ManifestGlob
	}
	return DefaultManifestGlob
}

// Boundaries builds the project-boundary table of §4.6 step 1: every
// directory containing a manifest matched by ManifestGlob is a project
// root, plus the overall root itself ("."). Dirs is sorted longest-first so
// ProjectFor finds the nearest enclosing manifest.
type Boundaries struct {
	Dirs []string // longest-first, slash-separated, relative to root
}

// BuildBoundaries globs root for project manifests and returns the
// resulting boundary table.
func BuildBoundaries(root string, opts Options) (Boundaries, error) {
	matches, err := doublestar.Glob(os.DirFS(root), opts.manifestGlob())
	if err != nil {
		return Boundaries{}, err
	}
	dirs := map[string]bool{".": true}
	for _, m := range matches {
		dirs[filepath.ToSlash(filepath.Dir(m))] = true
	}
	out := make([]string, 0, len(dirs))
	for d := range dirs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return Boundaries{Dirs: out}, nil
}

// ProjectFor returns the project identifier for a relative file path: the
// nearest enclosing manifest directory, or "." if none encloses it.
func (b Boundaries) ProjectFor(path string) string {
	for _, dir := range b.Dirs {
		if dir == "." {
			continue
		}
		if path == dir || strings.HasPrefix(path, dir+"/") {
			return dir
		}
	}
	return "."
}

// Discovered is one file found by Walk.
type Discovered struct {
	Path string // relative to root, slash-separated
}

// Walk enumerates files under root honoring Options' extension and ignore
// filters. No file content is read here — that is Pass 1's job (§4.6).
func Walk(root string, opts Options) ([]Discovered, error) {
	matcher := compileIgnore(opts.IgnorePatterns)
	exts := make(map[string]bool, len(opts.extensions()))
	for _, e := range opts.extensions() {
		exts[strings.ToLower(e)] = true
	}

	var out []Discovered
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if rel == ".gildash" || matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.MatchesPath(rel) {
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(rel))] {
			return nil
		}
		out = append(out, Discovered{Path: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func compileIgnore(patterns []string) *ignore.GitIgnore {
	if len(patterns) == 0 {
		return ignore.CompileIgnoreLines()
	}
	return ignore.CompileIgnoreLines(patterns...)
}
