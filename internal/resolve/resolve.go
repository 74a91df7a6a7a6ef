// Package resolve implements the path & alias resolver of §4.1: a pure,
// synchronous function mapping an import specifier written in a source file
// to an ordered list of root-relative candidate paths. It performs no filesystem
// I/O — membership in the known-file set is checked by callers (§4.5).
package resolve

import (
	"path"
	"strings"
)

// relativeExtensions is the candidate suffix list for an extension-less
// relative specifier, in the exact order §4.1 and §9's open-question
// resolution (c) require: .ts strictly ahead of .d.ts.
var relativeExtensions = []string{
	".ts", ".d.ts",
	"/index.ts", "/index.d.ts",
	".mts", "/index.mts",
	".cts", "/index.cts",
}

// Alias is one entry of an alias table, e.g. {Pattern: "@app/*", Targets:
// ["./src/*"]}. A Pattern without a trailing "*" only matches exactly.
type Alias struct {
	Pattern string
	Targets []string
}

// AliasTable is an ordered list of aliases; the first matching entry wins.
type AliasTable []Alias

// Resolve implements resolve(currentFile, specifier, aliasTable?) of §4.1.
// currentFile and every returned candidate are slash-separated paths
// relative to the same root (typically the project root); baseDir is the
// directory the alias table's targets are joined against.
func Resolve(currentFile, specifier string, aliases AliasTable, baseDir string) []string {
	if isRelative(specifier) {
		joined := path.Clean(path.Join(path.Dir(currentFile), specifier))
		return candidatesFor(joined)
	}

	if len(aliases) > 0 {
		if candidates := resolveAlias(specifier, aliases, baseDir); candidates != nil {
			return candidates
		}
	}

	// Bare specifier with no alias match: this layer returns nothing: a
	// separate bare-specifier candidate builder may enumerate
	// installed-package paths, subject to the same known-file filter.
	return nil
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/")
}

// candidatesFor returns the ordered candidate list for a resolved base path
// that may already carry an extension.
func candidatesFor(base string) []string {
	if hasKnownExtension(base) {
		return []string{base}
	}
	out := make([]string, 0, len(relativeExtensions))
	for _, ext := range relativeExtensions {
		out = append(out, base+ext)
	}
	return out
}

func hasKnownExtension(p string) bool {
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".d.ts"} {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// resolveAlias tries exact-match aliases first, then trailing-"*" wildcard
// aliases, returning the first matching entry's expanded candidates.
func resolveAlias(specifier string, aliases AliasTable, baseDir string) []string {
	for _, a := range aliases {
		if !strings.HasSuffix(a.Pattern, "*") && a.Pattern == specifier {
			return expandTargets(a.Targets, "", baseDir)
		}
	}
	for _, a := range aliases {
		prefix, ok := wildcardPrefix(a.Pattern)
		if !ok || !strings.HasPrefix(specifier, prefix) {
			continue
		}
		rest := specifier[len(prefix):]
		return expandTargets(a.Targets, rest, baseDir)
	}
	return nil
}

func wildcardPrefix(pattern string) (string, bool) {
	if !strings.HasSuffix(pattern, "*") {
		return "", false
	}
	return strings.TrimSuffix(pattern, "*"), true
}

// expandTargets joins the table's base directory to each target, replacing
// a trailing "*" in the target with rest, then applies the same extension
// rules as a relative specifier.
func expandTargets(targets []string, rest, baseDir string) []string {
	var out []string
	for _, target := range targets {
		expanded := target
		if strings.HasSuffix(target, "*") {
			expanded = strings.TrimSuffix(target, "*") + rest
		}
		joined := path.Clean(path.Join(baseDir, expanded))
		out = append(out, candidatesFor(joined)...)
	}
	return out
}
