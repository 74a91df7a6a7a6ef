package resolve

// KnownFileSet is the membership table §4.5 step 1 filters candidates
// against, keyed "<project>::<path>".
type KnownFileSet map[string]bool

// Key formats the "<project>::<path>" membership key.
func Key(project, path string) string {
	return project + "::" + path
}

// FilteringResolver implements §4.5 step 1's "filtering resolver": run the
// plain resolver; if it returns nothing and the specifier is bare, fall back
// to the bare-specifier candidate builder; return the first candidate whose
// relative-to-root form is present in knownFiles, or empty if none pass.
type FilteringResolver struct {
	Aliases    AliasTable
	BaseDir    string
	Project    string
	KnownFiles KnownFileSet
}

// Resolve returns at most one candidate: the first one present in the known
// file set, or nil if none is.
func (f *FilteringResolver) Resolve(currentFile, specifier string) []string {
	candidates := Resolve(currentFile, specifier, f.Aliases, f.BaseDir)
	if len(candidates) == 0 && isBare(specifier) {
		candidates = BareSpecifierCandidates(currentFile, specifier)
	}
	for _, c := range candidates {
		if f.KnownFiles[Key(f.Project, c)] {
			return []string{c}
		}
	}
	return nil
}

func isBare(specifier string) bool {
	return !isRelative(specifier)
}
