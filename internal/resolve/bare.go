package resolve

import "path"

// BareSpecifierCandidates enumerates likely installed-package file paths for
// a bare specifier (§4.1's "separate bare-specifier candidate builder"),
// probing the conventional node_modules layout relative to every ancestor
// directory of currentFile, nearest first. Candidates are subject to the
// same known-file filter as any other resolver output (§4.5).
func BareSpecifierCandidates(currentFile, specifier string) []string {
	var out []string
	dir := path.Dir(currentFile)
	for {
		base := path.Join(dir, "node_modules", specifier)
		out = append(out, candidatesFor(base)...)
		if dir == "." || dir == "/" {
			break
		}
		next := path.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
	return out
}
