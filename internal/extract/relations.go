package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/gildash/internal/model"
)

// ResolveFunc is the injected resolver of §4.2: given the current file and
// an import specifier, it returns candidate destination paths in
// preference order. The relation indexer supplies the filtering resolver
// of §4.5; extractRelations only ever looks at candidates[0].
type ResolveFunc func(currentFile, specifier string) []string

// importBinding records, per local identifier, which specifier it was
// imported from and which exported name it binds to — the "per-file import
// map" §4.2 says calls and heritage are resolved through.
type importBinding struct {
	specifier string
	exported  string // "default", "*", or the named binding
}

// ExtractRelations implements extractRelations(ast, path, aliases,
// resolveFn) of §4.2.
func ExtractRelations(ast *AST, path string, resolve ResolveFunc) []RawRelation {
	root := ast.Tree.RootNode()
	content := ast.Content

	bindings := map[string]importBinding{}
	var out []RawRelation

	for _, n := range children(root) {
		switch n.Type() {
		case "import_statement":
			out = append(out, extractImportStatement(n, content, path, resolve, bindings)...)
		case "export_statement":
			out = append(out, extractExportStatement(n, content, path, resolve, bindings)...)
		}
	}

	// Second sweep for calls and heritage, now that bindings is complete.
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "call_expression":
			if rel, ok := resolveCallTarget(n, content, path, resolve, bindings); ok {
				out = append(out, rel)
			}
		case "class_declaration", "abstract_class_declaration", "interface_declaration":
			out = append(out, resolveHeritageTargets(n, content, path, resolve, bindings)...)
		}
		for _, c := range children(n) {
			walk(c)
		}
	}
	walk(root)

	return out
}

func firstCandidate(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

func extractImportStatement(n *sitter.Node, content []byte, path string, resolve ResolveFunc, bindings map[string]importBinding) []RawRelation {
	var specifier string
	var clause *sitter.Node
	for _, c := range children(n) {
		switch c.Type() {
		case "string":
			specifier = unquote(text(c, content))
		case "import_clause":
			clause = c
		}
	}
	if specifier == "" {
		return nil
	}
	candidates := resolve(path, specifier)
	dst, ok := firstCandidate(candidates)

	var rels []RawRelation
	names := collectImportNames(clause, content)
	if len(names) == 0 {
		// Side-effect-only import: `import "./polyfill"`.
		names = []map[string]string{{"local": "", "exported": "*"}}
	}
	for _, n := range names {
		if n["local"] != "" {
			bindings[n["local"]] = importBinding{specifier: specifier, exported: n["exported"]}
		}
		if !ok {
			continue
		}
		sym := n["exported"]
		rels = append(rels, RawRelation{
			Type:          model.RelationImports,
			DstCandidates: []string{dst},
			DstSymbolName: strPtrOrNil(sym),
		})
	}
	return rels
}

// collectImportNames walks an import_clause and returns one map per bound
// name: {"local": <local identifier>, "exported": "default"|"*"|<name>}.
func collectImportNames(clause *sitter.Node, content []byte) []map[string]string {
	if clause == nil {
		return nil
	}
	var out []map[string]string
	for _, c := range children(clause) {
		switch c.Type() {
		case "identifier":
			out = append(out, map[string]string{"local": text(c, content), "exported": "default"})
		case "namespace_import":
			for _, gc := range children(c) {
				if gc.Type() == "identifier" {
					out = append(out, map[string]string{"local": text(gc, content), "exported": "*"})
				}
			}
		case "named_imports":
			for _, gc := range children(c) {
				if gc.Type() != "import_specifier" {
					continue
				}
				ids := children(gc)
				switch len(ids) {
				case 1:
					out = append(out, map[string]string{"local": text(ids[0], content), "exported": text(ids[0], content)})
				case 2:
					out = append(out, map[string]string{"local": text(ids[1], content), "exported": text(ids[0], content)})
				}
			}
		}
	}
	return out
}

func extractExportStatement(n *sitter.Node, content []byte, path string, resolve ResolveFunc, bindings map[string]importBinding) []RawRelation {
	var specifier string
	for _, c := range children(n) {
		if c.Type() == "string" {
			specifier = unquote(text(c, content))
		}
	}
	if specifier == "" {
		return nil
	}
	candidates := resolve(path, specifier)
	dst, ok := firstCandidate(candidates)
	if !ok {
		return nil
	}
	return []RawRelation{{
		Type:          model.RelationReexports,
		DstCandidates: []string{dst},
		DstSymbolName: strPtrOrNil("*"),
	}}
}

func resolveCallTarget(n *sitter.Node, content []byte, path string, resolve ResolveFunc, bindings map[string]importBinding) (RawRelation, bool) {
	callee := childByField(n, "function")
	if callee == nil {
		return RawRelation{}, false
	}
	name := ""
	switch callee.Type() {
	case "identifier":
		name = text(callee, content)
	case "member_expression":
		obj := childByField(callee, "object")
		if obj != nil && obj.Type() == "identifier" {
			name = text(obj, content)
		}
	default:
		return RawRelation{}, false
	}
	b, ok := bindings[name]
	if !ok {
		return RawRelation{}, false
	}
	candidates := resolve(path, b.specifier)
	dst, ok := firstCandidate(candidates)
	if !ok {
		return RawRelation{}, false
	}
	return RawRelation{
		Type:          model.RelationCalls,
		DstCandidates: []string{dst},
		DstSymbolName: strPtrOrNil(b.exported),
	}, true
}

func resolveHeritageTargets(n *sitter.Node, content []byte, path string, resolve ResolveFunc, bindings map[string]importBinding) []RawRelation {
	var out []RawRelation
	for _, c := range children(n) {
		var relType model.RelationType
		switch c.Type() {
		case "class_heritage":
			for _, cc := range children(c) {
				switch cc.Type() {
				case "extends_clause":
					out = append(out, heritageRelations(cc, content, path, resolve, bindings, model.RelationExtends)...)
				case "implements_clause":
					out = append(out, heritageRelations(cc, content, path, resolve, bindings, model.RelationImplements)...)
				}
			}
		case "extends_clause":
			relType = model.RelationExtends
			out = append(out, heritageRelations(c, content, path, resolve, bindings, relType)...)
		case "implements_clause":
			relType = model.RelationImplements
			out = append(out, heritageRelations(c, content, path, resolve, bindings, relType)...)
		}
	}
	return out
}

func heritageRelations(clause *sitter.Node, content []byte, path string, resolve ResolveFunc, bindings map[string]importBinding, relType model.RelationType) []RawRelation {
	var out []RawRelation
	for _, c := range children(clause) {
		if c.Type() != "identifier" && c.Type() != "type_identifier" {
			continue
		}
		name := text(c, content)
		b, ok := bindings[name]
		if !ok {
			continue
		}
		candidates := resolve(path, b.specifier)
		dst, ok := firstCandidate(candidates)
		if !ok {
			continue
		}
		out = append(out, RawRelation{
			Type:          relType,
			DstCandidates: []string{dst},
			DstSymbolName: strPtrOrNil(b.exported),
		})
	}
	return out
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
