package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/gildash/internal/model"
)

// ExtractSymbols implements extractSymbols(ast) of §4.2: a list of
// top-level symbol descriptors, each possibly carrying flattened Members
// for class/interface/enum bodies.
func ExtractSymbols(ast *AST) []SymbolDescriptor {
	root := ast.Tree.RootNode()
	var out []SymbolDescriptor
	for _, child := range children(root) {
		if d, ok := extractTopLevel(child, ast.Content, false, nil); ok {
			out = append(out, d)
		}
	}
	return out
}

// extractTopLevel handles one program-level statement, unwrapping
// export_statement to recover the export flag and default-ness.
func extractTopLevel(n *sitter.Node, content []byte, exported bool, decorators []string) (SymbolDescriptor, bool) {
	if n == nil {
		return SymbolDescriptor{}, false
	}
	switch n.Type() {
	case "export_statement":
		isDefault := false
		var inner *sitter.Node
		for _, c := range children(n) {
			switch c.Type() {
			case "default":
				isDefault = true
			case "function_declaration", "generator_function_declaration",
				"class_declaration", "abstract_class_declaration",
				"interface_declaration", "enum_declaration",
				"type_alias_declaration", "lexical_declaration", "variable_declaration":
				inner = c
			}
		}
		if inner == nil {
			return SymbolDescriptor{}, false
		}
		d, ok := extractTopLevel(inner, content, true, decorators)
		if ok && isDefault {
			d.Modifiers |= model.ModDefault
			if d.Name == "" {
				d.Name = "default"
			}
		}
		return d, ok

	case "decorator":
		return SymbolDescriptor{}, false

	case "function_declaration", "generator_function_declaration":
		return extractFunction(n, content, exported), true

	case "class_declaration", "abstract_class_declaration":
		return extractClass(n, content, exported), true

	case "interface_declaration":
		return extractInterface(n, content, exported), true

	case "enum_declaration":
		return extractEnum(n, content, exported), true

	case "type_alias_declaration":
		return extractTypeAlias(n, content, exported), true

	case "lexical_declaration", "variable_declaration":
		return extractVariable(n, content, exported), true

	default:
		return SymbolDescriptor{}, false
	}
}

func span(n *sitter.Node) (startLine, startCol, endLine, endCol int) {
	sp, ep := n.StartPoint(), n.EndPoint()
	return int(sp.Row) + 1, int(sp.Column), int(ep.Row) + 1, int(ep.Column)
}

func isAsync(n *sitter.Node) bool {
	for _, c := range children(n) {
		if c.Type() == "async" {
			return true
		}
	}
	return false
}

func paramNames(n *sitter.Node, content []byte) []string {
	params := childByField(n, "parameters")
	if params == nil {
		return nil
	}
	var out []string
	for _, p := range children(params) {
		switch p.Type() {
		case "required_parameter", "optional_parameter":
			id := childByField(p, "pattern")
			if id == nil {
				id = childByField(p, "name")
			}
			out = append(out, text(id, content))
		case "identifier":
			out = append(out, text(p, content))
		}
	}
	return out
}

func extractFunction(n *sitter.Node, content []byte, exported bool) SymbolDescriptor {
	startLine, startCol, endLine, endCol := span(n)
	name := text(childByField(n, "name"), content)
	d := SymbolDescriptor{
		Kind: model.SymbolFunction, Name: name,
		StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol,
		Exported: exported, Params: paramNames(n, content),
	}
	if rt := childByField(n, "return_type"); rt != nil {
		d.ReturnType = strings.TrimPrefix(text(rt, content), ":")
	}
	if isAsync(n) {
		d.Modifiers |= model.ModAsync
	}
	if exported {
		d.Modifiers |= model.ModExport
	}
	return d
}

func extractVariable(n *sitter.Node, content []byte, exported bool) SymbolDescriptor {
	startLine, startCol, endLine, endCol := span(n)
	var name string
	for _, c := range children(n) {
		if c.Type() == "variable_declarator" {
			name = text(childByField(c, "name"), content)
			break
		}
	}
	d := SymbolDescriptor{
		Kind: model.SymbolVariable, Name: name,
		StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol,
		Exported: exported,
	}
	if exported {
		d.Modifiers |= model.ModExport
	}
	return d
}

func extractTypeAlias(n *sitter.Node, content []byte, exported bool) SymbolDescriptor {
	startLine, startCol, endLine, endCol := span(n)
	d := SymbolDescriptor{
		Kind: model.SymbolType, Name: text(childByField(n, "name"), content),
		StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol,
		Exported: exported,
	}
	if exported {
		d.Modifiers |= model.ModExport
	}
	return d
}

func extractEnum(n *sitter.Node, content []byte, exported bool) SymbolDescriptor {
	startLine, startCol, endLine, endCol := span(n)
	d := SymbolDescriptor{
		Kind: model.SymbolEnum, Name: text(childByField(n, "name"), content),
		StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol,
		Exported: exported,
	}
	if exported {
		d.Modifiers |= model.ModExport
	}
	body := childByField(n, "body")
	for _, member := range children(body) {
		if member.Type() != "property_identifier" && member.Type() != "enum_assignment" {
			continue
		}
		mName := text(member, content)
		if member.Type() == "enum_assignment" {
			mName = text(childByField(member, "name"), content)
		}
		ms, mc, me, mec := span(member)
		d.Members = append(d.Members, SymbolDescriptor{
			Kind: model.SymbolProperty, Name: mName,
			StartLine: ms, StartCol: mc, EndLine: me, EndCol: mec,
		})
	}
	return d
}

func extractInterface(n *sitter.Node, content []byte, exported bool) SymbolDescriptor {
	startLine, startCol, endLine, endCol := span(n)
	d := SymbolDescriptor{
		Kind: model.SymbolInterface, Name: text(childByField(n, "name"), content),
		StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol,
		Exported: exported, Heritage: extractHeritage(n, content),
	}
	if exported {
		d.Modifiers |= model.ModExport
	}
	body := childByField(n, "body")
	for _, member := range children(body) {
		if md, ok := extractMember(member, content); ok {
			d.Members = append(d.Members, md)
		}
	}
	return d
}

func extractClass(n *sitter.Node, content []byte, exported bool) SymbolDescriptor {
	startLine, startCol, endLine, endCol := span(n)
	d := SymbolDescriptor{
		Kind: model.SymbolClass, Name: text(childByField(n, "name"), content),
		StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol,
		Exported: exported, Heritage: extractHeritage(n, content),
	}
	if exported {
		d.Modifiers |= model.ModExport
	}
	for _, c := range children(n) {
		if c.Type() == "abstract" {
			d.Modifiers |= model.ModAbstract
		}
	}
	body := childByField(n, "body")
	for _, member := range children(body) {
		if md, ok := extractMember(member, content); ok {
			d.Members = append(d.Members, md)
		}
	}
	return d
}

// extractHeritage collects the extends/implements clause identifiers.
func extractHeritage(n *sitter.Node, content []byte) []string {
	var out []string
	for _, c := range children(n) {
		switch c.Type() {
		case "class_heritage":
			out = append(out, extractHeritage(c, content)...)
		case "extends_clause", "implements_clause":
			for _, cc := range children(c) {
				if cc.Type() == "identifier" || cc.Type() == "type_identifier" || cc.Type() == "generic_type" {
					out = append(out, text(cc, content))
				}
			}
		}
	}
	return out
}

// extractMember flattens one class/interface body member into its own
// descriptor with a dotted name, per §4.4 step 3.
func extractMember(n *sitter.Node, content []byte) (SymbolDescriptor, bool) {
	var kind model.SymbolKind
	switch n.Type() {
	case "method_definition", "method_signature":
		kind = model.SymbolMethod
	case "public_field_definition", "property_signature":
		kind = model.SymbolProperty
	default:
		return SymbolDescriptor{}, false
	}

	startLine, startCol, endLine, endCol := span(n)
	name := text(childByField(n, "name"), content)
	d := SymbolDescriptor{
		Kind: kind, Name: name,
		StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol,
		Params: paramNames(n, content),
	}

	for _, c := range children(n) {
		switch c.Type() {
		case "accessibility_modifier":
			switch text(c, content) {
			case "private":
				d.Modifiers |= model.ModPrivate
			case "protected":
				d.Modifiers |= model.ModProtected
			case "public":
				d.Modifiers |= model.ModPublic
			}
		case "static":
			d.Modifiers |= model.ModStatic
		case "readonly":
			d.Modifiers |= model.ModReadonly
		case "abstract":
			d.Modifiers |= model.ModAbstract
		case "async":
			d.Modifiers |= model.ModAsync
		case "get":
			kind = model.SymbolGetter
		case "set":
			kind = model.SymbolSetter
		}
	}
	if name == "constructor" && kind == model.SymbolMethod {
		kind = model.SymbolConstructor
	}
	d.Kind = kind
	if rt := childByField(n, "return_type"); rt != nil {
		d.ReturnType = strings.TrimPrefix(text(rt, content), ":")
	}
	return d, true
}
