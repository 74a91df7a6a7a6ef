package extract

import "github.com/jward/gildash/internal/model"

// SymbolDescriptor is extractSymbols's per-declaration output, matching the
// fields §4.2 lists: kind, name, span, export flag, modifiers, parameters,
// return type, members, heritage clauses, decorators, JSDoc.
type SymbolDescriptor struct {
	Kind       model.SymbolKind
	Name       string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
	Exported   bool
	Modifiers  model.Modifier
	Params     []string
	ReturnType string
	Heritage   []string
	Decorators []string
	JSDoc      string
	Members    []SymbolDescriptor
}

// IsCallable reports whether the descriptor should carry a
// "params:<n>|async:<0|1>" signature per §4.4 step 2.
func (d SymbolDescriptor) IsCallable() bool {
	switch d.Kind {
	case model.SymbolFunction, model.SymbolMethod, model.SymbolConstructor,
		model.SymbolGetter, model.SymbolSetter:
		return true
	default:
		return false
	}
}

// RawRelation is extractRelations's per-edge output before the relation
// indexer resolves it into a project-qualified model.Relation (§4.2, §4.5).
type RawRelation struct {
	Type          model.RelationType
	SrcSymbolName *string
	// DstCandidates is the destination's resolver candidate list; the
	// relation indexer takes the first one present in knownFiles.
	DstCandidates []string
	// DstSymbolName reflects the imported binding: "default" for default
	// imports, "*" for namespace imports, the named binding otherwise, or
	// nil when the relation has no symbol-level destination.
	DstSymbolName *string
}
