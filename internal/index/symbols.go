package index

import (
	"encoding/json"
	"fmt"

	"github.com/jward/gildash/internal/extract"
	"github.com/jward/gildash/internal/model"
	"github.com/jward/gildash/internal/store"
)

// detail is the JSON shape persisted in symbols.detail_json: everything
// extractSymbols captured that doesn't have its own column.
type detail struct {
	Params     []string `json:"params,omitempty"`
	ReturnType string   `json:"returnType,omitempty"`
	Heritage   []string `json:"heritage,omitempty"`
	Decorators []string `json:"decorators,omitempty"`
	JSDoc      string   `json:"jsdoc,omitempty"`
}

func detailJSON(d extract.SymbolDescriptor) string {
	b, err := json.Marshal(detail{
		Params: d.Params, ReturnType: d.ReturnType,
		Heritage: d.Heritage, Decorators: d.Decorators, JSDoc: d.JSDoc,
	})
	if err != nil {
		return "{}"
	}
	return string(b)
}

func signature(d extract.SymbolDescriptor) *string {
	if !d.IsCallable() {
		return nil
	}
	async := 0
	if d.Modifiers.Has(model.ModAsync) {
		async = 1
	}
	s := fmt.Sprintf("params:%d|async:%d", len(d.Params), async)
	return &s
}

func toSymbolRow(d extract.SymbolDescriptor, name string) model.Symbol {
	kind := d.Kind
	dj := detailJSON(d)
	sig := signature(d)
	var sigForFingerprint string
	if sig != nil {
		sigForFingerprint = *sig
	}
	return model.Symbol{
		Name: name, Kind: kind,
		StartLine: d.StartLine, StartCol: d.StartCol, EndLine: d.EndLine, EndCol: d.EndCol,
		Exported: d.Exported, Signature: sig, DetailJSON: dj,
		Modifiers:   d.Modifiers,
		Fingerprint: store.ComputeFingerprint(name, string(kind), sigAsPtr(sigForFingerprint), dj),
	}
}

func sigAsPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// flatten turns extractSymbols's tree-shaped output into the flat row list
// §4.4 step 3 describes: members get a dotted name, e.g. "Widget.render".
func flatten(descriptors []extract.SymbolDescriptor) []model.Symbol {
	var out []model.Symbol
	for _, d := range descriptors {
		out = append(out, toSymbolRow(d, d.Name))
		for _, m := range d.Members {
			out = append(out, toSymbolRow(m, d.Name+"."+m.Name))
		}
	}
	return out
}

// IndexSymbols implements the symbol indexer of §4.4.
func IndexSymbols(tx *store.Tx, symbols *store.Symbols, project, path, contentHash string, ast *extract.AST) error {
	descriptors := extract.ExtractSymbols(ast)
	rows := flatten(descriptors)
	return symbols.ReplaceFileSymbols(tx, project, path, contentHash, rows)
}
