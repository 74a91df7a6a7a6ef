package gildash

import (
	"github.com/jward/gildash/internal/model"
	"github.com/jward/gildash/internal/store"
)

// SearchSymbols resolves a symbol-name lookup through the prefix index
// (§4.3's searchByPrefix), optionally narrowed by kind and project.
func (e *Engine) SearchSymbols(text, kind, project string) ([]model.Symbol, error) {
	var out []model.Symbol
	err := e.store.Transaction(func(tx *store.Tx) error {
		rows, err := e.store.Symbols().SearchByPrefix(tx, text, kind, project)
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

// SymbolStats reports aggregate symbol counts per kind for a project (the
// supplemented symbols.stats shape).
func (e *Engine) SymbolStats(project string) (map[model.SymbolKind]int, error) {
	var out map[model.SymbolKind]int
	err := e.store.Transaction(func(tx *store.Tx) error {
		stats, err := e.store.Symbols().Stats(tx, project)
		if err != nil {
			return err
		}
		out = stats
		return nil
	})
	return out, err
}

// SearchRelations runs a relations.search(filter) query (the supplemented
// relations.search shape).
func (e *Engine) SearchRelations(filter model.RelationFilter) ([]model.Relation, error) {
	var out []model.Relation
	err := e.store.Transaction(func(tx *store.Tx) error {
		rows, err := e.store.Relations().Search(tx, filter)
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}
