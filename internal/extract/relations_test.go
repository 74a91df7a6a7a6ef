package extract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/gildash/internal/extract"
	"github.com/jward/gildash/internal/model"
)

func fixedResolver(dst string) extract.ResolveFunc {
	return func(currentFile, specifier string) []string {
		return []string{dst}
	}
}

func TestExtractRelationsNamedImport(t *testing.T) {
	ast := parseTS(t, `import { loadConfig } from "./config";
loadConfig();
`)
	rels := extract.ExtractRelations(ast, "src/app.ts", fixedResolver("src/config.ts"))

	var imports, calls int
	for _, r := range rels {
		switch r.Type {
		case model.RelationImports:
			imports++
			require.Equal(t, []string{"src/config.ts"}, r.DstCandidates)
			require.NotNil(t, r.DstSymbolName)
			require.Equal(t, "loadConfig", *r.DstSymbolName)
		case model.RelationCalls:
			calls++
		}
	}
	require.Equal(t, 1, imports)
	require.Equal(t, 1, calls)
}

func TestExtractRelationsDefaultImport(t *testing.T) {
	ast := parseTS(t, `import Widget from "./widget";
`)
	rels := extract.ExtractRelations(ast, "src/app.ts", fixedResolver("src/widget.ts"))
	require.Len(t, rels, 1)
	require.Equal(t, model.RelationImports, rels[0].Type)
	require.Equal(t, "default", *rels[0].DstSymbolName)
}

func TestExtractRelationsSideEffectImport(t *testing.T) {
	ast := parseTS(t, `import "./polyfill";
`)
	rels := extract.ExtractRelations(ast, "src/app.ts", fixedResolver("src/polyfill.ts"))
	require.Len(t, rels, 1)
	require.Equal(t, model.RelationImports, rels[0].Type)
	require.Equal(t, "*", *rels[0].DstSymbolName)
}

func TestExtractRelationsReexport(t *testing.T) {
	ast := parseTS(t, `export * from "./utils";
`)
	rels := extract.ExtractRelations(ast, "src/index.ts", fixedResolver("src/utils.ts"))
	require.Len(t, rels, 1)
	require.Equal(t, model.RelationReexports, rels[0].Type)
}

func TestExtractRelationsClassHeritage(t *testing.T) {
	ast := parseTS(t, `import { Base } from "./base";
import { Drawable } from "./drawable";
export class Widget extends Base implements Drawable {}
`)
	rels := extract.ExtractRelations(ast, "src/widget.ts", func(currentFile, specifier string) []string {
		switch specifier {
		case "./base":
			return []string{"src/base.ts"}
		case "./drawable":
			return []string{"src/drawable.ts"}
		}
		return nil
	})

	var extends, implements int
	for _, r := range rels {
		switch r.Type {
		case model.RelationExtends:
			extends++
			require.Equal(t, []string{"src/base.ts"}, r.DstCandidates)
		case model.RelationImplements:
			implements++
			require.Equal(t, []string{"src/drawable.ts"}, r.DstCandidates)
		}
	}
	require.Equal(t, 1, extends)
	require.Equal(t, 1, implements)
}

func TestExtractRelationsUnresolvedImportIsDropped(t *testing.T) {
	ast := parseTS(t, `import { loadConfig } from "missing-package";
`)
	rels := extract.ExtractRelations(ast, "src/app.ts", func(currentFile, specifier string) []string {
		return nil
	})
	require.Empty(t, rels)
}
