package index

import (
	"path"
	"strings"

	"github.com/jward/gildash/internal/discover"
	"github.com/jward/gildash/internal/extract"
	"github.com/jward/gildash/internal/model"
	"github.com/jward/gildash/internal/resolve"
	"github.com/jward/gildash/internal/store"
)

// IndexRelations implements the relation indexer of §4.5.
func IndexRelations(tx *store.Tx, relations *store.Relations, project, path_ string, aliases resolve.AliasTable, baseDir string, knownFiles resolve.KnownFileSet, boundaries discover.Boundaries, ast *extract.AST) error {
	filtering := &resolve.FilteringResolver{
		Aliases: aliases, BaseDir: baseDir, Project: project, KnownFiles: knownFiles,
	}
	raw := extract.ExtractRelations(ast, path_, filtering.Resolve)

	rows := make([]model.Relation, 0, len(raw))
	for _, r := range raw {
		if len(r.DstCandidates) == 0 {
			continue
		}
		dst := r.DstCandidates[0]
		rel, ok := toRelationRow(project, path_, dst, r, boundaries)
		if !ok {
			continue
		}
		rows = append(rows, rel)
	}
	return relations.ReplaceFileRelations(tx, project, path_, rows)
}

// toRelationRow computes the relative destination path, discards anything
// outside the project root, and assigns destProject via the boundary
// table, per §4.5 step 3.
func toRelationRow(project, srcPath, dst string, r extract.RawRelation, boundaries discover.Boundaries) (model.Relation, bool) {
	clean := path.Clean(dst)
	if strings.HasPrefix(clean, "../") || clean == ".." || strings.HasPrefix(clean, "/") {
		return model.Relation{}, false
	}
	dstProject := project
	if boundaries.Dirs != nil {
		dstProject = boundaries.ProjectFor(clean)
	}
	return model.Relation{
		Project: project, Type: r.Type,
		SrcFilePath: srcPath, SrcSymbolName: r.SrcSymbolName,
		DstProject: dstProject, DstFilePath: clean, DstSymbolName: r.DstSymbolName,
	}, true
}
