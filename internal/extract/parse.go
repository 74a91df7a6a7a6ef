package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/gildash/internal/gderr"
)

// AST bundles a parsed tree with the source bytes it was parsed from, since
// node text is recovered by slicing content at byte offsets, not through
// the tree itself.
type AST struct {
	Tree    *sitter.Tree
	Content []byte
	Lang    string
}

// Close releases the underlying tree-sitter tree.
func (a *AST) Close() {
	if a.Tree != nil {
		a.Tree.Close()
	}
}

// Parse parses content as the named language. The caller owns the returned
// AST and must call Close when done with it — callers that cache parsed
// ASTs (the index coordinator's Pass 1, §4.6) hold the tree open for the
// lifetime of the cache entry.
func Parse(ctx context.Context, content []byte, lang string) (*AST, error) {
	grammar, ok := GrammarForLanguage(lang)
	if !ok {
		return nil, gderr.New(gderr.Parse, "parse", fmt.Errorf("unsupported language %q", lang))
	}
	parser := sitter.NewParser()
	parser.SetLanguage(grammar)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, gderr.New(gderr.Parse, "parse", err)
	}
	return &AST{Tree: tree, Content: content, Lang: lang}, nil
}

func text(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

func childByField(n *sitter.Node, field string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(field)
}

func children(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		out = append(out, n.Child(i))
	}
	return out
}
