package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveRelativeSpecifierOrdersTSAheadOfDTS(t *testing.T) {
	candidates := Resolve("src/app.ts", "./util", nil, "")
	require.NotEmpty(t, candidates)
	require.Equal(t, "src/util.ts", candidates[0])
	require.Equal(t, "src/util.d.ts", candidates[1])
}

func TestResolveRelativeSpecifierWithKnownExtensionIsSingleCandidate(t *testing.T) {
	candidates := Resolve("src/app.ts", "./util.tsx", nil, "")
	require.Equal(t, []string{"src/util.tsx"}, candidates)
}

func TestResolveRelativeSpecifierClimbsDirectories(t *testing.T) {
	candidates := Resolve("src/views/home.ts", "../util", nil, "")
	require.Equal(t, "src/util.ts", candidates[0])
}

func TestResolveExactAliasMatch(t *testing.T) {
	aliases := AliasTable{{Pattern: "@config", Targets: []string{"./src/config"}}}
	candidates := Resolve("anywhere.ts", "@config", aliases, "")
	require.Equal(t, "src/config.ts", candidates[0])
}

func TestResolveWildcardAliasMatch(t *testing.T) {
	aliases := AliasTable{{Pattern: "@app/*", Targets: []string{"./src/*"}}}
	candidates := Resolve("anywhere.ts", "@app/widgets/button", aliases, "")
	require.Equal(t, "src/widgets/button.ts", candidates[0])
}

func TestResolveBareSpecifierWithNoAliasMatchReturnsNil(t *testing.T) {
	candidates := Resolve("src/app.ts", "lodash", nil, "")
	require.Nil(t, candidates)
}

func TestResolveExactAliasPreferredOverWildcard(t *testing.T) {
	aliases := AliasTable{
		{Pattern: "@app/special", Targets: []string{"./src/special-case"}},
		{Pattern: "@app/*", Targets: []string{"./src/*"}},
	}
	candidates := Resolve("anywhere.ts", "@app/special", aliases, "")
	require.Equal(t, "src/special-case.ts", candidates[0])
}
