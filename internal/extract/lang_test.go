package extract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/gildash/internal/extract"
)

func TestLanguageForFileMapsKnownExtensions(t *testing.T) {
	cases := map[string]string{
		"src/app.ts":     "typescript",
		"src/app.mts":    "typescript",
		"src/app.cts":    "typescript",
		"src/widget.tsx": "tsx",
		"src/app.js":     "javascript",
		"src/app.mjs":    "javascript",
		"src/app.cjs":    "javascript",
		"src/widget.jsx": "javascript",
	}
	for path, want := range cases {
		got, ok := extract.LanguageForFile(path)
		require.True(t, ok, path)
		require.Equal(t, want, got, path)
	}
}

func TestLanguageForFileRejectsUnknownExtension(t *testing.T) {
	_, ok := extract.LanguageForFile("README.md")
	require.False(t, ok)
}

func TestLanguageForFileIsCaseInsensitive(t *testing.T) {
	got, ok := extract.LanguageForFile("src/App.TS")
	require.True(t, ok)
	require.Equal(t, "typescript", got)
}

func TestGrammarForLanguageReturnsEachKnownGrammar(t *testing.T) {
	for _, lang := range []string{"typescript", "tsx", "javascript"} {
		g, ok := extract.GrammarForLanguage(lang)
		require.True(t, ok, lang)
		require.NotNil(t, g, lang)
	}
}

func TestGrammarForLanguageRejectsUnknownName(t *testing.T) {
	_, ok := extract.GrammarForLanguage("python")
	require.False(t, ok)
}
