package docmig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMergePreservesExistingKeys(t *testing.T) {
	dst := map[string]any{
		"app":     map[string]any{"title": "My App", "baseUrl": "http://localhost:3000"},
		"backend": map[string]any{"listen": map[string]any{"port": 7007}},
	}
	src := map[string]any{
		"app": map[string]any{"title": "New Title"},
	}

	merged := DeepMerge(dst, src)

	app, _ := toStringMap(merged["app"])
	assert.Equal(t, "New Title", app["title"])
	assert.Equal(t, "http://localhost:3000", app["baseUrl"])
	assert.Contains(t, merged, "backend")
}

func TestDeepMergeReplacesListsWholesale(t *testing.T) {
	dst := map[string]any{"plugins": []any{"a", "b"}}
	src := map[string]any{"plugins": []any{"c"}}

	merged := DeepMerge(dst, src)
	assert.Equal(t, []any{"c"}, merged["plugins"])

	// A second identical merge must not grow the list.
	merged = DeepMerge(merged, src)
	assert.Equal(t, []any{"c"}, merged["plugins"])
}

func TestExtractStructuredBlock(t *testing.T) {
	fragment, err := ExtractStructuredBlock("auth:\n  providers:\n    github:\n      clientId: abc\n")
	require.NoError(t, err)

	auth, ok := toStringMap(fragment["auth"])
	require.True(t, ok)
	assert.Contains(t, auth, "providers")
}

func TestExtractStructuredBlockMalformed(t *testing.T) {
	_, err := ExtractStructuredBlock("auth:\n\t- : :\n  bad")
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestKeyPathsSortedAndNested(t *testing.T) {
	doc := map[string]any{
		"auth": map[string]any{
			"providers": map[string]any{"github": map[string]any{"clientId": "x"}},
		},
		"app": map[string]any{"title": "t"},
	}

	paths := KeyPaths(doc)
	assert.Equal(t, []string{
		"app", "app.title",
		"auth", "auth.providers", "auth.providers.github", "auth.providers.github.clientId",
	}, paths)
}

func TestHasKeyPath(t *testing.T) {
	doc := ConfigDocument{
		"auth": map[string]any{"providers": map[string]any{"github": "x"}},
	}
	assert.True(t, doc.HasKeyPath("auth"))
	assert.True(t, doc.HasKeyPath("auth.providers"))
	assert.True(t, doc.HasKeyPath("auth.providers.github"))
	assert.False(t, doc.HasKeyPath("auth.providers.google"))
	assert.False(t, doc.HasKeyPath("backend"))
}

func TestMergeIntoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app-config.yaml")
	require.NoError(t, WriteText(path, "app:\n  title: Mine\n"))

	require.NoError(t, MergeInto(path, map[string]any{
		"auth": map[string]any{"providers": map[string]any{"github": map[string]any{"clientId": "id"}}},
	}, "auth fragment"))

	doc, err := LoadConfigDocument(path)
	require.NoError(t, err)
	assert.True(t, doc.HasKeyPath("app.title"))
	assert.True(t, doc.HasKeyPath("auth.providers.github.clientId"))
}

func TestLoadConfigDocumentMissingIsEmpty(t *testing.T) {
	doc, err := LoadConfigDocument(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, doc)
}
