package docmig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAccumulator(t *testing.T) *ConfigAccumulator {
	t.Helper()
	return NewConfigAccumulator(zap.NewNop().Sugar())
}

func TestBuildDualDocumentsKeyParity(t *testing.T) {
	dir := t.TempDir()
	a := testAccumulator(t)

	require.NoError(t, a.AddYAML("auth", "auth:\n  providers:\n    github:\n      clientId: ${AUTH_GITHUB_CLIENT_ID}\n"))
	a.CaptureLiteral("AUTH_GITHUB_CLIENT_ID", "real-client-id")

	template, local, err := a.BuildDualDocuments(dir)
	require.NoError(t, err)
	require.NotEmpty(t, template)
	require.NotEmpty(t, local)

	templateDoc, err := LoadConfigDocument(template)
	require.NoError(t, err)
	localDoc, err := LoadConfigDocument(local)
	require.NoError(t, err)

	assert.Equal(t, KeyPaths(templateDoc), KeyPaths(localDoc))
}

func TestBuildDualDocumentsSubstitution(t *testing.T) {
	dir := t.TempDir()
	a := testAccumulator(t)

	require.NoError(t, a.AddYAML("auth", "auth:\n  providers:\n    github:\n      clientId: ${AUTH_GITHUB_CLIENT_ID}\n"))
	a.CaptureLiteral("AUTH_GITHUB_CLIENT_ID", "real-client-id")

	template, local, err := a.BuildDualDocuments(dir)
	require.NoError(t, err)

	templateText, err := ReadText(template)
	require.NoError(t, err)
	localText, err := ReadText(local)
	require.NoError(t, err)

	assert.Contains(t, templateText, "${AUTH_GITHUB_CLIENT_ID}")
	assert.Contains(t, localText, "real-client-id")
	assert.NotContains(t, localText, "${AUTH_GITHUB_CLIENT_ID}")
}

func TestDualDocumentsInheritScaffoldKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteText(filepath.Join(dir, TemplateConfigName), "app:\n  title: Example\n"))

	a := testAccumulator(t)
	require.NoError(t, a.AddYAML("auth", "auth:\n  providers:\n    github:\n      clientId: ${AUTH_GITHUB_CLIENT_ID}\n"))
	a.CaptureLiteral("AUTH_GITHUB_CLIENT_ID", "real-client-id")

	template, local, err := a.BuildDualDocuments(dir)
	require.NoError(t, err)

	templateDoc, err := LoadConfigDocument(template)
	require.NoError(t, err)
	localDoc, err := LoadConfigDocument(local)
	require.NoError(t, err)

	// Keys the scaffold shipped with must appear on both sides.
	assert.Equal(t, KeyPaths(templateDoc), KeyPaths(localDoc))
	assert.True(t, localDoc.HasKeyPath("app.title"))

	localText, err := ReadText(local)
	require.NoError(t, err)
	assert.Contains(t, localText, "real-client-id")
}

func TestDualModeSkippedWithoutLiterals(t *testing.T) {
	dir := t.TempDir()
	a := testAccumulator(t)

	require.NoError(t, a.AddYAML("auth", "auth:\n  providers: {}\n"))

	template, local, err := a.BuildDualDocuments(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, template)
	assert.Empty(t, local)
	assert.False(t, Exists(filepath.Join(dir, LocalConfigName)))
}

func TestBuildDualDocumentsEmptyAccumulator(t *testing.T) {
	dir := t.TempDir()
	a := testAccumulator(t)

	template, local, err := a.BuildDualDocuments(dir)
	require.NoError(t, err)
	assert.Empty(t, template)
	assert.Empty(t, local)
	assert.False(t, Exists(filepath.Join(dir, TemplateConfigName)))
}

func TestAccumulatorMergesFragmentsInOrder(t *testing.T) {
	a := testAccumulator(t)
	a.Add("first", map[string]any{"app": map[string]any{"title": "One"}})
	a.Add("second", map[string]any{"app": map[string]any{"title": "Two", "baseUrl": "http://x"}})

	merged := a.Merged()
	app, _ := toStringMap(merged["app"])
	assert.Equal(t, "Two", app["title"])
	assert.Equal(t, "http://x", app["baseUrl"])
}

func TestUnknownPlaceholderSurvivesSubstitution(t *testing.T) {
	a := testAccumulator(t)
	a.CaptureLiteral("KNOWN", "value")

	out := a.substitute(map[string]any{"a": "${KNOWN}", "b": "${UNKNOWN}"})
	mapping, _ := toStringMap(out)
	assert.Equal(t, "value", mapping["a"])
	assert.Equal(t, "${UNKNOWN}", mapping["b"])
}
