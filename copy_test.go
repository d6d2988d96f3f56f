package docmig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyPathRecursiveWithExclusions(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "node_modules", "dep"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.ts"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "b.ts"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "node_modules", "dep", "c.js"), []byte("c"), 0644))

	m := testMutator(t)
	require.NoError(t, m.CopyPath(src, dst))

	assert.True(t, Exists(filepath.Join(dst, "a.ts")))
	assert.True(t, Exists(filepath.Join(dst, "nested", "b.ts")))
	assert.False(t, Exists(filepath.Join(dst, "node_modules")))
}

func TestCopyPathMissingSource(t *testing.T) {
	m := testMutator(t)
	err := m.CopyPath(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "out"))

	var missing *SourceNotFoundError
	require.ErrorAs(t, err, &missing)
}

func TestCopyPathIdempotent(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.ts")
	dst := filepath.Join(t.TempDir(), "a.ts")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0644))

	m := testMutator(t)
	var writes int
	m.SetBeforeWrite(func(string) { writes++ })

	require.NoError(t, m.CopyPath(src, dst))
	require.NoError(t, m.CopyPath(src, dst))

	assert.Equal(t, 1, writes)
	content, err := ReadText(dst)
	require.NoError(t, err)
	assert.Equal(t, "content", content)
}

func TestIsOptionalAsset(t *testing.T) {
	assert.True(t, IsOptionalAsset("/src/assets/logo.svg"))
	assert.True(t, IsOptionalAsset("examples"))
	assert.False(t, IsOptionalAsset("/src/packages/app/App.tsx"))
}
