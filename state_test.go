package docmig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateManagerRoundTrip(t *testing.T) {
	root := t.TempDir()
	m, err := NewStateManager(root)
	require.NoError(t, err)

	path := filepath.Join(root, "file.ts")
	require.NoError(t, os.WriteFile(path, []byte("after\n"), 0644))

	ops := m.CreateOperations(map[string]string{path: "create"}, map[string]string{})
	m.Write(ops)

	// A fresh manager reloads the same history from disk.
	m2, err := NewStateManager(root)
	require.NoError(t, err)
	undo := m2.GetOperationsToUndo()
	require.Len(t, undo, 1)
	assert.Equal(t, "create", undo[0].Action)
	assert.Equal(t, path, undo[0].Path)
}

func TestUndoRedoModify(t *testing.T) {
	root := t.TempDir()
	m, err := NewStateManager(root)
	require.NoError(t, err)

	path := filepath.Join(root, "file.ts")
	require.NoError(t, os.WriteFile(path, []byte("before\n"), 0644))
	oldHash, err := GetFileSHA256(path)
	require.NoError(t, err)
	require.NoError(t, WriteBlob(m.StateDir, oldHash, []byte("before\n")))

	require.NoError(t, os.WriteFile(path, []byte("after\n"), 0644))
	ops := m.CreateOperations(map[string]string{path: "modify"}, map[string]string{path: oldHash})
	m.Write(ops)

	s := m.Undo(m.GetOperationsToUndo())
	assert.Empty(t, s.Failed)
	content, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "before\n", content)

	s = m.Redo(m.GetOperationsToRedo())
	assert.Empty(t, s.Failed)
	content, err = ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "after\n", content)
}

func TestUndoRefusesWhenHashDiverged(t *testing.T) {
	root := t.TempDir()
	m, err := NewStateManager(root)
	require.NoError(t, err)

	path := filepath.Join(root, "file.ts")
	require.NoError(t, os.WriteFile(path, []byte("recorded\n"), 0644))
	ops := m.CreateOperations(map[string]string{path: "create"}, map[string]string{})
	m.Write(ops)

	// Outside edit after the run: undo must leave the file alone.
	require.NoError(t, os.WriteFile(path, []byte("edited by hand\n"), 0644))
	s := m.Undo(m.GetOperationsToUndo())
	assert.Equal(t, []string{path}, s.Failed)
	assert.True(t, Exists(path))
}

func TestUndoDeleteRestoresFromTrash(t *testing.T) {
	root := t.TempDir()
	m, err := NewStateManager(root)
	require.NoError(t, err)

	path := filepath.Join(root, "old.ts")
	require.NoError(t, os.WriteFile(path, []byte("gone\n"), 0644))
	require.NoError(t, TrashFile(path, filepath.Join(m.StateDir, TrashDir), root))

	ops := m.CreateOperations(map[string]string{path: "delete"}, map[string]string{})
	m.Write(ops)

	s := m.Undo(m.GetOperationsToUndo())
	assert.Empty(t, s.Failed)
	content, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "gone\n", content)
}
