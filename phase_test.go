package docmig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStepCounterOverflowGrowsTotal(t *testing.T) {
	c := NewStepCounter(zap.NewNop().Sugar(), "scaffold", 2)
	c.Advance("one")
	c.Advance("two")
	c.Advance("three")

	current, total := c.Progress()
	assert.Equal(t, 3, current)
	assert.Equal(t, 3, total)
}

func TestEntryMarkersProbeDisk(t *testing.T) {
	target := t.TempDir()
	v := testValidator(t)

	// Fresh tree: phase 2 preconditions cannot hold.
	result := v.Validate(EntryMarkers(Phase2, target))
	assert.False(t, result.OK())

	require.NoError(t, WriteText(filepath.Join(target, rolePaths[RoleAppEntry]), "import React from 'react';\n"))
	require.NoError(t, WriteText(filepath.Join(target, rolePaths[RolePackageManifest]), "{}\n"))
	require.NoError(t, WriteText(filepath.Join(target, TemplateConfigName), "app:\n  title: x\n"))

	result = v.Validate(EntryMarkers(Phase2, target))
	assert.True(t, result.OK())
}

func TestPhase3RequiresAuthProviders(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, WriteText(filepath.Join(target, rolePaths[RoleBackendEntry]), "backend.start();\n"))
	require.NoError(t, WriteText(filepath.Join(target, TemplateConfigName), "auth:\n  environment: development\n"))

	v := testValidator(t)
	result := v.Validate(EntryMarkers(Phase3, target))
	require.False(t, result.OK())

	require.NoError(t, WriteText(filepath.Join(target, TemplateConfigName), "auth:\n  providers:\n    github: {}\n"))
	result = v.Validate(EntryMarkers(Phase3, target))
	assert.True(t, result.OK())
}

func TestPhaseNames(t *testing.T) {
	assert.Equal(t, "scaffold", Phase1.Name())
	assert.Equal(t, "auth", Phase2.Name())
	assert.Equal(t, "templates/plugins", Phase3.Name())
}
