package docmig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKinds(t *testing.T) {
	cases := []struct {
		text string
		kind InstructionKind
	}{
		{"Copy the `helper.ts` file to `src/helper.ts`", CopyPathKind},
		{"Create a new file `src/theme.ts` with the following content", CopyPathKind},
		{"Remove the default allow-all policy from the backend", DeletePatternKind},
		{"Delete the `old-config.ts` file", DeletePatternKind},
		{"Update the app-config.yaml with the auth section", UpdateConfigKind},
		{"Add the following import to the app entry", AddImportKind},
		{"Remove the import `@backstage/theme` from the app entry", RemoveImportKind},
		{"Install the package with yarn add @backstage/plugin-foo", InstallPackageKind},
		{"Restart the development server", GenericKind},
	}

	for _, tc := range cases {
		got := Classify(Step{Kind: StepNumbered, Text: tc.text})
		assert.Equal(t, tc.kind, got.Kind, "text: %s", tc.text)
	}
}

// An instruction satisfying both the copy and update-config predicates
// must classify as a copy; the rule order is the tie-break.
func TestClassifyTieBreakCopyBeatsConfig(t *testing.T) {
	got := Classify(Step{Text: "Copy the config file from `a/app-config.yaml` to `b/app-config.yaml` and update config values"})
	assert.Equal(t, CopyPathKind, got.Kind)
	assert.Equal(t, "a/app-config.yaml", got.Source)
	assert.Equal(t, "b/app-config.yaml", got.Dest)
}

func TestClassifyBacktickPaths(t *testing.T) {
	got := Classify(Step{Text: "Copy `assets/logo.svg` file to `packages/app/public/logo.svg`"})
	assert.Equal(t, CopyPathKind, got.Kind)
	assert.Equal(t, "assets/logo.svg", got.Source)
	assert.Equal(t, "packages/app/public/logo.svg", got.Dest)
}

func TestClassifyFromToFallback(t *testing.T) {
	got := Classify(Step{Text: "Copy the helper file from src/helper.ts to dst/helper.ts"})
	assert.Equal(t, CopyPathKind, got.Kind)
	assert.Equal(t, "src/helper.ts", got.Source)
	assert.Equal(t, "dst/helper.ts", got.Dest)
}

func TestClassifyGenericKeepsTokens(t *testing.T) {
	got := Classify(Step{Text: "Review `packages/app/src/App.tsx` manually"})
	assert.Equal(t, GenericKind, got.Kind)
	assert.Equal(t, []string{"packages/app/src/App.tsx"}, got.Paths)
}
