package docmig

// ParsedDocument is the structured form of one markdown setup guide.
// It is built once per invocation and never mutated after parsing.
type ParsedDocument struct {
	Path         string
	Title        string
	Sections     []Section
	Steps        []Step
	CodeBlocks   []CodeBlock
	Links        []Link
	Requirements []string
}

type Section struct {
	Title      string
	Level      int
	RawContent string
	Steps      []Step
}

type StepKind string

const (
	StepNumbered StepKind = "numbered"
	StepAction   StepKind = "action"
)

type Step struct {
	Number int // 0 for action bullets
	Kind   StepKind
	Text   string
}

// CodeBlock order matches document order; later blocks may supersede
// anchors established by earlier ones.
type CodeBlock struct {
	Lang    string
	Content string
}

type Link struct {
	Text   string
	Target string
}

type InstructionKind string

const (
	CopyPathKind       InstructionKind = "copy-path"
	DeletePatternKind  InstructionKind = "delete-pattern"
	UpdateConfigKind   InstructionKind = "update-config"
	AddImportKind      InstructionKind = "add-import"
	RemoveImportKind   InstructionKind = "remove-import"
	InstallPackageKind InstructionKind = "install-package"
	GenericKind        InstructionKind = "generic"
)

// Instruction is a classified step. Source/Dest are set for copy
// instructions, Paths holds every backtick-quoted token in document order.
type Instruction struct {
	Kind   InstructionKind
	Text   string
	Source string
	Dest   string
	Paths  []string
}

// TargetRole names a mutation target by what it is in the scaffold,
// not where it lives.
type TargetRole string

const (
	RoleAppEntry          TargetRole = "app-entry"
	RoleBackendEntry      TargetRole = "backend-entry"
	RoleThemeRoot         TargetRole = "theme-root"
	RolePackageManifest   TargetRole = "package-manifest"
	RoleCatalogDescriptor TargetRole = "catalog-descriptor"
)

// MutationTarget pairs a logical target file with the fragment meant
// for it. Satisfied is the idempotence check every primitive honors:
// true once the trimmed fragment occurs verbatim in the file.
type MutationTarget struct {
	Role     TargetRole
	Path     string
	Fragment string
}

func (t MutationTarget) Satisfied() (bool, error) {
	content, err := ReadText(t.Path)
	if err != nil {
		return false, err
	}
	return containsFragment(content, t.Fragment), nil
}

var rolePaths = map[TargetRole]string{
	RoleAppEntry:          "packages/app/src/App.tsx",
	RoleBackendEntry:      "packages/backend/src/index.ts",
	RoleThemeRoot:         "packages/app/src/components/Root/Root.tsx",
	RolePackageManifest:   "packages/app/package.json",
	RoleCatalogDescriptor: "catalog-info.yaml",
}

type ValidationResult struct {
	Passed   []string
	Failed   []string
	Warnings []string
}

func (r ValidationResult) OK() bool { return len(r.Failed) == 0 }

func (r *ValidationResult) Merge(other ValidationResult) {
	r.Passed = append(r.Passed, other.Passed...)
	r.Failed = append(r.Failed, other.Failed...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

type Summary struct {
	Created  []string
	Modified []string
	Deleted  []string
	Skipped  []string
	Failed   []string
	Warnings []string
	Message  string
}
