package docmig

import (
	"path/filepath"

	"go.uber.org/zap"
)

type PhaseID int

const (
	Phase1 PhaseID = iota + 1
	Phase2
	Phase3
)

func (p PhaseID) Name() string {
	switch p {
	case Phase1:
		return "scaffold"
	case Phase2:
		return "auth"
	case Phase3:
		return "templates/plugins"
	}
	return "unknown"
}

// Context is handed to the phase-3 orchestrator; everything it needs is
// explicit in the struct, nothing ambient.
type Context struct {
	SourceDir   string
	TargetDir   string
	Accumulator *ConfigAccumulator
	Mutator     *Mutator
	Log         *zap.SugaredLogger
}

type Result struct {
	Success bool
	Summary string
}

// Orchestrator is the external collaborator driving the plugin/template
// phase. The engine validates and reports; the orchestrator decides.
type Orchestrator interface {
	ValidatePrerequisites() error
	Execute(ctx *Context) (Result, error)
}

// StepCounter tracks progress against a declared total. Overflow grows
// the total and warns; it is never fatal.
type StepCounter struct {
	log     *zap.SugaredLogger
	phase   string
	total   int
	current int
}

func NewStepCounter(log *zap.SugaredLogger, phase string, total int) *StepCounter {
	return &StepCounter{log: log, phase: phase, total: total}
}

func (c *StepCounter) Advance(label string) {
	c.current++
	if c.current > c.total {
		c.log.Warnf("phase %s: step %d exceeds declared total %d, growing", c.phase, c.current, c.total)
		c.total = c.current
	}
	c.log.Debugf("phase %s: step %d/%d %s", c.phase, c.current, c.total, label)
}

func (c *StepCounter) Progress() (current, total int) { return c.current, c.total }

// EntryMarkers are the on-disk preconditions probed before a phase may
// run: the prior phase's validator expectations, checked against the
// tree rather than in-memory state so a migration can resume across
// process restarts.
func EntryMarkers(id PhaseID, targetDir string) []Expectation {
	configPath := filepath.Join(targetDir, TemplateConfigName)
	switch id {
	case Phase1:
		return []Expectation{
			{Label: "target scaffold present", Path: targetDir},
		}
	case Phase2:
		return []Expectation{
			{Label: "scaffold app entry", Path: filepath.Join(targetDir, rolePaths[RoleAppEntry])},
			{Label: "scaffold package manifest", Path: filepath.Join(targetDir, rolePaths[RolePackageManifest])},
			{Label: "template config document", Path: configPath},
		}
	case Phase3:
		return []Expectation{
			{Label: "auth providers configured", Path: configPath, KeyPath: "auth.providers"},
			{Label: "backend entry present", Path: filepath.Join(targetDir, rolePaths[RoleBackendEntry])},
		}
	}
	return nil
}

// ExitExpectations are the phase's own post-mutation checks.
func ExitExpectations(id PhaseID, targetDir string) []Expectation {
	configPath := filepath.Join(targetDir, TemplateConfigName)
	switch id {
	case Phase1:
		return []Expectation{
			{Label: "app entry scaffolded", Path: filepath.Join(targetDir, rolePaths[RoleAppEntry])},
			{Label: "package manifest scaffolded", Path: filepath.Join(targetDir, rolePaths[RolePackageManifest])},
			{Label: "template config emitted", Path: configPath},
			{Label: "catalog descriptor scaffolded", Path: filepath.Join(targetDir, rolePaths[RoleCatalogDescriptor]), Soft: true},
		}
	case Phase2:
		return []Expectation{
			{Label: "auth section merged", Path: configPath, KeyPath: "auth"},
			{Label: "auth providers merged", Path: configPath, KeyPath: "auth.providers"},
		}
	case Phase3:
		return []Expectation{
			{Label: "catalog descriptor present", Path: filepath.Join(targetDir, rolePaths[RoleCatalogDescriptor]), Soft: true},
		}
	}
	return nil
}
