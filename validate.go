package docmig

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Expectation is one post-mutation check: a file that must exist, a
// substring that must have landed, or a key path a config document must
// expose. Soft expectations downgrade misses to warnings.
type Expectation struct {
	Label    string
	Path     string
	Contains string
	KeyPath  string
	Soft     bool
}

func (e Expectation) describe() string {
	if e.Label != "" {
		return e.Label
	}
	switch {
	case e.KeyPath != "":
		return fmt.Sprintf("%s has key %s", e.Path, e.KeyPath)
	case e.Contains != "":
		return fmt.Sprintf("%s contains %q", e.Path, truncate(e.Contains, 40))
	default:
		return fmt.Sprintf("%s exists", e.Path)
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Validator re-reads mutated files and reports which expected fragments
// landed. It never mutates and is safe to call repeatedly.
type Validator struct {
	log *zap.SugaredLogger
}

func NewValidator(log *zap.SugaredLogger) *Validator {
	return &Validator{log: log}
}

func (v *Validator) Validate(expectations []Expectation) ValidationResult {
	var result ValidationResult
	for _, e := range expectations {
		if v.check(e) {
			result.Passed = append(result.Passed, e.describe())
			continue
		}
		if e.Soft {
			result.Warnings = append(result.Warnings, e.describe())
			continue
		}
		result.Failed = append(result.Failed, e.describe())
	}
	return result
}

func (v *Validator) check(e Expectation) bool {
	if e.KeyPath != "" {
		doc, err := LoadConfigDocument(e.Path)
		if err != nil {
			v.log.Debugf("validate: cannot load %s: %v", e.Path, err)
			return false
		}
		return doc.HasKeyPath(e.KeyPath)
	}

	if e.Contains == "" {
		return Exists(e.Path)
	}

	content, err := ReadText(e.Path)
	if err != nil {
		v.log.Debugf("validate: cannot read %s: %v", e.Path, err)
		return false
	}
	return strings.Contains(content, strings.TrimSpace(e.Contains))
}

// CheckKeyParity compares the dot-joined key-path sets of the dual
// documents; any divergence is a hard failure per path.
func (v *Validator) CheckKeyParity(templatePath, localPath string) ValidationResult {
	var result ValidationResult

	templateDoc, err := LoadConfigDocument(templatePath)
	if err != nil {
		result.Failed = append(result.Failed, fmt.Sprintf("load %s: %v", templatePath, err))
		return result
	}
	localDoc, err := LoadConfigDocument(localPath)
	if err != nil {
		result.Failed = append(result.Failed, fmt.Sprintf("load %s: %v", localPath, err))
		return result
	}

	templatePaths := KeyPaths(templateDoc)
	localPaths := KeyPaths(localDoc)

	localSet := make(map[string]struct{}, len(localPaths))
	for _, p := range localPaths {
		localSet[p] = struct{}{}
	}
	templateSet := make(map[string]struct{}, len(templatePaths))
	for _, p := range templatePaths {
		templateSet[p] = struct{}{}
	}

	for _, p := range templatePaths {
		if _, ok := localSet[p]; !ok {
			result.Failed = append(result.Failed, fmt.Sprintf("key %s missing from %s", p, localPath))
		}
	}
	for _, p := range localPaths {
		if _, ok := templateSet[p]; !ok {
			result.Failed = append(result.Failed, fmt.Sprintf("key %s missing from %s", p, templatePath))
		}
	}
	if result.OK() {
		result.Passed = append(result.Passed, "dual documents structurally identical")
	}
	return result
}
