package docmig

import (
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
)

const (
	TemplateConfigName = "app-config.yaml"
	LocalConfigName    = "app-config.local.yaml"
)

var placeholderRegex = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

type configFragment struct {
	label string
	data  map[string]any
}

// ConfigAccumulator collects configuration contributions from every
// producer in a run and emits the dual template/local documents at
// checkpoints. It is passed by reference, never held as ambient state,
// and lives for the whole migration run.
type ConfigAccumulator struct {
	log       *zap.SugaredLogger
	fragments []configFragment
	literals  map[string]string
}

func NewConfigAccumulator(log *zap.SugaredLogger) *ConfigAccumulator {
	return &ConfigAccumulator{log: log, literals: make(map[string]string)}
}

func (a *ConfigAccumulator) Add(label string, fragment map[string]any) {
	if len(fragment) == 0 {
		return
	}
	a.fragments = append(a.fragments, configFragment{label: label, data: fragment})
	a.log.Debugf("config fragment accumulated: %s", label)
}

func (a *ConfigAccumulator) AddYAML(label, text string) error {
	fragment, err := ExtractStructuredBlock(text)
	if err != nil {
		return err
	}
	a.Add(label, fragment)
	return nil
}

// CaptureLiteral records the real value behind a ${NAME} placeholder.
// Capturing at least one literal is what turns dual mode on.
func (a *ConfigAccumulator) CaptureLiteral(name, value string) {
	if value == "" {
		return
	}
	a.literals[name] = value
}

func (a *ConfigAccumulator) HasLiterals() bool { return len(a.literals) > 0 }

func (a *ConfigAccumulator) Empty() bool { return len(a.fragments) == 0 }

// Merged folds every accumulated fragment, in contribution order, into
// one mapping.
func (a *ConfigAccumulator) Merged() map[string]any {
	out := map[string]any{}
	for _, f := range a.fragments {
		out = DeepMerge(out, f.data)
	}
	return out
}

// BuildDualDocuments merges the accumulated fragments into the template
// document under dir and, when any literal was captured, into a local
// document with placeholders substituted. Both documents keep identical
// key paths; only leaf values differ.
func (a *ConfigAccumulator) BuildDualDocuments(dir string) (template, local string, err error) {
	if a.Empty() {
		return "", "", nil
	}

	template = filepath.Join(dir, TemplateConfigName)
	merged := a.Merged()
	if err := MergeInto(template, merged, "accumulated fragments"); err != nil {
		return "", "", err
	}

	if !a.HasLiterals() {
		a.log.Debugf("no literal values captured, skipping %s", LocalConfigName)
		return template, "", nil
	}

	// The local document mirrors the whole merged template, not just
	// this run's fragments, so both sides keep identical key paths even
	// when the scaffold shipped with config of its own.
	local = filepath.Join(dir, LocalConfigName)
	templateDoc, err := LoadConfigDocument(template)
	if err != nil {
		return "", "", err
	}
	localized, ok := toStringMap(a.substitute(templateDoc))
	if !ok {
		localized = templateDoc
	}
	if err := MergeInto(local, localized, "localized template"); err != nil {
		return "", "", err
	}
	return template, local, nil
}

// substitute walks a merged fragment and replaces ${NAME} tokens in
// string leaves with their captured literals; unknown names stay put.
func (a *ConfigAccumulator) substitute(node any) any {
	switch v := node.(type) {
	case string:
		return placeholderRegex.ReplaceAllStringFunc(v, func(tok string) string {
			name := placeholderRegex.FindStringSubmatch(tok)[1]
			if lit, ok := a.literals[name]; ok {
				return lit
			}
			return tok
		})
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = a.substitute(item)
		}
		return out
	default:
		if mapping, ok := toStringMap(node); ok {
			out := make(map[string]any, len(mapping))
			for k, val := range mapping {
				out[k] = a.substitute(val)
			}
			return out
		}
		return node
	}
}
