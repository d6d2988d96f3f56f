package docmig

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigDocument is a YAML mapping held as plain maps so fragments from
// independent producers merge without schema knowledge.
type ConfigDocument map[string]any

// LoadConfigDocument reads a YAML document from disk; a missing file is
// an empty document, not an error, so first-run merges behave.
func LoadConfigDocument(path string) (ConfigDocument, error) {
	raw, err := ReadText(path)
	if err != nil {
		if _, ok := err.(*NotFoundError); ok {
			return ConfigDocument{}, nil
		}
		return nil, err
	}

	doc := ConfigDocument{}
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if doc == nil {
		doc = ConfigDocument{}
	}
	return doc, nil
}

func (d ConfigDocument) Save(path string) error {
	out, err := yaml.Marshal(map[string]any(d))
	if err != nil {
		return err
	}
	return WriteText(path, string(out))
}

// HasKeyPath reports whether a dot-joined key path resolves in the
// document, e.g. "auth.providers".
func (d ConfigDocument) HasKeyPath(keyPath string) bool {
	var node any = map[string]any(d)
	for _, key := range strings.Split(keyPath, ".") {
		mapping, ok := toStringMap(node)
		if !ok {
			return false
		}
		node, ok = mapping[key]
		if !ok {
			return false
		}
	}
	return true
}

// DeepMerge merges src into dst: mappings recurse, everything else —
// lists included — is replaced wholesale so repeated runs cannot grow
// list values without bound. Keys absent from src survive untouched.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for key, srcVal := range src {
		dstMap, dstOk := toStringMap(dst[key])
		srcMap, srcOk := toStringMap(srcVal)
		if dstOk && srcOk {
			dst[key] = DeepMerge(dstMap, srcMap)
			continue
		}
		if srcOk {
			dst[key] = DeepMerge(map[string]any{}, srcMap)
			continue
		}
		dst[key] = srcVal
	}
	return dst
}

// toStringMap normalizes the two mapping shapes yaml.v3 can hand back.
func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case ConfigDocument:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprintf("%v", k)] = val
		}
		return out, true
	}
	return nil, false
}

// ExtractStructuredBlock parses one fenced configuration block into the
// mapping form used for merging.
func ExtractStructuredBlock(text string) (map[string]any, error) {
	out := map[string]any{}
	if err := yaml.Unmarshal([]byte(text), &out); err != nil {
		return nil, &ParseError{Path: "<fenced block>", Err: err}
	}
	return out, nil
}

// KeyPaths returns every dot-joined leaf and mapping path, sorted, for
// structural comparison between the dual documents.
func KeyPaths(doc map[string]any) []string {
	var paths []string
	collectKeyPaths("", doc, &paths)
	sort.Strings(paths)
	return paths
}

func collectKeyPaths(prefix string, node map[string]any, paths *[]string) {
	for key, val := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		*paths = append(*paths, path)
		if child, ok := toStringMap(val); ok {
			collectKeyPaths(path, child, paths)
		}
	}
}

// MergeInto deep-merges a fragment into the document at path and writes
// the result back, reporting the change under a human label.
func MergeInto(path string, fragment map[string]any, changeLabel string) error {
	doc, err := LoadConfigDocument(path)
	if err != nil {
		return err
	}
	merged := DeepMerge(map[string]any(doc), fragment)
	if err := ConfigDocument(merged).Save(path); err != nil {
		return fmt.Errorf("%s: %w", changeLabel, err)
	}
	return nil
}
