package docmig

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	importLineRegex  = regexp.MustCompile(`^\s*(import\b|} from ['"]|const\s+\w+\s*=\s*require\()`)
	groupedOpenRegex = regexp.MustCompile(`^\s*import\s*(type\s*)?{[^}]*$`)
	blankRunRegex    = regexp.MustCompile(`\n{3,}`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
)

// Mutator holds the idempotent text-mutation primitives. Every primitive
// checks for the trimmed fragment before touching the target and records
// a warning instead of failing when an anchor cannot be found.
type Mutator struct {
	log         *zap.SugaredLogger
	beforeWrite func(path string)
}

func NewMutator(log *zap.SugaredLogger) *Mutator {
	return &Mutator{log: log}
}

// SetBeforeWrite installs a hook invoked with the target path right
// before the first write, so callers can snapshot prior state.
func (m *Mutator) SetBeforeWrite(hook func(path string)) { m.beforeWrite = hook }

func (m *Mutator) write(path, content string) error {
	if m.beforeWrite != nil {
		m.beforeWrite(path)
	}
	return WriteText(path, content)
}

func containsFragment(content, fragment string) bool {
	return strings.Contains(content, strings.TrimSpace(fragment))
}

// anchorLocator returns the line index to insert after, or -1.
type anchorLocator struct {
	name   string
	locate func(lines []string) int
}

// InsertImport splices an import statement after the last line of the
// import block, grouped multi-line imports included.
func (m *Mutator) InsertImport(path, fragment string) error {
	return m.insert(path, fragment, anchorLocator{"last-import-line", lastImportLine})
}

// InsertConstant splices a fragment after the end of the named
// constant or component definition.
func (m *Mutator) InsertConstant(path, name, fragment string) error {
	return m.insert(path, fragment, anchorLocator{
		name: "after-constant:" + name,
		locate: func(lines []string) int {
			return constantEnd(lines, name)
		},
	})
}

// InsertComponent splices a fragment just inside the closing tag of a
// named wrapper element, matching the element's indentation plus one level.
func (m *Mutator) InsertComponent(path, element, fragment string) error {
	return m.insert(path, fragment, anchorLocator{
		name: "inside-element:" + element,
		locate: func(lines []string) int {
			return beforeClosingTag(lines, element)
		},
	})
}

// InsertRoute splices a route fragment after the last Route line, falling
// back to the routes wrapper element.
func (m *Mutator) InsertRoute(path, fragment string) error {
	return m.insert(path, fragment, anchorLocator{
		name: "last-route-line",
		locate: func(lines []string) int {
			anchor := -1
			for i, line := range lines {
				if strings.Contains(line, "<Route ") || strings.Contains(line, "<Route>") {
					anchor = routeEnd(lines, i)
				}
			}
			if anchor == -1 {
				return beforeClosingTag(lines, "FlatRoutes")
			}
			return anchor
		},
	})
}

// insert runs the fallback chain: named anchor, then before the last
// closing brace, then plain append. Each attempt is logged so mutation
// provenance stays auditable.
func (m *Mutator) insert(path, fragment string, primary anchorLocator) error {
	content, err := ReadText(path)
	if err != nil {
		return err
	}
	if containsFragment(content, fragment) {
		m.log.Debugf("skip %s: fragment already present", path)
		return nil
	}

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	fragment = strings.Trim(fragment, "\n")

	chain := []anchorLocator{
		primary,
		{"before-last-closing-brace", lastClosingBrace},
	}

	for _, loc := range chain {
		idx := loc.locate(lines)
		if idx < 0 || idx >= len(lines) {
			m.log.Debugf("anchor %s not found in %s, falling back", loc.name, path)
			continue
		}
		m.log.Debugf("insert into %s via anchor %s at line %d", path, loc.name, idx+1)
		out := make([]string, 0, len(lines)+2)
		out = append(out, lines[:idx+1]...)
		out = append(out, indentLike(lines[idx], fragment, loc.name)...)
		out = append(out, lines[idx+1:]...)
		return m.write(path, strings.Join(out, "\n")+"\n")
	}

	m.log.Debugf("no anchor in %s, appending", path)
	return m.write(path, strings.TrimRight(content, "\n")+"\n"+fragment+"\n")
}

// indentLike re-indents a component fragment one level past the closing
// tag it lands above; other anchors keep the fragment as written.
func indentLike(anchorLine, fragment, strategy string) []string {
	lines := strings.Split(fragment, "\n")
	if !strings.HasPrefix(strategy, "inside-element:") {
		return lines
	}
	indent := anchorLine[:len(anchorLine)-len(strings.TrimLeft(anchorLine, " \t"))]
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = indent + "  " + strings.TrimSpace(l)
		}
	}
	return lines
}

func lastImportLine(lines []string) int {
	last := -1
	inGroup := false
	for i, line := range lines {
		switch {
		case inGroup:
			if strings.Contains(line, "}") {
				inGroup = false
			}
			last = i
		case groupedOpenRegex.MatchString(line):
			inGroup = true
			last = i
		case importLineRegex.MatchString(line):
			last = i
		}
	}
	return last
}

func constantEnd(lines []string, name string) int {
	decl := regexp.MustCompile(`^\s*(export\s+)?(const|let|var|function|class)\s+` + regexp.QuoteMeta(name) + `\b`)
	start := -1
	for i, line := range lines {
		if decl.MatchString(line) {
			start = i
			break
		}
	}
	if start == -1 {
		return -1
	}

	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		depth += strings.Count(lines[i], "{") + strings.Count(lines[i], "(")
		depth -= strings.Count(lines[i], "}") + strings.Count(lines[i], ")")
		if depth > 0 {
			opened = true
		}
		if opened && depth <= 0 {
			return i
		}
		if !opened && strings.HasSuffix(strings.TrimRight(lines[i], " \t"), ";") {
			return i
		}
	}
	return len(lines) - 1
}

func beforeClosingTag(lines []string, element string) int {
	closing := "</" + element + ">"
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], closing) {
			return i - 1
		}
	}
	return -1
}

// routeEnd walks from an opening Route line to the end of that element,
// so multi-line routes are not split by a later insertion.
func routeEnd(lines []string, start int) int {
	if strings.Contains(lines[start], "/>") || strings.Contains(lines[start], "</Route>") {
		return start
	}
	for i := start + 1; i < len(lines); i++ {
		if strings.Contains(lines[i], "/>") || strings.Contains(lines[i], "</Route>") {
			return i
		}
	}
	return start
}

func lastClosingBrace(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "}" || trimmed == "};" || trimmed == ")" || trimmed == ");" {
			return i - 1
		}
	}
	return -1
}

// RemoveImport deletes an import statement matching the module name,
// tolerating quote-style variance.
func (m *Mutator) RemoveImport(path, module string) error {
	pattern := regexp.MustCompile(`(?m)^\s*import\s+[^\n]*['"]` + regexp.QuoteMeta(module) + `['"];?\n?`)
	return m.DeletePattern(path, []*regexp.Regexp{pattern})
}

// DeleteSnippet removes the first matching variant of a snippet and
// collapses any blank-line runs left behind.
func (m *Mutator) DeleteSnippet(path, snippet string) error {
	return m.DeletePattern(path, PatternVariants(snippet))
}

func (m *Mutator) DeletePattern(path string, variants []*regexp.Regexp) error {
	content, err := ReadText(path)
	if err != nil {
		return err
	}

	for _, v := range variants {
		if !v.MatchString(content) {
			continue
		}
		out := v.ReplaceAllString(content, "")
		out = blankRunRegex.ReplaceAllString(out, "\n\n")
		m.log.Debugf("delete from %s via %s", path, v.String())
		return m.write(path, out)
	}

	m.log.Debugf("delete pattern not present in %s", path)
	return nil
}

// PatternVariants builds the regex ladder for a snippet: verbatim, then
// whitespace-flexible, then quote-flexible on top of that.
func PatternVariants(snippet string) []*regexp.Regexp {
	snippet = strings.TrimSpace(snippet)
	exact := regexp.QuoteMeta(snippet)
	flexible := whitespaceRegex.ReplaceAllString(exact, `\s+`)
	quoted := strings.NewReplacer(`'`, `['"]`, `"`, `['"]`).Replace(flexible)

	var variants []*regexp.Regexp
	for _, p := range []string{exact, flexible, quoted} {
		if r, err := regexp.Compile(p); err == nil {
			variants = append(variants, r)
		}
	}
	return variants
}
