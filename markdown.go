package docmig

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	headingRegex  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	numberedRegex = regexp.MustCompile(`^\s*(\d+)\.\s*(.+)$`)
	bulletRegex   = regexp.MustCompile(`^\s*[-*]\s+(.+)$`)
	providerRegex = regexp.MustCompile(`\w+Auth\.md`)
)

// actionVerbs filters bullet lines down to ones that actually instruct.
var actionVerbs = []string{
	"copy", "create", "update", "modify", "add",
	"remove", "delete", "configure", "install", "setup",
}

// ParseDocument turns a markdown guide into a ParsedDocument. A missing
// file is a NotFoundError, unreadable content a ParseError; anything else
// degrades to empty slices rather than failing.
func ParseDocument(path string) (*ParsedDocument, error) {
	raw, err := ReadText(path)
	if err != nil {
		return nil, err
	}
	return parseContent(path, raw)
}

// ParseInline parses markdown text that never lived in a file, e.g. an
// excerpt piped in for ad-hoc application.
func ParseInline(raw string) (*ParsedDocument, error) {
	return parseContent("<inline>", raw)
}

func parseContent(path, raw string) (*ParsedDocument, error) {
	if !utf8.ValidString(raw) {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("invalid UTF-8 content")}
	}

	doc := &ParsedDocument{Path: path}
	doc.CodeBlocks, doc.Links = extractBlocksAndLinks([]byte(raw))
	doc.Title, doc.Sections = extractSections(raw)

	for i := range doc.Sections {
		s := &doc.Sections[i]
		if isRequirementsSection(s.Title) {
			// Requirement lines describe the environment, not work to do.
			doc.Requirements = append(doc.Requirements, bulletLines(s.RawContent)...)
			continue
		}
		s.Steps = extractSteps(s.RawContent)
		doc.Steps = append(doc.Steps, s.Steps...)
	}
	return doc, nil
}

func extractBlocksAndLinks(source []byte) ([]CodeBlock, []Link) {
	var blocks []CodeBlock
	var links []Link
	parser := goldmark.DefaultParser()
	root := parser.Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			var block CodeBlock
			if n.Info != nil {
				block.Lang = string(n.Info.Text(source))
			}
			var content bytes.Buffer
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				content.Write(line.Value(source))
			}
			block.Content = content.String()
			blocks = append(blocks, block)
			return ast.WalkSkipChildren, nil

		case *ast.Link:
			links = append(links, Link{
				Text:   string(n.Text(source)),
				Target: string(n.Destination),
			})
		}
		return ast.WalkContinue, nil
	}

	_ = ast.Walk(root, walker)
	return blocks, links
}

func extractSections(raw string) (string, []Section) {
	var title string
	var sections []Section
	var current *Section
	inFence := false

	flush := func() {
		if current != nil {
			current.RawContent = strings.TrimRight(current.RawContent, "\n")
			sections = append(sections, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence {
			if m := headingRegex.FindStringSubmatch(line); m != nil {
				flush()
				level := len(m[1])
				if level == 1 && title == "" {
					title = m[2]
				}
				current = &Section{Title: m[2], Level: level}
				continue
			}
		}
		if current != nil {
			current.RawContent += line + "\n"
		}
	}
	flush()
	return title, sections
}

func extractSteps(content string) []Step {
	var steps []Step
	for _, line := range strings.Split(content, "\n") {
		if m := numberedRegex.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			steps = append(steps, Step{Number: n, Kind: StepNumbered, Text: strings.TrimSpace(m[2])})
			continue
		}
		if m := bulletRegex.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[1])
			if hasActionVerb(text) {
				steps = append(steps, Step{Kind: StepAction, Text: text})
			}
		}
	}
	return steps
}

func hasActionVerb(text string) bool {
	lower := strings.ToLower(text)
	for _, verb := range actionVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

func bulletLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if m := bulletRegex.FindStringSubmatch(line); m != nil {
			lines = append(lines, strings.TrimSpace(m[1]))
		}
	}
	return lines
}

func isRequirementsSection(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "requirement") || strings.Contains(lower, "prerequisite")
}

// ProviderReferences collects provider guide names (XxxAuth.md) from both
// link targets and plain body mentions, deduplicated in document order.
func ProviderReferences(doc *ParsedDocument) []string {
	seen := make(map[string]struct{})
	var refs []string

	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		refs = append(refs, name)
	}

	for _, l := range doc.Links {
		base := l.Target
		if idx := strings.LastIndex(base, "/"); idx >= 0 {
			base = base[idx+1:]
		}
		if strings.HasSuffix(base, "Auth.md") && base != "Auth.md" {
			add(base)
		}
	}
	for _, s := range doc.Sections {
		for _, m := range providerRegex.FindAllString(s.RawContent, -1) {
			if m != "Auth.md" {
				add(m)
			}
		}
	}
	return refs
}
