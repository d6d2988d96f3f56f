package docmig

import (
	"regexp"
	"strings"
)

var (
	backtickRegex = regexp.MustCompile("`([^`\n]+)`")
	fromToRegex   = regexp.MustCompile(`(?i)\bfrom\s+(\S+)\s+to\s+(\S+)`)
)

// classifyRule maps lower-cased instruction text to a kind. Rules are
// evaluated in order and the first match wins, so an instruction
// mentioning both "copy ... file" and "update config" stays a copy.
type classifyRule struct {
	Kind  InstructionKind
	Match func(text string) bool
}

func containsAll(text string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(text, p) {
			return false
		}
	}
	return true
}

func containsAny(text string, parts ...string) bool {
	for _, p := range parts {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

var classifyRules = []classifyRule{
	{CopyPathKind, func(t string) bool {
		return (strings.Contains(t, "copy") && containsAny(t, "file", "folder", "directory", "from")) ||
			containsAll(t, "create", "file")
	}},
	{DeletePatternKind, func(t string) bool {
		return containsAny(t, "delete", "remove") && !strings.Contains(t, "import")
	}},
	{UpdateConfigKind, func(t string) bool {
		return containsAny(t, "config", "app-config", "yaml") &&
			containsAny(t, "update", "add", "modify", "merge", "set")
	}},
	{AddImportKind, func(t string) bool {
		return strings.Contains(t, "import") && containsAny(t, "add", "insert", "include")
	}},
	{RemoveImportKind, func(t string) bool {
		return strings.Contains(t, "import") && containsAny(t, "remove", "delete", "drop")
	}},
	{InstallPackageKind, func(t string) bool {
		return containsAny(t, "install", "yarn add", "npm install")
	}},
}

// Classify maps a step to a typed instruction. Unclassifiable text
// becomes Generic, never an error.
func Classify(step Step) Instruction {
	text := strings.ToLower(step.Text)
	instr := Instruction{Kind: GenericKind, Text: step.Text, Paths: extractBacktickTokens(step.Text)}

	for _, rule := range classifyRules {
		if rule.Match(text) {
			instr.Kind = rule.Kind
			break
		}
	}

	if instr.Kind == CopyPathKind {
		instr.Source, instr.Dest = extractCopyPaths(step.Text, instr.Paths)
	}
	return instr
}

func extractBacktickTokens(text string) []string {
	var tokens []string
	for _, m := range backtickRegex.FindAllStringSubmatch(text, -1) {
		token := strings.TrimSpace(m[1])
		if token != "" && !strings.Contains(token, " ") {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// extractCopyPaths prefers backtick-quoted tokens; a bare "from X to Y"
// phrasing is the fallback.
func extractCopyPaths(text string, tokens []string) (source, dest string) {
	if len(tokens) >= 2 {
		return tokens[0], tokens[1]
	}
	if m := fromToRegex.FindStringSubmatch(text); m != nil {
		return strings.Trim(m[1], "`\"'.,"), strings.Trim(m[2], "`\"'.,")
	}
	if len(tokens) == 1 {
		return tokens[0], ""
	}
	return "", ""
}
