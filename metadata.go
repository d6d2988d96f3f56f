package docmig

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PluginMetadata points the plugin phase at the documentation a plugin
// ships: a display name plus frontend and backend setup paths.
type PluginMetadata struct {
	DisplayName  string
	FrontendPath string
	BackendPath  string
}

// MetadataProducer resolves a plugin name to its documentation pointers.
// Producers only read; the orchestrator decides what to do with them.
type MetadataProducer interface {
	Produce(pluginName string) (PluginMetadata, error)
}

// GithubReadmeProducer handles plugins documented GitHub-style: a Readme
// whose sections link frontend/backend packages explicitly.
type GithubReadmeProducer struct {
	SourceDir string
}

func (p *GithubReadmeProducer) Produce(pluginName string) (PluginMetadata, error) {
	doc, err := p.parseReadme(pluginName)
	if err != nil {
		return PluginMetadata{}, err
	}

	meta := PluginMetadata{DisplayName: displayName(doc, pluginName)}
	for _, link := range doc.Links {
		lower := strings.ToLower(link.Text + " " + link.Target)
		if meta.FrontendPath == "" && strings.Contains(lower, "frontend") {
			meta.FrontendPath = link.Target
		}
		if meta.BackendPath == "" && strings.Contains(lower, "backend") {
			meta.BackendPath = link.Target
		}
	}
	if meta.FrontendPath == "" && meta.BackendPath == "" {
		return meta, fmt.Errorf("no frontend or backend pointers in %s readme", pluginName)
	}
	return meta, nil
}

func (p *GithubReadmeProducer) parseReadme(pluginName string) (*ParsedDocument, error) {
	for _, name := range []string{"README.md", "Readme.md"} {
		path := filepath.Join(p.SourceDir, "plugins", pluginName, name)
		if Exists(path) {
			return ParseDocument(path)
		}
	}
	return nil, &NotFoundError{Path: filepath.Join(p.SourceDir, "plugins", pluginName)}
}

// GenericReadmeProducer falls back to backtick-quoted package paths when
// a plugin readme carries no explicit frontend/backend links.
type GenericReadmeProducer struct {
	SourceDir string
}

func (p *GenericReadmeProducer) Produce(pluginName string) (PluginMetadata, error) {
	github := &GithubReadmeProducer{SourceDir: p.SourceDir}
	doc, err := github.parseReadme(pluginName)
	if err != nil {
		return PluginMetadata{}, err
	}

	meta := PluginMetadata{DisplayName: displayName(doc, pluginName)}
	for _, s := range doc.Sections {
		lower := strings.ToLower(s.Title)
		tokens := backtickRegex.FindAllStringSubmatch(s.RawContent, -1)
		if len(tokens) == 0 {
			continue
		}
		if meta.FrontendPath == "" && strings.Contains(lower, "frontend") {
			meta.FrontendPath = tokens[0][1]
		}
		if meta.BackendPath == "" && strings.Contains(lower, "backend") {
			meta.BackendPath = tokens[0][1]
		}
	}
	return meta, nil
}

func displayName(doc *ParsedDocument, fallback string) string {
	if doc.Title != "" {
		return doc.Title
	}
	return fallback
}
