package docmig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pluginReadme = `# Tech Insights

A plugin for checking scaffold health.

## Installation

- Install the [frontend package](./plugins/tech-insights) first
- Then the [backend package](./plugins/tech-insights-backend)
`

const genericReadme = `# Kafka Plugin

## Frontend

Add ` + "`@backstage/plugin-kafka`" + ` to your app.

## Backend

Add ` + "`@backstage/plugin-kafka-backend`" + ` to the backend.
`

func writePluginReadme(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "plugins", name, "README.md")
	require.NoError(t, WriteText(path, content))
	return dir
}

func TestGithubReadmeProducer(t *testing.T) {
	sourceDir := writePluginReadme(t, "tech-insights", pluginReadme)
	p := &GithubReadmeProducer{SourceDir: sourceDir}

	meta, err := p.Produce("tech-insights")
	require.NoError(t, err)
	assert.Equal(t, "Tech Insights", meta.DisplayName)
	assert.Equal(t, "./plugins/tech-insights", meta.FrontendPath)
	assert.Equal(t, "./plugins/tech-insights-backend", meta.BackendPath)
}

func TestGenericReadmeProducer(t *testing.T) {
	sourceDir := writePluginReadme(t, "kafka", genericReadme)
	p := &GenericReadmeProducer{SourceDir: sourceDir}

	meta, err := p.Produce("kafka")
	require.NoError(t, err)
	assert.Equal(t, "Kafka Plugin", meta.DisplayName)
	assert.Equal(t, "@backstage/plugin-kafka", meta.FrontendPath)
	assert.Equal(t, "@backstage/plugin-kafka-backend", meta.BackendPath)
}

func TestProducerMissingPlugin(t *testing.T) {
	p := &GithubReadmeProducer{SourceDir: t.TempDir()}
	_, err := p.Produce("nope")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}
