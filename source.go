package docmig

import (
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// SourceProvider supplies guide markdown for ad-hoc runs: a pipe on
// stdin wins, the clipboard is the fallback so a step copied out of a
// rendered guide can be applied directly.
type SourceProvider struct{}

func NewSourceProvider() *SourceProvider {
	return &SourceProvider{}
}

func (sp *SourceProvider) GetContent() (string, error) {
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return normalizeGuideText(string(data)), nil
	}

	text, err := clipboard.ReadAll()
	if err != nil {
		return "", err
	}
	return normalizeGuideText(text), nil
}

// normalizeGuideText makes pasted guide excerpts parseable: CRLF from
// rendered docs becomes LF, surrounding blank lines are dropped.
func normalizeGuideText(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
}
