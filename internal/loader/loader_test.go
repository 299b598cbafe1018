package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSectionsTwoSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.txt")
	require.NoError(t, os.WriteFile(path, []byte("A1.\n\nA2."), 0o644))

	sections, err := LoadSections(path)
	require.NoError(t, err)
	require.Equal(t, []string{"A1.", "A2."}, sections)
}

func TestLoadSectionsMissingFile(t *testing.T) {
	sections, err := LoadSections(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	require.Empty(t, sections)
}

func TestSplitSectionsDropsEmpty(t *testing.T) {
	sections := SplitSections("first\n\n\n\n  \n\nsecond\n\n")
	require.Equal(t, []string{"first", "second"}, sections)
}

func TestSplitSectionsReconstructs(t *testing.T) {
	input := "Section one has text.\n\n  Section two, indented.  \n\nSection three."
	sections := SplitSections(input)

	var trimmed []string
	for _, piece := range strings.Split(input, "\n\n") {
		if s := strings.TrimSpace(piece); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	require.Equal(t, trimmed, sections)
	// joining the trimmed pieces with the original separator restores
	// the input modulo per-piece whitespace trimming
	require.Equal(t, "Section one has text.\n\nSection two, indented.\n\nSection three.", strings.Join(sections, "\n\n"))
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.zip")
	require.NoError(t, os.WriteFile(path, []byte("zip"), 0o644))

	_, err := ExtractText(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported file format")
}

func TestExtractMarkdownStripsSyntax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nSome **bold** text.\n"), 0o644))

	text, err := ExtractText(path)
	require.NoError(t, err)
	require.Contains(t, text, "Title")
	require.Contains(t, text, "Some bold text.")
	require.NotContains(t, text, "#")
	require.NotContains(t, text, "**")
}
