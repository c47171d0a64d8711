package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testBuilder() *commandBuilder {
	return &commandBuilder{
		excludedDirs:  []string{".*", "node_modules", "dist"},
		excludedFiles: []string{"package-lock.json", ".DS_Store"},
		extensions:    []string{".py", ".ts"},
	}
}

func TestBuildFindGrep(t *testing.T) {
	cmd := testBuilder().buildFindGrep("def main")

	assert.True(t, strings.HasPrefix(cmd, "find . "))

	// dot-directory wildcard first, then the named exclusions sorted
	assert.Contains(t, cmd, `-mindepth 1 -type d \( -name '.*' -o -name dist -o -name node_modules \) -prune -o`)
	assert.Contains(t, cmd, `-type f \( -name .DS_Store -o -name package-lock.json \) -prune -o`)
	assert.Contains(t, cmd, `-type f \( -name '*.py' -o -name '*.ts' \)`)
	assert.Contains(t, cmd, `-exec grep -nH -i -E -e 'def main' {} + 2>/dev/null`)
}

func TestBuildFindGrep_QuotesPattern(t *testing.T) {
	cmd := testBuilder().buildFindGrep(`foo.*bar(baz)?`)

	assert.Contains(t, cmd, `-e 'foo.*bar(baz)?'`)
}

func TestBuildFindGrepFileLine_AppendsCut(t *testing.T) {
	cmd := testBuilder().buildFindGrepFileLine("query")

	assert.True(t, strings.HasSuffix(cmd, " | cut -d: -f1-2"))
}

func TestBuildFindFiles(t *testing.T) {
	cmd := testBuilder().buildFindFiles()

	assert.True(t, strings.HasSuffix(cmd, " -print"))
	assert.NotContains(t, cmd, "grep")
	assert.Contains(t, cmd, `-name '*.py'`)
}

func TestBuildFindGrep_NoExclusions(t *testing.T) {
	b := &commandBuilder{extensions: []string{".go"}}
	cmd := b.buildFindGrep("x")

	assert.Contains(t, cmd, "find . -mindepth 1 ")
	assert.NotContains(t, cmd, "-prune")
}
