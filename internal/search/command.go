package search

import (
	"fmt"
	"sort"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

// commandBuilder assembles the find pipelines used inside a container.
// Exclusions prune whole directory subtrees before grep ever sees them; the
// extension allow-list keeps binary and vendored formats out.
type commandBuilder struct {
	excludedDirs  []string
	excludedFiles []string
	extensions    []string
}

// findExpression returns the shared find invocation selecting searchable
// files under the current directory, without an action.
//
// Layout of the expression, in evaluation order:
//  1. prune excluded directories (".*" means any dot-directory)
//  2. prune excluded file basenames
//  3. match files with an allowed extension
func (b *commandBuilder) findExpression() string {
	var dirTerms []string
	dotDir := false
	rest := make([]string, 0, len(b.excludedDirs))
	for _, d := range b.excludedDirs {
		if d == ".*" {
			dotDir = true
			continue
		}
		rest = append(rest, d)
	}
	if dotDir {
		dirTerms = append(dirTerms, `-name '.*'`)
	}
	sort.Strings(rest)
	for _, d := range rest {
		dirTerms = append(dirTerms, "-name "+shellquote.Join(d))
	}

	dirPrune := "-mindepth 1"
	if len(dirTerms) > 0 {
		dirPrune = `-mindepth 1 -type d \( ` + strings.Join(dirTerms, " -o ") + ` \) -prune -o`
	}

	filePrune := ""
	if len(b.excludedFiles) > 0 {
		files := append([]string(nil), b.excludedFiles...)
		sort.Strings(files)
		terms := make([]string, len(files))
		for i, f := range files {
			terms[i] = "-name " + shellquote.Join(f)
		}
		filePrune = `-type f \( ` + strings.Join(terms, " -o ") + ` \) -prune -o `
	}

	exts := append([]string(nil), b.extensions...)
	sort.Strings(exts)
	extTerms := make([]string, len(exts))
	for i, ext := range exts {
		extTerms[i] = fmt.Sprintf("-name '*%s'", ext)
	}
	include := `-type f \( ` + strings.Join(extTerms, " -o ") + ` \)`

	return fmt.Sprintf("find . %s %s%s", dirPrune, filePrune, include)
}

// buildFindGrep matches pattern (grep -E, case insensitive) in every
// searchable file, emitting file:line:match per hit. grep's stderr is
// discarded: files disappearing mid-walk are routine.
func (b *commandBuilder) buildFindGrep(pattern string) string {
	return fmt.Sprintf("%s -exec grep -nH -i -E -e %s {} + 2>/dev/null",
		b.findExpression(), shellquote.Join(pattern))
}

// buildFindGrepFileLine is the dry-run variant: the same pipeline with the
// matched text cut away, leaving only file:line pairs.
func (b *commandBuilder) buildFindGrepFileLine(pattern string) string {
	return b.buildFindGrep(pattern) + " | cut -d: -f1-2"
}

// buildFindFiles lists every searchable file, one path per line.
func (b *commandBuilder) buildFindFiles() string {
	return b.findExpression() + " -print"
}
