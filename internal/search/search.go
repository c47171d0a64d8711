// Package search implements two-phase regex search across containers.
//
// Phase one (dry search) runs a pruned find+grep pipeline in every container
// and returns only file paths with merged line ranges, letting the caller
// narrow a query before paying for content. Phase two reads the matched
// region of one chosen file through the file service.
package search

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/shipable/workspaced/internal/config"
	"github.com/shipable/workspaced/internal/exec"
	"github.com/shipable/workspaced/internal/vpath"
)

// commandRunner is the slice of the executor the searcher needs.
type commandRunner interface {
	Execute(ctx context.Context, container, command, workdir string) (*exec.Result, error)
}

// fileReader reads a line range of a virtual path; implemented by the file
// operations service.
type fileReader interface {
	ReadRange(ctx context.Context, path string, startLine, endLine int, numbered bool) (string, error)
}

// Searcher runs dry and full searches over the configured containers.
type Searcher struct {
	runner         commandRunner
	reader         fileReader
	resolver       *vpath.Resolver
	builder        commandBuilder
	defaultContext int
	maxResults     int
	log            zerolog.Logger
}

// NewSearcher creates a Searcher from the search configuration.
func NewSearcher(runner commandRunner, reader fileReader, resolver *vpath.Resolver, cfg *config.Config, log zerolog.Logger) *Searcher {
	if runner == nil {
		panic("runner is required")
	}
	if reader == nil {
		panic("reader is required")
	}
	if resolver == nil {
		panic("resolver is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	return &Searcher{
		runner:   runner,
		reader:   reader,
		resolver: resolver,
		builder: commandBuilder{
			excludedDirs:  cfg.Search.ExcludedDirs,
			excludedFiles: cfg.Search.ExcludedFiles,
			extensions:    cfg.Search.IncludeExtensions,
		},
		defaultContext: cfg.Search.DefaultContextLines,
		maxResults:     cfg.Search.MaxResults,
		log:            log,
	}
}

// DrySearch runs the file:line pipeline in every container concurrently and
// returns virtual paths mapped to merged context ranges. A negative context
// selects the configured default.
//
// Containers whose command fails are skipped with a warning; only total
// failure across all containers is an error. A container where the pattern
// simply matches nothing exits non-zero with empty output and counts as an
// empty result, not a failure.
func (s *Searcher) DrySearch(ctx context.Context, pattern string, contextLines int) (map[string][]LineRange, error) {
	if pattern == "" {
		return nil, ErrEmptyQuery
	}
	if contextLines < 0 {
		contextLines = s.defaultContext
	}

	cmd := s.builder.buildFindGrepFileLine(pattern)

	containers := s.resolver.Containers()
	hits := make([]containerHits, len(containers))

	var wg sync.WaitGroup
	for i, container := range containers {
		wg.Add(1)
		go func(i int, container string) {
			defer wg.Done()
			hits[i] = s.searchContainer(ctx, container, cmd)
		}(i, container)
	}
	wg.Wait()

	failures := make(map[string]string)
	merged := make(map[string][]LineRange)
	total := 0
	for _, h := range hits {
		if h.parseErr != nil {
			return nil, h.parseErr
		}
		if h.failure != "" {
			failures[h.container] = h.failure
			s.log.Warn().
				Str("container", h.container).
				Str("reason", h.failure).
				Msg("search failed in container")
			continue
		}

		files := make([]string, 0, len(h.lines))
		for file := range h.lines {
			files = append(files, file)
		}
		sort.Strings(files)

		for _, file := range files {
			lines := h.lines[file]
			if total >= s.maxResults {
				s.log.Warn().
					Int("max_results", s.maxResults).
					Msg("search result cap reached, dropping remaining files")
				break
			}
			total++
			virtual := h.container + "/" + strings.TrimPrefix(file, "./")
			merged[virtual] = MergeLineRanges(lines, contextLines)
		}
	}

	if len(failures) == len(containers) {
		return nil, &AllContainersFailedError{Reasons: failures}
	}
	return merged, nil
}

// containerHits is one container's share of a dry search.
type containerHits struct {
	container string
	lines     map[string][]int
	failure   string
	parseErr  error
}

func (s *Searcher) searchContainer(ctx context.Context, container, cmd string) (h containerHits) {
	h.container = container

	result, err := s.runner.Execute(ctx, container, cmd, "")
	if err != nil {
		h.failure = err.Error()
		return h
	}
	if !result.Success && strings.TrimSpace(result.Stderr) != "" {
		h.failure = result.Stderr
		return h
	}

	h.lines = make(map[string][]int)
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		file, lineNo, ok := strings.Cut(line, ":")
		if !ok {
			h.parseErr = &ParseError{Container: container, Line: line}
			return h
		}
		n, err := strconv.Atoi(strings.TrimSpace(lineNo))
		if err != nil {
			h.parseErr = &ParseError{Container: container, Line: line}
			return h
		}
		file = strings.TrimSpace(file)
		if !containsInt(h.lines[file], n) {
			h.lines[file] = append(h.lines[file], n)
		}
	}
	return h
}

// Search runs a full search scoped to one virtual path. It re-runs the dry
// search for the pattern, then reads the file once from the first matched
// range's start to the last range's end. That single contiguous read can
// include lines between disjoint ranges; the over-read is accepted to keep
// the file read to one command.
//
// The result is a zero- or one-element slice: empty when the pattern does
// not match the file at all.
func (s *Searcher) Search(ctx context.Context, pattern string, contextLines int, path string, numbered bool) ([]string, error) {
	if _, err := s.resolver.Resolve(path); err != nil {
		return nil, err
	}

	ranges, err := s.DrySearch(ctx, pattern, contextLines)
	if err != nil {
		return nil, err
	}

	fileRanges := ranges[path]
	if len(fileRanges) == 0 {
		return []string{}, nil
	}

	content, err := s.reader.ReadRange(ctx, path, fileRanges[0].Start, fileRanges[len(fileRanges)-1].End, numbered)
	if err != nil {
		return nil, err
	}
	return []string{content}, nil
}

// ListFiles returns every searchable file per container as virtual paths,
// using the same exclusion and extension rules as the search pipelines.
// Containers whose listing fails are reported in the second map; only total
// failure is an error.
func (s *Searcher) ListFiles(ctx context.Context) (map[string][]string, map[string]string, error) {
	cmd := s.builder.buildFindFiles()
	containers := s.resolver.Containers()

	type listing struct {
		container string
		files     []string
		failure   string
	}
	listings := make([]listing, len(containers))

	var wg sync.WaitGroup
	for i, container := range containers {
		wg.Add(1)
		go func(i int, container string) {
			defer wg.Done()
			listings[i].container = container

			result, err := s.runner.Execute(ctx, container, cmd, "")
			if err != nil {
				listings[i].failure = err.Error()
				return
			}
			if !result.Success {
				reason := strings.TrimSpace(result.Stderr)
				if reason == "" {
					reason = "command failed"
				}
				listings[i].failure = reason
				return
			}

			var files []string
			for _, line := range strings.Split(result.Stdout, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				files = append(files, container+"/"+strings.TrimPrefix(line, "./"))
			}
			sort.Strings(files)
			listings[i].files = files
		}(i, container)
	}
	wg.Wait()

	files := make(map[string][]string)
	failures := make(map[string]string)
	for _, l := range listings {
		if l.failure != "" {
			failures[l.container] = l.failure
			s.log.Warn().
				Str("container", l.container).
				Str("reason", l.failure).
				Msg("file listing failed in container")
			continue
		}
		files[l.container] = l.files
	}
	if len(failures) == len(containers) {
		return nil, failures, &AllContainersFailedError{Reasons: failures}
	}
	return files, failures, nil
}

func containsInt(xs []int, n int) bool {
	for _, x := range xs {
		if x == n {
			return true
		}
	}
	return false
}
