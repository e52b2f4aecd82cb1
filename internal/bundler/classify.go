package bundler

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Pipeline names the transform chain a JavaScript module is routed through.
type Pipeline string

const (
	// PipelineFull compiles with the full preset chain and rewrites
	// ee_else_ce imports to the edition root.
	PipelineFull Pipeline = "full"
	// PipelineFast only strips syntax, with no edition switching.
	PipelineFast Pipeline = "fast"
)

// EditionPrefix is the import prefix that selects between the EE and CE roots.
const EditionPrefix = "ee_else_ce/"

// EditionImportPattern matches an import from the edition prefix. It is a
// raw-text match, so comments and strings containing the same text match too.
const EditionImportPattern = `from.* ['"]ee_else_ce/`

var editionImportRegexp = regexp.MustCompile(EditionImportPattern)

// FileReader reads a whole file.
type FileReader func(path string) ([]byte, error)

// Classify picks the pipeline for a module given its source or the error
// reading it. Read errors select the fast pipeline.
func Classify(content []byte, err error) Pipeline {
	if err != nil {
		return PipelineFast
	}
	if editionImportRegexp.Match(content) {
		return PipelineFull
	}
	return PipelineFast
}

// PipelineFor reads path through the factory's reader and classifies it.
func (f *Factory) PipelineFor(path string) Pipeline {
	return Classify(f.readFile(path))
}

// RuleFor returns the first rule in cfg matching path, with OneOf resolved to
// the matching branch. Content tests read through the factory's reader.
func (f *Factory) RuleFor(cfg Config, path string) (Rule, bool) {
	for _, rule := range cfg.Module.Rules {
		if !f.matchPath(rule, path) {
			continue
		}
		if len(rule.OneOf) == 0 {
			return rule, true
		}
		for _, branch := range rule.OneOf {
			if !f.matchPath(branch, path) {
				continue
			}
			if branch.ContentTest != "" && !f.matchContent(branch.ContentTest, path) {
				continue
			}
			return branch, true
		}
	}
	return Rule{}, false
}

// InlineAsset reports whether an asset of size bytes handled by rule is
// embedded as a data URL rather than emitted as a file.
func InlineAsset(rule Rule, size int64) bool {
	return rule.Type == RuleTypeAsset && size <= rule.InlineLimit
}

func (f *Factory) matchContent(pattern, path string) bool {
	content, err := f.readFile(path)
	if err != nil {
		return false
	}
	re := f.compiled(pattern)
	return re != nil && re.Match(content)
}

func (f *Factory) readFile(path string) ([]byte, error) {
	if f == nil || f.reader == nil {
		return os.ReadFile(path)
	}
	return f.reader(path)
}

func (f *Factory) matchPath(rule Rule, path string) bool {
	if rule.Test != "" && !f.matchRegexp(rule.Test, path) {
		return false
	}
	if rule.Exclude != "" && f.matchRegexp(rule.Exclude, path) {
		return false
	}
	if len(rule.Include) == 0 {
		return true
	}
	for _, dir := range rule.Include {
		if Within(dir, path) {
			return true
		}
	}
	return false
}

func (f *Factory) matchRegexp(pattern, s string) bool {
	re := f.compiled(pattern)
	return re != nil && re.MatchString(filepath.ToSlash(s))
}

// patternCache holds compiled rule patterns. Invalid patterns are cached as
// nil and never match.
type patternCache struct {
	patterns sync.Map // string -> *regexp.Regexp
}

// compiled returns the compiled pattern, compiling it on first use.
func (f *Factory) compiled(pattern string) *regexp.Regexp {
	if pattern == EditionImportPattern {
		return editionImportRegexp
	}
	if f == nil || f.cache == nil {
		re, _ := regexp.Compile(pattern)
		return re
	}
	if cached, ok := f.cache.patterns.Load(pattern); ok {
		return cached.(*regexp.Regexp)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	f.cache.patterns.Store(pattern, re)
	return re
}

// Within reports whether path is dir or below it.
func Within(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
