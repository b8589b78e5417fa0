// Package workspace drives the incremental pipeline for a set of open
// documents: text diff to a dirty byte range, rebuild planning against the
// previous tree, selective splice of the reparsed tree, and reanalysis of
// the result.
package workspace

import (
	"fmt"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/bslcheck/internal/bsl"
	"github.com/Sumatoshi-tech/bslcheck/pkg/ast"
	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
	"github.com/Sumatoshi-tech/bslcheck/pkg/rebuild"
	"github.com/Sumatoshi-tech/bslcheck/pkg/semantic"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

// Observer receives the outcome of every document update. Implementations
// must be safe for concurrent use.
type Observer interface {
	ObserveOpen(name string, duration time.Duration)
	ObserveUpdate(name string, plan rebuild.Plan, res rebuild.Result, duration time.Duration)
}

// Options configures a session. The zero value gets default heuristics, all
// variable checks, and the builtin catalog.
type Options struct {
	Checks     *semantic.Checks
	Catalog    *semantic.Catalog
	Heuristics *rebuild.Heuristics
	Observer   Observer
}

// Session holds the open documents of one editing session.
type Session struct {
	mu   sync.Mutex
	docs map[string]*document

	checks   semantic.Checks
	catalog  *semantic.Catalog
	heur     rebuild.Heuristics
	observer Observer
	stats    *Stats
}

type document struct {
	name string
	text string
	tree *ast.BuiltAST
}

// UpdateResult is the outcome of opening or editing one document.
type UpdateResult struct {
	// Diagnostics merges syntax and semantic findings in source order of
	// emission: parse diagnostics first.
	Diagnostics []diag.Diagnostic
	// Plan is the zero value on a full (re)parse.
	Plan rebuild.Plan
	// Rebuild is the zero value on a full (re)parse.
	Rebuild rebuild.Result
	// Incremental reports whether the selective path ran at all.
	Incremental bool
	Duration    time.Duration
}

// NewSession creates an empty session.
func NewSession(opts Options) *Session {
	s := &Session{
		docs:     make(map[string]*document),
		checks:   semantic.AllChecks(),
		catalog:  semantic.BuiltinCatalog(),
		heur:     rebuild.DefaultHeuristics(),
		observer: opts.Observer,
		stats:    newStats(),
	}

	if opts.Checks != nil {
		s.checks = *opts.Checks
	}
	if opts.Catalog != nil {
		s.catalog = opts.Catalog
	}
	if opts.Heuristics != nil {
		s.heur = *opts.Heuristics
	}

	return s
}

// Open parses and analyzes a document from scratch, replacing any previous
// state under the same name.
func (s *Session) Open(name, text string) *UpdateResult {
	started := time.Now()

	tree, res := s.fullPass(name, text)

	s.mu.Lock()
	s.docs[name] = &document{name: name, text: text, tree: tree}
	s.mu.Unlock()

	s.stats.recordFullParse()

	res.Duration = time.Since(started)
	if s.observer != nil {
		s.observer.ObserveOpen(name, res.Duration)
	}

	return res
}

// Update applies a new full text to an open document through the
// incremental pipeline.
func (s *Session) Update(name, newText string) (*UpdateResult, error) {
	started := time.Now()

	s.mu.Lock()
	doc, ok := s.docs[name]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("workspace: update of unopened document %q", name)
	}

	dirtyStart, dirtyEnd, changed := dirtyRange(doc.text, newText)
	if !changed {
		res := s.analyzeOnly(name, newText, doc.tree, nil)
		res.Duration = time.Since(started)

		return res, nil
	}

	plan := rebuild.PlanPartial(doc.tree, dirtyStart, dirtyEnd, s.heur)

	m, parseDiags := bsl.Parse(newText, name)
	newFull := bsl.BuildArena(m)

	rebuilt := rebuild.Selective(doc.tree, newFull, plan)

	res := s.analyzeOnly(name, newText, rebuilt.Hybrid, parseDiags)
	res.Plan = plan
	res.Rebuild = rebuilt
	res.Incremental = true

	s.mu.Lock()
	doc.text = newText
	doc.tree = rebuilt.Hybrid
	s.mu.Unlock()

	s.stats.recordUpdate(plan, rebuilt)

	res.Duration = time.Since(started)
	if s.observer != nil {
		s.observer.ObserveUpdate(name, plan, rebuilt, res.Duration)
	}

	return res, nil
}

// Close forgets a document.
func (s *Session) Close(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, name)
}

// Tree returns the current tree of an open document, nil when unknown.
func (s *Session) Tree(name string) *ast.BuiltAST {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.docs[name]; ok {
		return doc.tree
	}

	return nil
}

// Stats returns a snapshot of the accumulated telemetry.
func (s *Session) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

func (s *Session) fullPass(name, text string) (*ast.BuiltAST, *UpdateResult) {
	m, parseDiags := bsl.Parse(text, name)
	tree := bsl.BuildArena(m)

	res := s.analyzeOnly(name, text, tree, parseDiags)

	return tree, res
}

func (s *Session) analyzeOnly(name, text string, tree *ast.BuiltAST, parseDiags []diag.Diagnostic) *UpdateResult {
	a := semantic.NewAnalyzer()
	a.FileName = name
	a.LineIndex = source.NewLineIndex(text)
	a.Catalog = s.catalog
	a.Checks = s.checks

	diags := append(parseDiags, a.Analyze(tree)...)

	return &UpdateResult{Diagnostics: diags}
}
