// Package rebuild turns a dirty byte range into a routine-level rebuild plan
// and assembles hybrid trees that splice freshly parsed routines into an
// otherwise reused module.
//
// Caller resolution during dependency expansion is name-based and cannot see
// calls made through variables or dynamic dispatch. That is a documented
// approximation: plans are advisory for incremental reuse, never relied on
// for soundness, and the full rebuild fallback is always correct.
package rebuild

import (
	"sort"

	"github.com/Sumatoshi-tech/bslcheck/pkg/ast"
)

// Reason explains why a plan chose full or selective rebuild. It exists for
// telemetry and logging, not control flow.
type Reason string

// Plan reasons.
const (
	ReasonNone         Reason = "none"
	ReasonModule       Reason = "module"
	ReasonHeurFraction Reason = "heur_fraction"
	ReasonHeurAbsolute Reason = "heur_absolute"
	ReasonExpFraction  Reason = "exp_fraction"
	ReasonExpAbsolute  Reason = "exp_absolute"
)

// Heuristics bounds how large a selective rebuild may grow before a full
// rebuild becomes cheaper.
type Heuristics struct {
	// MaxTouchedFraction falls back to full when touched/total routines
	// exceeds this fraction.
	MaxTouchedFraction float64
	// MaxTouchedAbsolute falls back to full when the raw touched count
	// exceeds this cap.
	MaxTouchedAbsolute int
}

// DefaultHeuristics returns the standard thresholds.
func DefaultHeuristics() Heuristics {
	return Heuristics{MaxTouchedFraction: 0.5, MaxTouchedAbsolute: 25}
}

// Plan is the outcome of planning one edit. Created fresh per edit, consumed
// once by Selective, then discarded.
type Plan struct {
	// FallbackFull instructs the caller to discard the old tree and take
	// the freshly parsed one; Routines is empty in that case.
	FallbackFull bool
	// Routines lists the routine nodes to rebuild, sorted by NodeID.
	Routines []ast.NodeID
	// TotalRoutines is the routine count of the module, for metrics.
	TotalRoutines int
	// InitialTouched counts routines touched before dependency expansion.
	InitialTouched int
	// ExpandedTouched counts routines after caller expansion.
	ExpandedTouched int
	// Reason records which decision path produced the plan.
	Reason Reason
}

func fullPlan(total, initial, expanded int, reason Reason) Plan {
	return Plan{
		FallbackFull:    true,
		TotalRoutines:   total,
		InitialTouched:  initial,
		ExpandedTouched: expanded,
		Reason:          reason,
	}
}

// PlanPartial computes a rebuild plan for the half-open dirty byte range
// [dirtyStart, dirtyEnd) over the current tree.
//
// An empty boundary set yields an empty selective plan (a no-op, not an
// error). A module-level boundary escalates to full rebuild unless exactly
// one routine's span covers the whole dirty range, in which case the plan is
// refined to that single routine. Otherwise the touched routine set is
// expanded with its transitive callers and checked against the heuristics
// both before and after expansion.
func PlanPartial(tree *ast.BuiltAST, dirtyStart, dirtyEnd uint32, heur Heuristics) Plan {
	total := tree.CountRoutines()

	boundaries := tree.DirtyRebuildBoundaries(dirtyStart, dirtyEnd)
	if len(boundaries) == 0 {
		return Plan{TotalRoutines: total, Reason: ReasonNone}
	}

	hasModule := false
	var touched []ast.NodeID

	for _, id := range boundaries {
		switch kind := tree.Arena.Node(id).Kind; {
		case kind == ast.KindModule:
			hasModule = true
		case kind.IsRoutine():
			touched = append(touched, id)
		}
	}

	if hasModule {
		covering := routinesCovering(tree, dirtyStart, dirtyEnd)
		if len(covering) == 1 {
			return Plan{
				Routines:        covering,
				TotalRoutines:   total,
				InitialTouched:  1,
				ExpandedTouched: 1,
				Reason:          ReasonNone,
			}
		}

		return fullPlan(total, 0, 0, ReasonModule)
	}

	initial := len(touched)
	if total == 0 {
		return Plan{Routines: touched, TotalRoutines: total, Reason: ReasonNone}
	}

	if float64(initial)/float64(total) > heur.MaxTouchedFraction {
		return fullPlan(total, initial, initial, ReasonHeurFraction)
	}
	if initial > heur.MaxTouchedAbsolute {
		return fullPlan(total, initial, initial, ReasonHeurAbsolute)
	}

	expanded := expandCallers(tree, touched)
	sort.Slice(expanded, func(i, j int) bool { return expanded[i] < expanded[j] })

	if float64(len(expanded))/float64(total) > heur.MaxTouchedFraction {
		return fullPlan(total, initial, len(expanded), ReasonExpFraction)
	}
	if len(expanded) > heur.MaxTouchedAbsolute {
		return fullPlan(total, initial, len(expanded), ReasonExpAbsolute)
	}

	return Plan{
		Routines:        expanded,
		TotalRoutines:   total,
		InitialTouched:  initial,
		ExpandedTouched: len(expanded),
		Reason:          ReasonNone,
	}
}

// routinesCovering returns the routines whose span fully covers the dirty
// range.
func routinesCovering(tree *ast.BuiltAST, start, end uint32) []ast.NodeID {
	var out []ast.NodeID
	for _, id := range tree.Arena.Preorder(tree.Root) {
		n := tree.Arena.Node(id)
		if n.Kind.IsRoutine() && start >= n.Span.Start && end <= n.Span.End() {
			out = append(out, id)
		}
	}

	return out
}

// expandCallers closes the touched set over "who calls a touched routine":
// a caller of a changed routine may need re-validation even though its own
// text did not change. Self-calls are excluded; they add no new dependency.
func expandCallers(tree *ast.BuiltAST, touched []ast.NodeID) []ast.NodeID {
	var routines []ast.NodeID
	nameToRoutines := make(map[string][]ast.NodeID)

	for _, id := range tree.Arena.Preorder(tree.Root) {
		if tree.Arena.Node(id).Kind.IsRoutine() {
			routines = append(routines, id)
			if name := tree.IdentText(id); name != "" {
				nameToRoutines[name] = append(nameToRoutines[name], id)
			}
		}
	}

	calleeToCallers := make(map[ast.NodeID]map[ast.NodeID]bool)

	for _, caller := range routines {
		for _, id := range tree.Arena.Preorder(caller) {
			n := tree.Arena.Node(id)
			if n.Kind != ast.KindCall || n.FirstChild == ast.NoNode {
				continue
			}

			first := tree.Arena.Node(n.FirstChild)
			if first.Kind != ast.KindIdentifier || first.Payload.Kind != ast.PayloadIdent {
				continue
			}

			for _, callee := range nameToRoutines[tree.Interner.Resolve(first.Payload.Sym)] {
				if callee == caller {
					continue
				}
				if calleeToCallers[callee] == nil {
					calleeToCallers[callee] = make(map[ast.NodeID]bool)
				}
				calleeToCallers[callee][caller] = true
			}
		}
	}

	expanded := make(map[ast.NodeID]bool, len(touched))
	queue := append([]ast.NodeID(nil), touched...)
	for _, id := range touched {
		expanded[id] = true
	}

	for len(queue) > 0 {
		changed := queue[0]
		queue = queue[1:]

		for caller := range calleeToCallers[changed] {
			if !expanded[caller] {
				expanded[caller] = true
				queue = append(queue, caller)
			}
		}
	}

	out := make([]ast.NodeID, 0, len(expanded))
	for id := range expanded {
		out = append(out, id)
	}

	return out
}
