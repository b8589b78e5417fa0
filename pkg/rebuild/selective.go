package rebuild

import "github.com/Sumatoshi-tech/bslcheck/pkg/ast"

// Result is the outcome of one selective rebuild. The five fields let the
// caller report how much of the edit was handled incrementally without
// requiring it to.
type Result struct {
	// Hybrid is the assembled tree, independent of both inputs.
	Hybrid *ast.BuiltAST
	// Replaced counts routines spliced in from the new tree.
	Replaced int
	// FallbackUsed reports that the full new tree was taken instead.
	FallbackUsed bool
	// InnerReused and InnerTotal estimate how much of the replaced
	// routines was structurally unchanged below the signature, by
	// matching descendant fingerprints against the old versions.
	InnerReused int
	InnerTotal  int
}

type routineKey struct {
	kind ast.Kind
	name string
}

// Selective assembles a hybrid tree from an old tree, a freshly parsed full
// tree of the edited source, and a plan. Routines named in the plan are
// deep-cloned from the new tree; every other module child is cloned unchanged
// from the old tree. Fingerprints of unreplaced routines are copied forward
// and only the replaced paths are rehashed.
//
// Neither input is mutated. Any failure to locate or clone a routine aborts
// the assembly and substitutes the full new tree; no partial tree is ever
// returned.
//
// Spans inside reused routines are carried over from the old tree and stay
// in the previous revision's byte coordinates until the next full rebuild.
// Fingerprints exclude spans, so reuse detection is unaffected.
func Selective(old, newFull *ast.BuiltAST, plan Plan) Result {
	if plan.FallbackFull {
		return Result{Hybrid: newFull.Clone(), FallbackUsed: true}
	}

	target := make(map[ast.NodeID]bool, len(plan.Routines))
	for _, id := range plan.Routines {
		target[id] = true
	}

	newByKey := indexRoutines(newFull)

	b := ast.NewBuilder()
	b.StartNode(ast.KindModule, newFull.Arena.Node(newFull.Root).Span)

	replaced := 0

	for _, c := range old.Arena.Children(old.Root) {
		n := old.Arena.Node(c)

		if n.Kind.IsRoutine() && target[c] {
			name := old.IdentText(c)
			if name == "" {
				return fullCopy(newFull)
			}

			newID, ok := newByKey[routineKey{kind: n.Kind, name: name}]
			if !ok {
				return fullCopy(newFull)
			}

			if err := cloneSubtree(newFull, newID, b); err != nil {
				return fullCopy(newFull)
			}
			replaced++

			continue
		}

		if err := cloneSubtree(old, c, b); err != nil {
			return fullCopy(newFull)
		}
	}

	b.FinishNode()
	hybrid := b.BuildWithoutFingerprints()
	hybrid.Fingerprints = make([]uint64, hybrid.Arena.Len())

	replacedKeys := make(map[routineKey]bool, len(plan.Routines))
	for _, id := range plan.Routines {
		replacedKeys[routineKey{kind: old.Arena.Node(id).Kind, name: old.IdentText(id)}] = true
	}

	oldFPByKey := make(map[routineKey]uint64)
	for _, c := range old.TopLevelRoutines() {
		oldFPByKey[routineKey{kind: old.Arena.Node(c).Kind, name: old.IdentText(c)}] = old.Fingerprints[c]
	}

	// Copy fingerprints forward for routines that survived, mark the
	// replaced ones dirty, then rehash only what is missing or dirty.
	for _, c := range hybrid.TopLevelRoutines() {
		key := routineKey{kind: hybrid.Arena.Node(c).Kind, name: hybrid.IdentText(c)}

		if replacedKeys[key] {
			hybrid.MarkDirtyUpwards(c)

			continue
		}

		if fp, ok := oldFPByKey[key]; ok {
			hybrid.Fingerprints[c] = fp
		}
	}

	hybrid.RecomputeFingerprintsPartial()

	innerReused, innerTotal := reuseMetric(old, hybrid, plan.Routines)

	return Result{
		Hybrid:      hybrid,
		Replaced:    replaced,
		InnerReused: innerReused,
		InnerTotal:  innerTotal,
	}
}

func fullCopy(newFull *ast.BuiltAST) Result {
	return Result{Hybrid: newFull.Clone(), FallbackUsed: true}
}

func indexRoutines(tree *ast.BuiltAST) map[routineKey]ast.NodeID {
	out := make(map[routineKey]ast.NodeID)
	for _, c := range tree.TopLevelRoutines() {
		if name := tree.IdentText(c); name != "" {
			out[routineKey{kind: tree.Arena.Node(c).Kind, name: name}] = c
		}
	}

	return out
}

// reuseMetric matches the multiset of descendant fingerprints of each
// replaced routine's new version against its old version, counting how many
// internal nodes survived the rebuild structurally unchanged.
func reuseMetric(old, hybrid *ast.BuiltAST, replaced []ast.NodeID) (int, int) {
	hybridByKey := indexRoutines(hybrid)

	reused, total := 0, 0

	for _, oldID := range replaced {
		name := old.IdentText(oldID)
		if name == "" {
			continue
		}

		hc, ok := hybridByKey[routineKey{kind: old.Arena.Node(oldID).Kind, name: name}]
		if !ok {
			continue
		}

		oldFPs := old.DescendantFingerprints(oldID)
		oldFPs[old.Fingerprints[oldID]]++

		for _, id := range hybrid.Arena.Preorder(hc) {
			if id == hc {
				continue
			}

			total++
			if fp := hybrid.Fingerprints[id]; oldFPs[fp] > 0 {
				oldFPs[fp]--
				reused++
			}
		}
	}

	return reused, total
}
