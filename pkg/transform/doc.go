// Package transform applies the final element-list transformations before
// layout.
//
// # Reagent Removal
//
// [RemoveReagents] drops every reagent_of edge and every node that is only
// ever a reagent. A node that is a reagent in one reaction and a reactant in
// another is kept.
//
// # Starting-Material Duplication
//
// [DuplicateStartingMaterials] splits a starting material that feeds several
// reactions into one copy per outgoing edge, so the rendered route reads as
// a tree:
//
//	Before: A → R1, A → R2
//	After:  A (1) → R1, A (2) → R2
//
// Copies keep every attribute of the original except the id. Each rewired
// edge gets the same " (k)" suffix on its own id.
//
// # DAG Check
//
// [IsDAG] and [FindCycle] run a depth-first search that follows edge
// direction and reports a cycle when a node is reached again while still on
// the active stack. A cycle is not an error; [Apply] reports it as a
// warning when the hierarchical layout is selected.
//
// All functions are pure: inputs are never modified and results never share
// data maps with their inputs.
package transform
