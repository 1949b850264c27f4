// Package layout computes the visual arrangement of a survey flow.
//
// A structural mutation invalidates every layout-assigned field on the
// graph; [Engine.Recompute] restores them in three passes:
//
//  1. Level & column assignment. A depth-first traversal from the root
//     assigns each question its depth. Branch points are centered over
//     the column span of their children, with the children spread
//     left-to-right by subtree width; a linear question keeps its single
//     child directly below it.
//  2. Vertical spacing. The gap between consecutive levels is a base
//     unit, widened when a question at the upper level is critical,
//     carries a media attachment, or sits under a critical ancestor.
//     The increments are independently additive and empirically tuned;
//     they live in [Config] rather than in code.
//  3. Renumbering. A single traversal from the root, visiting children
//     in ascending column order, assigns 1-based question numbers.
//     Questions unreachable from the root receive no number and are
//     reported in [Result.Unreachable].
//
// Recompute is idempotent: running it twice on an unchanged graph
// yields identical positions and numbers.
package layout
