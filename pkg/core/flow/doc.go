// Package flow implements the mutable question graph that backs the
// conditional-branching survey editor.
//
// A [Flow] holds the authoritative set of question nodes and transition
// edges for one survey under edit and exposes the primitive mutation
// operations: add, update and delete questions, connect and disconnect
// edges, and regenerate the fan-out of a branching question. Every
// mutation either succeeds completely or rejects with a sentinel error
// and leaves the graph unchanged.
//
// # Invariants
//
// The following invariants hold at the start and end of every mutation:
//
//  1. The graph is acyclic. [Flow.Connect] and [Flow.Retarget] consult
//     [Flow.WouldCreateCycle] before touching any state.
//  2. The root question (id [RootID]) always exists, cannot be deleted
//     and its id is never reassigned.
//  3. A non-critical question has at most one outgoing edge.
//  4. A critical question's outgoing edges carry exactly the labels
//     derived from its options (or Yes/No for the yesNo type).
//  5. Every edge references questions present in the graph.
//
// # Branching
//
// Marking a question critical turns it into a branch point: its
// outgoing edges are derived from its option list by [Flow.Synthesize]
// rather than hand-drawn. Generated children use the id convention
// "<parent>_<label-slug>", which is also how a later re-synthesis finds
// and discards the previous fan-out.
//
// Layout (levels, columns, pixel positions, question numbers) is
// computed by the layout subpackage; answer-time traversal lives in the
// traverse subpackage. Flow itself never computes either.
//
// Flow is not safe for concurrent use; exactly one editing session owns
// a Flow at a time.
package flow
