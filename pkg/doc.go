// Package pkg provides the core libraries for SurveyPro conditional surveys.
//
// # Overview
//
// SurveyPro models a survey as a directed acyclic graph of questions.
// Critical questions fan out one follow-up branch per answer option, and
// respondents only ever see the path their answers select. The pkg
// directory is organized into four main areas:
//
//  1. [core/flow] - Domain logic (question graph, synthesis, layout, traversal)
//  2. [survey] - The persisted survey document and its serialization
//  3. [session], [store], [cache], [media] - Infrastructure (editing sessions,
//     persistence, artifact caching, media cleanup)
//  4. [render] - DOT and SVG diagram output
//
// # Architecture
//
// The typical data flow through SurveyPro:
//
//	Survey Document (JSON / MongoDB)
//	         ↓
//	    [core/flow] package (graph mutations + fan-out synthesis)
//	         ↓
//	    [core/flow/layout] package (levels, columns, positions, numbering)
//	         ↓
//	    [core/flow/traverse] package (answer-driven walk)
//	         ↓
//	    Editor canvas / respondent path / SVG export
//
// # Quick Start
//
// Build a branching survey and walk it:
//
//	import (
//	    "github.com/joey603/surveypro/pkg/core/flow"
//	    "github.com/joey603/surveypro/pkg/core/flow/layout"
//	    "github.com/joey603/surveypro/pkg/core/flow/traverse"
//	)
//
//	// 1. Author the graph
//	f := flow.New()
//	typ, opts, crit := flow.TypeYesNo, []string{"Yes", "No"}, true
//	f.UpdateQuestion(flow.RootID, flow.Patch{Type: &typ, Options: &opts, Critical: &crit})
//
//	// 2. Compute layout
//	layout.New(layout.DefaultConfig()).Recompute(f)
//
//	// 3. Walk it
//	w := traverse.NewWalker(f)
//	w.SetAnswer(flow.RootID, "Yes")
//	w.Advance()
//
// # Main Packages
//
// ## Core Domain Logic
//
// [core/flow] - The mutable question graph for one survey under edit.
// Enforces the structural invariants: a protected root, no cycles, at
// most one outgoing edge per linear question, and a synthesized fan-out
// that mirrors each critical question's options.
//
// [core/flow/layout] - Three-pass layout: levels and columns from branch
// subtree widths, per-level additive vertical gaps, and depth-first
// renumbering ordered by column.
//
// [core/flow/traverse] - Answer-driven traversal used by the preview
// pane and respondent submission, with case-insensitive branch matching
// and remaining-question estimation.
//
// ## Documents and Infrastructure
//
// [survey] - The survey document persisted to disk or MongoDB, holding
// the serialized graph plus title and metadata.
//
// [session] - Stateful editing sessions. Every mutation keeps the graph,
// its layout, and attached media assets in sync.
//
// [store] - Survey persistence. MongoStore for deployments, MemStore for
// tests and ephemeral serving.
//
// [cache] - Byte caches for derived artifacts keyed by graph hash.
// Redis, file, and null backends.
//
// [media] - Best-effort removal of uploaded media assets when their
// questions disappear.
//
// ## Output
//
// [render] - Graphviz DOT and SVG exports of the question graph.
//
// [errors] - Structured error codes shared by the engine, CLI, and HTTP
// API.
//
// [observability] - Hook points for metrics and tracing integrations.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                # All tests
//	go test ./pkg/core/flow/...      # Specific package
//
// [core/flow]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/core/flow
// [core/flow/layout]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/core/flow/layout
// [core/flow/traverse]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/core/flow/traverse
// [survey]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/survey
// [session]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/session
// [store]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/store
// [cache]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/cache
// [media]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/media
// [render]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/render
// [errors]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/errors
// [observability]: https://pkg.go.dev/github.com/joey603/surveypro/pkg/observability
package pkg
