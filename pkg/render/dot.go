// Package render exports survey flows as Graphviz diagrams.
//
// The DOT output encodes the same structure the editor canvas shows:
// questions as boxes, branch edges labeled with their answers, branch
// points highlighted. SVG rendering goes through Graphviz so exports
// match across platforms.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/joey603/surveypro/pkg/core/flow"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes the question type and number in node labels.
	// When false, only the question text is shown.
	Detailed bool
}

// ToDOT converts a flow to Graphviz DOT format. The resulting DOT
// string can be rendered with [RenderSVG].
//
// Branch points are rendered with an orange fill; questions with media
// attachments get a note shape.
func ToDOT(f *flow.Flow, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph survey {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range f.Nodes() {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(f, n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range f.Edges() {
		if e.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To, e.Label)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *flow.QuestionNode, detailed bool) string {
	text := n.Text
	if text == "" {
		text = n.ID
	}
	if !detailed {
		return text
	}

	parts := []string{text, fmt.Sprintf("type: %s", n.Type)}
	if n.Number > 0 {
		parts = append(parts, fmt.Sprintf("no. %d", n.Number))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(f *flow.Flow, n *flow.QuestionNode, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if f.IsBranchPoint(n.ID) {
		attrs = append(attrs, "fillcolor=orange")
	}
	if n.Media != nil {
		attrs = append(attrs, "shape=note")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
