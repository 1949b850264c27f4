package flow

import (
	"fmt"
	"strings"
)

// fanOutSep joins a branch point's id with a label slug to form a
// generated child id, e.g. "1" + "Yes" -> "1_yes". The prefix "1_" is
// also how a re-synthesis finds the previous fan-out to discard.
const fanOutSep = "_"

// Synthesize regenerates the fan-out of a branch point from a label
// list and returns the ids of the generated children, in label order.
//
// Every question whose id is derived from the branch point by the
// fan-out naming convention is deleted first, along with the edges
// incident to it. Manual edits made underneath the old fan-out are
// intentionally discarded; questions authored elsewhere are untouched
// (they may become unreachable, which the layout pass flags). With an
// empty label list the question reverts to a plain linear node with no
// outgoing edges.
//
// Labels are sanitized rather than rejected: empty labels are skipped
// and labels whose slugs collide are dropped, keeping the first
// occurrence with its case preserved.
func (f *Flow) Synthesize(id string, labels []string) ([]string, error) {
	if _, ok := f.nodes[id]; !ok {
		return nil, ErrUnknownNode
	}

	prefix := id + fanOutSep
	for nid := range f.nodes {
		if strings.HasPrefix(nid, prefix) {
			f.deleteNode(nid)
		}
	}
	// Drop any remaining hand-drawn outgoing edges so the fan-out is the
	// node's complete outgoing set.
	for i := len(f.edges) - 1; i >= 0; i-- {
		if f.edges[i].From == id {
			f.removeEdgeAt(i)
		}
	}

	var children []string
	for _, label := range SanitizeLabels(labels) {
		childID := prefix + labelSlug(label)
		f.nodes[childID] = &QuestionNode{
			ID:   childID,
			Type: TypeText,
			Text: fmt.Sprintf("Question for %q", label),
		}
		f.addEdge(Edge{From: id, To: childID, Label: label})
		children = append(children, childID)
	}
	return children, nil
}

// SanitizeLabels returns labels with empties skipped and slug
// collisions de-duplicated, preserving order and case of the survivors.
func SanitizeLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		slug := labelSlug(l)
		if seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, l)
	}
	return out
}

// labelSlug lowercases a label and collapses runs of non-alphanumeric
// characters to single dashes, producing a stable id fragment.
func labelSlug(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
