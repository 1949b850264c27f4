package flow

// WouldCreateCycle reports whether adding an edge from one question to
// another would let the target reach the source through existing edges.
// A self-edge is trivially a cycle. The check is pure: it never mutates
// the graph, and every mutation path that adds or re-targets an edge
// goes through this single definition.
//
// Complexity is linear in the edges reachable from the target, bounded
// by total graph size.
func (f *Flow) WouldCreateCycle(from, to string) bool {
	if from == to {
		return true
	}

	visited := make(map[string]bool, len(f.nodes))
	stack := []string{to}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == from {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		stack = append(stack, f.outgoing[id]...)
	}
	return false
}
