// Package traverse walks a survey flow at answer time.
//
// A [Walker] holds the respondent's position, a history stack for
// backward navigation, and the answers recorded so far. It is used both
// for the live preview inside the editor and for scoring completion
// progress. Because the flow is guaranteed acyclic, every traversal
// terminates within the number of questions; no loop bound or timeout
// exists here, and none is needed.
package traverse

import (
	"fmt"
	"strings"

	"github.com/joey603/surveypro/pkg/core/flow"
)

// Walker traverses a flow from the root, one answered question at a
// time. The zero value is not usable; use [NewWalker]. Walker never
// mutates the flow.
type Walker struct {
	f       *flow.Flow
	current string
	history []string
	answers map[string]string
}

// NewWalker creates a walker positioned at the root, with the root
// pre-pushed onto the history stack.
func NewWalker(f *flow.Flow) *Walker {
	return &Walker{
		f:       f,
		current: flow.RootID,
		history: []string{flow.RootID},
		answers: make(map[string]string),
	}
}

// Current returns the id of the question the walker is on.
func (w *Walker) Current() string { return w.current }

// History returns a copy of the visited question ids, oldest first.
func (w *Walker) History() []string {
	return append([]string(nil), w.history...)
}

// SetAnswer records the respondent's answer for a question. Values are
// stored as strings; branch edges match answers case-insensitively.
func (w *Walker) SetAnswer(id string, value any) {
	w.answers[id] = fmt.Sprint(value)
}

// Answer returns the recorded answer for a question.
func (w *Walker) Answer(id string) (string, bool) {
	v, ok := w.answers[id]
	return v, ok
}

// Answers returns a copy of all recorded answers.
func (w *Walker) Answers() map[string]string {
	out := make(map[string]string, len(w.answers))
	for k, v := range w.answers {
		out[k] = v
	}
	return out
}

// AtEnd reports whether the current question has no outgoing edges.
func (w *Walker) AtEnd() bool { return w.f.OutDegree(w.current) == 0 }

// Advance moves to the next question and reports whether it moved.
//
// From a linear question it follows the single outgoing edge. From a
// branch point it follows the edge whose label equals the recorded
// answer, ignoring case; with no recorded answer, or an answer matching
// no label, Advance is a no-op and the caller must supply an answer
// first. At the end of the survey it is a no-op as well.
func (w *Walker) Advance() bool {
	next, ok := Next(w.f, w.current, w.answers)
	if !ok {
		return false
	}
	w.current = next
	w.history = append(w.history, next)
	return true
}

// Retreat pops the history stack and moves back to the previous
// question. It reports whether it moved; the walker never retreats
// past the root.
func (w *Walker) Retreat() bool {
	if len(w.history) <= 1 {
		return false
	}
	w.history = w.history[:len(w.history)-1]
	w.current = w.history[len(w.history)-1]
	return true
}

// Remaining returns the number of questions left on the path chosen by
// the recorded answers, counting the current question itself.
func (w *Walker) Remaining() int {
	return RemainingCount(w.f, w.current, w.answers)
}

// Next resolves the question that follows from under the given answers.
// It returns false at the end of the survey and at an unanswered branch
// point.
func Next(f *flow.Flow, from string, answers map[string]string) (string, bool) {
	out := f.OutEdges(from)
	if len(out) == 0 {
		return "", false
	}
	if !f.IsBranchPoint(from) {
		return out[0].To, true
	}
	ans, ok := answers[from]
	if !ok {
		return "", false
	}
	for _, e := range out {
		if strings.EqualFold(e.Label, ans) {
			return e.To, true
		}
	}
	return "", false
}

// RemainingCount counts the questions reachable from a starting point
// along the path selected by the answers, including the start itself.
// At a branch point whose answer is recorded only the matching branch
// is followed; an unanswered branch point counts every branch, which is
// what the editor shows before the respondent has committed to a path.
// Results are memoized per question, so shared suffixes are counted
// once per call even on diamond-shaped graphs.
func RemainingCount(f *flow.Flow, from string, answers map[string]string) int {
	memo := make(map[string]int)
	var count func(id string) int
	count = func(id string) int {
		if c, ok := memo[id]; ok {
			return c
		}
		memo[id] = 1 // occupies its own slot before recursion
		out := f.OutEdges(id)
		c := 1
		switch {
		case len(out) == 0:
		case !f.IsBranchPoint(id):
			c += count(out[0].To)
		default:
			if next, ok := Next(f, id, answers); ok {
				c += count(next)
			} else {
				for _, e := range out {
					c += count(e.To)
				}
			}
		}
		memo[id] = c
		return c
	}
	if _, ok := f.Node(from); !ok {
		return 0
	}
	return count(from)
}
