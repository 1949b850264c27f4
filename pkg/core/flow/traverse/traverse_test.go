package traverse

import (
	"slices"
	"testing"

	"github.com/joey603/surveypro/pkg/core/flow"
)

// yesNoRoot builds the smallest branching survey: a critical yes/no root
// with its two generated children.
func yesNoRoot(t *testing.T) *flow.Flow {
	t.Helper()
	f := flow.New()
	typ := flow.TypeYesNo
	crit := true
	if _, err := f.UpdateQuestion(flow.RootID, flow.Patch{Type: &typ, Critical: &crit}); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	return f
}

func TestAdvanceLinear(t *testing.T) {
	f := flow.New()
	a, _ := f.AddQuestion(flow.RootID)
	b, _ := f.AddQuestion(a)

	w := NewWalker(f)
	if !w.Advance() {
		t.Fatal("Advance from root failed")
	}
	if w.Current() != a {
		t.Errorf("current = %s, want %s", w.Current(), a)
	}
	if !w.Advance() {
		t.Fatal("Advance to leaf failed")
	}
	if w.Current() != b || !w.AtEnd() {
		t.Errorf("current = %s (atEnd=%v), want %s at end", w.Current(), w.AtEnd(), b)
	}
	// End of survey: no-op.
	if w.Advance() {
		t.Error("Advance past the end moved")
	}
}

func TestAdvanceBranch(t *testing.T) {
	f := yesNoRoot(t)
	w := NewWalker(f)

	// No answer recorded: advance is a no-op.
	if w.Advance() {
		t.Error("Advance without an answer moved")
	}

	// Unmatched answer: still a no-op.
	w.SetAnswer(flow.RootID, "Maybe")
	if w.Advance() {
		t.Error("Advance with unmatched answer moved")
	}

	// Answers match labels case-insensitively.
	w.SetAnswer(flow.RootID, "yes")
	if !w.Advance() {
		t.Fatal("Advance with matching answer failed")
	}
	if w.Current() != "1_yes" {
		t.Errorf("current = %s, want 1_yes", w.Current())
	}
	if got := w.History(); !slices.Equal(got, []string{"1", "1_yes"}) {
		t.Errorf("history = %v, want [1 1_yes]", got)
	}
}

func TestRetreat(t *testing.T) {
	f := yesNoRoot(t)
	w := NewWalker(f)

	// Cannot go before the root.
	if w.Retreat() {
		t.Error("Retreat at root moved")
	}

	w.SetAnswer(flow.RootID, "Yes")
	w.Advance()

	if !w.Retreat() {
		t.Fatal("Retreat failed")
	}
	if w.Current() != flow.RootID {
		t.Errorf("current = %s, want root", w.Current())
	}
	if got := w.History(); !slices.Equal(got, []string{"1"}) {
		t.Errorf("history = %v, want [1]", got)
	}
}

func TestHistorySymmetry(t *testing.T) {
	// A chain of answered branch points; advancing n times then
	// retreating n times restores the starting position.
	f := flow.New()
	typ := flow.TypeYesNo
	crit := true
	f.UpdateQuestion(flow.RootID, flow.Patch{Type: &typ, Critical: &crit})
	f.UpdateQuestion("1_yes", flow.Patch{Type: &typ, Critical: &crit})

	w := NewWalker(f)
	w.SetAnswer("1", "Yes")
	w.SetAnswer("1_yes", "No")

	moves := 0
	for w.Advance() {
		moves++
	}
	if moves != 2 {
		t.Fatalf("moves = %d, want 2", moves)
	}
	for i := 0; i < moves; i++ {
		if !w.Retreat() {
			t.Fatalf("Retreat %d failed", i+1)
		}
	}
	if w.Current() != flow.RootID {
		t.Errorf("current = %s, want root after symmetric retreats", w.Current())
	}
}

func TestTraversalTerminates(t *testing.T) {
	// With every branch point answered, repeated Advance reaches a leaf
	// within |nodes| steps.
	f := flow.New()
	typ := flow.TypeYesNo
	crit := true
	f.UpdateQuestion(flow.RootID, flow.Patch{Type: &typ, Critical: &crit})
	id := "1_no"
	for i := 0; i < 5; i++ {
		next, _ := f.AddQuestion(id)
		id = next
	}

	w := NewWalker(f)
	w.SetAnswer(flow.RootID, "No")

	steps := 0
	for w.Advance() {
		steps++
		if steps > f.NodeCount() {
			t.Fatal("traversal exceeded node count")
		}
	}
	if !w.AtEnd() {
		t.Error("traversal stopped before a leaf")
	}
}

func TestRemainingCount(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]string
		want    int
	}{
		{
			name:    "Unanswered",
			answers: nil,
			want:    3, // root + both leaves
		},
		{
			name:    "AnswerSelectsBranch",
			answers: map[string]string{"1": "Yes"},
			want:    2, // root + chosen leaf
		},
		{
			name:    "CaseInsensitive",
			answers: map[string]string{"1": "NO"},
			want:    2,
		},
		{
			name:    "UnmatchedAnswerCountsAll",
			answers: map[string]string{"1": "Maybe"},
			want:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := yesNoRoot(t)
			if got := RemainingCount(f, flow.RootID, tt.answers); got != tt.want {
				t.Errorf("RemainingCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRemainingCountMidPath(t *testing.T) {
	f := yesNoRoot(t)
	after, _ := f.AddQuestion("1_yes")
	_ = after

	answers := map[string]string{"1": "Yes"}
	if got := RemainingCount(f, "1_yes", answers); got != 2 {
		t.Errorf("RemainingCount from 1_yes = %d, want 2", got)
	}
}

func TestRemainingCountUnknownStart(t *testing.T) {
	f := flow.New()
	if got := RemainingCount(f, "missing", nil); got != 0 {
		t.Errorf("RemainingCount = %d, want 0", got)
	}
}

func TestWalkerRemaining(t *testing.T) {
	f := yesNoRoot(t)
	w := NewWalker(f)

	if got := w.Remaining(); got != 3 {
		t.Errorf("Remaining = %d, want 3", got)
	}
	w.SetAnswer(flow.RootID, "Yes")
	if got := w.Remaining(); got != 2 {
		t.Errorf("Remaining after answer = %d, want 2", got)
	}
	w.Advance()
	if got := w.Remaining(); got != 1 {
		t.Errorf("Remaining at leaf = %d, want 1", got)
	}
}
