package flow

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewContainsRoot(t *testing.T) {
	f := New()

	root, ok := f.Node(RootID)
	if !ok {
		t.Fatal("root question not found")
	}
	if root.Type != TypeText {
		t.Errorf("root type = %q, want %q", root.Type, TypeText)
	}
	if f.NodeCount() != 1 || f.EdgeCount() != 0 {
		t.Errorf("counts = %d/%d, want 1/0", f.NodeCount(), f.EdgeCount())
	}
}

func TestAddQuestion(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *Flow) string // returns afterID
		wantEdge  bool
		wantErr   error
	}{
		{
			name:     "AfterRoot",
			setup:    func(f *Flow) string { return RootID },
			wantEdge: true,
		},
		{
			name:     "Detached",
			setup:    func(f *Flow) string { return "" },
			wantEdge: false,
		},
		{
			name: "AfterCritical",
			setup: func(f *Flow) string {
				crit := true
				opts := []string{"A", "B"}
				typ := TypeDropdown
				f.UpdateQuestion(RootID, Patch{Type: &typ, Options: &opts, Critical: &crit})
				return RootID
			},
			wantEdge: false, // critical nodes only fan out via synthesis
		},
		{
			name: "AfterOccupied",
			setup: func(f *Flow) string {
				id, _ := f.AddQuestion(RootID)
				_ = id
				return RootID
			},
			wantEdge: false,
		},
		{
			name:    "AfterUnknown",
			setup:   func(f *Flow) string { return "missing" },
			wantErr: ErrUnknownNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			after := tt.setup(f)

			id, err := f.AddQuestion(after)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddQuestion: %v", err)
			}

			if _, ok := f.Node(id); !ok {
				t.Fatal("new question not found")
			}
			hasEdge := f.InDegree(id) == 1
			if hasEdge != tt.wantEdge {
				t.Errorf("connected = %v, want %v", hasEdge, tt.wantEdge)
			}
		})
	}
}

func TestDeleteQuestion(t *testing.T) {
	t.Run("RootProtected", func(t *testing.T) {
		f := New()
		f.AddQuestion(RootID)

		if _, err := f.DeleteQuestion(RootID); !errors.Is(err, ErrRootProtected) {
			t.Fatalf("err = %v, want ErrRootProtected", err)
		}
		if f.NodeCount() != 2 {
			t.Errorf("graph changed after rejected delete: %d nodes", f.NodeCount())
		}
	})

	t.Run("RemovesIncidentEdges", func(t *testing.T) {
		f := New()
		a, _ := f.AddQuestion(RootID)
		b, _ := f.AddQuestion(a)

		if _, err := f.DeleteQuestion(a); err != nil {
			t.Fatalf("DeleteQuestion: %v", err)
		}
		if f.EdgeCount() != 0 {
			t.Errorf("edges = %d, want 0", f.EdgeCount())
		}
		// b is orphaned, not deleted.
		if _, ok := f.Node(b); !ok {
			t.Error("descendant was cascade-deleted")
		}
	})

	t.Run("ReturnsRemovedCopy", func(t *testing.T) {
		f := New()
		a, _ := f.AddQuestion(RootID)
		ref := &MediaRef{ID: "m1", URL: "https://cdn/m1"}
		f.UpdateQuestion(a, Patch{Media: ref})

		removed, err := f.DeleteQuestion(a)
		if err != nil {
			t.Fatalf("DeleteQuestion: %v", err)
		}
		if removed.Media == nil || removed.Media.ID != "m1" {
			t.Errorf("removed.Media = %+v, want m1", removed.Media)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		f := New()
		if _, err := f.DeleteQuestion("missing"); !errors.Is(err, ErrUnknownNode) {
			t.Fatalf("err = %v, want ErrUnknownNode", err)
		}
	})
}

func TestConnect(t *testing.T) {
	t.Run("Linear", func(t *testing.T) {
		f := New()
		a, _ := f.AddQuestion("")

		id, err := f.Connect(RootID, a, "")
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
		if _, ok := f.Edge(id); !ok {
			t.Error("edge not found by id")
		}
	})

	t.Run("DuplicateOutgoing", func(t *testing.T) {
		f := New()
		a, _ := f.AddQuestion(RootID)
		b, _ := f.AddQuestion("")
		_ = a

		if _, err := f.Connect(RootID, b, ""); !errors.Is(err, ErrDuplicateOutgoing) {
			t.Fatalf("err = %v, want ErrDuplicateOutgoing", err)
		}
		if f.EdgeCount() != 1 {
			t.Errorf("edges = %d, want 1", f.EdgeCount())
		}
	})

	t.Run("CycleRejected", func(t *testing.T) {
		f := New()
		a, _ := f.AddQuestion(RootID)
		b, _ := f.AddQuestion(a)

		if _, err := f.Connect(b, RootID, ""); !errors.Is(err, ErrCycleDetected) {
			t.Fatalf("err = %v, want ErrCycleDetected", err)
		}
		if _, err := f.Connect(b, b, ""); !errors.Is(err, ErrCycleDetected) {
			t.Fatalf("self edge err = %v, want ErrCycleDetected", err)
		}
		if f.EdgeCount() != 2 {
			t.Errorf("edges = %d, want 2 (graph must be unchanged)", f.EdgeCount())
		}
	})

	t.Run("CriticalLabelRules", func(t *testing.T) {
		f := New()
		crit := true
		typ := TypeYesNo
		f.UpdateQuestion(RootID, Patch{Type: &typ, Critical: &crit})
		target, _ := f.AddQuestion("")

		// "Maybe" is not a branch label of a yes/no question.
		if _, err := f.Connect(RootID, target, "Maybe"); !errors.Is(err, ErrInvalidBranchLabel) {
			t.Fatalf("err = %v, want ErrInvalidBranchLabel", err)
		}
		// "yes" is already carried by the generated fan-out edge.
		if _, err := f.Connect(RootID, target, "yes"); !errors.Is(err, ErrDuplicateOutgoing) {
			t.Fatalf("err = %v, want ErrDuplicateOutgoing", err)
		}
	})

	t.Run("UnknownEndpoints", func(t *testing.T) {
		f := New()
		if _, err := f.Connect("missing", RootID, ""); !errors.Is(err, ErrUnknownNode) {
			t.Fatalf("err = %v, want ErrUnknownNode", err)
		}
		if _, err := f.Connect(RootID, "missing", ""); !errors.Is(err, ErrUnknownNode) {
			t.Fatalf("err = %v, want ErrUnknownNode", err)
		}
	})
}

func TestRetarget(t *testing.T) {
	f := New()
	a, _ := f.AddQuestion(RootID)
	b, _ := f.AddQuestion(a)
	c, _ := f.AddQuestion("")

	edges := f.OutEdges(RootID)
	if len(edges) != 1 {
		t.Fatalf("out edges = %d, want 1", len(edges))
	}

	if err := f.Retarget(edges[0].ID, c); err != nil {
		t.Fatalf("Retarget: %v", err)
	}
	if got := f.Children(RootID); len(got) != 1 || got[0] != c {
		t.Errorf("children = %v, want [%s]", got, c)
	}

	// Retargeting back into the chain below the source is a cycle.
	inB := f.OutEdges(a)
	if len(inB) != 1 {
		t.Fatalf("a out edges = %d, want 1", len(inB))
	}
	if err := f.Retarget(inB[0].ID, a); !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("err = %v, want ErrCycleDetected", err)
	}
	if got := f.Children(a); len(got) != 1 || got[0] != b {
		t.Errorf("rejected retarget changed graph: children(a) = %v", got)
	}
}

func TestDisconnect(t *testing.T) {
	f := New()
	f.AddQuestion(RootID)
	e := f.Edges()[0]

	if err := f.Disconnect(e.ID); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if f.EdgeCount() != 0 {
		t.Errorf("edges = %d, want 0", f.EdgeCount())
	}
	if err := f.Disconnect(e.ID); !errors.Is(err, ErrUnknownEdge) {
		t.Fatalf("err = %v, want ErrUnknownEdge", err)
	}
}

func TestReset(t *testing.T) {
	f := New()
	a, _ := f.AddQuestion(RootID)
	f.AddQuestion(a)

	f.Reset()

	if f.NodeCount() != 1 || f.EdgeCount() != 0 {
		t.Errorf("counts after reset = %d/%d, want 1/0", f.NodeCount(), f.EdgeCount())
	}
	if _, ok := f.Node(RootID); !ok {
		t.Error("root missing after reset")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []QuestionNode
		edges   []Edge
		wantErr error
	}{
		{
			name: "Valid",
			nodes: []QuestionNode{
				{ID: RootID, Type: TypeText},
				{ID: "a", Type: TypeText},
			},
			edges: []Edge{{ID: "e1", From: RootID, To: "a"}},
		},
		{
			name:    "MissingRoot",
			nodes:   []QuestionNode{{ID: "a", Type: TypeText}},
			wantErr: ErrMissingRoot,
		},
		{
			name: "DuplicateID",
			nodes: []QuestionNode{
				{ID: RootID}, {ID: "a"}, {ID: "a"},
			},
			wantErr: ErrDuplicateNodeID,
		},
		{
			name:    "EmptyID",
			nodes:   []QuestionNode{{ID: RootID}, {ID: ""}},
			wantErr: ErrInvalidNodeID,
		},
		{
			name:    "DanglingEdge",
			nodes:   []QuestionNode{{ID: RootID}},
			edges:   []Edge{{ID: "e1", From: RootID, To: "ghost"}},
			wantErr: ErrInvalidEdgeEndpoint,
		},
		{
			name: "Cycle",
			nodes: []QuestionNode{
				{ID: RootID}, {ID: "a"}, {ID: "b"},
			},
			edges: []Edge{
				{ID: "e1", From: "a", To: "b"},
				{ID: "e2", From: "b", To: "a"},
			},
			wantErr: ErrGraphHasCycle,
		},
		{
			name: "MultipleLinearOutgoing",
			nodes: []QuestionNode{
				{ID: RootID}, {ID: "a"}, {ID: "b"},
			},
			edges: []Edge{
				{ID: "e1", From: RootID, To: "a"},
				{ID: "e2", From: RootID, To: "b"},
			},
			wantErr: ErrLinearFanOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(tt.nodes, tt.edges)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if f.NodeCount() != len(tt.nodes) {
				t.Errorf("nodes = %d, want %d", f.NodeCount(), len(tt.nodes))
			}
		})
	}
}

func TestLoadPreservesLayoutFields(t *testing.T) {
	nodes := []QuestionNode{
		{ID: RootID, Level: 0, Column: 0, Pos: Position{X: 400, Y: 80}, Number: 1},
		{ID: "a", Level: 1, Column: -0.5, Pos: Position{X: 290, Y: 230}, Number: 2},
	}
	f, err := Load(nodes, []Edge{{ID: "e", From: RootID, To: "a"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	n, _ := f.Node("a")
	if n.Number != 2 || n.Pos.X != 290 {
		t.Errorf("layout fields not preserved: %+v", n)
	}
}

// TestAcyclicUnderRandomMutations drives a random mutation sequence and
// asserts that no sequence of accepted operations ever produces a cycle.
func TestAcyclicUnderRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	f := New()
	ids := []string{RootID}

	for i := 0; i < 500; i++ {
		switch rng.Intn(4) {
		case 0:
			after := ids[rng.Intn(len(ids))]
			if id, err := f.AddQuestion(after); err == nil {
				ids = append(ids, id)
			}
		case 1:
			from := ids[rng.Intn(len(ids))]
			to := ids[rng.Intn(len(ids))]
			f.Connect(from, to, "") // rejections are expected
		case 2:
			id := ids[rng.Intn(len(ids))]
			crit := rng.Intn(2) == 0
			opts := []string{"A", "B", "C"}[:1+rng.Intn(3)]
			typ := TypeDropdown
			f.UpdateQuestion(id, Patch{Type: &typ, Critical: &crit, Options: &opts})
			ids = liveIDs(f)
		case 3:
			id := ids[rng.Intn(len(ids))]
			if _, err := f.DeleteQuestion(id); err == nil {
				ids = liveIDs(f)
			}
		}

		if err := f.detectCycle(); err != nil {
			t.Fatalf("cycle after %d mutations: %v", i+1, err)
		}
	}
}

func liveIDs(f *Flow) []string {
	var ids []string
	for _, n := range f.Nodes() {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestValidate(t *testing.T) {
	f := New()
	a, _ := f.AddQuestion(RootID)
	crit := true
	typ := TypeYesNo
	f.UpdateQuestion(a, Patch{Type: &typ, Critical: &crit})

	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name string
		node QuestionNode
		want bool
	}{
		{"EmptyText", QuestionNode{Type: TypeText}, false},
		{"TextOnly", QuestionNode{Type: TypeText, Text: "Name?"}, true},
		{"DropdownNoOptions", QuestionNode{Type: TypeDropdown, Text: "Pick"}, false},
		{"DropdownWithOptions", QuestionNode{Type: TypeDropdown, Text: "Pick", Options: []string{"A"}}, true},
		{"Whitespace", QuestionNode{Type: TypeText, Text: "   "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.IsComplete(); got != tt.want {
				t.Errorf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}
