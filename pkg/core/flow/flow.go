package flow

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// RootID is the reserved id of the root question. Every Flow contains a
// question with this id; it is created by [New], survives [Flow.Reset]
// and can never be deleted.
const RootID = "1"

// QuestionType identifies the widget a question is rendered with.
// The engine only cares about the branching behavior each type implies;
// rendering is the UI layer's concern.
type QuestionType string

// Supported question types.
const (
	TypeText           QuestionType = "text"
	TypeYesNo          QuestionType = "yesNo"
	TypeDropdown       QuestionType = "dropdown"
	TypeMultipleChoice QuestionType = "multipleChoice"
	TypeSlider         QuestionType = "slider"
	TypeRating         QuestionType = "rating"
	TypeDate           QuestionType = "date"
	TypeColorPicker    QuestionType = "colorPicker"
	TypeFileUpload     QuestionType = "fileUpload"
)

// ValidType reports whether t is one of the supported question types.
func ValidType(t QuestionType) bool {
	switch t {
	case TypeText, TypeYesNo, TypeDropdown, TypeMultipleChoice,
		TypeSlider, TypeRating, TypeDate, TypeColorPicker, TypeFileUpload:
		return true
	}
	return false
}

// MediaRef is an opaque reference to an externally stored asset. The
// engine stores and forwards it; it never inspects the bytes behind it.
// Presence affects layout spacing only, never graph topology.
type MediaRef struct {
	ID  string `json:"id" bson:"id"`
	URL string `json:"url" bson:"url"`
}

// Position is a layout-computed pixel position.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// QuestionNode is a single question in the survey graph.
//
// Level, Column, Pos and Number are computed by the layout subpackage
// and are never authored directly; any structural mutation invalidates
// them until the next recompute. Number is 0 for questions that are not
// reachable from the root.
type QuestionNode struct {
	ID       string       `json:"id" bson:"id"`
	Type     QuestionType `json:"type" bson:"type"`
	Text     string       `json:"text" bson:"text"`
	Options  []string     `json:"options,omitempty" bson:"options,omitempty"`
	Critical bool         `json:"critical,omitempty" bson:"critical,omitempty"`
	Media    *MediaRef    `json:"media,omitempty" bson:"media,omitempty"`

	Level  int      `json:"level" bson:"level"`
	Column float64  `json:"column" bson:"column"`
	Pos    Position `json:"pos" bson:"pos"`
	Number int      `json:"number" bson:"number"`
}

// IsComplete reports whether the question has been fully authored:
// non-empty prompt text, and options present where the type needs them.
func (n *QuestionNode) IsComplete() bool {
	if strings.TrimSpace(n.Text) == "" {
		return false
	}
	if n.Type == TypeDropdown || n.Type == TypeMultipleChoice {
		return len(n.Options) > 0
	}
	return true
}

// BranchLabels returns the edge labels a critical question derives its
// fan-out from: Yes/No for the yesNo type, the option list otherwise.
// Returns nil for non-critical questions.
func (n *QuestionNode) BranchLabels() []string {
	if !n.Critical {
		return nil
	}
	if n.Type == TypeYesNo {
		return []string{"Yes", "No"}
	}
	return slices.Clone(n.Options)
}

// Edge is a directed transition between two questions. Label is set
// when the source is a branch point ("Yes", "No", an option value) and
// empty for a plain linear transition.
type Edge struct {
	ID    string `json:"id" bson:"id"`
	From  string `json:"from" bson:"from"`
	To    string `json:"to" bson:"to"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`
}

// Flow is the mutable question graph for one survey under edit.
// The zero value is not usable; use [New] or [Load].
type Flow struct {
	nodes    map[string]*QuestionNode
	edges    []Edge
	outgoing map[string][]string // question id -> child ids
	incoming map[string][]string // question id -> parent ids
}

// New creates a Flow containing only the root question, a blank text
// question with id [RootID].
func New() *Flow {
	f := &Flow{
		nodes:    make(map[string]*QuestionNode),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
	f.nodes[RootID] = &QuestionNode{ID: RootID, Type: TypeText}
	return f
}

// Load reconstructs a Flow verbatim from a node and edge set, as
// delivered by the persistence collaborator. Already-assigned layout
// fields are kept; callers are expected to recompute layout immediately.
// Returns an error if the set violates any graph invariant.
func Load(nodes []QuestionNode, edges []Edge) (*Flow, error) {
	f := &Flow{
		nodes:    make(map[string]*QuestionNode, len(nodes)),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
	for _, n := range nodes {
		if n.ID == "" {
			return nil, ErrInvalidNodeID
		}
		if _, exists := f.nodes[n.ID]; exists {
			return nil, ErrDuplicateNodeID
		}
		node := n
		f.nodes[node.ID] = &node
	}
	if _, ok := f.nodes[RootID]; !ok {
		return nil, ErrMissingRoot
	}
	for _, e := range edges {
		if _, ok := f.nodes[e.From]; !ok {
			return nil, ErrInvalidEdgeEndpoint
		}
		if _, ok := f.nodes[e.To]; !ok {
			return nil, ErrInvalidEdgeEndpoint
		}
		f.addEdge(e)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// addEdge appends an edge and updates the adjacency indices.
// The caller has already validated both endpoints.
func (f *Flow) addEdge(e Edge) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	f.edges = append(f.edges, e)
	f.outgoing[e.From] = append(f.outgoing[e.From], e.To)
	f.incoming[e.To] = append(f.incoming[e.To], e.From)
}

// removeEdgeAt deletes the edge at index i and updates the indices.
func (f *Flow) removeEdgeAt(i int) {
	e := f.edges[i]
	f.edges = slices.Delete(f.edges, i, i+1)
	f.outgoing[e.From] = deleteFirst(f.outgoing[e.From], e.To)
	f.incoming[e.To] = deleteFirst(f.incoming[e.To], e.From)
}

func deleteFirst(s []string, v string) []string {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}

// =============================================================================
// Mutation Operations
// =============================================================================

// AddQuestion creates a blank text question and returns its id. If
// afterID names a non-critical question with no outgoing edge, a plain
// transition from it to the new question is created as well; for any
// other afterID the question is added unconnected. An unknown afterID
// is rejected with [ErrUnknownNode].
func (f *Flow) AddQuestion(afterID string) (string, error) {
	var after *QuestionNode
	if afterID != "" {
		n, ok := f.nodes[afterID]
		if !ok {
			return "", ErrUnknownNode
		}
		after = n
	}

	id := uuid.NewString()
	f.nodes[id] = &QuestionNode{ID: id, Type: TypeText}

	if after != nil && !after.Critical && len(f.outgoing[after.ID]) == 0 {
		f.addEdge(Edge{From: after.ID, To: id})
	}
	return id, nil
}

// Patch describes a partial update to a question. Nil fields are left
// untouched. ClearMedia removes the media reference; it wins over Media.
type Patch struct {
	Type       *QuestionType
	Text       *string
	Options    *[]string
	Critical   *bool
	Media      *MediaRef
	ClearMedia bool
}

// UpdateQuestion applies a patch to a question. When the patch changes
// the question's derived branch labels (flipping the critical flag,
// editing options or the type of a critical question), the fan-out is
// regenerated through [Flow.Synthesize] before returning. Returns the
// ids of any newly generated children.
func (f *Flow) UpdateQuestion(id string, p Patch) ([]string, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, ErrUnknownNode
	}

	before := n.BranchLabels()

	if p.Type != nil {
		n.Type = *p.Type
	}
	if p.Text != nil {
		n.Text = *p.Text
	}
	if p.Options != nil {
		n.Options = slices.Clone(*p.Options)
	}
	if p.Critical != nil {
		n.Critical = *p.Critical
	}
	if p.ClearMedia {
		n.Media = nil
	} else if p.Media != nil {
		ref := *p.Media
		n.Media = &ref
	}

	after := n.BranchLabels()
	if slices.Equal(before, after) {
		return nil, nil
	}
	return f.Synthesize(id, after)
}

// DeleteQuestion removes a question and every edge it is source or
// target of, and returns a copy of the removed question so the caller
// can release collaborator resources (its media reference). Descendants
// are not deleted; questions orphaned by the removal stay in the graph
// and are flagged as unreachable by the next layout pass. Deleting the
// root is rejected with [ErrRootProtected].
func (f *Flow) DeleteQuestion(id string) (QuestionNode, error) {
	if id == RootID {
		return QuestionNode{}, ErrRootProtected
	}
	n, ok := f.nodes[id]
	if !ok {
		return QuestionNode{}, ErrUnknownNode
	}
	removed := *n
	f.deleteNode(id)
	return removed, nil
}

// deleteNode removes a question and its incident edges without any
// protection checks.
func (f *Flow) deleteNode(id string) {
	for i := len(f.edges) - 1; i >= 0; i-- {
		if f.edges[i].From == id || f.edges[i].To == id {
			f.removeEdgeAt(i)
		}
	}
	delete(f.nodes, id)
	delete(f.outgoing, id)
	delete(f.incoming, id)
}

// Connect adds an edge from one question to another and returns its id.
// The mutation is rejected with [ErrCycleDetected] if the edge would
// close a loop, with [ErrDuplicateOutgoing] if the source is
// non-critical and already has an outgoing edge (or critical and
// already carries the label), and with [ErrInvalidBranchLabel] if the
// source is critical and the label is not one of its branch labels.
func (f *Flow) Connect(from, to, label string) (string, error) {
	src, ok := f.nodes[from]
	if !ok {
		return "", ErrUnknownNode
	}
	if _, ok := f.nodes[to]; !ok {
		return "", ErrUnknownNode
	}
	if f.WouldCreateCycle(from, to) {
		return "", ErrCycleDetected
	}

	if src.Critical {
		if !slices.ContainsFunc(src.BranchLabels(), func(l string) bool {
			return strings.EqualFold(l, label)
		}) {
			return "", ErrInvalidBranchLabel
		}
		for _, e := range f.edges {
			if e.From == from && strings.EqualFold(e.Label, label) {
				return "", ErrDuplicateOutgoing
			}
		}
	} else if len(f.outgoing[from]) > 0 {
		return "", ErrDuplicateOutgoing
	}

	e := Edge{ID: uuid.NewString(), From: from, To: to, Label: label}
	f.addEdge(e)
	return e.ID, nil
}

// Retarget points an existing edge at a new target question. This is
// the explicit edge-replacement path: the duplicate-outgoing rule does
// not apply, but the cycle guard does.
func (f *Flow) Retarget(edgeID, newTarget string) error {
	i := slices.IndexFunc(f.edges, func(e Edge) bool { return e.ID == edgeID })
	if i < 0 {
		return ErrUnknownEdge
	}
	if _, ok := f.nodes[newTarget]; !ok {
		return ErrUnknownNode
	}
	e := f.edges[i]
	if e.To == newTarget {
		return nil
	}
	// Check against the graph without the edge being replaced, so that
	// re-routing within the same subtree is judged correctly.
	f.removeEdgeAt(i)
	if f.WouldCreateCycle(e.From, newTarget) {
		f.addEdge(e)
		return ErrCycleDetected
	}
	e.To = newTarget
	f.addEdge(e)
	return nil
}

// Disconnect removes an edge by id.
func (f *Flow) Disconnect(edgeID string) error {
	i := slices.IndexFunc(f.edges, func(e Edge) bool { return e.ID == edgeID })
	if i < 0 {
		return ErrUnknownEdge
	}
	f.removeEdgeAt(i)
	return nil
}

// Reset atomically replaces the graph with a fresh root question,
// discarding all other questions and every edge.
func (f *Flow) Reset() {
	f.nodes = map[string]*QuestionNode{RootID: {ID: RootID, Type: TypeText}}
	f.edges = nil
	f.outgoing = make(map[string][]string)
	f.incoming = make(map[string][]string)
}

// =============================================================================
// Accessors
// =============================================================================

// Node returns the question with the given id and true, or nil and
// false. The pointer refers to the live node; layout writes through it.
func (f *Flow) Node(id string) (*QuestionNode, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// Root returns the root question.
func (f *Flow) Root() *QuestionNode { return f.nodes[RootID] }

// Nodes returns all questions in the graph in unspecified order.
func (f *Flow) Nodes() []*QuestionNode {
	nodes := make([]*QuestionNode, 0, len(f.nodes))
	for _, n := range f.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (f *Flow) Edges() []Edge { return slices.Clone(f.edges) }

// Edge returns the edge with the given id.
func (f *Flow) Edge(id string) (Edge, bool) {
	i := slices.IndexFunc(f.edges, func(e Edge) bool { return e.ID == id })
	if i < 0 {
		return Edge{}, false
	}
	return f.edges[i], true
}

// OutEdges returns the outgoing edges of a question in insertion order,
// which for a generated fan-out is the option order.
func (f *Flow) OutEdges(id string) []Edge {
	var out []Edge
	for _, e := range f.edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// Children returns the ids of questions this question has edges to.
// The returned slice is a read-only view.
func (f *Flow) Children(id string) []string { return f.outgoing[id] }

// Parents returns the ids of questions that have edges to this one.
// The returned slice is a read-only view.
func (f *Flow) Parents(id string) []string { return f.incoming[id] }

// OutDegree returns the number of outgoing edges of a question.
func (f *Flow) OutDegree(id string) int { return len(f.outgoing[id]) }

// InDegree returns the number of incoming edges of a question.
func (f *Flow) InDegree(id string) int { return len(f.incoming[id]) }

// NodeCount returns the number of questions in the graph.
func (f *Flow) NodeCount() int { return len(f.nodes) }

// EdgeCount returns the number of edges in the graph.
func (f *Flow) EdgeCount() int { return len(f.edges) }

// IsBranchPoint reports whether a question's next transition depends on
// the recorded answer: it is critical, or has more than one outgoing
// edge.
func (f *Flow) IsBranchPoint(id string) bool {
	n, ok := f.nodes[id]
	if !ok {
		return false
	}
	return n.Critical || len(f.outgoing[id]) > 1
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks every graph invariant and returns nil if the graph is
// well-formed: root present, edges reference existing questions,
// non-critical questions have at most one outgoing edge, critical
// questions carry exactly their derived labels, and no cycle exists.
func (f *Flow) Validate() error {
	if _, ok := f.nodes[RootID]; !ok {
		return ErrMissingRoot
	}
	for _, e := range f.edges {
		if _, ok := f.nodes[e.From]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := f.nodes[e.To]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	for id, n := range f.nodes {
		out := f.OutEdges(id)
		if !n.Critical {
			if len(out) > 1 {
				return ErrLinearFanOut
			}
			continue
		}
		want := SanitizeLabels(n.BranchLabels())
		if len(out) != 0 && !sameLabelSet(out, want) {
			return ErrBranchMismatch
		}
	}
	return f.detectCycle()
}

// sameLabelSet reports whether the edge labels match want exactly,
// ignoring order but not case.
func sameLabelSet(edges []Edge, want []string) bool {
	if len(edges) != len(want) {
		return false
	}
	got := make([]string, len(edges))
	for i, e := range edges {
		got[i] = e.Label
	}
	slices.Sort(got)
	want = slices.Clone(want)
	slices.Sort(want)
	return slices.Equal(got, want)
}

func (f *Flow) detectCycle() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(f.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range f.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for id := range f.nodes {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
