package flow

import "errors"

var (
	// ErrRootProtected is returned by [Flow.DeleteQuestion] when the target
	// is the root question. The root cannot be deleted or re-identified.
	ErrRootProtected = errors.New("root question is protected")

	// ErrCycleDetected is returned by [Flow.Connect] and [Flow.Retarget]
	// when the requested edge would let the target reach the source. The
	// check precedes any mutation, so a rejected connect changes nothing.
	ErrCycleDetected = errors.New("edge would create a cycle")

	// ErrDuplicateOutgoing is returned by [Flow.Connect] when the source is
	// non-critical and already has an outgoing edge, or when a critical
	// source already carries an edge with the same label. Use
	// [Flow.Retarget] to replace an existing edge instead.
	ErrDuplicateOutgoing = errors.New("source already has an outgoing edge")

	// ErrInvalidBranchLabel is returned by [Flow.Connect] when the source is
	// critical and the label is not one of its derived branch labels.
	ErrInvalidBranchLabel = errors.New("label is not a branch label of the source")

	// ErrUnknownNode is returned when an operation references a question id
	// that does not exist in the graph.
	ErrUnknownNode = errors.New("unknown question")

	// ErrUnknownEdge is returned by [Flow.Disconnect] and [Flow.Retarget]
	// when the edge id does not exist.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrInvalidNodeID is returned by [Load] when a question has an empty id.
	ErrInvalidNodeID = errors.New("question id must not be empty")

	// ErrDuplicateNodeID is returned by [Load] when two questions share an id.
	ErrDuplicateNodeID = errors.New("duplicate question id")

	// ErrMissingRoot is returned by [Load] when the node set does not
	// contain the root question.
	ErrMissingRoot = errors.New("graph does not contain the root question")

	// ErrInvalidEdgeEndpoint is returned by [Load] and [Flow.Validate] when
	// an edge references a question that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrGraphHasCycle is returned by [Load] and [Flow.Validate] when the
	// graph contains a directed cycle.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrBranchMismatch is returned by [Flow.Validate] when a critical
	// question's outgoing labels do not match its derived branch labels.
	ErrBranchMismatch = errors.New("critical question edges do not match its options")

	// ErrLinearFanOut is returned by [Flow.Validate] when a non-critical
	// question has more than one outgoing edge.
	ErrLinearFanOut = errors.New("non-critical question has multiple outgoing edges")
)
