package errors

import (
	"errors"

	"github.com/joey603/surveypro/pkg/core/flow"
)

// FromEngine translates a flow engine sentinel into a coded Error so
// the API and CLI report graph violations uniformly. Errors that
// already carry a code, and nil, pass through unchanged.
func FromEngine(err error) error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return err
	}

	switch {
	case errors.Is(err, flow.ErrRootProtected):
		return Wrap(ErrCodeRootProtected, err, "the root question cannot be deleted")
	case errors.Is(err, flow.ErrCycleDetected), errors.Is(err, flow.ErrGraphHasCycle):
		return Wrap(ErrCodeCycleDetected, err, "the connection would create a cycle")
	case errors.Is(err, flow.ErrDuplicateOutgoing):
		return Wrap(ErrCodeDuplicateOutgoing, err, "an outgoing connection already exists for that answer")
	case errors.Is(err, flow.ErrInvalidBranchLabel):
		return Wrap(ErrCodeInvalidBranchLabel, err, "the label does not match any answer of the question")
	case errors.Is(err, flow.ErrUnknownNode):
		return Wrap(ErrCodeQuestionNotFound, err, "question not found")
	case errors.Is(err, flow.ErrUnknownEdge):
		return Wrap(ErrCodeEdgeNotFound, err, "connection not found")
	case errors.Is(err, flow.ErrMissingRoot),
		errors.Is(err, flow.ErrInvalidNodeID),
		errors.Is(err, flow.ErrDuplicateNodeID),
		errors.Is(err, flow.ErrInvalidEdgeEndpoint),
		errors.Is(err, flow.ErrBranchMismatch),
		errors.Is(err, flow.ErrLinearFanOut):
		return Wrap(ErrCodeInvalidGraph, err, "the survey graph is invalid")
	default:
		return Wrap(ErrCodeInternal, err, "unexpected engine error")
	}
}
