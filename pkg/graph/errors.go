package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidMapping is returned when a mapping edge is added without a
// current DML target, or when its target side does not reference the
// current target node.
var ErrInvalidMapping = errors.New("invalid mapping")

// NodeNotFoundError is returned when an operation references a node id that
// is not in the model. The triggering call fails and the model is left
// unchanged.
type NodeNotFoundError struct {
	ID string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %q does not exist", e.ID)
}

// DuplicateNodeError is returned when a node id is already on the canvas.
type DuplicateNodeError struct {
	ID string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q already exists", e.ID)
}
