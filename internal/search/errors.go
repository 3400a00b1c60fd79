package search

import (
	"errors"
	"fmt"
)

var (
	// ErrGatewayUnavailable means no search backend is configured. Search
	// degrades to an empty result carrying this error.
	ErrGatewayUnavailable = errors.New("search gateway not configured")

	// ErrGatewayCall matches any *CallError.
	ErrGatewayCall = errors.New("search gateway call failed")
)

// CallError is a failed put, delete, query, clear or count against the gateway.
type CallError struct {
	Op         string
	EntityType string
	ID         string
	Err        error
}

func (e *CallError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("search %s %s/%s: %v", e.Op, e.EntityType, e.ID, e.Err)
	}
	return fmt.Sprintf("search %s %s: %v", e.Op, e.EntityType, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func (e *CallError) Is(target error) bool {
	return target == ErrGatewayCall
}

// AsCallError wraps err as a *CallError unless it already is one or is
// ErrGatewayUnavailable.
func AsCallError(op, entityType, id string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CallError
	if errors.As(err, &ce) || errors.Is(err, ErrGatewayUnavailable) {
		return err
	}
	return &CallError{Op: op, EntityType: entityType, ID: id, Err: err}
}

// IsUnavailable reports whether err means search is switched off rather than failing.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrGatewayUnavailable)
}
