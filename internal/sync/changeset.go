// Package sync keeps the search index consistent with committed relational
// changes. A Tracker records what a transaction touched; once the commit is
// durable, a Synchronizer replays that change set against the gateway.
package sync

import (
	"errors"
	"fmt"
)

// Entity is any persisted record the tracker can identify.
type Entity interface {
	EntityID() string
}

// ChangeSet holds the entities a single transaction created, updated and
// deleted. The three collections are disjoint and keep tracking order.
type ChangeSet struct {
	Created []Entity
	Updated []Entity
	Deleted []Entity
}

func (cs ChangeSet) Len() int {
	return len(cs.Created) + len(cs.Updated) + len(cs.Deleted)
}

func (cs ChangeSet) Empty() bool {
	return cs.Len() == 0
}

// ErrNotInTransaction matches any *PreconditionError.
var ErrNotInTransaction = errors.New("no active transaction")

// PreconditionError reports a tracker used outside an active transaction.
type PreconditionError struct {
	Op string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("sync: %s called outside an active transaction", e.Op)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrNotInTransaction
}
