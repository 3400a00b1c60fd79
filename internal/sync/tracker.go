package sync

import (
	"fmt"
	"sort"
)

type changeKind int

const (
	kindCreated changeKind = iota + 1
	kindUpdated
	kindDeleted
)

type tracked struct {
	entity Entity
	kind   changeKind
	seq    int
}

// Tracker records the entities written inside one transaction. It is owned
// by that transaction and is not safe for concurrent use.
type Tracker struct {
	active  bool
	seq     int
	entries map[string]*tracked
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin starts tracking a new transaction, dropping anything recorded before.
func (t *Tracker) Begin() {
	t.active = true
	t.seq = 0
	t.entries = make(map[string]*tracked)
}

func (t *Tracker) Active() bool {
	return t.active
}

// Discard ends the transaction without producing a change set.
func (t *Tracker) Discard() {
	t.active = false
	t.entries = nil
}

func entityKey(e Entity) string {
	return fmt.Sprintf("%T/%s", e, e.EntityID())
}

func (t *Tracker) set(key string, e Entity, kind changeKind) {
	t.seq++
	t.entries[key] = &tracked{entity: e, kind: kind, seq: t.seq}
}

// Created records a newly inserted entity.
func (t *Tracker) Created(e Entity) {
	if !t.active {
		return
	}
	t.set(entityKey(e), e, kindCreated)
}

// Updated records a modified entity. An entity created in the same
// transaction stays created; repeated updates keep their first position.
func (t *Tracker) Updated(e Entity) {
	if !t.active {
		return
	}
	key := entityKey(e)
	if cur, ok := t.entries[key]; ok {
		if cur.kind != kindDeleted {
			cur.entity = e
		}
		return
	}
	t.set(key, e, kindUpdated)
}

// Deleted records a removed entity. An entity created in the same
// transaction never existed outside it and is dropped entirely.
func (t *Tracker) Deleted(e Entity) {
	if !t.active {
		return
	}
	key := entityKey(e)
	if cur, ok := t.entries[key]; ok {
		switch cur.kind {
		case kindCreated:
			delete(t.entries, key)
			return
		case kindDeleted:
			return
		}
	}
	t.set(key, e, kindDeleted)
}

// Capture returns the pending change set. It must be called before the
// transaction commits.
func (t *Tracker) Capture() (ChangeSet, error) {
	if !t.active {
		return ChangeSet{}, &PreconditionError{Op: "capture"}
	}

	ordered := make([]*tracked, 0, len(t.entries))
	for _, entry := range t.entries {
		ordered = append(ordered, entry)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].seq < ordered[j].seq
	})

	var cs ChangeSet
	for _, entry := range ordered {
		switch entry.kind {
		case kindCreated:
			cs.Created = append(cs.Created, entry.entity)
		case kindUpdated:
			cs.Updated = append(cs.Updated, entry.entity)
		case kindDeleted:
			cs.Deleted = append(cs.Deleted, entry.entity)
		}
	}
	return cs, nil
}
