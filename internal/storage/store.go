package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/renderinc/brewblog/internal/logger"
	"github.com/renderinc/brewblog/internal/search"
	"github.com/renderinc/brewblog/internal/sync"
)

// Store is the catalog's unit-of-work boundary. Writes go through InTx so
// their effect on the search index is captured before commit and replayed
// after it.
type Store struct {
	db     *DB
	syncer *sync.Synchronizer
	logger logger.Logger
}

func NewStore(db *DB, syncer *sync.Synchronizer, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	if syncer == nil {
		syncer = sync.NewSynchronizer(search.Disabled{}, 0, log)
	}
	return &Store{db: db, syncer: syncer, logger: log}
}

func (s *Store) DB() *DB {
	return s.db
}

func (s *Store) Gateway() search.Gateway {
	return s.syncer.Gateway()
}

// Tx is one unit of work. Writes made through it are recorded for index sync.
type Tx struct {
	db      *gorm.DB
	tracker *sync.Tracker
}

// DB returns the transactional handle for reads.
func (t *Tx) DB() *gorm.DB {
	return t.db
}

func (t *Tx) Create(e sync.Entity) error {
	if err := t.db.Omit(clause.Associations).Create(e).Error; err != nil {
		return err
	}
	t.tracker.Created(e)
	return nil
}

func (t *Tx) Save(e sync.Entity) error {
	if err := t.db.Omit(clause.Associations).Save(e).Error; err != nil {
		return err
	}
	t.tracker.Updated(e)
	return nil
}

func (t *Tx) Delete(e sync.Entity) error {
	if err := t.db.Delete(e).Error; err != nil {
		return err
	}
	t.tracker.Deleted(e)
	return nil
}

// InTx runs fn in a transaction. If fn fails the transaction rolls back and
// the index is left untouched. Otherwise the change set is captured, the
// transaction commits, and the change set is synced to the index. A sync
// failure is returned as *IndexSyncError; the commit is not undone.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tracker := sync.NewTracker()

	gtx := s.db.WithContext(ctx).Begin()
	if gtx.Error != nil {
		return fmt.Errorf("begin transaction: %w", gtx.Error)
	}
	tracker.Begin()

	defer func() {
		if r := recover(); r != nil {
			gtx.Rollback()
			tracker.Discard()
			panic(r)
		}
	}()

	if err := fn(&Tx{db: gtx, tracker: tracker}); err != nil {
		gtx.Rollback()
		tracker.Discard()
		return err
	}

	changes, err := tracker.Capture()
	if err != nil {
		gtx.Rollback()
		return err
	}
	tracker.Discard()

	if err := gtx.Commit().Error; err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if changes.Empty() {
		return nil
	}

	// The rows are committed; a caller going away must not leave the index behind.
	stats, err := s.syncer.Sync(context.WithoutCancel(ctx), changes)
	if err != nil {
		return &IndexSyncError{Stats: stats, Err: err}
	}
	return nil
}
