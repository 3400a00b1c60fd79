package sync

import (
	"context"
	"errors"
	"time"

	"github.com/renderinc/brewblog/internal/logger"
	"github.com/renderinc/brewblog/internal/metrics"
	"github.com/renderinc/brewblog/internal/search"
)

// Synchronizer replays committed change sets against the search gateway.
// It holds no state between calls.
type Synchronizer struct {
	gateway search.Gateway
	timeout time.Duration
	logger  logger.Logger
}

// NewSynchronizer bounds every gateway call by timeout; zero means no bound.
func NewSynchronizer(gateway search.Gateway, timeout time.Duration, log logger.Logger) *Synchronizer {
	if gateway == nil {
		gateway = search.Disabled{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Synchronizer{
		gateway: gateway,
		timeout: timeout,
		logger:  log,
	}
}

func (s *Synchronizer) Gateway() search.Gateway {
	return s.gateway
}

// Stats summarises one Sync call.
type Stats struct {
	Indexed  int
	Removed  int
	Skipped  int
	Errors   int
	Duration time.Duration
}

// Sync upserts every created or updated Searchable entity, then removes every
// deleted one, one gateway call per entity. Entities that are not Searchable
// are skipped. A failed call does not stop the remaining ones; all failures
// are returned joined.
func (s *Synchronizer) Sync(ctx context.Context, cs ChangeSet) (*Stats, error) {
	startTime := time.Now()
	stats := &Stats{}

	if !search.Enabled(s.gateway) {
		stats.Skipped = cs.Len()
		return stats, nil
	}

	var errs []error

	for _, group := range [][]Entity{cs.Created, cs.Updated} {
		for _, e := range group {
			doc, ok := e.(search.Searchable)
			if !ok || len(doc.IndexedFields()) == 0 {
				stats.Skipped++
				continue
			}
			if err := s.Index(ctx, doc); err != nil {
				stats.Errors++
				errs = append(errs, err)
				continue
			}
			stats.Indexed++
		}
	}

	for _, e := range cs.Deleted {
		doc, ok := e.(search.Searchable)
		if !ok {
			stats.Skipped++
			continue
		}
		if err := s.Remove(ctx, doc); err != nil {
			stats.Errors++
			errs = append(errs, err)
			continue
		}
		stats.Removed++
	}

	stats.Duration = time.Since(startTime)
	metrics.IndexSyncDuration.Observe(stats.Duration.Seconds())

	s.logger.Debug("index sync complete",
		"indexed", stats.Indexed,
		"removed", stats.Removed,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	if len(errs) > 0 {
		return stats, errors.Join(errs...)
	}
	return stats, nil
}

// Index upserts the entry for doc.
func (s *Synchronizer) Index(ctx context.Context, doc search.Searchable) error {
	entry := search.EntryFor(doc)

	callCtx, cancel := s.CallContext(ctx)
	defer cancel()

	err := s.gateway.Put(callCtx, entry.Type, entry.ID, entry.Fields)
	metrics.ObserveIndexOp("put", entry.Type, err)
	if err != nil {
		err = search.AsCallError("put", entry.Type, entry.ID, err)
		s.logger.Warn("index put failed", "entity_type", entry.Type, "id", entry.ID, "error", err)
	}
	return err
}

// Remove deletes the entry for doc.
func (s *Synchronizer) Remove(ctx context.Context, doc search.Searchable) error {
	entityType, id := doc.SearchType(), doc.EntityID()

	callCtx, cancel := s.CallContext(ctx)
	defer cancel()

	err := s.gateway.Delete(callCtx, entityType, id)
	metrics.ObserveIndexOp("delete", entityType, err)
	if err != nil {
		err = search.AsCallError("delete", entityType, id, err)
		s.logger.Warn("index delete failed", "entity_type", entityType, "id", id, "error", err)
	}
	return err
}

// CallContext bounds one gateway call by the configured timeout.
func (s *Synchronizer) CallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
