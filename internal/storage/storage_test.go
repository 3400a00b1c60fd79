package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/renderinc/brewblog/internal/logger"
	"github.com/renderinc/brewblog/internal/search"
	"github.com/renderinc/brewblog/internal/sync"
)

// newTestStore opens a seeded sqlite catalog in a temp dir, synced to gw.
func newTestStore(t *testing.T, gw search.Gateway) *Store {
	t.Helper()
	return newTestStoreWithTimeout(t, gw, time.Second)
}

func newTestStoreWithTimeout(t *testing.T, gw search.Gateway, timeout time.Duration) *Store {
	t.Helper()

	db, err := Open(Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "brewblog.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.NewNop()
	store := NewStore(db, sync.NewSynchronizer(gw, timeout, log), log)
	_, err = store.Seed(context.Background())
	require.NoError(t, err)
	return store
}

func mustCreateBrewery(t *testing.T, s *Store, name string) *Brewery {
	t.Helper()
	b, err := s.CreateBrewery(context.Background(), NewBrewery{Name: name, City: "Portland", State: "OR"})
	require.NoError(t, err)
	return b
}

func mustCreateDrinker(t *testing.T, s *Store, name string) *Drinker {
	t.Helper()
	d, err := s.CreateDrinker(context.Background(), NewDrinker{Name: name, City: "Bend", State: "OR"})
	require.NoError(t, err)
	return d
}

func styleID(t *testing.T, s *Store, name string) uint {
	t.Helper()
	var style Style
	require.NoError(t, s.DB().Where("name = ?", name).First(&style).Error)
	return style.ID
}
