package storage

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestGetMissingKey() {
	_, err := s.store.Get(context.Background(), "absent")
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *MemoryStoreSuite) TestSetOverwrites() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, "k", "one"))
	s.Require().NoError(s.store.Set(ctx, "k", "two"))

	v, err := s.store.Get(ctx, "k")
	s.Require().NoError(err)
	s.Equal("two", v)
	s.Equal(1, s.store.Len())
}

func (s *MemoryStoreSuite) TestDeleteSeveralKeys() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, "a", "1"))
	s.Require().NoError(s.store.Set(ctx, "b", "2"))
	s.Require().NoError(s.store.Set(ctx, "c", "3"))

	s.Require().NoError(s.store.Delete(ctx, "a", "b", "missing"))

	_, err := s.store.Get(ctx, "a")
	s.ErrorIs(err, ErrNotFound)
	v, err := s.store.Get(ctx, "c")
	s.Require().NoError(err)
	s.Equal("3", v)
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("docs")},
		"003_third.sql":  {Data: []byte("SELECT 3;")},
	}

	pending, err := pendingMigrations(fsys, map[string]bool{"002_second.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_first.sql", "003_third.sql"}, pending)
}

func TestEmbeddedMigrations(t *testing.T) {
	fsys, err := Migrations("")
	require.NoError(t, err)

	pending, err := pendingMigrations(fsys, nil)
	require.NoError(t, err)
	assert.Contains(t, pending, "001_session_markers.sql")
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "etcd"})
	assert.Error(t, err)

	store, err := Open(context.Background(), Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}
