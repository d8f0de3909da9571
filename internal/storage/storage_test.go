package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/checkindesk/internal/db"
	"github.com/parisxmas/checkindesk/internal/oxidb/oxidbtest"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*OxiDBStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*GCSStore)(nil)
)

// brokenStore fails every call.
type brokenStore struct{}

var errBroken = errors.New("backend down")

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errBroken }
func (brokenStore) Put(context.Context, string, []byte) error   { return errBroken }
func (brokenStore) Delete(context.Context, string) error        { return errBroken }
func (brokenStore) Close() error                                { return nil }

func TestAccessorMissingKeyIsEmpty(t *testing.T) {
	a := NewAccessor(NewMemoryStore(), nil)
	items := a.GetItems(context.Background(), "submissions")
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestAccessorSetAndGet(t *testing.T) {
	ctx := context.Background()
	a := NewAccessor(NewMemoryStore(), nil)

	items := []json.RawMessage{json.RawMessage(`{"id":"1"}`), json.RawMessage(`{"id":"2"}`)}
	require.True(t, a.SetItems(ctx, "submissions", items))

	got := a.GetItems(ctx, "submissions")
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"id":"2"}`, string(got[1]))
}

func TestAccessorNilIsWrittenAsEmptyArray(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := NewAccessor(store, nil)

	require.True(t, a.SetItems(ctx, "k", nil))
	raw, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestAccessorDegradesOnBadContent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed", `[{"id":`},
		{"object", `{"id":"1"}`},
		{"null", `null`},
		{"blank", `   `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.Put(ctx, "k", []byte(tt.raw)))
			a := NewAccessor(store, nil)

			items, err := a.Load(ctx, "k")
			require.NoError(t, err)
			assert.Empty(t, items)
			assert.Empty(t, a.GetItems(ctx, "k"))
		})
	}
}

func TestAccessorBackendFailure(t *testing.T) {
	ctx := context.Background()
	a := NewAccessor(brokenStore{}, nil)

	_, err := a.Load(ctx, "k")
	assert.ErrorIs(t, err, errBroken)
	assert.Empty(t, a.GetItems(ctx, "k"))
	assert.False(t, a.SetItems(ctx, "k", nil))
	assert.ErrorIs(t, a.Clear(ctx, "k"), errBroken)
}

func TestAccessorClear(t *testing.T) {
	ctx := context.Background()
	a := NewAccessor(NewMemoryStore(), nil)
	require.True(t, a.SetItems(ctx, "k", []json.RawMessage{json.RawMessage(`{}`)}))

	require.NoError(t, a.Clear(ctx, "k"))
	assert.Empty(t, a.GetItems(ctx, "k"))
	// clearing again is fine
	require.NoError(t, a.Clear(ctx, "k"))
}

// exerciseStore runs the Store contract against a backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "submissions")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "submissions", []byte(`[1]`)))
	require.NoError(t, s.Put(ctx, "submissions", []byte(`[1,2]`)))
	got, err := s.Get(ctx, "submissions")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	require.NoError(t, s.Put(ctx, "other/key", []byte(`[]`)))
	got, err = s.Get(ctx, "other/key")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, "submissions"))
	_, err = s.Get(ctx, "submissions")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete(ctx, "submissions"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "checkin.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestOxiDBStore(t *testing.T) {
	srv := oxidbtest.Start(t)
	host, port := srv.Addr()
	pool, err := db.NewPool(host, port, 2, nil)
	require.NoError(t, err)

	s, err := NewOxiDBStore(context.Background(), pool, "checkindesk")
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}
