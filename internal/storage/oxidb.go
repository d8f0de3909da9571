package storage

import (
	"context"
	"fmt"

	"github.com/parisxmas/checkindesk/internal/db"
	"github.com/parisxmas/checkindesk/internal/oxidb"
)

// OxiDBStore keeps each key as an object in an OxiDB blob bucket.
type OxiDBStore struct {
	pool   *db.Pool
	bucket string
}

// NewOxiDBStore ensures bucket exists and returns a store over it. The
// store owns pool and closes it on Close.
func NewOxiDBStore(ctx context.Context, pool *db.Pool, bucket string) (*OxiDBStore, error) {
	if err := pool.Get().CreateBucket(ctx, bucket); err != nil {
		return nil, fmt.Errorf("oxidb store: ensure bucket %s: %w", bucket, err)
	}
	return &OxiDBStore{pool: pool, bucket: bucket}, nil
}

func (s *OxiDBStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.pool.Get().GetObject(ctx, s.bucket, key)
	if oxidb.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *OxiDBStore) Put(ctx context.Context, key string, data []byte) error {
	return s.pool.Get().PutObject(ctx, s.bucket, key, data, "application/json")
}

func (s *OxiDBStore) Delete(ctx context.Context, key string) error {
	err := s.pool.Get().DeleteObject(ctx, s.bucket, key)
	if oxidb.IsNotFound(err) {
		return nil
	}
	return err
}

func (s *OxiDBStore) Close() error {
	s.pool.Close()
	return nil
}
