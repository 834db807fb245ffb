package redis

import (
	"context"

	"github.com/kailas-cloud/patentdex/internal/db"
)

// ZRangeAfter returns up to count members strictly greater than after.
// An empty after starts from the first member.
func (s *Store) ZRangeAfter(ctx context.Context, key, after string, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	lower := "-"
	if after != "" {
		lower = "(" + after
	}
	cmd := s.b().Zrangebylex().Key(key).Min(lower).Max("+").Limit(0, int64(count)).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}
	return members, nil
}

// ZCard returns the number of members in the set.
func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Zcard().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpZCard, Err: err}
	}
	return n, nil
}
