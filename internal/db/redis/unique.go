package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/patentdex/internal/db"
)

// insertUniqueScript writes KEYS[1] only if absent and indexes ARGV[2] in KEYS[2] in the same step.
var insertUniqueScript = rueidis.NewLuaScript(`
if redis.call('SET', KEYS[1], ARGV[1], 'NX') then
  redis.call('ZADD', KEYS[2], 0, ARGV[2])
  return 1
end
return 0
`)

// InsertUnique stores value under key and adds member to indexKey, atomically.
// Returns false without touching either key if key already exists.
func (s *Store) InsertUnique(ctx context.Context, key string, value []byte, indexKey, member string) (bool, error) {
	n, err := insertUniqueScript.Exec(ctx, s.client, []string{key, indexKey}, []string{string(value), member}).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpEval, Err: err}
	}
	return n == 1, nil
}
