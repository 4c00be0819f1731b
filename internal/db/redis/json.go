package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/mapletenders/tenderindex/internal/db"
)

// JSONSet writes data at path of the JSON document under key. Path "$" replaces the whole document.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().JsonSet().Key(key).Path(path).Value(rueidis.BinaryString(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}
