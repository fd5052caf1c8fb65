package json

import (
	"fmt"
	"path/filepath"

	"github.com/drakos74/polychaos/internal/storage"
	"github.com/rs/zerolog/log"
)

// BlobStorage keeps one json file per key under <path>/<table>/<shard>.
type BlobStorage struct {
	path  string
	table string
	shard string
	debug bool
}

// BlobShard creates blob storages for the given table under the default storage dir.
func BlobShard(table string) storage.Shard {
	return func(shard string) (storage.Persistence, error) {
		return NewJsonBlob(storage.DefaultDir, table, shard, false), nil
	}
}

func (s BlobStorage) Store(k storage.Key, value interface{}) error {
	p, err := s.dir(k)
	if err != nil {
		return err
	}
	err = Save(p, k.Path(), value)
	if err == nil && s.debug {
		log.Info().Str("path", p).Str("file", k.Path()).Msg("stored json file")
	}
	return err
}

func (s BlobStorage) Load(k storage.Key, value interface{}) error {
	p, err := s.dir(k)
	if err != nil {
		return err
	}
	return Load(p, k.Path(), value)
}

// dir returns the directory of the shard, the file for the key must resolve directly inside it.
func (s BlobStorage) dir(k storage.Key) (string, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}
	dir := filepath.Join(s.path, s.table, s.shard)
	if filepath.Dir(filepath.Join(dir, k.Path()+".json")) != dir {
		return "", fmt.Errorf("key '%s' escapes '%s': %w", k.Path(), dir, storage.InvalidKeyErr)
	}
	return dir, nil
}

// NewJsonBlob creates a new blob storage.
// table has the same schema, shard is a logical split within it.
func NewJsonBlob(path, table, shard string, debug bool) *BlobStorage {
	return &BlobStorage{
		path:  path,
		table: table,
		shard: shard,
		debug: debug,
	}
}
