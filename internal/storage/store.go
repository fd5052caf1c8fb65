package storage

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/drakos74/polychaos/internal/model"
)

const (
	ExpansionDir = "expansions"
	RegistryDir  = "registry"
)

var (
	// DefaultDir is the root of the file storage, overridden by the binaries from their config.
	DefaultDir = "file-storage"
)

// Shard creates a new storage implementation for the given shard.
type Shard func(shard string) (Persistence, error)

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
	InvalidKeyErr   = errors.New("invalid key")
)

var labelPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Key is the storage key for an expansion.
type Key struct {
	// Hash is the fingerprint of the basis the stored value belongs to.
	Hash   uint64 `json:"hash"`
	Family string `json:"family"`
	Label  string `json:"label"`
}

// K is a simplified key for storage
type K struct {
	Family string `json:"family"`
	Label  string `json:"label"`
}

func (k Key) Path() string {
	return fmt.Sprintf("%s_%x_%s", k.Family, k.Hash, k.Label)
}

// Validate checks the key before it becomes part of a file name.
func (k Key) Validate() error {
	return K{Family: k.Family, Label: k.Label}.Validate()
}

// Validate checks that the key names a known family and a label safe to use as a file name.
func (k K) Validate() error {
	if _, ok := model.Families[k.Family]; !ok {
		return fmt.Errorf("unknown family '%s': %w", k.Family, InvalidKeyErr)
	}
	if !labelPattern.MatchString(k.Label) {
		return fmt.Errorf("label '%s' must match %s: %w", k.Label, labelPattern, InvalidKeyErr)
	}
	return nil
}

// Persistence stores and loads values by key.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}

// Registry appends events under a key and reads them back in order.
type Registry interface {
	Add(key K, value interface{}) error
	GetAll(key K, values interface{}) error
	Root() string
}

// EventRegistry creates a new registry for the given path.
type EventRegistry func(path string) (Registry, error)

// NewKey creates a new storage key.
func NewKey(hash uint64, family, label string) Key {
	return Key{
		Hash:   hash,
		Family: family,
		Label:  label,
	}
}
