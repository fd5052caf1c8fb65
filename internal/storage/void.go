package storage

import "fmt"

// VoidStorage discards all values, keys are still checked like the file storages do.
type VoidStorage struct{}

// NewVoidStorage creates a storage for dry runs.
func NewVoidStorage() VoidStorage {
	return VoidStorage{}
}

func (VoidStorage) Store(k Key, _ interface{}) error {
	return k.Validate()
}

func (VoidStorage) Load(k Key, _ interface{}) error {
	if err := k.Validate(); err != nil {
		return err
	}
	return fmt.Errorf("nothing stored for '%s': %w", k.Path(), NotFoundErr)
}

// VoidRegistry drops all events.
type VoidRegistry struct{}

func NewVoidRegistry() VoidRegistry {
	return VoidRegistry{}
}

func (VoidRegistry) Root() string {
	return ""
}

func (VoidRegistry) Add(key K, _ interface{}) error {
	return key.Validate()
}

func (VoidRegistry) GetAll(key K, _ interface{}) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return fmt.Errorf("no events for '%+v': %w", key, NotFoundErr)
}
