package json

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/drakos74/polychaos/internal/storage"
)

const (
	logSuffix = ".events.log"
)

// Registry appends json events to log files under <dir>/registry/<root>/<family>/<label>.
// Every registry instance writes to its own <hash>.events.log file,
// reading collects the events of all files under the key.
type Registry struct {
	dir   string
	root  string
	hash  int64
	mutex *sync.Mutex
}

// NewEventRegistry creates a new registry for the given root.
func NewEventRegistry(dir, root string) *Registry {
	return &Registry{
		dir:   dir,
		root:  root,
		hash:  time.Now().UnixNano(),
		mutex: new(sync.Mutex),
	}
}

// EventRegistry creates a new registry generator under the default storage dir.
func EventRegistry(parent string) storage.EventRegistry {
	return func(p string) (storage.Registry, error) {
		return NewEventRegistry(storage.DefaultDir, filepath.Join(parent, p)), nil
	}
}

// WithHash sets the file the registry appends to.
func (e *Registry) WithHash(h int64) *Registry {
	e.hash = h
	return e
}

func (e *Registry) Root() string {
	return e.root
}

func (e *Registry) filePath(k storage.K) string {
	return filepath.Join(e.dir, storage.RegistryDir, e.root, k.Family, k.Label)
}

// Add appends the value as a single json line.
func (e *Registry) Add(key storage.K, value interface{}) error {
	if err := key.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode value '%+v': %w", value, err)
	}

	filePath := e.filePath(key)
	if err := os.MkdirAll(filePath, os.ModePerm); err != nil {
		return fmt.Errorf("could not make dir: %s: %w", filePath, err)
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	f, err := os.OpenFile(filepath.Join(filePath, fmt.Sprintf("%d%s", e.hash, logSuffix)), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}
	defer f.Close()

	if _, err = f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("could not write log file for '%+v': %w", key, err)
	}
	return nil
}

// GetAll decodes all events for the key into values, which must be a pointer to a slice.
// Files are read in the order of their hash.
func (e *Registry) GetAll(key storage.K, values interface{}) error {
	vv := reflect.ValueOf(values)
	if vv.Kind() != reflect.Ptr || vv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("only accepting pointers to slices as placeholder for the results, got %T", values)
	}
	slice := vv.Elem()
	t := slice.Type().Elem()

	if err := key.Validate(); err != nil {
		return err
	}

	filePath := e.filePath(key)
	entries, err := os.ReadDir(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no events for '%+v': %w", key, storage.NotFoundErr)
	}
	if err != nil {
		return fmt.Errorf("could not list events for '%+v': %w", key, err)
	}

	hashes := make([]int64, 0, len(entries))
	for _, entry := range entries {
		n := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(n, logSuffix) {
			continue
		}
		h, err := strconv.ParseInt(strings.TrimSuffix(n, logSuffix), 10, 64)
		if err != nil {
			return fmt.Errorf("non-numeric log file '%s' found for hash: %w", n, err)
		}
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	elements := reflect.MakeSlice(slice.Type(), 0, 10)
	for _, h := range hashes {
		fileName := filepath.Join(filePath, fmt.Sprintf("%d%s", h, logSuffix))
		f, err := os.Open(fileName)
		if err != nil {
			return fmt.Errorf("could not read file '%s': %w", fileName, err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			instance := reflect.New(t)
			if err := json.Unmarshal(line, instance.Interface()); err != nil {
				f.Close()
				return fmt.Errorf("could not decode event '%s': %v: %w", line, err, storage.CouldNotLoadErr)
			}
			elements = reflect.Append(elements, instance.Elem())
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return fmt.Errorf("could not scan file '%s': %w", fileName, err)
		}
	}

	slice.Set(elements)
	return nil
}
