// Package settings implements the persisted key/value store backing the
// device configuration. The store is a single flat TOML table; unknown or
// missing keys fall back to caller-supplied defaults.
package settings

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Store is a flat key/value store persisted to a TOML file.
// It is not safe for concurrent use; the daemon serializes access to it.
type Store struct {
	path string
	tree *toml.Tree
}

// Open loads the store at the given path. A missing file yields an empty
// store; every read then returns its default.
func Open(path string) (*Store, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to load settings")
		}
		tree, err = toml.TreeFromMap(map[string]interface{}{})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create empty settings")
		}
	}
	return &Store{path: path, tree: tree}, nil
}

// String returns the string stored under key, or def if the key is missing
// or holds a non-string value.
func (s *Store) String(key, def string) string {
	if v, ok := s.tree.Get(key).(string); ok {
		return v
	}
	return def
}

// Int returns the integer stored under key, or def if the key is missing
// or holds a non-integer value.
func (s *Store) Int(key string, def int) int {
	switch v := s.tree.Get(key).(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// SetString stores a string under key. The change is not persisted until
// Save is called.
func (s *Store) SetString(key, value string) {
	s.tree.Set(key, value)
}

// SetInt stores an integer under key. The change is not persisted until
// Save is called.
func (s *Store) SetInt(key string, value int) {
	s.tree.Set(key, int64(value))
}

// Save writes the store back to disk. The file is replaced atomically so a
// power cut mid-save cannot truncate the settings.
func (s *Store) Save() error {
	data, err := s.tree.ToTomlString()
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary settings file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write settings")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close settings file")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "failed to replace settings file")
	}
	return nil
}

// Path returns the on-disk location of the store.
func (s *Store) Path() string {
	return s.path
}
