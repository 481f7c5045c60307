package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"pagesaver/pkg/log"
)

const (
	resourceKeyPrefix = "res:"         // Prefix for resource URL keys in DB
	cacheDBDir        = "pagesaver_db" // Subdirectory name within cacheDir for Badger DB files
)

// BadgerStore implements ResourceStore using BadgerDB
type BadgerStore struct {
	db  *badger.DB
	log *logrus.Entry
}

// NewBadgerStore opens (or creates) the download-status database under
// cacheDir.
func NewBadgerStore(cacheDir string, logger *logrus.Entry) (*BadgerStore, error) {
	dbPath := filepath.Join(cacheDir, cacheDBDir)
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dbPath, err)
	}
	logger.Debugf("Opening download cache at: %s", dbPath)

	badgerLogger := log.NewBadgerAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1) // Only keep the latest outcome per URL

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dbPath, err)
	}
	return &BadgerStore{db: db, log: logger}, nil
}

// CheckResource implements the ResourceStore interface
func (s *BadgerStore) CheckResource(resourceURL string) (*ResourceEntry, error) {
	if s.db == nil {
		return nil, errors.New("cache DB not initialized")
	}
	key := []byte(resourceKeyPrefix + resourceURL)

	var entry *ResourceEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Unknown URL, entry stays nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var e ResourceEntry
			if err := json.Unmarshal(val, &e); err != nil {
				// Corrupt entry: log and treat as unseen rather than failing the load
				s.log.Warnf("Corrupt cache entry for '%s': %v", resourceURL, err)
				return nil
			}
			entry = &e
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("cache lookup for '%s': %w", resourceURL, err)
	}
	return entry, nil
}

// UpdateResource implements the ResourceStore interface
func (s *BadgerStore) UpdateResource(resourceURL string, entry *ResourceEntry) error {
	if s.db == nil {
		return errors.New("cache DB not initialized")
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry for '%s': %w", resourceURL, err)
	}
	key := []byte(resourceKeyPrefix + resourceURL)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("cache update for '%s': %w", resourceURL, err)
	}
	return nil
}

// Close implements the ResourceStore interface
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.log.Debug("Closing download cache")
	return s.db.Close()
}
