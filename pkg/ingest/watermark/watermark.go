// Package watermark persists each ingestion adapter's last-synced position in
// a small BoltDB file, so a restarted sync only has to resume from where it
// left off instead of re-fetching everything.
package watermark

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cyw0ng95/vulnintel/pkg/applog"
)

var log = applog.Named("ingest.watermark")

var bucketName = []byte("watermarks")

// State is one adapter's resume point. Adapters populate whichever fields
// are meaningful to them: a time-windowed adapter (NVD, CNNVD) sets Time; a
// cursor-paginated adapter (AttackerKB) sets Cursor; a commit-walking
// adapter (gittemplates) sets Time to when its last completed pass finished.
type State struct {
	Time    time.Time `json:"time"`
	Cursor  string    `json:"cursor"`
	Index   int       `json:"index"`
	Updated time.Time `json:"updated"`
}

// Store is a BoltDB-backed table of adapter name -> State.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) a watermark store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("watermark: open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("watermark: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored state for adapter, or the zero State if none has
// been recorded yet.
func (s *Store) Get(adapter string) (State, error) {
	var st State
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		data := b.Get([]byte(adapter))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &st)
	})
	if err != nil {
		return State{}, fmt.Errorf("watermark: get %s: %w", adapter, err)
	}
	return st, nil
}

// Set persists state for adapter, stamping Updated with now.
func (s *Store) Set(adapter string, st State, now time.Time) error {
	st.Updated = now
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("watermark: marshal %s: %w", adapter, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put([]byte(adapter), data)
	})
	if err != nil {
		return fmt.Errorf("watermark: set %s: %w", adapter, err)
	}
	log.Debug().Str("adapter", adapter).Time("watermark", st.Time).Msg("watermark advanced")
	return nil
}
