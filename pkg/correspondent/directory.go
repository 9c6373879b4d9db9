package correspondent

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketByID  = []byte("correspondents_by_id")
	bucketByKey = []byte("correspondents_by_key")
)

// Directory is a bbolt-backed store of canonical Correspondent records,
// indexed both by ID and by normalized key so delivery can do a
// lookup-before-create on the key and the merger can do a lookup-before-
// reassign on the ID.
type Directory struct {
	db *bolt.DB
}

// OpenDirectory opens (creating if absent) the correspondent directory
// database under dataDir.
func OpenDirectory(dataDir string) (*Directory, error) {
	dbPath := filepath.Join(dataDir, "correspondents.db")
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("correspondent: open directory: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketByID); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketByKey)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("correspondent: create buckets: %w", err)
	}
	return &Directory{db: db}, nil
}

// Close closes the underlying database.
func (d *Directory) Close() error {
	return d.db.Close()
}

// Resolve looks up a Correspondent by normalized key, creating one with
// DisplayName(key) if absent. This is the lookup-before-create Phase 5
// delivery relies on for idempotent correspondent resolution.
func (d *Directory) Resolve(normalizedKey string) (*types.Correspondent, error) {
	existing, err := d.GetByKey(normalizedKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	c := &types.Correspondent{
		ID:            uuid.NewString(),
		NormalizedKey: normalizedKey,
		DisplayName:   DisplayName(normalizedKey),
		DocumentCount: 0,
	}
	if err := d.put(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByKey returns the Correspondent stored under normalizedKey, or nil if
// none exists.
func (d *Directory) GetByKey(normalizedKey string) (*types.Correspondent, error) {
	var c *types.Correspondent
	err := d.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketByKey).Get([]byte(normalizedKey))
		if id == nil {
			return nil
		}
		data := tx.Bucket(bucketByID).Get(id)
		if data == nil {
			return nil
		}
		var rec types.Correspondent
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		c = &rec
		return nil
	})
	return c, err
}

// GetByID returns the Correspondent with the given ID, or nil if absent.
func (d *Directory) GetByID(id string) (*types.Correspondent, error) {
	var c *types.Correspondent
	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketByID).Get([]byte(id))
		if data == nil {
			return nil
		}
		var rec types.Correspondent
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		c = &rec
		return nil
	})
	return c, err
}

// IncrementDocumentCount bumps the document count for the correspondent
// with the given ID by delta (may be negative, used by the merger).
func (d *Directory) IncrementDocumentCount(id string, delta int) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketByID)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("correspondent: %s not found", id)
		}
		var rec types.Correspondent
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		rec.DocumentCount += delta
		out, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), out)
	})
}

// Delete removes the correspondent with id from both indexes.
func (d *Directory) Delete(id string) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		byID := tx.Bucket(bucketByID)
		data := byID.Get([]byte(id))
		if data != nil {
			var rec types.Correspondent
			if err := json.Unmarshal(data, &rec); err == nil {
				_ = tx.Bucket(bucketByKey).Delete([]byte(rec.NormalizedKey))
			}
		}
		return byID.Delete([]byte(id))
	})
}

// List returns every Correspondent currently stored.
func (d *Directory) List() ([]*types.Correspondent, error) {
	var out []*types.Correspondent
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketByID).ForEach(func(_, v []byte) error {
			var rec types.Correspondent
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, &rec)
			return nil
		})
	})
	return out, err
}

func (d *Directory) put(c *types.Correspondent) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("correspondent: marshal: %w", err)
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketByID).Put([]byte(c.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketByKey).Put([]byte(c.NormalizedKey), []byte(c.ID))
	})
}
