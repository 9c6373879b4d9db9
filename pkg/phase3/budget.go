package phase3

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketDailySpend = []byte("daily_spend")

// BudgetTracker persists cumulative spend per calendar day so the Phase 3
// worker's per-day ceiling survives process restarts.
type BudgetTracker struct {
	db *bolt.DB
}

// OpenBudgetTracker opens (creating if absent) the spend-tracking database
// under dataDir.
func OpenBudgetTracker(dataDir string) (*BudgetTracker, error) {
	dbPath := filepath.Join(dataDir, "phase3_budget.db")
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("phase3: open budget tracker: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDailySpend)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("phase3: create budget bucket: %w", err)
	}
	return &BudgetTracker{db: db}, nil
}

// Close closes the underlying database.
func (b *BudgetTracker) Close() error {
	return b.db.Close()
}

// dayKey returns t's calendar-day bucket key in the tracker's own
// timezone-independent form.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Spent returns the cumulative spend recorded for t's calendar day.
func (b *BudgetTracker) Spent(t time.Time) (float64, error) {
	var total float64
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketDailySpend).Get([]byte(dayKey(t)))
		if data == nil {
			return nil
		}
		total = bytesToFloat(data)
		return nil
	})
	return total, err
}

// Add records amount against t's calendar day and returns the new total.
func (b *BudgetTracker) Add(t time.Time, amount float64) (float64, error) {
	var total float64
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketDailySpend)
		key := []byte(dayKey(t))
		if data := bucket.Get(key); data != nil {
			total = bytesToFloat(data)
		}
		total += amount
		return bucket.Put(key, floatToBytes(total))
	})
	return total, err
}

// Exceeded reports whether t's calendar day has already spent at least
// ceiling.
func (b *BudgetTracker) Exceeded(t time.Time, ceiling float64) (bool, error) {
	spent, err := b.Spent(t)
	if err != nil {
		return false, err
	}
	return spent >= ceiling, nil
}

func floatToBytes(f float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(f))
	return buf
}

func bytesToFloat(b []byte) float64 {
	if len(b) != 8 {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
