package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble/v2"
	"github.com/dmitrijs2005/postkeeper/internal/client/models"
)

// PebbleRepository stores one key per post under Namespace. Keys carry the
// list position so iteration returns the saved order.
type PebbleRepository struct {
	db *pebble.DB
}

var (
	keyPrefix = []byte(Namespace + "/")
	// keyLimit is the first key past the namespace ('/'+1 == '0').
	keyLimit = []byte(Namespace + "0")
)

func postKey(position int, tempID string) []byte {
	return fmt.Appendf(nil, "%s/%08d/%s", Namespace, position, tempID)
}

// OpenPebble opens (or creates) the Pebble store in dir.
func OpenPebble(dir string) (*PebbleRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open error: %w", err)
	}
	return &PebbleRepository{db: db}, nil
}

// SaveAll drops the namespace and writes records in a single synced batch.
func (r *PebbleRepository) SaveAll(_ context.Context, records []models.PostRecord) error {
	b := r.db.NewBatch()
	defer b.Close()

	if err := b.DeleteRange(keyPrefix, keyLimit, nil); err != nil {
		return fmt.Errorf("failed to clear pending posts: %w", err)
	}
	for i, rec := range records {
		val, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode post %s: %w", rec.TempID, err)
		}
		if err := b.Set(postKey(i, rec.TempID), val, nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

func (r *PebbleRepository) LoadAll(_ context.Context) ([]models.PostRecord, error) {
	it, err := r.db.NewIter(&pebble.IterOptions{
		LowerBound: keyPrefix,
		UpperBound: keyLimit,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = it.Close() }()

	result := []models.PostRecord{}
	for it.First(); it.Valid(); it.Next() {
		var rec models.PostRecord
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", it.Key(), err)
		}
		result = append(result, rec)
	}
	return result, nil
}

func (r *PebbleRepository) Close() error {
	return r.db.Close()
}
