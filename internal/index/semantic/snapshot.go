package semantic

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kirei-app/kirei/internal/domain"
)

var snapshotKey = domain.KeyPrefix + "semantic_snapshot"

// kvStore is the consumer interface for snapshot persistence.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type persistedEntry struct {
	Record domain.Record `json:"record"`
	Vector []byte        `json:"vector"`
}

type persistedSnapshot struct {
	Entries []persistedEntry `json:"entries"`
}

// Save writes the current snapshot to the key-value store. A no-op error
// when the index is not Ready.
func (ix *Index) Save(ctx context.Context, kv kvStore) error {
	snap := ix.current.Load()
	if snap == nil {
		return domain.ErrIndexNotReady
	}

	p := persistedSnapshot{Entries: make([]persistedEntry, len(snap.entries))}
	for i, e := range snap.entries {
		p.Entries[i] = persistedEntry{Record: e.record, Vector: vectorToBytes(e.vector)}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := kv.Set(ctx, snapshotKey, data); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}

	ix.logger.Info("semantic index snapshot saved", zap.Int("records", len(p.Entries)))
	return nil
}

// Load restores a previously saved snapshot. A successful load makes the
// index Ready without re-embedding any record.
func (ix *Index) Load(ctx context.Context, kv kvStore) error {
	data, err := kv.Get(ctx, snapshotKey)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	var p persistedSnapshot
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	entries := make([]indexEntry, len(p.Entries))
	for i, e := range p.Entries {
		vec, err := bytesToVector(e.Vector)
		if err != nil {
			return fmt.Errorf("decode snapshot vector %s: %w", e.Record.ID, err)
		}
		entries[i] = indexEntry{record: e.Record, vector: vec}
	}

	ix.current.Store(&snapshot{entries: entries})
	ix.logger.Info("semantic index snapshot loaded", zap.Int("records", len(entries)))
	return nil
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
