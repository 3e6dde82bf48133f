// Package storage provides the persistence adapters behind the ledger's
// store port: a JSON snapshot file and a SQLite database.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"duit/internal/core"
)

// Snapshot persists the whole transaction list as one JSON array in a
// single file, replaced wholesale on every save. Writes go through a
// temp file and rename so a crash mid-write cannot corrupt the
// previous snapshot.
type Snapshot struct {
	path string
}

func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

// Load reads the snapshot file. A missing file yields an empty list.
// An unparseable file is discarded: the adapter logs, resets and
// starts over empty rather than failing startup.
func (s *Snapshot) Load(ctx context.Context) ([]core.Transaction, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var txs []core.Transaction
	if err := json.NewDecoder(f).Decode(&txs); err != nil {
		slog.WarnContext(ctx, "Snapshot unreadable, resetting to empty",
			"path", s.path,
			"error", err)
		return nil, nil
	}
	return txs, nil
}

// Save atomically replaces the snapshot with the given list.
func (s *Snapshot) Save(ctx context.Context, txs []core.Transaction) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	if txs == nil {
		txs = []core.Transaction{}
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txs); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot written", "path", s.path, "count", len(txs))
	return nil
}
