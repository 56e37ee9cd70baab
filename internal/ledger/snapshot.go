package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"main/internal/schema"
)

// Snapshot captures asset balances at a point in time.
type Snapshot struct {
	Timestamp int64          `json:"timestamp"`
	Balances  []BalanceEntry `json:"balances"`
}

// BalanceEntry is a single asset balance entry.
type BalanceEntry struct {
	Asset    string          `json:"asset"`
	Qty      schema.Quantity `json:"qty"`
	FeesPaid schema.Fee      `json:"feesPaid"`
}

// Snapshot builds a snapshot from current balances, sorted by asset.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]BalanceEntry, 0, len(l.balances))
	for asset, qty := range l.balances {
		entries = append(entries, BalanceEntry{
			Asset:    asset,
			Qty:      qty,
			FeesPaid: l.feesPaid[asset],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Asset < entries[j].Asset
	})
	return Snapshot{
		Timestamp: time.Now().UTC().UnixNano(),
		Balances:  entries,
	}
}

// WriteSnapshot writes a snapshot to disk as JSON.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
