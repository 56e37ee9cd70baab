package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotSortedByAsset(t *testing.T) {
	l := New()
	l.Set("USDT", 500_000_000)
	l.Set("BTC", 5_000_000)

	snap := l.Snapshot()
	if len(snap.Balances) != 2 {
		t.Fatalf("entry count mismatch! should be 2 but got %d", len(snap.Balances))
	}
	if snap.Balances[0].Asset != "BTC" || snap.Balances[1].Asset != "USDT" {
		t.Fatalf("entries not sorted: %+v", snap.Balances)
	}
}

func TestWriteSnapshot(t *testing.T) {
	l := New()
	l.Set("BTC", 5_000_000)

	path := filepath.Join(t.TempDir(), "snapshots", "balances.json")
	if err := WriteSnapshot(path, l.Snapshot()); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snap.Balances) != 1 || snap.Balances[0].Qty != 5_000_000 {
		t.Fatalf("snapshot content mismatch: %+v", snap)
	}
}
