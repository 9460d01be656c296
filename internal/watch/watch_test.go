package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mditgo/mditgo/internal/config"
)

func TestStart_EmitsRelativePathsForChangesInsideVault(t *testing.T) {
	vaultDir := t.TempDir()
	nestedDir := filepath.Join(vaultDir, "docs")
	if err := os.MkdirAll(nestedDir, 0o755); err != nil {
		t.Fatal(err)
	}

	batches := make(chan EventBatch, 16)
	cfg := config.Default().Watch
	cfg.DebounceMS = 50

	h, err := Start(vaultDir, cfg, func(b EventBatch) { batches <- b })
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(filepath.Join(nestedDir, "note.md"), []byte("# note"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case b := <-batches:
			all := append(append(append([]string{}, b.Created...), b.Modified...), b.Removed...)
			for _, rp := range b.Renamed {
				all = append(all, rp.FromRel, rp.ToRel)
			}
			for _, p := range all {
				if p == "docs/note.md" {
					return
				}
			}
		case <-deadline:
			t.Fatal("timed out waiting for docs/note.md event")
		}
	}
}

func TestStart_StopPreventsLaterDelivery(t *testing.T) {
	vaultDir := t.TempDir()

	batches := make(chan EventBatch, 16)
	cfg := config.Default().Watch
	cfg.DebounceMS = 50

	h, err := Start(vaultDir, cfg, func(b EventBatch) { batches <- b })
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if err := os.WriteFile(filepath.Join(vaultDir, "after-stop.md"), []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case b := <-batches:
		t.Fatalf("expected no batch after stop, got %+v", b)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestStart_RejectsMissingRoot(t *testing.T) {
	if _, err := Start(filepath.Join(t.TempDir(), "missing"), config.Default().Watch, func(EventBatch) {}); err == nil {
		t.Fatal("expected an error for a missing vault root")
	}
}
