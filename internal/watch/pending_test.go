package watch

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// A From(/v/a.md) paired with a To(/v/b.md) within the rename window
// emits a single renamed pair and no created/removed entries.
func TestPendingBatch_RenamePairing(t *testing.T) {
	p := newPendingBatch()
	window := 500 * time.Millisecond
	now := time.Now()

	p.applyEvent("/v", fsnotify.Event{Name: "/v/a.md", Op: fsnotify.Rename}, now, window)
	p.applyEvent("/v", fsnotify.Event{Name: "/v/b.md", Op: fsnotify.Create}, now.Add(10*time.Millisecond), window)

	batch, ok := p.takeBatch(1, 100)
	if !ok {
		t.Fatal("expected a batch")
	}
	if len(batch.Renamed) != 1 || batch.Renamed[0] != (RenamePair{FromRel: "a.md", ToRel: "b.md"}) {
		t.Fatalf("got renamed=%v, want [{a.md b.md}]", batch.Renamed)
	}
	if len(batch.Created) != 0 || len(batch.Removed) != 0 {
		t.Fatalf("expected no created/removed entries, got created=%v removed=%v", batch.Created, batch.Removed)
	}
}

// A From with no paired To within the window emits removed=[a.md].
func TestPendingBatch_UnpairedRenameFromExpiresToRemoved(t *testing.T) {
	p := newPendingBatch()
	window := 50 * time.Millisecond
	now := time.Now()

	p.applyEvent("/v", fsnotify.Event{Name: "/v/a.md", Op: fsnotify.Rename}, now, window)
	p.expireStaleRenameFrom(now.Add(100*time.Millisecond), window)

	batch, ok := p.takeBatch(1, 100)
	if !ok {
		t.Fatal("expected a batch")
	}
	if len(batch.Removed) != 1 || batch.Removed[0] != "a.md" {
		t.Fatalf("got removed=%v, want [a.md]", batch.Removed)
	}
	if len(batch.Renamed) != 0 {
		t.Fatalf("expected no renamed entries, got %v", batch.Renamed)
	}
}

// More than maxBatchPaths accumulated paths sets rescan=true with empty
// detail lists.
func TestPendingBatch_Overflow(t *testing.T) {
	p := newPendingBatch()
	now := time.Now()

	for i := 0; i < 5; i++ {
		p.applyEvent("/v", fsnotify.Event{Name: "/v/file" + string(rune('a'+i)) + ".md", Op: fsnotify.Create}, now, time.Second)
	}

	batch, ok := p.takeBatch(1, 3)
	if !ok {
		t.Fatal("expected a batch")
	}
	if !batch.Rescan {
		t.Fatal("expected rescan=true on overflow")
	}
	if len(batch.Created) != 0 || len(batch.Modified) != 0 || len(batch.Removed) != 0 || len(batch.Renamed) != 0 {
		t.Fatalf("expected empty detail lists on overflow, got %+v", batch)
	}
}

func TestPendingBatch_CreatedAndRemovedSamePathCollapsesToModified(t *testing.T) {
	p := newPendingBatch()
	now := time.Now()

	p.applyEvent("/v", fsnotify.Event{Name: "/v/a.md", Op: fsnotify.Create}, now, time.Second)
	p.applyEvent("/v", fsnotify.Event{Name: "/v/a.md", Op: fsnotify.Remove}, now, time.Second)

	batch, ok := p.takeBatch(1, 100)
	if !ok {
		t.Fatal("expected a batch")
	}
	if len(batch.Modified) != 1 || batch.Modified[0] != "a.md" {
		t.Fatalf("got modified=%v, want [a.md]", batch.Modified)
	}
	if len(batch.Created) != 0 || len(batch.Removed) != 0 {
		t.Fatalf("expected collapsed created/removed, got created=%v removed=%v", batch.Created, batch.Removed)
	}
}

func TestPendingBatch_EmptyWhenNothingPending(t *testing.T) {
	p := newPendingBatch()
	if _, ok := p.takeBatch(1, 100); ok {
		t.Fatal("expected no batch from an empty pending state")
	}
}

func TestPendingBatch_SameTargetRenameBecomesModified(t *testing.T) {
	p := newPendingBatch()
	window := 500 * time.Millisecond
	now := time.Now()

	p.applyEvent("/v", fsnotify.Event{Name: "/v/a.md", Op: fsnotify.Rename}, now, window)
	p.applyEvent("/v", fsnotify.Event{Name: "/v/a.md", Op: fsnotify.Create}, now.Add(time.Millisecond), window)

	batch, ok := p.takeBatch(1, 100)
	if !ok {
		t.Fatal("expected a batch")
	}
	if len(batch.Modified) != 1 || batch.Modified[0] != "a.md" {
		t.Fatalf("got modified=%v, want [a.md]", batch.Modified)
	}
	if len(batch.Renamed) != 0 {
		t.Fatalf("expected no renamed entries, got %v", batch.Renamed)
	}
}
