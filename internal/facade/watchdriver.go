package facade

import (
	"context"

	"github.com/mditgo/mditgo/internal/watch"
)

// WatchDriver starts a filesystem watch over root and feeds its coalesced
// batches into index_note/index_workspace calls: a rescan batch triggers a
// full re-index, everything else indexes just the touched paths.
func (f *Facade) WatchDriver(root string) (*watch.Handle, error) {
	return watch.Start(root, f.cfg.Watch, func(batch watch.EventBatch) {
		f.applyBatch(context.Background(), root, batch)
	})
}

// applyBatch dispatches one coalesced batch onto the index layer. A rescan
// batch (possibly with empty detail lists) always triggers a full
// index_workspace; otherwise every changed path gets its own index_note
// call, and single-file indexing never prunes unrelated docs.
func (f *Facade) applyBatch(ctx context.Context, root string, batch watch.EventBatch) {
	if batch.Rescan {
		if _, err := f.IndexWorkspace(ctx, root, false); err != nil {
			f.logger.Error("watch-triggered index_workspace failed", "root", root, "seq", batch.Seq, "error", err)
		}
		return
	}

	touched := make([]string, 0, len(batch.Created)+len(batch.Modified)+len(batch.Renamed)*2)
	touched = append(touched, batch.Created...)
	touched = append(touched, batch.Modified...)
	for _, pair := range batch.Renamed {
		touched = append(touched, pair.ToRel)
	}

	for _, relPath := range touched {
		if _, err := f.IndexNote(ctx, root, relPath); err != nil {
			f.logger.Error("watch-triggered index_note failed", "root", root, "path", relPath, "error", err)
		}
	}

	// Removed and rename-From paths have no corresponding file left to
	// index; the next full index_workspace (scheduled run, manual
	// command, or a later rescan) is what prunes their doc rows.
}
