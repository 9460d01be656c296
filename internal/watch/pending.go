package watch

import (
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// renameFromCandidate is a pending "From" half of a rename, waiting to be
// paired with a "To" event within the rename pair window.
type renameFromCandidate struct {
	relPath string
	seenAt  time.Time
}

// pendingBatch accumulates one in-flight batch's worth of filesystem
// changes between flushes: sorted sets for created/modified/removed, a
// set of renames, and a FIFO of pending rename-from candidates.
type pendingBatch struct {
	created     map[string]struct{}
	modified    map[string]struct{}
	removed     map[string]struct{}
	renamed     map[RenamePair]struct{}
	renameFrom  []renameFromCandidate
	rescan      bool
	clearDetail bool
}

func newPendingBatch() *pendingBatch {
	return &pendingBatch{
		created:  map[string]struct{}{},
		modified: map[string]struct{}{},
		removed:  map[string]struct{}{},
		renamed:  map[RenamePair]struct{}{},
	}
}

func (p *pendingBatch) markRescan(clearDetail bool) {
	p.rescan = true
	p.clearDetail = p.clearDetail || clearDetail
}

func (p *pendingBatch) hasEmitableChanges() bool {
	return p.rescan || len(p.created) > 0 || len(p.modified) > 0 || len(p.removed) > 0 || len(p.renamed) > 0
}

func (p *pendingBatch) hasPendingActivity() bool {
	return p.hasEmitableChanges() || len(p.renameFrom) > 0
}

// nextRenameExpiryIn returns the duration until the oldest rename-from
// candidate expires, or false if none are pending.
func (p *pendingBatch) nextRenameExpiryIn(window time.Duration, now time.Time) (time.Duration, bool) {
	if len(p.renameFrom) == 0 {
		return 0, false
	}
	deadline := p.renameFrom[0].seenAt.Add(window)
	if !deadline.After(now) {
		return 0, true
	}
	return deadline.Sub(now), true
}

// expireStaleRenameFrom flushes rename-from candidates older than window
// to the removed set, oldest first.
func (p *pendingBatch) expireStaleRenameFrom(now time.Time, window time.Duration) {
	i := 0
	for i < len(p.renameFrom) {
		if now.Sub(p.renameFrom[i].seenAt) < window {
			break
		}
		p.removed[p.renameFrom[i].relPath] = struct{}{}
		i++
	}
	if i > 0 {
		p.renameFrom = p.renameFrom[i:]
	}
}

func (p *pendingBatch) flushUnmatchedRenameFromAsRemoved() {
	for _, c := range p.renameFrom {
		p.removed[c.relPath] = struct{}{}
	}
	p.renameFrom = nil
}

// matchRenameFrom pops the oldest non-expired rename-from candidate, if
// any, expiring stale ones first.
func (p *pendingBatch) matchRenameFrom(now time.Time, window time.Duration) (string, bool) {
	p.expireStaleRenameFrom(now, window)
	if len(p.renameFrom) == 0 {
		return "", false
	}
	rel := p.renameFrom[0].relPath
	p.renameFrom = p.renameFrom[1:]
	return rel, true
}

// applyEvent classifies one raw fsnotify event and folds it into the
// pending state. fsnotify never reports a paired two-path rename event;
// a rename is always observed as a lone Rename (the "From" half) followed
// by a later Create for the new name (the "To" half).
func (p *pendingBatch) applyEvent(vaultRoot string, ev fsnotify.Event, now time.Time, renameWindow time.Duration) {
	relPath, ok := toVaultRelPath(vaultRoot, ev.Name)

	switch {
	case ev.Op&fsnotify.Rename != 0:
		if !ok {
			p.markRescan(false)
			return
		}
		p.renameFrom = append(p.renameFrom, renameFromCandidate{relPath: relPath, seenAt: now})

	case ev.Op&fsnotify.Create != 0:
		if !ok {
			p.markRescan(false)
			return
		}
		if fromRel, matched := p.matchRenameFrom(now, renameWindow); matched {
			if fromRel == relPath {
				p.modified[relPath] = struct{}{}
			} else {
				p.renamed[RenamePair{FromRel: fromRel, ToRel: relPath}] = struct{}{}
			}
			return
		}
		p.created[relPath] = struct{}{}

	case ev.Op&fsnotify.Write != 0, ev.Op&fsnotify.Chmod != 0:
		if !ok {
			p.markRescan(false)
			return
		}
		p.modified[relPath] = struct{}{}

	case ev.Op&fsnotify.Remove != 0:
		if !ok {
			p.markRescan(false)
			return
		}
		p.removed[relPath] = struct{}{}

	default:
		if !ok {
			p.markRescan(false)
			return
		}
		p.modified[relPath] = struct{}{}
	}
}

func (p *pendingBatch) reconcileCreatedAndRemovedAsModified() {
	for relPath := range p.created {
		if _, ok := p.removed[relPath]; ok {
			delete(p.created, relPath)
			delete(p.removed, relPath)
			p.modified[relPath] = struct{}{}
		}
	}
}

func (p *pendingBatch) dropPathsCoveredByRenames() {
	for pair := range p.renamed {
		delete(p.created, pair.FromRel)
		delete(p.modified, pair.FromRel)
		delete(p.removed, pair.FromRel)
		delete(p.created, pair.ToRel)
		delete(p.modified, pair.ToRel)
		delete(p.removed, pair.ToRel)
	}
}

func (p *pendingBatch) eventPathCount() int {
	return len(p.created) + len(p.modified) + len(p.removed) + len(p.renamed)*2
}

func (p *pendingBatch) applyOverflowPolicy(maxBatchPaths int) {
	if p.eventPathCount() > maxBatchPaths {
		p.markRescan(true)
	}
}

func (p *pendingBatch) normalizeForEmit(maxBatchPaths int) {
	p.reconcileCreatedAndRemovedAsModified()
	p.dropPathsCoveredByRenames()
	p.applyOverflowPolicy(maxBatchPaths)
}

func (p *pendingBatch) clearDetailIfNeeded() {
	if p.clearDetail {
		p.created = map[string]struct{}{}
		p.modified = map[string]struct{}{}
		p.removed = map[string]struct{}{}
		p.renamed = map[RenamePair]struct{}{}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedRenames(m map[RenamePair]struct{}) []RenamePair {
	out := make([]RenamePair, 0, len(m))
	for pair := range m {
		out = append(out, pair)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromRel != out[j].FromRel {
			return out[i].FromRel < out[j].FromRel
		}
		return out[i].ToRel < out[j].ToRel
	})
	return out
}

func (p *pendingBatch) buildBatch(seq uint64) EventBatch {
	batch := emptyBatchWithSeq(seq)
	batch.Rescan = p.rescan
	batch.Created = sortedKeys(p.created)
	batch.Modified = sortedKeys(p.modified)
	batch.Removed = sortedKeys(p.removed)
	batch.Renamed = sortedRenames(p.renamed)
	p.created = map[string]struct{}{}
	p.modified = map[string]struct{}{}
	p.removed = map[string]struct{}{}
	p.renamed = map[RenamePair]struct{}{}
	return batch
}

func (p *pendingBatch) resetEmitFlags() {
	p.rescan = false
	p.clearDetail = false
}

// takeBatch materializes and clears the pending state into an EventBatch,
// applying the overflow policy and rescan-detail-clearing rule first.
// Returns false if there is nothing emitable.
func (p *pendingBatch) takeBatch(seq uint64, maxBatchPaths int) (EventBatch, bool) {
	if !p.hasEmitableChanges() {
		return EventBatch{}, false
	}

	p.normalizeForEmit(maxBatchPaths)
	p.clearDetailIfNeeded()
	batch := p.buildBatch(seq)
	p.resetEmitFlags()

	if !batch.HasPayload() {
		return EventBatch{}, false
	}
	return batch, true
}
