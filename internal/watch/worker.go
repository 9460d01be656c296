package watch

import (
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const idlePollInterval = 200 * time.Millisecond

// runWorker owns the pendingBatch state and flush timing for one watch
// session: debounce-driven flush, opportunistic rename-expiry flush, and
// a 200ms idle poll. stopCh is a dedicated channel (not multiplexed
// through msgCh's buffer) so a stop request is never stuck behind a
// backlog of raw events.
func runWorker(vaultRoot string, debounce, renameWindow time.Duration, maxBatchPaths int, msgCh <-chan fsnotify.Event, stopCh <-chan struct{}, rescanFlag *atomic.Bool, onBatch func(EventBatch)) {
	pending := newPendingBatch()
	var seq uint64
	var lastInputAt *time.Time

	for {
		now := time.Now()
		pending.expireStaleRenameFrom(now, renameWindow)

		if rescanFlag.Swap(false) {
			pending.markRescan(true)
			t := now
			lastInputAt = &t
		}

		if shouldFlush(pending, lastInputAt, debounce, now) {
			seq++
			if batch, ok := pending.takeBatch(seq, maxBatchPaths); ok {
				onBatch(batch)
			}
			if !pending.hasEmitableChanges() {
				lastInputAt = nil
			}
		}

		timeout := nextTimeout(pending, lastInputAt, debounce, renameWindow, now, idlePollInterval)

		select {
		case <-stopCh:
			if rescanFlag.Swap(false) {
				pending.markRescan(true)
			}
			pending.flushUnmatchedRenameFromAsRemoved()
			if pending.hasPendingActivity() {
				seq++
				if batch, ok := pending.takeBatch(seq, maxBatchPaths); ok {
					onBatch(batch)
				}
			}
			return
		case ev, ok := <-msgCh:
			if !ok {
				return
			}
			eventNow := time.Now()
			pending.applyEvent(vaultRoot, ev, eventNow, renameWindow)
			lastInputAt = &eventNow
		case <-time.After(timeout):
			continue
		}
	}
}

func shouldFlush(pending *pendingBatch, lastInputAt *time.Time, debounce time.Duration, now time.Time) bool {
	if !pending.hasEmitableChanges() {
		return false
	}
	if lastInputAt == nil {
		return true
	}
	return now.Sub(*lastInputAt) >= debounce
}

func nextTimeout(pending *pendingBatch, lastInputAt *time.Time, debounce, renameWindow time.Duration, now time.Time, idlePoll time.Duration) time.Duration {
	timeout := idlePoll

	if lastInputAt != nil && pending.hasEmitableChanges() {
		deadline := lastInputAt.Add(debounce)
		d := deadline.Sub(now)
		if d < 0 {
			d = 0
		}
		if d < timeout {
			timeout = d
		}
	}

	if until, ok := pending.nextRenameExpiryIn(renameWindow, now); ok {
		if until < timeout {
			timeout = until
		}
	}

	return timeout
}
