// Package watch implements the vault filesystem watcher: a debouncing,
// rename-pairing, overflow-tolerant event coalescer that turns raw OS
// notifications into deterministic EventBatches, built on fsnotify.
package watch

import (
	"fmt"
	"time"
)

// RenamePair is one matched rename: a "From" candidate paired with the
// "To" event that arrived within the rename pair window.
type RenamePair struct {
	FromRel string
	ToRel   string
}

// EventBatch is one coalesced batch of filesystem changes, emitted no more
// than once per debounce interval (plus opportunistic rename-expiry and
// idle-poll flushes).
type EventBatch struct {
	Seq            uint64
	Created        []string
	Modified       []string
	Removed        []string
	Renamed        []RenamePair
	Rescan         bool
	EmittedAtUnixMS int64
}

// HasPayload reports whether the batch carries anything a consumer should
// act on; an empty, non-rescan batch is never emitted.
func (b EventBatch) HasPayload() bool {
	return b.Rescan || len(b.Created) > 0 || len(b.Modified) > 0 || len(b.Removed) > 0 || len(b.Renamed) > 0
}

func emptyBatchWithSeq(seq uint64) EventBatch {
	return EventBatch{Seq: seq, EmittedAtUnixMS: time.Now().UnixMilli()}
}

// Error reports a watcher-level failure: the root is missing, not a
// directory, or the notification source could not be started.
type Error struct {
	Path string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("watch: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("watch: %s %s", e.Op, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }
