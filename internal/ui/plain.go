// Package ui renders indexing and search progress to a terminal or a pipe.
package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Stage identifies a phase of an index run.
type Stage string

const (
	StageScan      Stage = "scan"
	StageChunk     Stage = "chunk"
	StageEmbed     Stage = "embed"
	StageWrite     Stage = "write"
	StageLinkify   Stage = "linkify"
	StageWatch     Stage = "watch"
)

// Icon returns a short label for a stage, used as a line prefix.
func (s Stage) Icon() string {
	switch s {
	case StageScan:
		return "SCAN"
	case StageChunk:
		return "CHUNK"
	case StageEmbed:
		return "EMBED"
	case StageWrite:
		return "WRITE"
	case StageLinkify:
		return "LINK"
	case StageWatch:
		return "WATCH"
	default:
		return "RUN"
	}
}

// ProgressEvent reports incremental work within a stage.
type ProgressEvent struct {
	Stage       Stage
	Current     int
	Total       int
	CurrentFile string
	Message     string
}

// ErrorEvent reports a recoverable or fatal problem encountered mid-run.
type ErrorEvent struct {
	File   string
	Err    error
	IsWarn bool
}

// CompletionStats summarizes a finished index run.
type CompletionStats struct {
	Docs     int
	Segments int
	Errors   int
	Warnings int
	Duration time.Duration
	Stages   StageDurations
}

// StageDurations breaks total duration down per stage.
type StageDurations struct {
	Scan    time.Duration
	Chunk   time.Duration
	Embed   time.Duration
	Write   time.Duration
	Linkify time.Duration
}

// Config configures a Renderer.
type Config struct {
	Output  io.Writer
	NoColor bool
}

// Renderer renders the lifecycle of an index run.
type Renderer interface {
	UpdateProgress(event ProgressEvent)
	AddError(event ErrorEvent)
	Complete(stats CompletionStats)
}

// PlainRenderer writes plain text lines, suitable for CI logs and pipes.
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	errors []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out:    cfg.Output,
		styles: GetStyles(cfg.NoColor),
	}
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := event.Message
	if msg == "" {
		msg = event.CurrentFile
	}

	label := r.styles.Stage.Render(event.Stage.Icon())
	if event.Total > 0 {
		fmt.Fprintf(r.out, "[%s] %d/%d %s\n", label, event.Current, event.Total, msg)
		return
	}
	if msg != "" {
		fmt.Fprintf(r.out, "[%s] %s\n", label, msg)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := r.styles.Error.Render("ERROR")
	if event.IsWarn {
		prefix = r.styles.Warning.Render("WARN")
	}

	if event.File != "" {
		fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.File, event.Err)
	} else {
		fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "%s %d docs, %d segments indexed in %s",
		r.styles.Success.Render("done:"), stats.Docs, stats.Segments, stats.Duration.Round(100*time.Millisecond))

	if stats.Errors > 0 || stats.Warnings > 0 {
		fmt.Fprintf(r.out, " (%d errors, %d warnings)", stats.Errors, stats.Warnings)
	}
	fmt.Fprintln(r.out)
}
