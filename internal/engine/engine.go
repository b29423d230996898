// Package engine implements the clipboard-history engine: the serialized
// event loop that turns clipboard-change notifications into history entries
// and hotkey presses into paste-and-cycle actions.
//
// The engine owns all mutable state (history, self-write tracking,
// suppression flag) exclusively. Events are delivered one at a time over a
// single channel, so no handler ever runs concurrently with another and no
// locking is needed.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/reclip/internal/clip"
	"go.klb.dev/reclip/internal/history"
	"go.klb.dev/reclip/internal/input"
	"go.klb.dev/reclip/internal/snapshot"
)

// Kind discriminates the events the engine consumes.
type Kind int

const (
	// KindClipboardChanged signals that the OS clipboard content changed.
	KindClipboardChanged Kind = iota
	// KindHotkey signals a global hotkey press. HotkeyID carries the
	// registration id; the engine ignores ids it did not register.
	KindHotkey
	// KindStatus requests a state summary on the event's Reply channel.
	KindStatus
	// KindHistory requests the current history entries on Reply.
	KindHistory
	// KindClear empties the history and acknowledges on Reply.
	KindClear
)

// Event is one unit of work for the engine loop.
type Event struct {
	Kind     Kind
	HotkeyID int
	Reply    chan<- Reply
}

// Reply answers a status, history, or clear request.
type Reply struct {
	Backend   string
	Depth     int
	Capacity  int
	Threshold uint8
	StartedAt time.Time
	Entries   []snapshot.Snapshot
}

// HotkeyID is the registration id for the cycle hotkey (Ctrl+Shift+V).
const HotkeyID = 1

// Timing and retry constants for the cycle protocol.
const (
	// PasteDelay is slept after a successful synthetic paste so the target
	// application consumes it before the clipboard is swapped. Shorter than
	// the fastest OS key auto-repeat interval.
	PasteDelay = 25 * time.Millisecond

	// ReleaseBackoff separates force-release retries.
	ReleaseBackoff = 25 * time.Millisecond

	// MaxReleaseRetries bounds the force-release recovery loop.
	MaxReleaseRetries = 10
)

// Config carries the tunable engine parameters.
type Config struct {
	// MaxHistory is the history capacity. Must be at least 1.
	MaxHistory int
	// Threshold is the similarity ratio (0..255) for merging partial
	// clipboard renderings. See snapshot.Classify.
	Threshold uint8
}

// Engine is the clipboard-history engine. Create with New, drive with Run.
type Engine struct {
	cfg   Config
	board clip.Board
	synth input.Synthesizer
	keys  input.StateReader

	// sleep is injectable so tests run without real delays.
	sleep func(time.Duration)

	history *history.Store
	// pendingSelfWrite is the snapshot the engine last wrote to the
	// clipboard itself during cycling; nil otherwise. New captures are
	// classified against it as well as the history front so that the
	// engine's own writes are not re-recorded.
	pendingSelfWrite snapshot.Snapshot
	// suppressNext discards the next clipboard-change notification: it is
	// the one our own write produced. Armed at most once per self-write,
	// cleared on the first notification regardless of content.
	suppressNext bool

	startedAt time.Time
}

// New assembles an engine from its collaborators.
func New(cfg Config, board clip.Board, synth input.Synthesizer, keys input.StateReader) *Engine {
	return &Engine{
		cfg:       cfg,
		board:     board,
		synth:     synth,
		keys:      keys,
		sleep:     time.Sleep,
		history:   history.New(cfg.MaxHistory),
		startedAt: time.Now(),
	}
}

// Run consumes events until the channel closes. It returns nil on a clean
// close and a terminal error only when stuck-key recovery is exhausted.
func (e *Engine) Run(events <-chan Event) error {
	slog.Info("engine ready",
		"backend", e.board.Name(),
		"max_history", e.history.Cap(),
		"threshold", e.cfg.Threshold,
	)

	for ev := range events {
		switch ev.Kind {
		case KindClipboardChanged:
			e.handleClipboardChange()
		case KindHotkey:
			if err := e.handleHotkey(ev.HotkeyID); err != nil {
				return err
			}
		case KindStatus:
			e.reply(ev, Reply{})
		case KindHistory:
			e.reply(ev, Reply{Entries: e.history.Entries()})
		case KindClear:
			e.history.Clear()
			e.pendingSelfWrite = nil
			slog.Info("history cleared")
			e.reply(ev, Reply{})
		}
	}
	return nil
}

// reply fills in the common state summary and answers without blocking; a
// requester that went away must not stall the loop.
func (e *Engine) reply(ev Event, r Reply) {
	if ev.Reply == nil {
		return
	}
	r.Backend = e.board.Name()
	r.Depth = e.history.Len()
	r.Capacity = e.history.Cap()
	r.Threshold = e.cfg.Threshold
	r.StartedAt = e.startedAt
	select {
	case ev.Reply <- r:
	default:
		slog.Warn("request reply dropped, requester gone")
	}
}

// handleClipboardChange runs the capture/classify/store state machine for
// one clipboard-change notification.
func (e *Engine) handleClipboardChange() {
	// A pending suppression means this notification is the one our own
	// write produced. Consume it without looking at the clipboard.
	if e.suppressNext {
		e.suppressNext = false
		slog.Debug("self-write notification suppressed")
		return
	}

	snap, err := clip.Capture(e.board, clip.DefaultAttempts)
	if err != nil {
		// Busy clipboard: skip this event. The owner will trigger another
		// notification sooner or later.
		slog.Debug("clipboard capture skipped", "err", err)
		return
	}
	if len(snap) == 0 {
		// Nothing readable is never recorded as history.
		return
	}

	prevSim := snapshot.Different
	if e.pendingSelfWrite != nil {
		prevSim = snapshot.Classify(snap, e.pendingSelfWrite, e.cfg.Threshold)
	}
	currSim := snapshot.Different
	if front, ok := e.history.Front(); ok {
		currSim = snapshot.Classify(snap, front, e.cfg.Threshold)
	}

	// Same beats Similar beats Different, whichever reference produced it.
	// Comparing against both the last self-write and the history front
	// keeps transient partial renderings (formats populating one by one)
	// from becoming spurious history entries.
	switch {
	case prevSim == snapshot.Same || currSim == snapshot.Same:
		// Content already represented.
	case prevSim == snapshot.Similar || currSim == snapshot.Similar:
		e.history.ReplaceFront(snap)
		e.pendingSelfWrite = nil
		slog.Debug("history front replaced", "formats", len(snap), "text", snap.Preview(40))
	default:
		e.history.PushFront(snap)
		e.pendingSelfWrite = nil
		slog.Debug("history entry added",
			"formats", len(snap),
			"depth", e.history.Len(),
			"text", snap.Preview(40),
		)
	}
}

// handleHotkey runs one cycle: synthesize the paste sequence, then move the
// front history entry into pendingSelfWrite and restore the next entry to
// the clipboard. The returned error is non-nil only for the fatal
// stuck-key case.
func (e *Engine) handleHotkey(id int) error {
	if id != HotkeyID {
		return nil
	}

	// Physical state before we start, so the sequence can put every key
	// back where it was. A failed query counts as pressed; re-pressing a
	// key the user holds is harmless, releasing one they hold is not.
	ctrlDown := e.keyDown(input.VKControl)
	pasteDown := e.keyDown(input.VKPaste)
	shiftDown := e.keyDown(input.VKShift)

	keys, flags := input.PasteSequence(ctrlDown, pasteDown, shiftDown)
	if err := e.synth.Inject(keys, flags); err != nil {
		slog.Warn("paste injection failed, forcing key release", "err", err)
		return e.forceRelease()
	}

	// Let the target application consume the paste before swapping the
	// clipboard out from under it.
	e.sleep(PasteDelay)

	popped, ok := e.history.PopFront()
	if !ok {
		// Empty history: the cycle is a no-op.
		e.pendingSelfWrite = nil
		slog.Debug("hotkey with empty history, nothing to cycle")
		return nil
	}
	e.pendingSelfWrite = popped

	front, ok := e.history.Front()
	if !ok {
		slog.Debug("history exhausted by cycling")
		return nil
	}
	e.suppressNext = true
	if err := clip.Restore(e.board, clip.DefaultAttempts, front); err != nil {
		// Best effort: the user can re-press the hotkey.
		slog.Debug("clipboard write-back skipped", "err", err)
	}
	slog.Debug("cycled", "depth", e.history.Len(), "text", front.Preview(40))
	return nil
}

// forceRelease sends the three-event key-up sequence until it succeeds or
// the retry budget runs out. Exhaustion leaves modifier keys logically
// stuck, so the error terminates the engine.
func (e *Engine) forceRelease() error {
	keys, flags := input.ReleaseSequence()
	retries := 0
	for {
		err := e.synth.Inject(keys, flags)
		if err == nil {
			return nil
		}
		if retries >= MaxReleaseRetries {
			return fmt.Errorf("could not release keys after %d attempts: %w", MaxReleaseRetries, err)
		}
		retries++
		e.sleep(ReleaseBackoff)
	}
}

// keyDown reports whether k is physically pressed, treating a failed query
// as pressed.
func (e *Engine) keyDown(k input.VirtualKey) bool {
	pressed, err := e.keys.IsPressed(k)
	if err != nil {
		return true
	}
	return pressed
}
