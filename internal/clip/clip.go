// Package clip provides scoped, retry-bounded access to the system
// clipboard. Build constraints select the implementation:
//
//	clip_windows.go  — native Win32 clipboard with full format enumeration
//	clip_portable.go — golang.design/x/clipboard (text + image), non-Windows
//
// The clipboard is a process-external exclusive resource: another process
// may hold it open when we want it. Acquire retries a bounded number of
// times, and the returned Handle must be released on every exit path:
//
//	h, err := board.Acquire(clip.DefaultAttempts)
//	if err != nil { return }   // busy clipboard: skip this event
//	defer h.Release()
package clip

import (
	"errors"

	"go.klb.dev/reclip/internal/snapshot"
)

// DefaultAttempts is the acquisition retry budget used by the engine.
const DefaultAttempts = 10

// ErrBusy is returned when the clipboard could not be acquired within the
// attempt budget.
var ErrBusy = errors.New("clipboard busy")

// Board is the system clipboard as an acquirable resource.
type Board interface {
	// Name returns a human-readable backend name.
	Name() string

	// Acquire opens the clipboard, retrying up to maxAttempts times with a
	// short backoff. Returns ErrBusy (possibly wrapped) on exhaustion.
	Acquire(maxAttempts int) (Handle, error)
}

// Handle is an open clipboard. It must be released exactly once.
type Handle interface {
	// Formats enumerates the formats currently on the clipboard.
	Formats() []snapshot.Format

	// Read returns the payload for one format, or nil when the format is
	// absent or unreadable.
	Read(f snapshot.Format) []byte

	// Write replaces the clipboard contents with the snapshot's items.
	Write(s snapshot.Snapshot) error

	// Release closes the clipboard.
	Release()
}

// Capture reads every available format into one snapshot under a single
// acquisition. A busy clipboard returns an error; an acquirable but empty
// clipboard returns an empty snapshot and no error.
func Capture(b Board, maxAttempts int) (snapshot.Snapshot, error) {
	h, err := b.Acquire(maxAttempts)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	var snap snapshot.Snapshot
	for _, f := range h.Formats() {
		if data := h.Read(f); len(data) > 0 {
			snap = append(snap, snapshot.Item{Format: f, Data: data})
		}
	}
	return snap, nil
}

// Restore writes snap to the clipboard under a single acquisition.
func Restore(b Board, maxAttempts int, snap snapshot.Snapshot) error {
	h, err := b.Acquire(maxAttempts)
	if err != nil {
		return err
	}
	defer h.Release()
	return h.Write(snap)
}
