// Package events adapts OS notifications into engine events. Build
// constraints select the implementation:
//
//	events_windows.go — message-only window with a clipboard-format
//	                    listener and a registered Ctrl+Shift+V hotkey
//	events_other.go   — clipboard poller; no hotkey support
package events

import (
	"go.klb.dev/reclip/internal/clip"
	"go.klb.dev/reclip/internal/engine"
)

// Source delivers clipboard-changed and hotkey-pressed events.
type Source interface {
	// Events returns the event channel. It is closed when the source shuts
	// down, either via Close or an OS quit signal.
	Events() <-chan engine.Event

	// Close stops the source and releases its OS registrations.
	Close()
}

// New starts the platform event source.
func New(board clip.Board) (Source, error) {
	return newSource(board)
}
