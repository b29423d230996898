//go:build !windows

package events

import (
	"log/slog"
	"time"

	"go.klb.dev/reclip/internal/clip"
	"go.klb.dev/reclip/internal/engine"
	"go.klb.dev/reclip/internal/snapshot"
)

// pollInterval paces the clipboard poller on platforms without native
// change notification.
const pollInterval = 250 * time.Millisecond

type pollSource struct {
	board clip.Board
	ch    chan engine.Event
	done  chan struct{}
}

// newSource returns a poll-based source: it captures the clipboard on an
// interval and emits a ClipboardChanged event on content transitions. There
// is no global hotkey off Windows, so cycling is unavailable; history
// recording still works.
func newSource(board clip.Board) (Source, error) {
	slog.Info("no global hotkey on this platform, recording history only")
	s := &pollSource{
		board: board,
		ch:    make(chan engine.Event),
		done:  make(chan struct{}),
	}
	go s.poll()
	return s, nil
}

func (s *pollSource) Events() <-chan engine.Event { return s.ch }

func (s *pollSource) Close() { close(s.done) }

func (s *pollSource) poll() {
	defer close(s.ch)

	t := time.NewTicker(pollInterval)
	defer t.Stop()

	var last snapshot.Snapshot
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			snap, err := clip.Capture(s.board, 1)
			if err != nil {
				continue
			}
			if snapshot.Classify(snap, last, 255) == snapshot.Same {
				continue
			}
			last = snap
			select {
			case s.ch <- engine.Event{Kind: engine.KindClipboardChanged}:
			case <-s.done:
				return
			}
		}
	}
}
