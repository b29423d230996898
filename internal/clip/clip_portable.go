//go:build !windows

package clip

import (
	"fmt"
	"log/slog"

	"golang.design/x/clipboard"

	"go.klb.dev/reclip/internal/snapshot"
)

// Formats exposed by the portable backend.
const (
	FormatText  snapshot.Format = "text/plain"
	FormatImage snapshot.Format = "image/png"
)

// New returns the portable clipboard backend, or a headless no-op backend
// when no display environment is available (containers, CI, bare servers).
func New() Board {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return headlessBoard{}
	}
	return portableBoard{}
}

// portableBoard wraps golang.design/x/clipboard, which serializes clipboard
// access internally, so acquisition always succeeds on the first attempt.
type portableBoard struct{}

func (portableBoard) Name() string { return "portable clipboard" }

func (portableBoard) Acquire(_ int) (Handle, error) { return portableHandle{}, nil }

type portableHandle struct{}

func (portableHandle) Formats() []snapshot.Format {
	var fs []snapshot.Format
	if len(clipboard.Read(clipboard.FmtText)) > 0 {
		fs = append(fs, FormatText)
	}
	if len(clipboard.Read(clipboard.FmtImage)) > 0 {
		fs = append(fs, FormatImage)
	}
	return fs
}

func (portableHandle) Read(f snapshot.Format) []byte {
	switch f {
	case FormatText:
		return clipboard.Read(clipboard.FmtText)
	case FormatImage:
		return clipboard.Read(clipboard.FmtImage)
	default:
		return nil
	}
}

func (portableHandle) Write(s snapshot.Snapshot) error {
	for _, it := range s {
		switch it.Format {
		case FormatText:
			clipboard.Write(clipboard.FmtText, it.Data)
		case FormatImage:
			clipboard.Write(clipboard.FmtImage, it.Data)
		default:
			return fmt.Errorf("unsupported format: %s", it.Format)
		}
	}
	return nil
}

func (portableHandle) Release() {}

// headlessBoard never produces content and silently discards writes.
type headlessBoard struct{}

func (headlessBoard) Name() string                  { return "headless (no-op)" }
func (headlessBoard) Acquire(_ int) (Handle, error) { return headlessHandle{}, nil }

type headlessHandle struct{}

func (headlessHandle) Formats() []snapshot.Format       { return nil }
func (headlessHandle) Read(snapshot.Format) []byte      { return nil }
func (headlessHandle) Write(snapshot.Snapshot) error    { return nil }
func (headlessHandle) Release()                         {}
