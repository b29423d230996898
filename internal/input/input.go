// Package input models synthetic keyboard events and the physical key-state
// query the cycling protocol needs. The Windows implementation lives in
// input_windows.go (SendInput / GetAsyncKeyState); other platforms get the
// Unsupported stub since global paste injection is Windows-only.
package input

import (
	"errors"
	"fmt"
)

// VirtualKey is an OS virtual-key code.
type VirtualKey uint16

// Virtual-key codes used by the paste protocol (Win32 VK_* values; the
// letter key is its uppercase ASCII code).
const (
	VKShift   VirtualKey = 0x10
	VKControl VirtualKey = 0x11
	VKPaste   VirtualKey = 'V'
)

// Flag describes one synthetic key event. The zero value is key-down.
type Flag uint32

// FlagKeyUp marks a key-release event (Win32 KEYEVENTF_KEYUP).
const FlagKeyUp Flag = 0x0002

// ErrUnsupported is returned on platforms without input injection.
var ErrUnsupported = errors.New("input injection not supported on this platform")

// Synthesizer injects synthetic key events. The whole sequence is submitted
// as a unit: either the OS accepts all events or the call fails without any
// partial-success reporting.
type Synthesizer interface {
	Inject(keys []VirtualKey, flags []Flag) error
}

// StateReader reports whether a key is physically pressed right now.
type StateReader interface {
	IsPressed(k VirtualKey) (bool, error)
}

// restore returns the event flag that puts a key back in its original
// physical state: down if it was held, up if it was not.
func restore(wasDown bool) Flag {
	if wasDown {
		return 0
	}
	return FlagKeyUp
}

// toggle returns the event flag that flips a key away from its current
// state, so the following restore event registers as a fresh transition.
func toggle(wasDown bool) Flag {
	if wasDown {
		return FlagKeyUp
	}
	return 0
}

// PasteSequence builds the fixed six-event cycle sequence: release Shift,
// toggle Ctrl and the paste key so the restore events land as a clean
// just-pressed Ctrl+paste combination, then put Ctrl, the paste key, and
// Shift back in their prior physical states. This makes the synthetic paste
// register regardless of which hotkey modifiers the user is still holding.
func PasteSequence(ctrlWasDown, pasteWasDown, shiftWasDown bool) ([]VirtualKey, []Flag) {
	keys := []VirtualKey{VKShift, VKControl, VKPaste, VKControl, VKPaste, VKShift}
	flags := []Flag{
		FlagKeyUp,
		toggle(ctrlWasDown),
		toggle(pasteWasDown),
		restore(ctrlWasDown),
		restore(pasteWasDown),
		restore(shiftWasDown),
	}
	return keys, flags
}

// ReleaseSequence builds the three-event recovery sequence that forces
// Shift, Ctrl, and the paste key up. Used when the paste sequence failed and
// keys may be logically stuck down.
func ReleaseSequence() ([]VirtualKey, []Flag) {
	return []VirtualKey{VKShift, VKControl, VKPaste},
		[]Flag{FlagKeyUp, FlagKeyUp, FlagKeyUp}
}

// checkLengths guards the Synthesizer contract. Sequences are built
// internally with matching lengths; a mismatch is a programming defect.
func checkLengths(keys []VirtualKey, flags []Flag) error {
	if len(keys) != len(flags) {
		return fmt.Errorf("input: %d keys but %d flags", len(keys), len(flags))
	}
	return nil
}
