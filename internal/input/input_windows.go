//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSendInput        = user32.NewProc("SendInput")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

const inputKeyboard = 1

// keybdInput mirrors KEYBDINPUT.
type keybdInput struct {
	vk        uint16
	scan      uint16
	flags     uint32
	time      uint32
	extraInfo uintptr
}

// keyEvent mirrors INPUT with the keyboard member of the union. The trailing
// pad brings the struct up to the union's full MOUSEINPUT size.
type keyEvent struct {
	kind uint32
	_    uint32
	ki   keybdInput
	_    [8]byte
}

// New returns the SendInput-backed synthesizer and the GetAsyncKeyState
// state reader.
func New() (Synthesizer, StateReader) {
	return winSynth{}, winKeyState{}
}

type winSynth struct{}

// Inject submits the whole sequence in one SendInput call. The OS accepts
// it as a unit or rejects it (e.g. a process with elevated input focus);
// there is no partial delivery to account for.
func (winSynth) Inject(keys []VirtualKey, flags []Flag) error {
	if err := checkLengths(keys, flags); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	events := make([]keyEvent, len(keys))
	for i, k := range keys {
		events[i] = keyEvent{
			kind: inputKeyboard,
			ki:   keybdInput{vk: uint16(k), flags: uint32(flags[i])},
		}
	}

	n, _, err := procSendInput.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		unsafe.Sizeof(events[0]),
	)
	if int(n) != len(events) {
		return fmt.Errorf("injection rejected (%d of %d events): %v", n, len(events), err)
	}
	return nil
}

type winKeyState struct{}

// IsPressed reports the physical press state of k.
func (winKeyState) IsPressed(k VirtualKey) (bool, error) {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(k))
	return state&0x8000 != 0, nil
}
