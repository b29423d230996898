//go:build windows

package events

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"go.klb.dev/reclip/internal/clip"
	"go.klb.dev/reclip/internal/engine"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterClassExW              = user32.NewProc("RegisterClassExW")
	procCreateWindowExW               = user32.NewProc("CreateWindowExW")
	procDestroyWindow                 = user32.NewProc("DestroyWindow")
	procDefWindowProcW                = user32.NewProc("DefWindowProcW")
	procGetMessageW                   = user32.NewProc("GetMessageW")
	procDispatchMessageW              = user32.NewProc("DispatchMessageW")
	procPostMessageW                  = user32.NewProc("PostMessageW")
	procAddClipboardFormatListener    = user32.NewProc("AddClipboardFormatListener")
	procRemoveClipboardFormatListener = user32.NewProc("RemoveClipboardFormatListener")
	procRegisterHotKey                = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey              = user32.NewProc("UnregisterHotKey")
)

const (
	wmHotkey          = 0x0312
	wmClipboardUpdate = 0x031D
	wmApp             = 0x8000
	wmStop            = wmApp + 1

	modControl = 0x0002
	modShift   = 0x0004

	pasteKey = 'V'
)

// hwndMessage is the HWND_MESSAGE parent for message-only windows.
var hwndMessage = ^uintptr(2) // (HWND)-3

type point struct{ x, y int32 }

type message struct {
	hwnd    uintptr
	message uint32
	wparam  uintptr
	lparam  uintptr
	time    uint32
	pt      point
}

type wndClassEx struct {
	size       uint32
	style      uint32
	wndProc    uintptr
	clsExtra   int32
	wndExtra   int32
	instance   uintptr
	icon       uintptr
	cursor     uintptr
	background uintptr
	menuName   *uint16
	className  *uint16
	iconSm     uintptr
}

type windowsSource struct {
	hwnd      uintptr
	ch        chan engine.Event
	done      chan struct{}
	closeOnce sync.Once
}

// newSource creates a message-only window with a clipboard-format listener
// and the Ctrl+Shift+V hotkey registered, and pumps its message queue on a
// dedicated locked OS thread. Registrations are released unconditionally
// when the pump exits.
func newSource(_ clip.Board) (Source, error) {
	s := &windowsSource{
		ch:   make(chan engine.Event),
		done: make(chan struct{}),
	}

	setup := make(chan error, 1)
	go s.pump(setup)
	if err := <-setup; err != nil {
		return nil, err
	}
	return s, nil
}

func (s *windowsSource) Events() <-chan engine.Event { return s.ch }

// Close asks the pump to shut down. The event channel closes once the pump
// has released its registrations. The done channel unblocks a pump stuck
// mid-send when the consumer stopped reading before Close.
func (s *windowsSource) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	procPostMessageW.Call(s.hwnd, wmStop, 0, 0)
}

// emit delivers an event unless the source has been closed. Returns false
// when the pump should stop.
func (s *windowsSource) emit(ev engine.Event) bool {
	select {
	case s.ch <- ev:
		return true
	case <-s.done:
		return false
	}
}

// pump owns the window for its entire lifetime: Win32 ties the message
// queue, the hotkey, and the clipboard listener to the creating thread.
func (s *windowsSource) pump(setup chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.ch)

	hwnd, cleanup, err := createListenerWindow()
	if err != nil {
		setup <- err
		return
	}
	s.hwnd = hwnd
	setup <- nil
	defer cleanup()

	slog.Debug("message pump running", "hwnd", fmt.Sprintf("%#x", hwnd))

	var m message
	for {
		ret, _, _ := procGetMessageW.Call(
			uintptr(unsafe.Pointer(&m)), hwnd, 0, 0,
		)
		// 0 is WM_QUIT, ^0 an error (e.g. the window is gone).
		if ret == 0 || int(ret) == -1 {
			return
		}
		switch m.message {
		case wmClipboardUpdate:
			if !s.emit(engine.Event{Kind: engine.KindClipboardChanged}) {
				return
			}
		case wmHotkey:
			if !s.emit(engine.Event{Kind: engine.KindHotkey, HotkeyID: int(m.wparam)}) {
				return
			}
		case wmStop:
			return
		default:
			procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
		}
	}
}

// createListenerWindow registers the window class, creates the message-only
// window, and attaches the clipboard listener and hotkey. The returned
// cleanup releases all three in reverse order.
func createListenerWindow() (uintptr, func(), error) {
	className, err := windows.UTF16PtrFromString("reclip_class")
	if err != nil {
		return 0, nil, err
	}
	windowName, err := windows.UTF16PtrFromString("reclip")
	if err != nil {
		return 0, nil, err
	}

	wc := wndClassEx{
		wndProc:   procDefWindowProcW.Addr(),
		className: className,
	}
	wc.size = uint32(unsafe.Sizeof(wc))
	if atom, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 {
		return 0, nil, fmt.Errorf("register window class: %v", err)
	}

	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(windowName)),
		0, 0, 0, 0, 0,
		hwndMessage,
		0, 0, 0,
	)
	if hwnd == 0 {
		return 0, nil, fmt.Errorf("create message window: %v", err)
	}

	if ok, _, err := procAddClipboardFormatListener.Call(hwnd); ok == 0 {
		procDestroyWindow.Call(hwnd)
		return 0, nil, fmt.Errorf("add clipboard listener: %v", err)
	}

	if ok, _, err := procRegisterHotKey.Call(
		hwnd, engine.HotkeyID, modControl|modShift, pasteKey,
	); ok == 0 {
		procRemoveClipboardFormatListener.Call(hwnd)
		procDestroyWindow.Call(hwnd)
		return 0, nil, fmt.Errorf("register hotkey: %v", err)
	}

	cleanup := func() {
		procUnregisterHotKey.Call(hwnd, engine.HotkeyID)
		procRemoveClipboardFormatListener.Call(hwnd)
		procDestroyWindow.Call(hwnd)
	}
	return hwnd, cleanup, nil
}
