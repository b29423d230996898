//go:build windows

package clip

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"go.klb.dev/reclip/internal/snapshot"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard        = user32.NewProc("OpenClipboard")
	procCloseClipboard       = user32.NewProc("CloseClipboard")
	procEmptyClipboard       = user32.NewProc("EmptyClipboard")
	procEnumClipboardFormats = user32.NewProc("EnumClipboardFormats")
	procGetClipboardData     = user32.NewProc("GetClipboardData")
	procSetClipboardData     = user32.NewProc("SetClipboardData")

	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalFree   = kernel32.NewProc("GlobalFree")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
	procGlobalSize   = kernel32.NewProc("GlobalSize")
)

const (
	gmemMoveable = 0x0002

	// acquireBackoff separates OpenClipboard attempts while another
	// process holds the clipboard open.
	acquireBackoff = 5 * time.Millisecond
)

// formatPrefix tags native clipboard format ids in their opaque string form.
const formatPrefix = "cf/"

func formatID(cf uint32) snapshot.Format {
	return snapshot.Format(formatPrefix + strconv.FormatUint(uint64(cf), 10))
}

func nativeFormat(f snapshot.Format) (uint32, bool) {
	s, ok := strings.CutPrefix(string(f), formatPrefix)
	if !ok {
		return 0, false
	}
	cf, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(cf), true
}

// New returns the native Windows clipboard backend. All formats present on
// the clipboard are enumerated and carried as raw bytes, so history entries
// round-trip rich content (text, RTF, HTML, bitmaps) unchanged.
func New() Board { return windowsBoard{} }

type windowsBoard struct{}

func (windowsBoard) Name() string { return "Windows clipboard" }

// Acquire opens the clipboard, retrying while another process holds it.
func (windowsBoard) Acquire(maxAttempts int) (Handle, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(acquireBackoff)
		}
		ok, _, err := procOpenClipboard.Call(0)
		if ok != 0 {
			return windowsHandle{}, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrBusy, maxAttempts, lastErr)
}

type windowsHandle struct{}

func (windowsHandle) Formats() []snapshot.Format {
	var fs []snapshot.Format
	cf := uint32(0)
	for {
		next, _, _ := procEnumClipboardFormats.Call(uintptr(cf))
		if next == 0 {
			return fs
		}
		cf = uint32(next)
		fs = append(fs, formatID(cf))
	}
}

func (windowsHandle) Read(f snapshot.Format) []byte {
	cf, ok := nativeFormat(f)
	if !ok {
		return nil
	}
	h, _, _ := procGetClipboardData.Call(uintptr(cf))
	if h == 0 {
		return nil
	}
	size, _, _ := procGlobalSize.Call(h)
	if size == 0 {
		return nil
	}
	p, _, _ := procGlobalLock.Call(h)
	if p == 0 {
		return nil
	}
	defer procGlobalUnlock.Call(h)

	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(p)), size))
	return data
}

func (windowsHandle) Write(s snapshot.Snapshot) error {
	if ok, _, err := procEmptyClipboard.Call(); ok == 0 {
		return fmt.Errorf("empty clipboard: %v", err)
	}
	for _, it := range s {
		cf, ok := nativeFormat(it.Format)
		if !ok {
			return fmt.Errorf("unsupported format: %s", it.Format)
		}
		if err := setData(cf, it.Data); err != nil {
			return err
		}
	}
	return nil
}

func (windowsHandle) Release() {
	procCloseClipboard.Call()
}

// setData copies payload into a movable global allocation and hands it to
// the clipboard, which takes ownership on success.
func setData(cf uint32, payload []byte) error {
	h, _, err := procGlobalAlloc.Call(gmemMoveable, uintptr(len(payload)))
	if h == 0 {
		return fmt.Errorf("alloc %d bytes: %v", len(payload), err)
	}
	p, _, err := procGlobalLock.Call(h)
	if p == 0 {
		procGlobalFree.Call(h)
		return fmt.Errorf("lock allocation: %v", err)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), len(payload)), payload)
	procGlobalUnlock.Call(h)

	if ok, _, err := procSetClipboardData.Call(uintptr(cf), h); ok == 0 {
		procGlobalFree.Call(h)
		return fmt.Errorf("set format %d: %v", cf, err)
	}
	return nil
}
