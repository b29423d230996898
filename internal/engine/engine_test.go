package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/reclip/internal/clip"
	"go.klb.dev/reclip/internal/input"
	"go.klb.dev/reclip/internal/snapshot"
)

// fakeBoard is an in-memory clip.Board whose content and failure modes the
// tests control directly.
type fakeBoard struct {
	content  snapshot.Snapshot
	busy     bool
	writeErr error
	writes   []snapshot.Snapshot
}

func (b *fakeBoard) Name() string { return "fake" }

func (b *fakeBoard) Acquire(int) (clip.Handle, error) {
	if b.busy {
		return nil, clip.ErrBusy
	}
	return &fakeHandle{b: b}, nil
}

type fakeHandle struct{ b *fakeBoard }

func (h *fakeHandle) Formats() []snapshot.Format {
	var fs []snapshot.Format
	for _, it := range h.b.content {
		fs = append(fs, it.Format)
	}
	return fs
}

func (h *fakeHandle) Read(f snapshot.Format) []byte {
	if it, ok := h.b.content.Find(f); ok {
		return it.Data
	}
	return nil
}

func (h *fakeHandle) Write(s snapshot.Snapshot) error {
	if h.b.writeErr != nil {
		return h.b.writeErr
	}
	h.b.content = s
	h.b.writes = append(h.b.writes, s)
	return nil
}

func (h *fakeHandle) Release() {}

// fakeSynth records injections and fails according to a scripted error list.
type fakeSynth struct {
	keys  [][]input.VirtualKey
	flags [][]input.Flag
	errs  []error // consumed per call; nil beyond the end
}

func (s *fakeSynth) Inject(keys []input.VirtualKey, flags []input.Flag) error {
	s.keys = append(s.keys, keys)
	s.flags = append(s.flags, flags)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	return nil
}

type fakeKeys map[input.VirtualKey]bool

func (k fakeKeys) IsPressed(v input.VirtualKey) (bool, error) { return k[v], nil }

func text(s string) snapshot.Snapshot {
	return snapshot.Snapshot{{Format: "text/plain", Data: []byte(s)}}
}

type fixture struct {
	eng    *Engine
	board  *fakeBoard
	synth  *fakeSynth
	keys   fakeKeys
	sleeps []time.Duration
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		board: &fakeBoard{},
		synth: &fakeSynth{},
		keys:  fakeKeys{},
	}
	f.eng = New(cfg, f.board, f.synth, f.keys)
	f.eng.sleep = func(d time.Duration) { f.sleeps = append(f.sleeps, d) }
	return f
}

// copyText puts a text snapshot on the fake clipboard and delivers the
// change notification.
func (f *fixture) copyText(s string) {
	f.board.content = text(s)
	f.eng.handleClipboardChange()
}

func defaultConfig() Config {
	return Config{MaxHistory: 10, Threshold: snapshot.DefaultThreshold}
}

func TestDistinctCopiesStackUp(t *testing.T) {
	f := newFixture(t, defaultConfig())

	f.copyText("a")
	f.copyText("b")
	f.copyText("c")

	assert.Equal(t, []snapshot.Snapshot{text("c"), text("b"), text("a")}, f.eng.history.Entries())
}

func TestIdenticalCopyIsNotRecordedTwice(t *testing.T) {
	f := newFixture(t, defaultConfig())

	f.copyText("hello")
	f.copyText("hello")

	assert.Equal(t, 1, f.eng.history.Len())
}

func TestCapacityEvictsOldest(t *testing.T) {
	f := newFixture(t, Config{MaxHistory: 2, Threshold: snapshot.DefaultThreshold})

	f.copyText("a")
	f.copyText("b")
	f.copyText("c")

	assert.Equal(t, []snapshot.Snapshot{text("c"), text("b")}, f.eng.history.Entries())
}

func TestPartialRenderingReplacesFront(t *testing.T) {
	f := newFixture(t, Config{MaxHistory: 10, Threshold: 100})

	full := snapshot.Snapshot{
		{Format: "text/plain", Data: []byte("report")},
		{Format: "cf/49443", Data: []byte("{\\rtf report}")},
	}
	f.board.content = full
	f.eng.handleClipboardChange()
	require.Equal(t, 1, f.eng.history.Len())

	// The second notification carries only the text format: one of two
	// matches, 255 >= 2*100, so it merges instead of stacking.
	f.board.content = full[:1]
	f.eng.handleClipboardChange()

	assert.Equal(t, 1, f.eng.history.Len())
	front, _ := f.eng.history.Front()
	assert.Equal(t, full[:1], front)
}

func TestEmptyClipboardIsNeverRecorded(t *testing.T) {
	f := newFixture(t, defaultConfig())

	f.board.content = nil
	f.eng.handleClipboardChange()

	assert.Equal(t, 0, f.eng.history.Len())
}

func TestBusyClipboardSkipsTheEvent(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.copyText("a")

	f.board.busy = true
	f.board.content = text("b")
	f.eng.handleClipboardChange()

	assert.Equal(t, 1, f.eng.history.Len())
	assert.False(t, f.eng.suppressNext)
}

func TestCycleMovesClipboardBackward(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.copyText("C")
	f.copyText("B")
	f.copyText("A") // history: A B C, clipboard holds A

	require.NoError(t, f.eng.handleHotkey(HotkeyID))

	// One synthetic six-event paste, then the 25ms settle sleep.
	require.Len(t, f.synth.keys, 1)
	assert.Len(t, f.synth.keys[0], 6)
	assert.Equal(t, []time.Duration{PasteDelay}, f.sleeps)

	// A moved into pendingSelfWrite, B restored to the clipboard with
	// suppression armed for the notification that write produces.
	assert.Equal(t, text("A"), f.eng.pendingSelfWrite)
	assert.Equal(t, text("B"), f.board.content)
	assert.True(t, f.eng.suppressNext)
	assert.Equal(t, []snapshot.Snapshot{text("B"), text("C")}, f.eng.history.Entries())

	// The write-back notification arrives and is consumed silently.
	f.eng.handleClipboardChange()
	assert.False(t, f.eng.suppressNext)
	assert.Equal(t, []snapshot.Snapshot{text("B"), text("C")}, f.eng.history.Entries())
}

func TestRepeatedCyclesWalkTheWholeHistory(t *testing.T) {
	f := newFixture(t, defaultConfig())
	for _, s := range []string{"e", "d", "c", "b", "a"} {
		f.copyText(s)
	}

	// Five entries: pressing k times leaves the (k+1)-th most recent on
	// the clipboard.
	for _, expect := range []string{"b", "c", "d", "e"} {
		require.NoError(t, f.eng.handleHotkey(HotkeyID))
		assert.Equal(t, text(expect), f.board.content)
		f.eng.handleClipboardChange() // consume the self-write notification
	}

	// Last press: pops "e", nothing left to restore.
	require.NoError(t, f.eng.handleHotkey(HotkeyID))
	assert.Equal(t, 0, f.eng.history.Len())
	assert.Equal(t, text("e"), f.eng.pendingSelfWrite)
	assert.False(t, f.eng.suppressNext)
}

func TestCycleWithEmptyHistoryIsANoop(t *testing.T) {
	f := newFixture(t, defaultConfig())

	require.NoError(t, f.eng.handleHotkey(HotkeyID))

	assert.Nil(t, f.eng.pendingSelfWrite)
	assert.False(t, f.eng.suppressNext)
	assert.Empty(t, f.board.writes)
	assert.Equal(t, 0, f.eng.history.Len())
}

func TestCycleIgnoresForeignHotkeyIDs(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.copyText("a")

	require.NoError(t, f.eng.handleHotkey(HotkeyID+1))

	assert.Empty(t, f.synth.keys)
	assert.Equal(t, 1, f.eng.history.Len())
}

func TestCycleSurvivesWriteBackFailure(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.copyText("b")
	f.copyText("a")

	f.board.writeErr = errors.New("denied")
	require.NoError(t, f.eng.handleHotkey(HotkeyID))

	// Suppression is still armed and the entry still popped; the user
	// recovers by pressing the hotkey again.
	assert.True(t, f.eng.suppressNext)
	assert.Equal(t, text("a"), f.eng.pendingSelfWrite)
	assert.Equal(t, 1, f.eng.history.Len())
}

func TestCycleRestoresHeldModifiers(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.copyText("b")
	f.copyText("a")

	// The user is still holding the whole hotkey chord.
	f.keys[input.VKControl] = true
	f.keys[input.VKShift] = true
	f.keys[input.VKPaste] = true

	require.NoError(t, f.eng.handleHotkey(HotkeyID))

	require.Len(t, f.synth.flags, 1)
	up := input.FlagKeyUp
	down := input.Flag(0)
	assert.Equal(t, []input.Flag{up, up, up, down, down, down}, f.synth.flags[0])
}

func TestInjectionFailureForcesKeyRelease(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.copyText("a")

	f.synth.errs = []error{errors.New("blocked")} // paste fails, release succeeds

	require.NoError(t, f.eng.handleHotkey(HotkeyID))

	// Second injection is the three-event force release; no entry was
	// consumed and nothing was written back.
	require.Len(t, f.synth.keys, 2)
	relKeys, relFlags := input.ReleaseSequence()
	assert.Equal(t, relKeys, f.synth.keys[1])
	assert.Equal(t, relFlags, f.synth.flags[1])
	assert.Equal(t, 1, f.eng.history.Len())
	assert.Nil(t, f.eng.pendingSelfWrite)
	assert.False(t, f.eng.suppressNext)
}

func TestExhaustedReleaseRetriesAreFatal(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.copyText("a")

	blocked := errors.New("blocked")
	for i := 0; i < 2+MaxReleaseRetries; i++ {
		f.synth.errs = append(f.synth.errs, blocked)
	}

	err := f.eng.handleHotkey(HotkeyID)

	require.Error(t, err)
	assert.ErrorIs(t, err, blocked)
	assert.Contains(t, err.Error(), "10 attempts")
	// Paste attempt + initial release + MaxReleaseRetries retries.
	assert.Len(t, f.synth.keys, 2+MaxReleaseRetries)
}

func TestSelfWriteSimilarityMergesInsteadOfStacking(t *testing.T) {
	f := newFixture(t, Config{MaxHistory: 10, Threshold: 100})
	full := snapshot.Snapshot{
		{Format: "text/plain", Data: []byte("A")},
		{Format: "cf/49443", Data: []byte("{\\rtf A}")},
	}
	f.board.content = full
	f.eng.handleClipboardChange()
	f.copyText("B") // history: B, A(full)

	require.NoError(t, f.eng.handleHotkey(HotkeyID)) // pending=B, front=A(full)
	f.eng.handleClipboardChange()                    // consume self-write

	// A partial rendering of the restored entry arrives: Similar against
	// the front, so it replaces rather than stacks.
	f.board.content = full[:1]
	f.eng.handleClipboardChange()

	assert.Equal(t, 1, f.eng.history.Len())
	assert.Nil(t, f.eng.pendingSelfWrite)
}

func TestRunAnswersStatusRequests(t *testing.T) {
	f := newFixture(t, Config{MaxHistory: 7, Threshold: 200})

	events := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- f.eng.Run(events) }()

	events <- Event{Kind: KindClipboardChanged} // board empty, ignored

	reply := make(chan Reply, 1)
	events <- Event{Kind: KindStatus, Reply: reply}
	r := <-reply
	assert.Equal(t, "fake", r.Backend)
	assert.Equal(t, 0, r.Depth)
	assert.Equal(t, 7, r.Capacity)
	assert.Equal(t, uint8(200), r.Threshold)

	close(events)
	assert.NoError(t, <-done)
}

func TestRunAnswersHistoryAndClear(t *testing.T) {
	f := newFixture(t, defaultConfig())

	events := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- f.eng.Run(events) }()

	f.board.content = text("hello")
	events <- Event{Kind: KindClipboardChanged}

	reply := make(chan Reply, 1)
	events <- Event{Kind: KindHistory, Reply: reply}
	r := <-reply
	require.Len(t, r.Entries, 1)
	assert.Equal(t, text("hello"), r.Entries[0])

	events <- Event{Kind: KindClear, Reply: reply}
	<-reply
	events <- Event{Kind: KindStatus, Reply: reply}
	assert.Equal(t, 0, (<-reply).Depth)

	close(events)
	assert.NoError(t, <-done)
}

func TestRunStopsOnFatalInjectionFailure(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.board.content = text("a")

	blocked := errors.New("blocked")
	for i := 0; i < 2+MaxReleaseRetries; i++ {
		f.synth.errs = append(f.synth.errs, blocked)
	}

	events := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- f.eng.Run(events) }()

	events <- Event{Kind: KindClipboardChanged}
	events <- Event{Kind: KindHotkey, HotkeyID: HotkeyID}

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, blocked)
}
