//go:build !windows

package input

// New returns the stub synthesizer and state reader. Global paste injection
// has no portable equivalent, so cycling is unavailable off Windows; the
// daemon still records history.
func New() (Synthesizer, StateReader) {
	return stubSynth{}, stubKeyState{}
}

type stubSynth struct{}

func (stubSynth) Inject(keys []VirtualKey, flags []Flag) error {
	if err := checkLengths(keys, flags); err != nil {
		return err
	}
	return ErrUnsupported
}

type stubKeyState struct{}

func (stubKeyState) IsPressed(VirtualKey) (bool, error) {
	return false, ErrUnsupported
}
