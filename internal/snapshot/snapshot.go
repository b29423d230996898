// Package snapshot defines the clipboard snapshot model and the three-way
// content classifier that decides whether a freshly captured clipboard state
// is the same as, a partial redraw of, or genuinely different from a
// reference state.
package snapshot

import (
	"bytes"
	"unicode/utf8"
)

// Format identifies one clipboard data representation. The value is opaque
// to the engine; backends choose their own scheme ("text/plain" on the
// portable backend, "cf/<n>" for native Windows format ids). Equality is
// exact string equality.
type Format string

// Item is a single representation of the clipboard's content.
type Item struct {
	Format Format
	Data   []byte
}

// Equal reports whether two items carry the same format and identical bytes.
func (it Item) Equal(other Item) bool {
	return it.Format == other.Format && bytes.Equal(it.Data, other.Data)
}

// Snapshot is the full set of per-format payloads captured from the
// clipboard at one point in time, one item per format. An empty (nil)
// snapshot is a valid state meaning the clipboard held nothing readable.
type Snapshot []Item

// Find returns the item with the given format, if present.
func (s Snapshot) Find(f Format) (Item, bool) {
	for _, it := range s {
		if it.Format == f {
			return it, true
		}
	}
	return Item{}, false
}

// Verdict is the result of comparing two snapshots.
type Verdict int

const (
	// Same: the snapshots represent identical content.
	Same Verdict = iota
	// Similar: enough formats match that the snapshots are considered two
	// renderings of the same content (e.g. a partially repopulated
	// clipboard where some formats arrived late).
	Similar
	// Different: genuinely distinct content.
	Different
)

func (v Verdict) String() string {
	switch v {
	case Same:
		return "same"
	case Similar:
		return "similar"
	default:
		return "different"
	}
}

// DefaultThreshold is the similarity ratio (out of 255) above which two
// non-identical snapshots merge as Similar. Higher is stricter.
const DefaultThreshold uint8 = 230

// Classify compares snapshot a against reference b.
//
// Both empty is Same; exactly one empty is Different. Otherwise the match
// count is the number of items in a whose format appears in b with
// byte-identical content, and with upper = max(len(a), len(b)):
//
//	count == upper                  → Same
//	count*255 >= upper*threshold    → Similar
//	otherwise                       → Different
//
// The comparison is intentionally not symmetric: the count is always driven
// by a's item set. Callers pass the newly captured snapshot as a.
func Classify(a, b Snapshot, threshold uint8) Verdict {
	switch {
	case len(a) == 0 && len(b) == 0:
		return Same
	case len(a) == 0 || len(b) == 0:
		return Different
	}

	count := 0
	for _, it := range a {
		ref, ok := b.Find(it.Format)
		if ok && it.Equal(ref) {
			count++
		}
	}

	upper := len(a)
	if len(b) > upper {
		upper = len(b)
	}

	switch {
	case count == upper:
		return Same
	case count*255 >= upper*int(threshold):
		return Similar
	default:
		return Different
	}
}

// textFormats are the formats Text recognizes as plain text, in preference
// order. "cf/1" is the native Windows CF_TEXT id, "cf/13" CF_UNICODETEXT.
var textFormats = []Format{"text/plain", "cf/1", "cf/13"}

// Text returns the snapshot's plain-text payload for display purposes, or ""
// when no text format is present. Used for logging and the history listing.
func (s Snapshot) Text() string {
	for _, f := range textFormats {
		if it, ok := s.Find(f); ok {
			return string(bytes.TrimRight(it.Data, "\x00"))
		}
	}
	return ""
}

// Preview returns the text payload shortened to at most max bytes plus an
// ellipsis. The cut lands on a rune boundary so the result stays valid
// UTF-8.
func (s Snapshot) Preview(max int) string {
	t := s.Text()
	if len(t) <= max {
		return t
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(t[cut]) {
		cut--
	}
	return t[:cut] + "…"
}
