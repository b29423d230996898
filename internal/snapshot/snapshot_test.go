package snapshot

import (
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func item(f Format, data string) Item {
	return Item{Format: f, Data: []byte(data)}
}

func TestClassifyEmpty(t *testing.T) {
	nonempty := Snapshot{item("text/plain", "hello")}

	for _, threshold := range []uint8{0, 1, 230, 255} {
		assert.Equal(t, Same, Classify(nil, nil, threshold))
		assert.Equal(t, Same, Classify(Snapshot{}, Snapshot{}, threshold))
		assert.Equal(t, Different, Classify(nil, nonempty, threshold))
		assert.Equal(t, Different, Classify(nonempty, nil, threshold))
	}
}

func TestClassifyIdentical(t *testing.T) {
	snaps := []Snapshot{
		{item("text/plain", "hello")},
		{item("text/plain", "hello"), item("cf/49443", "rich")},
		{item("image/png", string([]byte{0x89, 'P', 'N', 'G'}))},
	}
	for _, s := range snaps {
		for _, threshold := range []uint8{0, 230, 255} {
			assert.Equal(t, Same, Classify(s, s, threshold))
		}
	}
}

func TestClassifyThresholdBoundary(t *testing.T) {
	// 9 of 10 formats match: ratio 9*255 = 2295 against 10*threshold.
	var a, b Snapshot
	for i := 0; i < 10; i++ {
		it := item(Format(fmt.Sprintf("cf/%d", i)), "shared")
		a = append(a, it)
		b = append(b, it)
	}
	b[9].Data = []byte("diverged")

	// 2295 >= 2290 → Similar.
	assert.Equal(t, Similar, Classify(a, b, 229))
	// 2295 < 2300 → Different one step up.
	assert.Equal(t, Different, Classify(a, b, 230))
}

func TestClassifySameNeedsEveryFormatOnTheLargerSide(t *testing.T) {
	full := Snapshot{
		item("text/plain", "hello"),
		item("cf/49443", "rich"),
	}
	partial := Snapshot{item("text/plain", "hello")}

	// One of two matched: 255 >= 2*threshold only for low thresholds.
	assert.Equal(t, Similar, Classify(partial, full, 100))
	assert.Equal(t, Different, Classify(partial, full, 230))
}

func TestClassifyAsymmetry(t *testing.T) {
	// a carries a duplicate-format pair; the count is driven by a's items,
	// so the verdict differs by argument order.
	dup := Snapshot{
		item("text/plain", "hello"),
		item("text/plain", "hello"),
	}
	single := Snapshot{item("text/plain", "hello")}

	assert.Equal(t, Same, Classify(dup, single, 230))
	assert.Equal(t, Similar, Classify(single, dup, 100))
}

func TestClassifyDisjointFormats(t *testing.T) {
	a := Snapshot{item("text/plain", "hello")}
	b := Snapshot{item("image/png", "hello")}

	// Zero matches still satisfy 0*255 >= upper*0, so a zero threshold
	// merges everything that isn't an empty-vs-nonempty pair.
	assert.Equal(t, Similar, Classify(a, b, 0))
	assert.Equal(t, Different, Classify(a, b, 1))
	assert.Equal(t, Different, Classify(a, b, DefaultThreshold))
}

func TestPreview(t *testing.T) {
	short := Snapshot{item("text/plain", "hello")}
	assert.Equal(t, "hello", short.Preview(40))

	long := Snapshot{item("text/plain", "abcdefghij")}
	assert.Equal(t, "abcde…", long.Preview(5))

	// "é" is two bytes; a cut at byte 5 would land mid-rune, so the
	// truncation backs off to the previous boundary.
	accents := Snapshot{item("text/plain", "ééééé")}
	got := accents.Preview(5)
	assert.Equal(t, "éé…", got)
	assert.True(t, utf8.ValidString(got))
}

func TestText(t *testing.T) {
	assert.Equal(t, "", Snapshot(nil).Text())
	assert.Equal(t, "hello", Snapshot{item("text/plain", "hello")}.Text())
	// Native CF_TEXT payloads are NUL-terminated.
	assert.Equal(t, "hi", Snapshot{item("cf/1", "hi\x00")}.Text())
	assert.Equal(t, "", Snapshot{item("image/png", "bytes")}.Text())
}
