package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/reclip/internal/message"
)

func TestRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	ca, cb := New(a), New(b)

	go func() {
		_ = ca.WriteMsg(&message.Message{
			Type:    message.TypeHistoryResponse,
			Depth:   2,
			Entries: []message.Entry{{Formats: []string{"text/plain"}, Bytes: 5, Preview: "hello"}},
		})
	}()

	got, err := cb.ReadMsg()
	require.NoError(t, err)
	assert.Equal(t, message.TypeHistoryResponse, got.Type)
	assert.Equal(t, 2, got.Depth)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "hello", got.Entries[0].Preview)
}

func TestReadRejectsGarbage(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	go func() {
		_, _ = a.Write([]byte("not json\n"))
	}()

	_, err := New(b).ReadMsg()
	assert.Error(t, err)
}
