package main

import (
	"fmt"

	"go.klb.dev/reclip/internal/ipc"
	"go.klb.dev/reclip/internal/message"
	"go.klb.dev/reclip/internal/wire"
)

// request sends one message to the running daemon over the IPC socket and
// returns its reply.
func request(req *message.Message) (*message.Message, error) {
	if !ipc.IsRunning() {
		return nil, fmt.Errorf("no reclip daemon listening on %s (is \"reclip run\" running?)", ipc.SocketPath())
	}
	conn, err := ipc.Dial()
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", ipc.SocketPath(), err)
	}
	defer conn.Close()

	wc := wire.New(conn)
	if err := wc.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	if resp.Type == message.TypeError {
		return nil, fmt.Errorf("daemon: %s", resp.Error)
	}
	return resp, nil
}
