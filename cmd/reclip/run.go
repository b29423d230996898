package main

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/reclip/internal/clip"
	"go.klb.dev/reclip/internal/engine"
	"go.klb.dev/reclip/internal/events"
	"go.klb.dev/reclip/internal/input"
	"go.klb.dev/reclip/internal/ipc"
	"go.klb.dev/reclip/internal/message"
	"go.klb.dev/reclip/internal/snapshot"
	"go.klb.dev/reclip/internal/wire"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard-history daemon",
		Long: `Starts the reclip daemon: it records distinct clipboard contents into a
bounded in-memory history and cycles backwards through it on Ctrl+Shift+V.

Config file search order:
  /etc/reclip/reclip.toml
  $HOME/.config/reclip/reclip.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → RECLIP_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDaemon(v) },
	}

	f := cmd.Flags()
	f.Int("max-history", 10, "number of history entries to keep")
	f.Int("similarity-threshold", int(snapshot.DefaultThreshold),
		"merge ratio 0-255 for partial clipboard renderings (higher = stricter)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(v *viper.Viper) error {
	setupLogging(v)

	maxHistory := v.GetInt("max-history")
	threshold := v.GetInt("similarity-threshold")
	if maxHistory < 1 {
		return fmt.Errorf("max-history must be at least 1, got %d", maxHistory)
	}
	if threshold < 0 || threshold > 255 {
		return fmt.Errorf("similarity-threshold must be in 0..255, got %d", threshold)
	}

	slog.Info("reclip starting",
		"version", Version,
		"max_history", maxHistory,
		"threshold", threshold,
	)

	board := clip.New()
	synth, keys := input.New()
	eng := engine.New(engine.Config{
		MaxHistory: maxHistory,
		Threshold:  uint8(threshold),
	}, board, synth, keys)

	source, err := events.New(board)
	if err != nil {
		return fmt.Errorf("event source: %w", err)
	}
	defer source.Close()

	// requests carries IPC queries into the engine loop so that all state
	// access stays serialized.
	requests := make(chan engine.Event)

	ipcLn, err := ipc.Listen()
	if err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		defer ipcLn.Close()
		go serveIPC(ipcLn, requests)
	}

	// Merge OS events and IPC requests into the engine's single inbox. The
	// inbox closes when the OS source does, which ends the engine loop.
	inbox := make(chan engine.Event)
	go func() {
		defer close(inbox)
		for {
			select {
			case ev, ok := <-source.Events():
				if !ok {
					return
				}
				inbox <- ev
			case ev := <-requests:
				inbox <- ev
			}
		}
	}()

	if err := eng.Run(inbox); err != nil {
		slog.Error("engine stopped", "err", err)
		return err
	}
	slog.Info("event source closed, shutting down")
	return nil
}

func serveIPC(ln net.Listener, requests chan<- engine.Event) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handleIPCConn(conn, requests)
	}
}

// handleIPCConn answers one request per connection: the query is forwarded
// into the engine loop and the reply is rendered back as a wire message.
func handleIPCConn(conn net.Conn, requests chan<- engine.Event) {
	defer conn.Close()
	wc := wire.New(conn)

	msg, err := wc.ReadMsg()
	if err != nil {
		return
	}

	var kind engine.Kind
	switch msg.Type {
	case message.TypeStatus:
		kind = engine.KindStatus
	case message.TypeHistory:
		kind = engine.KindHistory
	case message.TypeClear:
		kind = engine.KindClear
	default:
		_ = wc.WriteMsg(&message.Message{
			Type:  message.TypeError,
			Error: fmt.Sprintf("unknown request type %q", msg.Type),
		})
		return
	}

	replyCh := make(chan engine.Reply, 1)
	requests <- engine.Event{Kind: kind, Reply: replyCh}

	select {
	case reply := <-replyCh:
		_ = wc.WriteMsg(renderReply(msg.Type, reply))
	case <-time.After(5 * time.Second):
		_ = wc.WriteMsg(&message.Message{
			Type:  message.TypeError,
			Error: "engine did not answer in time",
		})
	}
}

func renderReply(req message.Type, reply engine.Reply) *message.Message {
	switch req {
	case message.TypeStatus:
		return &message.Message{
			Type:      message.TypeStatusResponse,
			Backend:   reply.Backend,
			Depth:     reply.Depth,
			Capacity:  reply.Capacity,
			Threshold: int(reply.Threshold),
			StartedAt: reply.StartedAt,
		}
	case message.TypeHistory:
		entries := make([]message.Entry, 0, len(reply.Entries))
		for _, snap := range reply.Entries {
			entries = append(entries, summarize(snap))
		}
		return &message.Message{
			Type:    message.TypeHistoryResponse,
			Depth:   reply.Depth,
			Entries: entries,
		}
	default:
		return &message.Message{Type: message.TypeOK, Depth: reply.Depth}
	}
}

// summarize renders one history entry for display without shipping the raw
// payloads over the socket.
func summarize(snap snapshot.Snapshot) message.Entry {
	e := message.Entry{Preview: snap.Preview(60)}
	for _, it := range snap {
		e.Formats = append(e.Formats, string(it.Format))
		e.Bytes += len(it.Data)
	}
	return e
}
