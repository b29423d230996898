// Package ipc provides the local control channel the CLI tools
// (status/history/clear) use to talk to a running reclip daemon: a Unix
// domain socket on Linux/macOS, a named pipe on Windows.
package ipc

import "net"

// SocketPath returns the platform-appropriate IPC endpoint, honouring the
// RECLIP_SOCKET override on Unix.
func SocketPath() string { return socketPath() }

// IsRunning reports whether a reclip daemon appears to be listening on the
// IPC endpoint. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := dialIPC(SocketPath())
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a net.Listener on the IPC endpoint, removing any stale
// socket file from a previous run first.
func Listen() (net.Listener, error) {
	return listenIPC(SocketPath())
}

// Dial connects to a running daemon.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}
