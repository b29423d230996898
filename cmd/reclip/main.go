// reclip: clipboard history with hotkey paste-cycling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "reclip",
		Short: "Clipboard history with hotkey paste-cycling",
		Long: `reclip watches the system clipboard, keeps a bounded history of
distinct recent contents, and lets you cycle backwards through it: each
Ctrl+Shift+V press pastes the current entry and moves the next older one
onto the clipboard.

Run "reclip run" to start the daemon. Use "reclip status/history/clear" to
inspect or reset a running daemon over its local IPC socket.

Config file search order (first found wins):
  /etc/reclip/reclip.toml
  $HOME/.config/reclip/reclip.toml
  path supplied via --config

All flags can be set via RECLIP_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newStatusCmd(),
		newHistoryCmd(),
		newClearCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("reclip %s\n", Version)
		},
	}
}
