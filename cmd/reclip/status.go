package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"go.klb.dev/reclip/internal/ipc"
	"go.klb.dev/reclip/internal/message"
)

func newStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state",
		Long:  `Displays the running daemon's backend, configuration, and history depth.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := request(&message.Message{Type: message.TypeStatus})
			if err != nil {
				return err
			}
			if jsonOut {
				enc, _ := json.MarshalIndent(resp, "", "  ")
				fmt.Println(string(enc))
				return nil
			}
			printStatus(resp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}

func printStatus(resp *message.Message) {
	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Socket:\t%s\n", ipc.SocketPath())
	fmt.Fprintf(w, "Backend:\t%s\n", resp.Backend)
	fmt.Fprintf(w, "History:\t%d of %d entries\n", resp.Depth, resp.Capacity)
	fmt.Fprintf(w, "Threshold:\t%d/255\n", resp.Threshold)
	if !resp.StartedAt.IsZero() {
		fmt.Fprintf(w, "Up:\t%s (since %s)\n",
			fmtAge(resp.StartedAt),
			resp.StartedAt.Local().Format(time.RFC3339),
		)
	}
	_ = w.Flush()
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm", int(age.Minutes()))
	}
	return fmt.Sprintf("%dh%dm", int(age.Hours()), int(age.Minutes())%60)
}
