package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.klb.dev/reclip/internal/message"
)

func newHistoryCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List history entries",
		Long: `Lists the daemon's history entries, most recent first. Entries are
summarised (formats, sizes, text preview); raw payloads never leave the
daemon.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := request(&message.Message{Type: message.TypeHistory})
			if err != nil {
				return err
			}
			if jsonOut {
				enc, _ := json.MarshalIndent(resp, "", "  ")
				fmt.Println(string(enc))
				return nil
			}
			printHistory(resp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}

func printHistory(resp *message.Message) {
	if len(resp.Entries) == 0 {
		fmt.Println("History is empty.")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tSIZE\tFORMATS\tPREVIEW\n")
	for i, e := range resp.Entries {
		preview := e.Preview
		if preview == "" {
			preview = "(no text)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, fmtSize(e.Bytes), len(e.Formats), preview)
	}
	_ = tw.Flush()
}

func fmtSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the daemon's history",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := request(&message.Message{Type: message.TypeClear}); err != nil {
				return err
			}
			fmt.Println("History cleared.")
			return nil
		},
	}
}
