package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/maorbril/recently/internal/recent"
	"github.com/maorbril/recently/internal/telemetry"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show statistics about the recent files list",
	Long:  `Show where the recent files list lives, how many entries it holds and which groups are in use.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	entries := s.Entries()
	private := 0
	for _, e := range entries {
		if e.Private {
			private++
		}
	}
	groups := s.Groups()
	telemetry.TrackStore(len(entries), len(groups))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Recently Status")
	fmt.Fprintln(out, "===============")
	fmt.Fprintf(out, "File: %s\n\n", s.Path())

	fmt.Fprintln(out, "Entries")
	fmt.Fprintln(out, "-------")
	fmt.Fprintf(out, "Total: %d of %d\n", len(entries), recent.MaxEntries)
	fmt.Fprintf(out, "Private: %d\n", private)
	if len(entries) > 0 {
		newest, oldest := entries[0], entries[len(entries)-1]
		fmt.Fprintf(out, "Newest: %s (%s)\n", newest.URI, humanize.Time(newest.Time()))
		fmt.Fprintf(out, "Oldest: %s (%s)\n", oldest.URI, humanize.Time(oldest.Time()))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Groups")
	fmt.Fprintln(out, "------")
	if len(groups) == 0 {
		fmt.Fprintln(out, "None")
		return nil
	}
	fmt.Fprintf(out, "%s\n", strings.Join(groups, ", "))
	return nil
}
