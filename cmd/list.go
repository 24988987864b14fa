package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maorbril/recently/internal/recent"
)

var (
	listMimeTypes []string
	listGroups    []string
	listLimit     int
	listFormat    string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently used files",
	Long: `List recently used files, newest first.

With --group, files in any of the groups are listed, private ones included.
Otherwise, with --mime, files of those MIME types are listed. With neither,
all files not marked private are listed.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringSliceVarP(&listMimeTypes, "mime", "m", nil, "Filter by MIME type")
	listCmd.Flags().StringSliceVarP(&listGroups, "group", "g", nil, "Filter by group")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum number of results, 0 for all (default from config)")
	listCmd.Flags().StringVar(&listFormat, "format", "text", "Output format: text or yaml")
}

func runList(cmd *cobra.Command, args []string) error {
	limit := cfg.Limit
	if cmd.Flags().Changed("limit") {
		limit = listLimit
	}

	s, err := openStore()
	if err != nil {
		return err
	}

	files := s.GetFiles(recent.Query{
		MimeTypes: listMimeTypes,
		Groups:    listGroups,
		Limit:     limit,
	})
	return printEntries(cmd.OutOrStdout(), files, listFormat, time.Now())
}

func printEntries(w io.Writer, files []recent.Entry, format string, now time.Time) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if files == nil {
			files = []recent.Entry{}
		}
		if err := enc.Encode(files); err != nil {
			return fmt.Errorf("failed to encode entries: %w", err)
		}
		return enc.Close()
	case "text", "":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if len(files) == 0 {
		fmt.Fprintln(w, "No recent files found.")
		return nil
	}

	fmt.Fprintf(w, "Found %d file(s):\n\n", len(files))
	for _, f := range files {
		fmt.Fprintf(w, "%s\n", f.URI)
		fmt.Fprintf(w, "  Type: %s\n", f.MimeType)
		fmt.Fprintf(w, "  Used: %s (%s)\n", humanize.RelTime(f.Time(), now, "ago", "from now"), f.Time().Format("2006-01-02 15:04"))
		if len(f.Groups) > 0 {
			fmt.Fprintf(w, "  Groups: %s\n", strings.Join(f.Groups, ", "))
		}
		if f.Private {
			fmt.Fprintln(w, "  Private")
		}
		fmt.Fprintln(w)
	}
	return nil
}
