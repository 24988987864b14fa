package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maorbril/recently/internal/recent"
)

var (
	addMimeType string
	addGroups   []string
	addPrivate  bool
)

var addCmd = &cobra.Command{
	Use:   "add <uri-or-path>",
	Short: "Record that a file was just used",
	Long: `Record that a file was just used. An existing entry for the same URI is
updated and moved to the top; when the list is full the oldest entry is dropped.
Local paths are turned into file:// URIs.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addMimeType, "mime", "m", "", "MIME type (guessed from the extension when omitted)")
	addCmd.Flags().StringSliceVarP(&addGroups, "group", "g", nil, "Group the file belongs to")
	addCmd.Flags().BoolVarP(&addPrivate, "private", "p", false, "Hide the file from unfiltered listings")
}

func runAdd(cmd *cobra.Command, args []string) error {
	uri, err := toURI(args[0])
	if err != nil {
		return err
	}

	mimeType := addMimeType
	if mimeType == "" {
		mimeType = recent.GuessMimeType(uri)
	}

	s, err := openStore()
	if err != nil {
		return err
	}

	e := s.AddFile(uri, mimeType, addGroups, addPrivate)
	if err := s.Write(""); err != nil {
		return fmt.Errorf("failed to save recent files: %w", err)
	}

	logger.Info().Str("uri", e.URI).Str("mime_type", e.MimeType).Str("file", s.Path()).Msg("recorded file")
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (%s)\n", e.URI, e.MimeType)
	return nil
}
