package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <uri-or-path>...",
	Aliases: []string{"rm"},
	Short:   "Forget recently used files",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	removed := 0
	for _, arg := range args {
		uri, err := toURI(arg)
		if err != nil {
			return err
		}
		if s.DeleteFile(uri) {
			removed++
			fmt.Fprintf(out, "Removed %s\n", uri)
		} else {
			fmt.Fprintf(out, "%s is not in the recent files list\n", uri)
		}
	}

	if removed == 0 {
		return nil
	}
	if err := s.Write(""); err != nil {
		return fmt.Errorf("failed to save recent files: %w", err)
	}
	logger.Info().Int("removed", removed).Str("file", s.Path()).Msg("removed files")
	return nil
}
