package cmd

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maorbril/recently/internal/logging"
	"github.com/maorbril/recently/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long:  `Starts recently as an MCP server on stdin/stdout. This is typically invoked by an MCP client, not directly.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	path, err := cfg.RecentFile()
	if err != nil {
		return err
	}

	instanceID := uuid.New().String()[:8]

	// stdout carries the protocol, so logs go to stderr as JSON.
	server := mcp.NewServer(mcp.Config{
		Path:         path,
		Version:      Version,
		InstanceID:   instanceID,
		DefaultLimit: cfg.Limit,
		Logger:       logging.NewJSON(cfg.LogLevel, os.Stderr),
	})
	return server.Run()
}
