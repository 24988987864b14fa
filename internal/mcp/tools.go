package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/maorbril/recently/internal/recent"
)

func (s *Server) load() (*recent.Store, error) {
	return recent.Load(s.path, s.opts...)
}

func (s *Server) toolList(args map[string]interface{}) ToolResult {
	limit := s.defaultLimit
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	store, err := s.load()
	if err != nil {
		return errorResult(fmt.Sprintf("failed to read recent files: %v", err))
	}

	files := store.GetFiles(recent.Query{
		MimeTypes: stringSlice(args, "mime_types"),
		Groups:    stringSlice(args, "groups"),
		Limit:     limit,
	})
	if len(files) == 0 {
		return textResult("No recent files found.")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d file(s):\n\n", len(files)))
	for _, f := range files {
		sb.WriteString(formatEntry(f, time.Now()))
	}
	return textResult(sb.String())
}

func (s *Server) toolAdd(args map[string]interface{}) ToolResult {
	uri, ok := args["uri"].(string)
	if !ok || uri == "" {
		return errorResult("uri is required")
	}

	mimeType, _ := args["mime_type"].(string)
	if mimeType == "" {
		mimeType = recent.GuessMimeType(uri)
	}
	private, _ := args["private"].(bool)

	store, err := s.load()
	if err != nil {
		return errorResult(fmt.Sprintf("failed to read recent files: %v", err))
	}

	e := store.AddFile(uri, mimeType, stringSlice(args, "groups"), private)
	if err := store.Write(""); err != nil {
		return errorResult(fmt.Sprintf("failed to save recent files: %v", err))
	}

	s.log.Info().Str("uri", e.URI).Str("mime_type", e.MimeType).Msg("added recent file")
	return textResult(fmt.Sprintf("Recorded %s (%s)", e.URI, e.MimeType))
}

func (s *Server) toolRemove(args map[string]interface{}) ToolResult {
	uri, ok := args["uri"].(string)
	if !ok || uri == "" {
		return errorResult("uri is required")
	}

	store, err := s.load()
	if err != nil {
		return errorResult(fmt.Sprintf("failed to read recent files: %v", err))
	}

	if !store.DeleteFile(uri) {
		return textResult(fmt.Sprintf("%s is not in the recent files list", uri))
	}
	if err := store.Write(""); err != nil {
		return errorResult(fmt.Sprintf("failed to save recent files: %v", err))
	}

	s.log.Info().Str("uri", uri).Msg("removed recent file")
	return textResult(fmt.Sprintf("Removed %s", uri))
}

func (s *Server) toolGroups(args map[string]interface{}) ToolResult {
	store, err := s.load()
	if err != nil {
		return errorResult(fmt.Sprintf("failed to read recent files: %v", err))
	}

	groups := store.Groups()
	if len(groups) == 0 {
		return textResult("No groups in use.")
	}

	counts := make(map[string]int, len(groups))
	for _, g := range groups {
		counts[g] = len(store.GetFiles(recent.Query{Groups: []string{g}}))
	}
	return jsonResult(counts)
}

// Helpers

func formatEntry(e recent.Entry, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("- %s\n", e.URI))
	sb.WriteString(fmt.Sprintf("  Type: %s\n", e.MimeType))
	sb.WriteString(fmt.Sprintf("  Used: %s\n", humanize.RelTime(e.Time(), now, "ago", "from now")))
	if len(e.Groups) > 0 {
		sb.WriteString(fmt.Sprintf("  Groups: %s\n", strings.Join(e.Groups, ", ")))
	}
	if e.Private {
		sb.WriteString("  Private\n")
	}
	return sb.String()
}

func stringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func textResult(text string) ToolResult {
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(msg string) ToolResult {
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: msg}},
		IsError: true,
	}
}

func jsonResult(v interface{}) ToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return textResult(string(data))
}
