package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/maorbril/recently/internal/recent"
	"github.com/maorbril/recently/internal/telemetry"
)

const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "recently"
)

// Server answers MCP requests on stdin/stdout with tools over the recent
// files document at path. The document is re-read on every tool call so
// writes by other programs are seen.
type Server struct {
	path         string
	opts         []recent.Option
	version      string
	instanceID   string
	defaultLimit int
	log          zerolog.Logger
	reader       *bufio.Reader
	writer       io.Writer
	mu           sync.Mutex // guards writer
	storeMu      sync.Mutex // serializes tool calls touching the document
}

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type InitializeParams struct {
	ProtocolVersion string      `json:"protocolVersion"`
	Capabilities    interface{} `json:"capabilities"`
	ClientInfo      ClientInfo  `json:"clientInfo"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type InitializeResult struct {
	ProtocolVersion string           `json:"protocolVersion"`
	Capabilities    ServerCapability `json:"capabilities"`
	ServerInfo      ServerInfo       `json:"serverInfo"`
}

type ServerCapability struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Items       *Items   `json:"items,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type Items struct {
	Type string `json:"type"`
}

type ToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Config carries the settings a Server needs.
type Config struct {
	Path         string
	Version      string
	InstanceID   string
	DefaultLimit int
	Logger       zerolog.Logger
	StoreOptions []recent.Option
}

func NewServer(cfg Config) *Server {
	return &Server{
		path:         cfg.Path,
		opts:         cfg.StoreOptions,
		version:      cfg.Version,
		instanceID:   cfg.InstanceID,
		defaultLimit: cfg.DefaultLimit,
		log:          cfg.Logger.With().Str("instance", cfg.InstanceID).Logger(),
		reader:       bufio.NewReader(os.Stdin),
		writer:       os.Stdout,
	}
}

func (s *Server) Run() error {
	s.log.Info().Str("file", s.path).Msg("serving recent files")
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn().Err(err).Msg("unparseable request")
			s.sendError(nil, -32700, "Parse error", nil)
			continue
		}

		s.handleRequest(&req)
	}
}

func (s *Server) handleRequest(req *Request) {
	s.log.Debug().Str("method", req.Method).Interface("id", req.ID).Msg("request")

	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// No response needed
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolCall(req)
	case "ping":
		s.sendResult(req.ID, map[string]interface{}{})
	default:
		s.sendError(req.ID, -32601, "Method not found", nil)
	}
}

func (s *Server) handleInitialize(req *Request) {
	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapability{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: s.version,
		},
	}
	s.sendResult(req.ID, result)
}

func (s *Server) handleToolsList(req *Request) {
	tools := []Tool{
		{
			Name:        "recent_list",
			Description: "List recently used files, newest first. With groups, files in any of those groups are returned (private ones included). Otherwise, with mime_types, files of those types. With neither, all files not marked private.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"mime_types": {
						Type:        "array",
						Description: "Only return files with one of these MIME types",
						Items:       &Items{Type: "string"},
					},
					"groups": {
						Type:        "array",
						Description: "Only return files belonging to any of these groups",
						Items:       &Items{Type: "string"},
					},
					"limit": {
						Type:        "integer",
						Description: fmt.Sprintf("Maximum number of files to return, 0 for all (default: %d)", s.defaultLimit),
					},
				},
			},
		},
		{
			Name:        "recent_add",
			Description: "Record that a file was just used. An existing entry for the same URI is updated and moved to the top.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"uri": {
						Type:        "string",
						Description: "The file URI, e.g. file:///home/user/notes.txt",
					},
					"mime_type": {
						Type:        "string",
						Description: "MIME type of the file (guessed from the extension when omitted)",
					},
					"groups": {
						Type:        "array",
						Description: "Groups the file belongs to, usually application names",
						Items:       &Items{Type: "string"},
					},
					"private": {
						Type:        "boolean",
						Description: "Hide the file from unfiltered listings",
					},
				},
				Required: []string{"uri"},
			},
		},
		{
			Name:        "recent_remove",
			Description: "Forget a recently used file.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"uri": {
						Type:        "string",
						Description: "The file URI to remove",
					},
				},
				Required: []string{"uri"},
			},
		},
		{
			Name:        "recent_groups",
			Description: "List the groups used in the recent files list with the number of files in each.",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{},
			},
		},
	}

	s.sendResult(req.ID, map[string]interface{}{"tools": tools})
}

func (s *Server) handleToolCall(req *Request) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params", nil)
		return
	}

	telemetry.TrackMCPTool(params.Name)

	s.storeMu.Lock()
	var result ToolResult
	switch params.Name {
	case "recent_list":
		result = s.toolList(params.Arguments)
	case "recent_add":
		result = s.toolAdd(params.Arguments)
	case "recent_remove":
		result = s.toolRemove(params.Arguments)
	case "recent_groups":
		result = s.toolGroups(params.Arguments)
	default:
		result = ToolResult{
			Content: []ContentBlock{{Type: "text", Text: "Unknown tool: " + params.Name}},
			IsError: true,
		}
	}
	s.storeMu.Unlock()

	if result.IsError {
		s.log.Warn().Str("tool", params.Name).Str("error", result.Content[0].Text).Msg("tool failed")
	}
	s.sendResult(req.ID, result)
}

func (s *Server) sendResult(id interface{}, result interface{}) {
	s.send(Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *Server) sendError(id interface{}, code int, message string, data interface{}) {
	s.send(Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

func (s *Server) send(resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
		return
	}
	fmt.Fprintf(s.writer, "%s\n", data)
}
