// Package mcp provides the MCP (Model Context Protocol) server exposing the
// skeleton editor as tools.
package mcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	lru "github.com/hashicorp/golang-lru/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/Benny93/spine-editor/internal/editor"
	"github.com/Benny93/spine-editor/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultSessionCacheSize bounds the number of open skeletons.
const DefaultSessionCacheSize = 16

var implementation = &mcp.Implementation{
	Name:    "spine-editor",
	Version: "0.1.0",
}

// StorageBackend is the part of the edit history the server uses.
type StorageBackend interface {
	SaveEdit(ctx context.Context, rec *storage.EditRecord) error
	ListEdits(ctx context.Context, source string) ([]*storage.EditRecord, error)
}

// Server represents the MCP server.
type Server struct {
	storage    StorageBackend
	server     *mcp.Server
	sessions   *lru.Cache[string, *session]
	editorOpts []editor.Option
	strict     bool
	log        *zap.Logger

	// mu serializes tool calls; editor sessions are not safe for
	// concurrent use.
	mu sync.Mutex
}

// session is an open skeleton and the modification time of the file it was
// loaded from.
type session struct {
	editor  *editor.Editor
	modTime time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithSessionCacheSize bounds the number of cached sessions.
func WithSessionCacheSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			if c, err := lru.New[string, *session](n); err == nil {
				s.sessions = c
			}
		}
	}
}

// WithEditorOptions passes opts to every editor session.
func WithEditorOptions(opts ...editor.Option) Option {
	return func(s *Server) { s.editorOpts = append(s.editorOpts, opts...) }
}

// WithStrict sets the default strictness of erase tools.
func WithStrict(strict bool) Option {
	return func(s *Server) { s.strict = strict }
}

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server. store may be nil, in which case no
// history is kept.
func NewServer(store StorageBackend, opts ...Option) *Server {
	s := &Server{
		storage: store,
		strict:  true,
		log:     zap.NewNop(),
	}
	s.sessions, _ = lru.New[string, *session](DefaultSessionCacheSize)
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(implementation, nil)

	return s
}

var (
	pathSchema   = &jsonschema.Schema{Type: "string", Description: "Path of the skeleton JSON file"}
	outputSchema = &jsonschema.Schema{Type: "string", Description: "Where to write the result; defaults to overwriting path"}
	namesSchema  = &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}
)

func eraseSchema(what string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"path":   pathSchema,
			"names":  {Type: "array", Items: namesSchema.Items, Description: "Names of the " + what + " to erase"},
			"output": outputSchema,
			"strict": {Type: "boolean", Description: "Fail when a name is missing"},
			"safe":   {Type: "boolean", Description: "Skip the clean pass after erasing"},
		},
		Required: []string{"path", "names"},
	}
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	pathOnly := &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{"path": pathSchema},
		Required:   []string{"path"},
	}

	return []Tool{
		{
			Name:        "spine_clean",
			Description: "Remove slots and attachments that are never visible, then drop their references and image entries.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"path":   pathSchema,
					"output": outputSchema,
				},
				Required: []string{"path"},
			},
		},
		{
			Name:        "spine_erase_animations",
			Description: "Erase animations by name and clean what only they kept alive.",
			InputSchema: eraseSchema("animations"),
		},
		{
			Name:        "spine_erase_skins",
			Description: "Erase skins by name, relinking linked meshes that pointed into them, then clean.",
			InputSchema: eraseSchema("skins"),
		},
		{
			Name:        "spine_scale",
			Description: "Scale the root bone and every bone that does not inherit scale.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"path":   pathSchema,
					"x":      {Type: "number", Description: "Horizontal factor"},
					"y":      {Type: "number", Description: "Vertical factor; defaults to x"},
					"output": outputSchema,
				},
				Required: []string{"path", "x"},
			},
		},
		{
			Name:        "spine_images",
			Description: "List the image files referenced by the skeleton's attachments with their scale.",
			InputSchema: pathOnly,
		},
		{
			Name:        "spine_validate",
			Description: "Check the skeleton structure for cycles and unconnected nodes.",
			InputSchema: pathOnly,
		},
		{
			Name:        "spine_history",
			Description: "List recorded edits, newest first, optionally for one file.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{"path": pathSchema},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "spine://sessions",
			Name:        "Open Skeletons",
			Description: "Skeleton files currently held in the session cache",
			MimeType:    "text/plain",
		},
		{
			URI:         "spine://history",
			Name:        "Edit History",
			Description: "All recorded edits, newest first",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "spine_history" {
		path, _ := args["path"].(string)
		return s.handleHistory(ctx, path)
	}

	path, _ := args["path"].(string)
	if path == "" {
		return "", fmt.Errorf("%s: path is required", name)
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	switch name {
	case "spine_clean":
		return s.edit(ctx, path, args, "clean", nil, func(e *editor.Editor) (editor.Report, error) {
			return e.Clean()
		})
	case "spine_erase_animations", "spine_erase_skins":
		names := stringsArg(args, "names")
		if len(names) == 0 {
			return "", fmt.Errorf("%s: names is required", name)
		}
		opts := editor.EraseOptions{Strict: boolArg(args, "strict", s.strict), Safe: boolArg(args, "safe", false)}
		if name == "spine_erase_animations" {
			return s.edit(ctx, path, args, "erase-animations", names, func(e *editor.Editor) (editor.Report, error) {
				return e.EraseAnimations(names, opts)
			})
		}
		return s.edit(ctx, path, args, "erase-skins", names, func(e *editor.Editor) (editor.Report, error) {
			return e.EraseSkins(names, opts)
		})
	case "spine_scale":
		x, ok := args["x"].(float64)
		if !ok || x == 0 {
			return "", fmt.Errorf("%s: x must be a non-zero number", name)
		}
		y, ok := args["y"].(float64)
		if !ok || y == 0 {
			y = x
		}
		factors := []string{fmt.Sprint(x), fmt.Sprint(y)}
		return s.edit(ctx, path, args, "scale", factors, func(e *editor.Editor) (editor.Report, error) {
			e.Scale(x, y)
			return editor.Report{}, nil
		})
	case "spine_images":
		sess, err := s.session(path)
		if err != nil {
			return "", err
		}
		return handleImages(sess.editor)
	case "spine_validate":
		sess, err := s.session(path)
		if err != nil {
			return "", err
		}
		return handleValidate(path, sess.editor), nil
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "spine://sessions":
		return s.listSessions(), nil
	case "spine://history":
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.handleHistory(ctx, "")
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// Note: Do NOT use SetIndent - MCP protocol requires compact JSON (one line per message)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if len(strings.TrimSpace(string(line))) > 0 {
			var req map[string]any
			if jerr := json.Unmarshal(line, &req); jerr != nil {
				if eerr := encoder.Encode(errorResponse(nil, -32700, "Parse error")); eerr != nil {
					return eerr
				}
			} else if _, isCall := req["id"]; isCall {
				if eerr := encoder.Encode(s.handleRequest(ctx, req)); eerr != nil {
					return eerr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "ping":
		return map[string]any{"jsonrpc": "2.0", "id": id, "result": map[string]any{}}
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    implementation.Name,
				"version": implementation.Version,
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		_ = json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		s.log.Warn("tool call failed", zap.String("tool", name), zap.Error(err))
		return map[string]any{
			"jsonrpc": "2.0",
			"id":      id,
			"result": map[string]any{
				"content": []map[string]any{{"type": "text", "text": err.Error()}},
				"isError": true,
			},
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

// Sessions

// session returns the cached editor for path, reloading it when the file
// changed on disk since it was opened.
func (s *Server) session(path string) (*session, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if sess, ok := s.sessions.Get(path); ok && sess.modTime.Equal(info.ModTime()) {
		return sess, nil
	}

	e, err := editor.OpenFile(path, append([]editor.Option{editor.WithLogger(s.log)}, s.editorOpts...)...)
	if err != nil {
		return nil, err
	}
	sess := &session{editor: e, modTime: info.ModTime()}
	s.sessions.Add(path, sess)
	return sess, nil
}

// edit applies fn to the session for path, writes the result and records it.
func (s *Server) edit(ctx context.Context, path string, args map[string]any, op string, opArgs []string, fn func(*editor.Editor) (editor.Report, error)) (string, error) {
	sess, err := s.session(path)
	if err != nil {
		return "", err
	}

	report, err := fn(sess.editor)
	if err != nil {
		s.sessions.Remove(path)
		return "", err
	}

	output, _ := args["output"].(string)
	target := path
	if output != "" {
		if target, err = filepath.Abs(output); err != nil {
			return "", err
		}
	}
	if err := sess.editor.WriteFile(target); err != nil {
		s.sessions.Remove(path)
		return "", fmt.Errorf("writing %s: %w", target, err)
	}

	// The session now matches target, not the untouched source.
	if target == path {
		if info, err := os.Stat(path); err == nil {
			sess.modTime = info.ModTime()
		}
	} else {
		s.sessions.Remove(path)
	}

	if s.storage != nil {
		rec := &storage.EditRecord{
			Source:             path,
			Operation:          op,
			Args:               opArgs,
			RemovedSlots:       report.RemovedSlots,
			RemovedAttachments: report.RemovedAttachments,
			RemovedImages:      report.RemovedImages,
		}
		if target != path {
			rec.Output = target
		}
		if err := s.storage.SaveEdit(ctx, rec); err != nil {
			return "", fmt.Errorf("saving edit: %w", err)
		}
	}

	return formatReport(op, target, report), nil
}

func (s *Server) listSessions() string {
	paths := s.sessions.Keys()
	if len(paths) == 0 {
		return "No open skeletons"
	}
	sort.Strings(paths)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Open skeletons (%d):\n\n", len(paths)))
	for _, p := range paths {
		sb.WriteString(fmt.Sprintf("- %s\n", p))
	}
	return sb.String()
}

// Tool Handlers

func formatReport(op, target string, r editor.Report) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s: %s\n\n", op, target))

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString(fmt.Sprintf("**%s** (%d): %s\n", title, len(items), strings.Join(items, ", ")))
	}
	section("Erased", r.Erased)
	section("Missing", r.Missing)
	section("Removed slots", r.RemovedSlots)
	section("Removed attachments", r.RemovedAttachments)
	section("Removed images", r.RemovedImages)

	if len(r.Erased)+len(r.Missing)+len(r.RemovedSlots)+len(r.RemovedAttachments)+len(r.RemovedImages) == 0 {
		sb.WriteString("Nothing removed.\n")
	}
	return sb.String()
}

func handleImages(e *editor.Editor) (string, error) {
	data, err := e.ImagesJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func handleValidate(path string, e *editor.Editor) string {
	res := e.Validate()
	if res.Valid() {
		return fmt.Sprintf("%s: valid", path)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %d problem(s)\n\n", path, len(res.Errors)))
	for _, verr := range res.Errors {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", verr.Tag, strings.Join(verr.IDs, ", ")))
	}
	return sb.String()
}

func (s *Server) handleHistory(ctx context.Context, path string) (string, error) {
	if s.storage == nil {
		return "History is disabled", nil
	}
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		path = abs
	}

	recs, err := s.storage.ListEdits(ctx, path)
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "No edits recorded", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d edit(s):\n\n", len(recs)))
	for _, r := range recs {
		sb.WriteString(fmt.Sprintf("- %s %s %s", r.CreatedAt.Format(time.RFC3339), r.Operation, r.Source))
		if len(r.Args) > 0 {
			sb.WriteString(fmt.Sprintf(" [%s]", strings.Join(r.Args, ", ")))
		}
		if n := len(r.RemovedSlots) + len(r.RemovedAttachments); n > 0 {
			sb.WriteString(fmt.Sprintf(" (-%d slots, -%d attachments)", len(r.RemovedSlots), len(r.RemovedAttachments)))
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// Helper functions

func stringsArg(args map[string]any, key string) []string {
	raw, _ := args[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
