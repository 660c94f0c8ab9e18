// Package server exposes the coordinator over a line-delimited JSON
// protocol on stdio. Each request is a single JSON object per line,
// {"id", "tool", "args"}; each response is a single line {"id", "ok",
// "result"} or {"id", "ok": false, "error"}. The server is synchronous:
// requests are handled in arrival order, one at a time.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/BANCS-Norway/session-coordinator/internal/coordinator"
	"github.com/BANCS-Norway/session-coordinator/internal/errors"
	"github.com/BANCS-Norway/session-coordinator/internal/logging"
)

// maxLineBytes bounds a single request line. Stored values are arbitrary
// JSON, so the default bufio limit of 64KB is too small.
const maxLineBytes = 4 * 1024 * 1024

// Request is one tool invocation.
type Request struct {
	ID   any             `json:"id"`
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// Response is the outcome of one tool invocation.
type Response struct {
	ID     any    `json:"id"`
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handler executes one tool against the coordinator.
type handler func(ctx context.Context, args json.RawMessage) (any, error)

// Server reads requests from in and writes responses to out.
type Server struct {
	coord *coordinator.Coordinator
	log   *logging.Logger
	in    io.Reader
	out   io.Writer

	outMu    sync.Mutex
	handlers map[string]handler
}

// New creates a Server over the given streams. A nil logger is replaced
// with a no-op logger.
func New(coord *coordinator.Coordinator, log *logging.Logger, in io.Reader, out io.Writer) *Server {
	if log == nil {
		log = logging.NopLogger()
	}
	s := &Server{
		coord: coord,
		log:   log,
		in:    in,
		out:   out,
	}
	s.handlers = map[string]handler{
		"sign_on":       s.handleSignOn,
		"sign_off":      s.handleSignOff,
		"store_data":    s.handleStoreData,
		"retrieve_data": s.handleRetrieveData,
		"delete_data":   s.handleDeleteData,
		"list_keys":     s.handleListKeys,
		"list_scopes":   s.handleListScopes,
		"delete_scope":  s.handleDeleteScope,
		"get_context":   s.handleGetContext,
	}
	return s
}

// Tools returns the available tool names in sorted order.
func (s *Server) Tools() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run processes requests until in is exhausted or ctx is canceled. Malformed
// lines produce an error response rather than terminating the loop, so one
// bad client request cannot take the server down.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	s.log.Info("server started", "tools", strings.Join(s.Tools(), ","))

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.respond(Response{OK: false, Error: fmt.Sprintf("malformed request: %v", err)})
			continue
		}
		s.respond(s.dispatch(ctx, req))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}

// dispatch routes one request to its handler and shapes the response.
func (s *Server) dispatch(ctx context.Context, req Request) Response {
	h, ok := s.handlers[req.Tool]
	if !ok {
		return Response{
			ID:    req.ID,
			OK:    false,
			Error: fmt.Sprintf("unknown tool %q (available: %s)", req.Tool, strings.Join(s.Tools(), ", ")),
		}
	}

	result, err := h(ctx, req.Args)
	if err != nil {
		s.log.Warn("tool failed", "tool", req.Tool, "error", err.Error())
		return Response{ID: req.ID, OK: false, Error: err.Error()}
	}
	return Response{ID: req.ID, OK: true, Result: result}
}

// respond writes one response line.
func (s *Server) respond(resp Response) {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		// Result was not serializable; report the failure instead.
		data, _ = json.Marshal(Response{ID: resp.ID, OK: false, Error: err.Error()})
	}
	s.out.Write(append(data, '\n'))
}

// decodeArgs unmarshals args into dest, treating absent args as empty.
func decodeArgs(args json.RawMessage, dest any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, dest); err != nil {
		return fmt.Errorf("%w: invalid arguments: %v", errors.ErrInvalidConfig, err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Tool handlers
// ----------------------------------------------------------------------------

func (s *Server) handleSignOn(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		SessionID string `json:"session_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return s.coord.SignOn(ctx, in.SessionID)
}

func (s *Server) handleSignOff(ctx context.Context, args json.RawMessage) (any, error) {
	return s.coord.SignOff(ctx)
}

func (s *Server) handleStoreData(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Scope string `json:"scope"`
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := s.coord.StoreData(ctx, in.Scope, in.Key, in.Value); err != nil {
		return nil, err
	}
	return map[string]any{"stored": true, "scope": in.Scope, "key": in.Key}, nil
}

func (s *Server) handleRetrieveData(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Scope string `json:"scope"`
		Key   string `json:"key"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	value, found, err := s.coord.RetrieveData(ctx, in.Scope, in.Key)
	if err != nil {
		return nil, err
	}
	return map[string]any{"value": value, "found": found}, nil
}

func (s *Server) handleDeleteData(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Scope string `json:"scope"`
		Key   string `json:"key"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	deleted, err := s.coord.DeleteData(ctx, in.Scope, in.Key)
	if err != nil {
		return nil, err
	}
	return map[string]any{"deleted": deleted}, nil
}

func (s *Server) handleListKeys(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Scope string `json:"scope"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	keys, err := s.coord.ListKeys(ctx, in.Scope)
	if err != nil {
		return nil, err
	}
	return map[string]any{"keys": keys}, nil
}

func (s *Server) handleListScopes(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Pattern string `json:"pattern"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	scopes, err := s.coord.ListScopes(ctx, in.Pattern)
	if err != nil {
		return nil, err
	}
	return map[string]any{"scopes": scopes}, nil
}

func (s *Server) handleDeleteScope(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Scope string `json:"scope"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	deleted, err := s.coord.DeleteScope(ctx, in.Scope)
	if err != nil {
		return nil, err
	}
	return map[string]any{"deleted": deleted}, nil
}

func (s *Server) handleGetContext(ctx context.Context, args json.RawMessage) (any, error) {
	return s.coord.ContextInfo(ctx)
}
