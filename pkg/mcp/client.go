package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Status is the lifecycle state of one supervised tool-server process.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusError    Status = "error"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
	StatusFailed   Status = "failed"
)

// LaunchSpec describes how to spawn a tool-server process.
type LaunchSpec struct {
	Command string            `json:"command" validate:"required"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// StatusInfo is a point-in-time snapshot of one server's state.
type StatusInfo struct {
	Server       string        `json:"server"`
	Status       Status        `json:"status"`
	ToolCount    int           `json:"tool_count"`
	Tools        []string      `json:"tools,omitempty"`
	Uptime       time.Duration `json:"uptime,omitempty"`
	RestartCount int           `json:"restart_count"`
	LastError    string        `json:"last_error,omitempty"`
}

// Client owns one tool-server process: its handle, its pending requests, and
// the readers on its standard streams. All writes to the process input are
// serialized; stdout is parsed one complete newline-terminated line at a
// time, with partial trailing bytes held until the next read completes them.
type Client struct {
	name   string
	spec   LaunchSpec
	logger *slog.Logger

	requestTimeout time.Duration
	killGrace      time.Duration

	// onNotification receives unsolicited server messages; onExit fires once
	// per spawned process after it terminates. Both are set by the manager.
	onNotification func(method string, params map[string]any)
	onExit         func(exitErr error)

	mu           sync.Mutex
	status       Status
	lastErr      error
	tools        []ToolDescriptor
	startedAt    time.Time
	restartCount int
	cmd          *exec.Cmd
	stdin        io.WriteCloser
	procDone     chan struct{}

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[int64]chan *Response

	nextID atomic.Int64
}

func newClient(name string, spec LaunchSpec, logger *slog.Logger, requestTimeout, killGrace time.Duration) *Client {
	return &Client{
		name:           name,
		spec:           spec,
		logger:         logger.With("module", "mcp_client", "server", name),
		requestTimeout: requestTimeout,
		killGrace:      killGrace,
		status:         StatusStopped,
		pending:        make(map[int64]chan *Response),
	}
}

// start spawns the process and wires the three independent readers: the
// stdout line-splitter, the stderr logger, and the exit watcher. It returns
// once the process handle exists; the initialize handshake is a separate
// step.
func (c *Client) start() error {
	cmd := exec.Command(c.spec.Command, c.spec.Args...)

	env := os.Environ()
	for k, v := range c.spec.Env {
		env = append(env, k+"="+v)
	}

	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return c.spawnFailed(err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return c.spawnFailed(err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return c.spawnFailed(err)
	}

	if err := cmd.Start(); err != nil {
		return c.spawnFailed(err)
	}

	done := make(chan struct{})

	c.mu.Lock()
	c.cmd = cmd
	c.stdin = stdin
	c.procDone = done
	c.status = StatusStarting
	c.startedAt = time.Now()
	c.mu.Unlock()

	go c.readLoop(stdout)
	go c.stderrLoop(stderr)

	go func() {
		exitErr := cmd.Wait()
		close(done)

		if c.onExit != nil {
			c.onExit(exitErr)
		}
	}()

	c.logger.Info("Spawned tool server process", "pid", cmd.Process.Pid)

	return nil
}

func (c *Client) spawnFailed(err error) error {
	c.mu.Lock()
	c.status = StatusError
	c.lastErr = err
	c.mu.Unlock()

	return fmt.Errorf("%w: %s: %v", ErrProcessSpawn, c.name, err)
}

// readLoop consumes stdout one complete line at a time. bufio holds partial
// trailing bytes across reads, so a message split mid-line still yields
// exactly one parsed line once the newline arrives.
func (c *Client) readLoop(stdout io.Reader) {
	reader := bufio.NewReader(stdout)

	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && err == nil {
			c.handleLine(line)

			continue
		}

		if err != nil {
			if len(bytes.TrimSpace(line)) > 0 {
				c.logger.Debug("Discarding incomplete trailing output", "bytes", len(line))
			}

			return
		}
	}
}

// handleLine parses one stdout line and dispatches it: responses resolve the
// pending request with the matching id, notifications go to the event sink.
// A line that does not parse is logged and dropped; it never tears down the
// reader.
func (c *Client) handleLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var msg incoming
	if err := json.Unmarshal(line, &msg); err != nil {
		c.logger.Warn("Dropping unparseable server output", "error", err)

		return
	}

	if msg.ID != nil {
		c.resolve(*msg.ID, &Response{ID: *msg.ID, Result: msg.Result, Error: msg.Error})

		return
	}

	if msg.Method != "" {
		var params map[string]any
		if len(msg.Params) > 0 {
			if err := json.Unmarshal(msg.Params, &params); err != nil {
				c.logger.Warn("Dropping notification with bad params", "method", msg.Method, "error", err)

				return
			}
		}

		if c.onNotification != nil {
			c.onNotification(msg.Method, params)
		}

		return
	}

	c.logger.Debug("Dropping message without id or method")
}

func (c *Client) resolve(id int64, resp *Response) {
	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.pendingMu.Unlock()

	if !ok {
		c.logger.Debug("Response for unknown request id", "request_id", id)

		return
	}

	ch <- resp
}

func (c *Client) stderrLoop(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		c.logger.Debug("Server stderr", "line", scanner.Text())
	}
}

// Call sends a request and waits for the correlated response. Responses are
// matched by id, not by arrival order, so concurrent outstanding requests to
// the same process resolve their own callers.
func (c *Client) Call(ctx context.Context, method string, params any) (*Response, error) {
	c.mu.Lock()
	stdin := c.stdin
	status := c.status
	c.mu.Unlock()

	if stdin == nil || (status != StatusRunning && status != StatusStarting) {
		return nil, fmt.Errorf("%w: %s", ErrServerNotRunning, c.name)
	}

	id := c.nextID.Add(1)

	payload, err := json.Marshal(Request{JSONRPC: jsonRPCVersion, ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ch := make(chan *Response, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	if err := c.write(stdin, payload); err != nil {
		c.unregister(id)

		return nil, fmt.Errorf("failed to write request to %s: %w", c.name, err)
	}

	timer := time.NewTimer(c.requestTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		c.unregister(id)

		return nil, fmt.Errorf("%w: %s %s (id %d)", ErrRequestTimeout, c.name, method, id)
	case <-ctx.Done():
		c.unregister(id)

		return nil, ctx.Err()
	}
}

// Notify sends a fire-and-forget notification to the server.
func (c *Client) Notify(method string, params any) error {
	c.mu.Lock()
	stdin := c.stdin
	c.mu.Unlock()

	if stdin == nil {
		return fmt.Errorf("%w: %s", ErrServerNotRunning, c.name)
	}

	payload, err := json.Marshal(Notification{JSONRPC: jsonRPCVersion, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	return c.write(stdin, payload)
}

// write serializes all input-stream writes so concurrent requests never
// interleave bytes.
func (c *Client) write(stdin io.Writer, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := stdin.Write(append(payload, '\n')); err != nil {
		return err
	}

	return nil
}

func (c *Client) unregister(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// failPending resolves every in-flight request with an error response so
// callers are released immediately when the process dies instead of waiting
// out the request deadline.
func (c *Client) failPending(message string) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- &Response{ID: id, Error: &RPCError{Code: -32000, Message: message}}
	}
}

// bootstrap runs the protocol handshake: initialize, the initialized
// notification, then the first tools/list refresh. On success the client is
// running.
func (c *Client) bootstrap(ctx context.Context) error {
	resp, err := c.Call(ctx, "initialize", map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    clientName,
			"version": clientVersion,
		},
	})
	if err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}

	if resp.Error != nil {
		return fmt.Errorf("initialize rejected by %s: %s", c.name, resp.Error.Message)
	}

	if err := c.Notify("notifications/initialized", nil); err != nil {
		return err
	}

	if err := c.refreshTools(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.status = StatusRunning
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Info("Tool server initialized", "tool_count", len(c.Tools()))

	return nil
}

// refreshTools replaces the tool list wholesale from a tools/list call.
func (c *Client) refreshTools(ctx context.Context) error {
	resp, err := c.Call(ctx, "tools/list", nil)
	if err != nil {
		return fmt.Errorf("tools/list failed: %w", err)
	}

	if resp.Error != nil {
		return fmt.Errorf("tools/list rejected by %s: %s", c.name, resp.Error.Message)
	}

	var result toolListResult
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			return fmt.Errorf("failed to decode tool list from %s: %w", c.name, err)
		}
	}

	c.mu.Lock()
	c.tools = result.Tools
	c.mu.Unlock()

	return nil
}

// terminate requests a graceful shutdown and escalates to a forceful kill if
// the process has not exited within the grace period. Setting the status to
// stopping first keeps the exit watcher from treating this as a crash.
func (c *Client) terminate() {
	c.mu.Lock()
	c.status = StatusStopping
	cmd := c.cmd
	done := c.procDone
	c.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		c.mu.Lock()
		c.status = StatusStopped
		c.mu.Unlock()

		return
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		c.logger.Debug("Failed to signal process", "error", err)
	}

	select {
	case <-done:
	case <-time.After(c.killGrace):
		c.logger.Warn("Process did not exit gracefully, killing")

		if err := cmd.Process.Kill(); err != nil {
			c.logger.Debug("Failed to kill process", "error", err)
		}

		<-done
	}

	c.mu.Lock()
	c.status = StatusStopped
	c.mu.Unlock()
}

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

func (c *Client) Tools() []ToolDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()

	tools := make([]ToolDescriptor, len(c.tools))
	copy(tools, c.tools)

	return tools
}

func (c *Client) StatusInfo() StatusInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.tools))
	for _, tool := range c.tools {
		names = append(names, tool.Name)
	}

	info := StatusInfo{
		Server:       c.name,
		Status:       c.status,
		ToolCount:    len(c.tools),
		Tools:        names,
		RestartCount: c.restartCount,
	}

	if c.status == StatusRunning || c.status == StatusStarting {
		info.Uptime = time.Since(c.startedAt)
	}

	if c.lastErr != nil {
		info.LastError = c.lastErr.Error()
	}

	return info
}
