package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/redglass/conductor/pkg/eventbus"
	"github.com/redglass/conductor/pkg/events"
)

const (
	defaultMaxRestarts    = 3
	defaultRestartBackoff = 2 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultKillGrace      = 5 * time.Second
	bootstrapTimeout      = 60 * time.Second
)

// Manager supervises a named set of tool-server processes. It owns the
// registration lifecycle, the bounded crash-restart policy, and the
// aggregated tool catalog across all running servers.
type Manager struct {
	logger   *slog.Logger
	eventBus eventbus.EventPublisher

	maxRestarts    int
	restartBackoff time.Duration
	requestTimeout time.Duration
	killGrace      time.Duration

	// spawn and bootstrap are indirected so tests can supervise fake
	// processes without spawning anything.
	spawn     func(c *Client) error
	bootstrap func(ctx context.Context, c *Client) error

	mu      sync.RWMutex
	servers map[string]*Client
	closed  bool
}

func NewManager(logger *slog.Logger, eventBus eventbus.EventPublisher) *Manager {
	return &Manager{
		logger:         logger.With("module", "mcp_manager"),
		eventBus:       eventBus,
		maxRestarts:    defaultMaxRestarts,
		restartBackoff: defaultRestartBackoff,
		requestTimeout: defaultRequestTimeout,
		killGrace:      defaultKillGrace,
		servers:        make(map[string]*Client),
		spawn:          func(c *Client) error { return c.start() },
		bootstrap:      func(ctx context.Context, c *Client) error { return c.bootstrap(ctx) },
	}
}

// AddServer registers a server under a unique name and spawns its process.
// It returns once the process handle exists; the protocol handshake and tool
// discovery complete asynchronously.
func (m *Manager) AddServer(ctx context.Context, name string, spec LaunchSpec) error {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()

		return fmt.Errorf("manager is shut down")
	}

	if _, exists := m.servers[name]; exists {
		m.mu.Unlock()

		return fmt.Errorf("%w: %q", ErrDuplicateServerName, name)
	}

	client := newClient(name, spec, m.logger, m.requestTimeout, m.killGrace)
	client.onNotification = func(method string, params map[string]any) {
		m.publish(name, events.ServerNotification{
			BaseEvent:  events.NewBaseEvent(events.ServerNotificationEvent),
			ServerName: name,
			Method:     method,
			Params:     params,
		})
	}
	client.onExit = func(exitErr error) {
		m.handleExit(name, client, exitErr)
	}

	m.servers[name] = client
	m.mu.Unlock()

	if err := m.spawn(client); err != nil {
		m.mu.Lock()
		delete(m.servers, name)
		m.mu.Unlock()

		return err
	}

	m.publish(name, events.ProcessStarted{
		BaseEvent:  events.NewBaseEvent(events.ProcessStartedEvent),
		ServerName: name,
	})

	go m.runBootstrap(client, name)

	return nil
}

func (m *Manager) runBootstrap(client *Client, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	defer cancel()

	if err := m.bootstrap(ctx, client); err != nil {
		client.mu.Lock()
		client.status = StatusError
		client.lastErr = err
		client.mu.Unlock()

		m.logger.Error("Tool server handshake failed", "server", name, "error", err)

		return
	}

	m.publish(name, events.ToolRegistryUpdated{
		BaseEvent:  events.NewBaseEvent(events.ToolRegistryUpdatedEvent),
		ServerName: name,
		ToolCount:  len(client.Tools()),
	})
}

// RemoveServer terminates a server's process and unregisters it.
func (m *Manager) RemoveServer(ctx context.Context, name string) error {
	m.mu.Lock()
	client, ok := m.servers[name]
	if ok {
		delete(m.servers, name)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrServerNotFound, name)
	}

	client.terminate()
	client.failPending("server removed")

	m.publish(name, events.ProcessExited{
		BaseEvent:  events.NewBaseEvent(events.ProcessExitedEvent),
		ServerName: name,
	})

	return nil
}

// handleExit is the crash-recovery state machine. Deliberate stops pass
// through untouched; unexpected exits trigger up to maxRestarts respawn
// attempts with a fixed backoff, after which the server is marked failed and
// left down.
func (m *Manager) handleExit(name string, client *Client, exitErr error) {
	status := client.Status()
	if status == StatusStopping || status == StatusStopped {
		return
	}

	errText := ""
	if exitErr != nil {
		errText = exitErr.Error()
	}

	m.logger.Warn("Tool server exited unexpectedly", "server", name, "error", errText)

	client.failPending("server process exited")

	m.publish(name, events.ProcessExited{
		BaseEvent:  events.NewBaseEvent(events.ProcessExitedEvent),
		ServerName: name,
		Error:      errText,
		Unexpected: true,
	})

	client.mu.Lock()
	client.status = StatusError
	client.restartCount++
	attempt := client.restartCount
	client.mu.Unlock()

	if attempt >= m.maxRestarts {
		client.mu.Lock()
		client.status = StatusFailed
		client.lastErr = fmt.Errorf("%w after %d crashes", ErrRestartLimitExceeded, attempt)
		client.mu.Unlock()

		m.logger.Error("Giving up on tool server", "server", name, "attempts", m.maxRestarts)

		m.publish(name, events.ProcessFailed{
			BaseEvent:  events.NewBaseEvent(events.ProcessFailedEvent),
			ServerName: name,
			Error:      errText,
		})

		return
	}

	m.publish(name, events.ProcessRestarting{
		BaseEvent:    events.NewBaseEvent(events.ProcessRestartingEvent),
		ServerName:   name,
		RestartCount: attempt,
	})

	time.Sleep(m.restartBackoff)

	m.mu.RLock()
	closed := m.closed
	_, registered := m.servers[name]
	m.mu.RUnlock()

	if closed || !registered {
		return
	}

	m.logger.Info("Restarting tool server", "server", name, "attempt", attempt)

	if err := m.spawn(client); err != nil {
		m.handleExit(name, client, err)

		return
	}

	m.publish(name, events.ProcessStarted{
		BaseEvent:  events.NewBaseEvent(events.ProcessStartedEvent),
		ServerName: name,
		Restart:    true,
	})

	go m.runBootstrap(client, name)
}

// SendRequest forwards a raw JSON-RPC request to a named server. The server
// must have completed its handshake.
func (m *Manager) SendRequest(ctx context.Context, name, method string, params any) (*Response, error) {
	client, err := m.lookup(name)
	if err != nil {
		return nil, err
	}

	if client.Status() != StatusRunning {
		return nil, fmt.Errorf("%w: %q is %s", ErrServerNotRunning, name, client.Status())
	}

	return client.Call(ctx, method, params)
}

// CallTool invokes a tool by its catalog key ("server_tool"). Arguments are
// validated against the tool's declared input schema before anything is sent
// to the process.
func (m *Manager) CallTool(ctx context.Context, toolKey string, arguments map[string]any) (any, error) {
	serverName, tool, err := m.resolveTool(toolKey)
	if err != nil {
		return nil, err
	}

	if err := validateArguments(tool, arguments); err != nil {
		return nil, err
	}

	resp, err := m.SendRequest(ctx, serverName, "tools/call", map[string]any{
		"name":      tool.Name,
		"arguments": arguments,
	})
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrToolExecution, toolKey, resp.Error.Message)
	}

	var result any
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			return nil, fmt.Errorf("failed to decode tool result from %s: %w", serverName, err)
		}
	}

	return result, nil
}

func (m *Manager) resolveTool(toolKey string) (string, ToolDescriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, client := range m.servers {
		for _, tool := range client.Tools() {
			if ToolKey(name, tool.Name) == toolKey {
				return name, tool, nil
			}
		}
	}

	return "", ToolDescriptor{}, fmt.Errorf("%w: %q", ErrToolNotFound, toolKey)
}

func validateArguments(tool ToolDescriptor, arguments map[string]any) error {
	if len(tool.InputSchema) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(tool.InputSchema)
	documentLoader := gojsonschema.NewGoLoader(arguments)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate arguments for %s: %w", tool.Name, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		sort.Strings(messages)

		return fmt.Errorf("invalid arguments for %s: %v", tool.Name, messages)
	}

	return nil
}

// GetAllTools aggregates the catalogs of all running servers into one flat
// map keyed by "server_tool".
func (m *Manager) GetAllTools() map[string]ToolInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	catalog := make(map[string]ToolInfo)

	for name, client := range m.servers {
		if client.Status() != StatusRunning {
			continue
		}

		for _, tool := range client.Tools() {
			catalog[ToolKey(name, tool.Name)] = ToolInfo{Server: name, ToolDescriptor: tool}
		}
	}

	return catalog
}

// RefreshTools re-queries a server's tool list and publishes the update.
func (m *Manager) RefreshTools(ctx context.Context, name string) error {
	client, err := m.lookup(name)
	if err != nil {
		return err
	}

	if err := client.refreshTools(ctx); err != nil {
		return err
	}

	m.publish(name, events.ToolRegistryUpdated{
		BaseEvent:  events.NewBaseEvent(events.ToolRegistryUpdatedEvent),
		ServerName: name,
		ToolCount:  len(client.Tools()),
	})

	return nil
}

// Status reports the snapshot of one server.
func (m *Manager) Status(name string) (StatusInfo, error) {
	client, err := m.lookup(name)
	if err != nil {
		return StatusInfo{}, err
	}

	return client.StatusInfo(), nil
}

// StatusAll reports snapshots of every registered server, sorted by name.
func (m *Manager) StatusAll() []StatusInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]StatusInfo, 0, len(m.servers))
	for _, client := range m.servers {
		infos = append(infos, client.StatusInfo())
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Server < infos[j].Server })

	return infos
}

// Shutdown terminates all servers concurrently and blocks until each has
// exited or been killed.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	m.closed = true

	clients := make([]*Client, 0, len(m.servers))
	for _, client := range m.servers {
		clients = append(clients, client)
	}

	m.servers = make(map[string]*Client)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, client := range clients {
		wg.Add(1)

		go func(c *Client) {
			defer wg.Done()
			c.terminate()
			c.failPending("manager shut down")
		}(client)
	}

	wg.Wait()

	m.logger.Info("All tool servers stopped", "count", len(clients))
}

func (m *Manager) lookup(name string) (*Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.servers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServerNotFound, name)
	}

	return client, nil
}

func (m *Manager) publish(key string, event eventbus.Event) {
	if m.eventBus == nil {
		return
	}

	if err := m.eventBus.Publish(context.Background(), key, event); err != nil {
		m.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
