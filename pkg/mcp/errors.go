package mcp

import "errors"

var (
	// ErrDuplicateServerName indicates a server with that name is already registered.
	ErrDuplicateServerName = errors.New("server name already registered")

	// ErrServerNotFound indicates no server is registered under that name.
	ErrServerNotFound = errors.New("server not found")

	// ErrServerNotRunning indicates the server process is not in the running state.
	ErrServerNotRunning = errors.New("server is not running")

	// ErrRequestTimeout indicates no response arrived within the request deadline.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrProcessSpawn indicates the server process could not be started.
	ErrProcessSpawn = errors.New("failed to spawn server process")

	// ErrRestartLimitExceeded indicates the bounded auto-restart gave up.
	ErrRestartLimitExceeded = errors.New("restart limit exceeded")

	// ErrToolNotFound indicates the server does not report the requested tool.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolExecution indicates the server reported a tool call failure.
	ErrToolExecution = errors.New("tool execution failed")
)
