// Package testutil provides testing utilities for shipkey.
package testutil

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	shipexec "github.com/shipkey/shipkey/pkg/exec"
)

// MockCommandExecutor provides a configurable mock for testing CLI-backed
// stores and sync targets.
type MockCommandExecutor struct {
	mu sync.Mutex

	// Responses maps command patterns to their mock responses.
	// Key format: "command arg1 arg2" (space-separated command and args)
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching pattern is found.
	DefaultResponse *MockResponse

	// RecordedCalls stores all calls made to Execute for verification.
	RecordedCalls []RecordedCall

	// Missing lists binaries LookPath reports as not installed.
	Missing map[string]bool

	// StrictMode causes Execute to fail if no matching response is found.
	StrictMode bool

	// Hook, when set, runs before the response lookup and may replace it.
	// Stateful fakes use it to react to writes.
	Hook func(call RecordedCall) (MockResponse, bool)
}

var _ shipexec.CommandExecutor = (*MockCommandExecutor)(nil)

// MockResponse defines the expected output for a mocked command.
type MockResponse struct {
	Stdout   []byte
	Stderr   []byte
	Err      error
	ExitCode int // Used to simulate exit codes when Err is nil
}

// RecordedCall stores information about a command execution.
type RecordedCall struct {
	Command string
	Args    []string
	Input   []byte
	Context context.Context
}

// Line renders the call the way response patterns are written.
func (c RecordedCall) Line() string {
	return buildKey(c.Command, c.Args)
}

// NewMockCommandExecutor creates a new mock executor with empty responses.
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Responses:     make(map[string]MockResponse),
		RecordedCalls: make([]RecordedCall, 0),
		Missing:       make(map[string]bool),
	}
}

// Execute returns the mocked response for the given command.
func (m *MockCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return m.respond(RecordedCall{Command: name, Args: args, Context: ctx})
}

// ExecuteWithInput records input alongside the call.
func (m *MockCommandExecutor) ExecuteWithInput(ctx context.Context, input []byte, name string, args ...string) ([]byte, []byte, error) {
	return m.respond(RecordedCall{Command: name, Args: args, Input: append([]byte(nil), input...), Context: ctx})
}

// LookPath fails for binaries listed in Missing.
func (m *MockCommandExecutor) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Missing[name] {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/local/bin/" + name, nil
}

// SetMissing marks name as not installed.
func (m *MockCommandExecutor) SetMissing(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Missing[name] = true
}

func (m *MockCommandExecutor) respond(call RecordedCall) ([]byte, []byte, error) {
	m.mu.Lock()
	m.RecordedCalls = append(m.RecordedCalls, call)
	hook := m.Hook
	m.mu.Unlock()

	if hook != nil {
		if resp, ok := hook(call); ok {
			return resp.Stdout, resp.Stderr, resp.Err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := call.Line()

	// Try exact match first
	if resp, ok := m.Responses[key]; ok {
		return resp.Stdout, resp.Stderr, resp.Err
	}

	// Longest matching prefix wins so overlapping patterns stay deterministic
	best := ""
	for pattern := range m.Responses {
		if matchesPattern(key, pattern) && len(pattern) > len(best) {
			best = pattern
		}
	}
	if best != "" {
		resp := m.Responses[best]
		return resp.Stdout, resp.Stderr, resp.Err
	}

	// Use default response if available
	if m.DefaultResponse != nil {
		return m.DefaultResponse.Stdout, m.DefaultResponse.Stderr, m.DefaultResponse.Err
	}

	// Strict mode fails on unknown commands
	if m.StrictMode {
		return nil, nil, fmt.Errorf("mock: no response configured for command: %s", key)
	}

	// Non-strict mode returns empty success
	return []byte{}, []byte{}, nil
}

// buildKey creates a lookup key from command and arguments.
func buildKey(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// matchesPattern checks if the command key matches a pattern.
func matchesPattern(key, pattern string) bool {
	// Support wildcard patterns with "*"
	if i := strings.Index(pattern, "*"); i >= 0 {
		return strings.HasPrefix(key, pattern[:i])
	}

	// Check if key starts with pattern (allows additional args)
	return strings.HasPrefix(key, pattern)
}

// AddResponse registers a mock response for a specific command pattern.
func (m *MockCommandExecutor) AddResponse(commandPattern string, response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[commandPattern] = response
}

// AddJSONResponse is a convenience method to add a JSON response.
func (m *MockCommandExecutor) AddJSONResponse(commandPattern string, jsonData string) {
	m.AddResponse(commandPattern, MockResponse{
		Stdout: []byte(jsonData),
		Stderr: []byte{},
		Err:    nil,
	})
}

// ExitError stands in for *exec.ExitError in scripted failures.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d: %s", e.Code, e.Stderr)
}

// ExitCode matches (*exec.ExitError).ExitCode.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// AddErrorResponse adds an error response for a command pattern.
func (m *MockCommandExecutor) AddErrorResponse(commandPattern string, errMsg string, exitCode int) {
	m.AddResponse(commandPattern, MockResponse{
		Stdout:   []byte{},
		Stderr:   []byte(errMsg),
		Err:      &ExitError{Code: exitCode, Stderr: errMsg},
		ExitCode: exitCode,
	})
}

// GetCalls returns all recorded calls matching the given command name.
func (m *MockCommandExecutor) GetCalls(commandName string) []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []RecordedCall
	for _, call := range m.RecordedCalls {
		if call.Command == commandName {
			matches = append(matches, call)
		}
	}
	return matches
}

// CallsWithPrefix returns recorded calls whose rendered line starts with prefix.
func (m *MockCommandExecutor) CallsWithPrefix(prefix string) []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []RecordedCall
	for _, call := range m.RecordedCalls {
		if strings.HasPrefix(call.Line(), prefix) {
			matches = append(matches, call)
		}
	}
	return matches
}

// CallCount returns the number of times Execute was called.
func (m *MockCommandExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RecordedCalls)
}

// Reset clears all recorded calls and responses.
func (m *MockCommandExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = make(map[string]MockResponse)
	m.RecordedCalls = make([]RecordedCall, 0)
	m.DefaultResponse = nil
}

// AssertCalled verifies that a specific command was called at least once.
func (m *MockCommandExecutor) AssertCalled(t interface{ Error(args ...interface{}) }, commandName string) bool {
	calls := m.GetCalls(commandName)
	if len(calls) == 0 {
		t.Error("expected command", commandName, "to be called, but it was not")
		return false
	}
	return true
}

// AssertNotCalled verifies that a specific command was never called.
func (m *MockCommandExecutor) AssertNotCalled(t interface{ Error(args ...interface{}) }, commandName string) bool {
	calls := m.GetCalls(commandName)
	if len(calls) > 0 {
		t.Error("expected command", commandName, "to not be called, but it was called", len(calls), "times")
		return false
	}
	return true
}

// BitwardenMockResponses provides pre-configured responses for Bitwarden CLI.
type BitwardenMockResponses struct{}

func bwStatus(status string) MockResponse {
	return MockResponse{
		Stdout: []byte(fmt.Sprintf(`{
			"serverUrl": "https://vault.bitwarden.com",
			"lastSync": "2024-01-15T10:30:00.000Z",
			"userEmail": "user@example.com",
			"userId": "user-123",
			"status": %q
		}`, status)),
	}
}

// StatusUnlocked returns a mock response for an unlocked Bitwarden vault.
func (BitwardenMockResponses) StatusUnlocked() MockResponse { return bwStatus("unlocked") }

// StatusLocked returns a mock response for a locked Bitwarden vault.
func (BitwardenMockResponses) StatusLocked() MockResponse { return bwStatus("locked") }

// StatusUnauthenticated returns a mock response for unauthenticated state.
func (BitwardenMockResponses) StatusUnauthenticated() MockResponse {
	return bwStatus("unauthenticated")
}

// OnePasswordMockResponses provides pre-configured responses for 1Password CLI.
type OnePasswordMockResponses struct{}

// Whoami returns a mock response for a signed-in op session.
func (OnePasswordMockResponses) Whoami() MockResponse {
	return MockResponse{
		Stdout: []byte(`{
			"url": "my.1password.com",
			"email": "user@example.com",
			"user_uuid": "ABCD123",
			"account_uuid": "EFGH456",
			"user_type": "HUMAN"
		}`),
	}
}

// NotSignedIn returns the failure op prints without a session.
func (OnePasswordMockResponses) NotSignedIn() MockResponse {
	return MockResponse{
		Stderr: []byte("[ERROR] 2024/01/15 10:30:00 account is not signed in"),
		Err:    fmt.Errorf("exit status 1"),
	}
}
