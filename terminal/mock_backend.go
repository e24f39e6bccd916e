package terminal

import (
	"bytes"
	"sync"
)

// MockBackend is an in-memory Backend for tests
// Input fed through Feed is returned by Read; output is captured
type MockBackend struct {
	mu     sync.Mutex
	out    bytes.Buffer
	width  int
	height int
	raw    bool
	inCh   chan []byte

	// Failure injection
	EnterRawErr error
	LeaveRawErr error
	WriteErr    error

	// Call counters
	LeaveRawCalls int

	resizeHandler func(w, h int)
}

// NewMockBackend creates a mock backend with fixed dimensions
func NewMockBackend(width, height int) *MockBackend {
	return &MockBackend{
		width:  width,
		height: height,
		inCh:   make(chan []byte, 64),
	}
}

func (m *MockBackend) EnterRaw() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnterRawErr != nil {
		return m.EnterRawErr
	}
	m.raw = true
	return nil
}

func (m *MockBackend) LeaveRaw() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LeaveRawCalls++
	if m.LeaveRawErr != nil {
		return m.LeaveRawErr
	}
	m.raw = false
	return nil
}

func (m *MockBackend) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

func (m *MockBackend) Write(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.out.Write(p)
	return nil
}

func (m *MockBackend) Read(stopCh <-chan struct{}) ([]byte, error) {
	select {
	case <-stopCh:
		return nil, nil
	case data := <-m.inCh:
		return data, nil
	}
}

func (m *MockBackend) SetResizeHandler(handler func(width, height int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resizeHandler = handler
}

// Feed queues raw input bytes
func (m *MockBackend) Feed(data []byte) {
	m.inCh <- data
}

// Resize changes dimensions and fires the resize handler if armed
func (m *MockBackend) Resize(w, h int) {
	m.mu.Lock()
	m.width, m.height = w, h
	handler := m.resizeHandler
	m.mu.Unlock()
	if handler != nil {
		handler(w, h)
	}
}

// Raw reports whether raw mode is in effect
func (m *MockBackend) Raw() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw
}

// Output returns everything written so far
func (m *MockBackend) Output() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out.String()
}

// ResetOutput discards captured output
func (m *MockBackend) ResetOutput() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out.Reset()
}
