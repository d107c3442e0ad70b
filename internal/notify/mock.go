package notify

import "sync"

// MockNotifier records sent notifications for tests.
type MockNotifier struct {
	mu       sync.Mutex
	name     string
	sent     []MockMessage
	failWith error
}

// MockMessage is one recorded Send call.
type MockMessage struct {
	Subject string
	Body    string
}

// NewMock creates a mock notifier reporting the given channel name.
func NewMock(name string) *MockNotifier {
	return &MockNotifier{name: name}
}

// FailWith makes subsequent Send calls return err.
func (m *MockNotifier) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Name implements Notifier.
func (m *MockNotifier) Name() string { return m.name }

// Send implements Notifier.
func (m *MockNotifier) Send(subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, MockMessage{Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockNotifier) Sent() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
