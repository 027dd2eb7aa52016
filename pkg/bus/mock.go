package bus

import (
	"context"
	"sync"
)

// PublishedMessage records one payload that went through a mock handle.
type PublishedMessage struct {
	Topic   string
	Payload []byte
	Headers Headers
}

// MockClient is an in-memory Client for tests. Publishes are recorded in
// order across all handles so paired messages can be checked together.
type MockClient struct {
	mu        sync.Mutex
	connected bool
	published []PublishedMessage

	// PublishErr, when set, is returned by every handle publish.
	PublishErr error
}

func NewMockClient() *MockClient {
	return &MockClient{connected: true}
}

func (m *MockClient) RegisterPublisher(topic string) (Handle, error) {
	return &mockHandle{client: m, topic: topic}, nil
}

func (m *MockClient) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockClient) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

func (m *MockClient) Close() error {
	m.SetConnected(false)
	return nil
}

// Published returns a copy of every recorded message, in publish order.
func (m *MockClient) Published() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedMessage, len(m.published))
	copy(out, m.published)
	return out
}

// PublishedTo returns the recorded messages for one topic.
func (m *MockClient) PublishedTo(topic string) []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PublishedMessage
	for _, msg := range m.published {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

type mockHandle struct {
	client *MockClient
	topic  string
}

func (h *mockHandle) Publish(ctx context.Context, payload []byte, headers Headers) error {
	h.client.mu.Lock()
	defer h.client.mu.Unlock()

	if h.client.PublishErr != nil {
		return h.client.PublishErr
	}

	body := make([]byte, len(payload))
	copy(body, payload)
	h.client.published = append(h.client.published, PublishedMessage{
		Topic:   h.topic,
		Payload: body,
		Headers: headers,
	})
	return nil
}

func (h *mockHandle) Topic() string {
	return h.topic
}
