package conversation

import (
	"strings"
	"sync"

	"finrag/internal/domain"
)

// Memory is a bounded, ordered message log. Once the cap is exceeded the
// oldest messages are silently dropped (sliding window, no summarization).
// Mutations are serialized; one Memory instance backs one conversation.
type Memory struct {
	mu         sync.Mutex
	messages   []domain.Message
	maxHistory int
}

func NewMemory(maxHistory int) *Memory {
	if maxHistory <= 0 {
		maxHistory = 20
	}
	return &Memory{maxHistory: maxHistory}
}

// AddUserMessage appends a user turn, trimming the window if needed.
func (m *Memory) AddUserMessage(content string) {
	m.add(domain.Message{Role: domain.RoleUser, Content: content})
}

// AddAssistantMessage appends an assistant turn, trimming the window if
// needed.
func (m *Memory) AddAssistantMessage(content string) {
	m.add(domain.Message{Role: domain.RoleAssistant, Content: content})
}

func (m *Memory) add(msg domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	if len(m.messages) > m.maxHistory {
		m.messages = m.messages[len(m.messages)-m.maxHistory:]
	}
}

// History returns a copy of the current transcript, oldest first.
func (m *Memory) History() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// ContextString renders the most recent n messages as "User:"/"Assistant:"
// lines for prompt insertion. n <= 0 includes the whole window.
func (m *Memory) ContextString(n int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages
	if n > 0 && n < len(msgs) {
		msgs = msgs[len(msgs)-n:]
	}
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		role := "Assistant"
		if msg.Role == domain.RoleUser {
			role = "User"
		}
		parts = append(parts, role+": "+msg.Content)
	}
	return strings.Join(parts, "\n")
}

// Clear drops the whole transcript.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
