// Package notify delivers user-facing operation results.
package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Default messages used when a notification arrives empty.
const (
	DefaultSuccessMessage = "Operation completed successfully"
	DefaultFailureMessage = "Operation failed"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

// Clean flattens message onto one line: carriage returns are dropped, line
// feeds and tabs become spaces. An empty result is replaced by a default.
func Clean(message string, success bool) string {
	message = strings.ReplaceAll(message, "\r", "")
	message = strings.NewReplacer("\n", " ", "\t", " ").Replace(message)
	message = strings.TrimSpace(message)
	if message != "" {
		return message
	}
	if success {
		return DefaultSuccessMessage
	}
	return DefaultFailureMessage
}

// Console writes styled notifications to a terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{out: w}
}

// Notify writes one notification line.
func (c *Console) Notify(message string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	badge := successStyle.Render("✓")
	if !success {
		badge = failureStyle.Render("✗")
	}
	fmt.Fprintf(c.out, "%s %s\n", badge, messageStyle.Render(Clean(message, success)))
}

// Message is a notification captured by Memory.
type Message struct {
	Text    string
	Success bool
}

// Memory records notifications in order.
type Memory struct {
	mu       sync.Mutex
	messages []Message
}

// Notify records a cleaned notification.
func (m *Memory) Notify(message string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{Text: Clean(message, success), Success: success})
}

// Messages returns a copy of the recorded notifications.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Last returns the most recent notification.
func (m *Memory) Last() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return Message{}, false
	}
	return m.messages[len(m.messages)-1], true
}
