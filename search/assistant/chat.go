package assistant

import "context"

// ChatSystemPrompt opens every interactive session.
const ChatSystemPrompt = "You are an optimization assistant for EHD thrusters."

// Chat session sampling.
const (
	chatTemperature = 0.3
	chatMaxTokens   = 400
)

// Session is a multi-turn conversation. Every request carries the whole
// exchange so far. Not safe for concurrent use.
type Session struct {
	client  Completer
	history []Message
}

// NewSession starts an empty session.
func NewSession(client Completer) *Session {
	return &Session{client: client}
}

// Send asks the assistant and, on success, appends both turns to the session.
// A failed turn leaves the history unchanged.
func (s *Session) Send(ctx context.Context, input string) (string, error) {
	messages := make([]Message, 0, len(s.history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: ChatSystemPrompt})
	messages = append(messages, s.history...)
	messages = append(messages, Message{Role: RoleUser, Content: input})

	reply, err := s.client.Complete(ctx, messages, CompletionOptions{Temperature: chatTemperature, MaxTokens: chatMaxTokens})
	if err != nil {
		return "", err
	}
	s.history = append(s.history,
		Message{Role: RoleUser, Content: input},
		Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// Turns returns the number of completed exchanges.
func (s *Session) Turns() int { return len(s.history) / 2 }
