package bot

import (
	"sync"

	"github.com/mamadbah2/viberbot/pkg/clients/anthropic"
)

// maxHistory bounds the turns kept per user.
const maxHistory = 20

// SessionManager keeps the AI conversation history of each user.
type SessionManager struct {
	sessions map[string][]anthropic.Message
	mu       sync.RWMutex
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string][]anthropic.Message),
	}
}

// History returns a copy of the turns recorded for a user.
func (sm *SessionManager) History(userID string) []anthropic.Message {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return append([]anthropic.Message(nil), sm.sessions[userID]...)
}

// Append records turns for a user, dropping the oldest beyond maxHistory.
// The kept history always starts with a user turn.
func (sm *SessionManager) Append(userID string, turns ...anthropic.Message) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	history := append(sm.sessions[userID], turns...)
	if excess := len(history) - maxHistory; excess > 0 {
		history = history[excess:]
	}
	for len(history) > 0 && history[0].Role != "user" {
		history = history[1:]
	}
	sm.sessions[userID] = history
}

// ClearSession removes a user's session.
func (sm *SessionManager) ClearSession(userID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, userID)
}
