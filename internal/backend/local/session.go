package local

import "sync"

// SessionStorage holds the "last signed-in" marker. It lives in process
// memory only, so a marker never outlives the session that set it.
type SessionStorage struct {
	mu     sync.RWMutex
	userID string
}

func NewSessionStorage() *SessionStorage {
	return &SessionStorage{}
}

func (s *SessionStorage) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *SessionStorage) Set(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

func (s *SessionStorage) Clear() {
	s.Set("")
}
