package presence

// SessionStore maps connection IDs to their join records. It carries no
// locking of its own; the Coordinator serializes all access.
type SessionStore struct {
	sessions map[string]Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
	}
}

// Put overwrites any prior session for the connection.
func (s *SessionStore) Put(sess Session) {
	s.sessions[sess.ConnID] = sess
}

func (s *SessionStore) Get(connID string) (Session, bool) {
	sess, ok := s.sessions[connID]
	return sess, ok
}

// Remove is idempotent; removing an unknown connection is a no-op.
func (s *SessionStore) Remove(connID string) {
	delete(s.sessions, connID)
}

func (s *SessionStore) Len() int {
	return len(s.sessions)
}
