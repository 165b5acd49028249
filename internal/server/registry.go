// Package server tracks which connection belongs to which registered user via
// the SessionRegistry type.
package server

import "sync"

// Session is the registration record bound to one open connection: the
// display name and the region label chosen by the client. Region is stored
// with its original case; grouping compares it case-insensitively.
type Session struct {
	Username string
	Region   string
}

// SessionRegistry maps connection ids to Sessions. It is the single shared
// piece of state that concurrent connection handlers read and write, so every
// access goes through its mutex. The registry performs no validation; callers
// must reject empty usernames and regions before registering.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]Session)}
}

// Register inserts or replaces the Session for the given connection id.
// Re-registering an existing connection overwrites its prior Session, which
// covers clients that retry registration on the same connection.
func (r *SessionRegistry) Register(connID, username, region string) {
	r.mu.Lock()
	r.sessions[connID] = Session{Username: username, Region: region}
	r.mu.Unlock()
}

// Unregister removes and returns the Session for the given connection id.
// Disconnecting before registering is a valid path, reported via the boolean
// rather than an error.
func (r *SessionRegistry) Unregister(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[connID]
	if ok {
		delete(r.sessions, connID)
	}
	return session, ok
}

// Lookup returns the Session for the given connection id, if any.
func (r *SessionRegistry) Lookup(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[connID]
	return session, ok
}

// Snapshot returns a point-in-time copy of all current Sessions. Ordering is
// not specified; consumers treat the result as a set.
func (r *SessionRegistry) Snapshot() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Len returns the number of current Sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
