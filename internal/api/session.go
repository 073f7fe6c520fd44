package api

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/isp-sorter/internal/types"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionBusy is returned when a new upload arrives for a session
	// whose previous upload is still being processed.
	ErrSessionBusy = errors.New("session is still processing a previous upload")
)

// Session is the processed state of the latest upload under one ID.
type Session struct {
	ID        string
	Filename  string
	CreatedAt time.Time
	Parse     types.ParseStats
	Result    types.ProcessingResult
}

// Store keeps sessions in memory. A new upload replaces a session wholesale.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	busy     map[string]bool
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), busy: make(map[string]bool)}
}

// Begin reserves id for a new upload, generating one when id is empty.
func (s *Store) Begin(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	} else if _, ok := s.sessions[id]; !ok && !s.busy[id] {
		return "", ErrSessionNotFound
	}
	if s.busy[id] {
		return "", ErrSessionBusy
	}
	s.busy[id] = true
	return id, nil
}

// Finish stores sess under its ID and releases the reservation.
func (s *Store) Finish(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	delete(s.busy, sess.ID)
}

// Abort releases the reservation and leaves any previous result in place.
func (s *Store) Abort(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, id)
}

func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}
