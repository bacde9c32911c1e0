// Package session caches the canonical dataset for the active upload.
// The cache key is the SHA-256 of the uploaded bytes, so re-uploading the
// same file skips re-parsing while a new file evicts the previous session.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iamdaviwilliam/phiq-insights/internal/ingest"
	"github.com/iamdaviwilliam/phiq-insights/internal/model"
)

// ErrNoDataset is returned when a report is requested before any upload.
var ErrNoDataset = errors.New("no dataset uploaded yet")

// Session is one cached upload. The dataset it holds is immutable;
// consumers filter copies and never write back.
type Session struct {
	ID         string        `json:"session_id"`
	Hash       string        `json:"content_hash"`
	Filename   string        `json:"filename"`
	UploadedAt time.Time     `json:"uploaded_at"`
	Report     ingest.Report `json:"report"`

	Dataset *model.Dataset `json:"-"`
}

// Store holds the single live session. It is safe for concurrent use:
// the HTTP server may serve reads while an upload replaces the session,
// even though logical use is one interactive user.
type Store struct {
	mu      sync.RWMutex
	current *Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{}
}

// HashBytes computes the cache key for an upload payload.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put installs a freshly parsed dataset as the current session, evicting
// whatever was cached before, and returns the new session.
func (s *Store) Put(filename, hash string, ds *model.Dataset, report ingest.Report) *Session {
	sess := &Session{
		ID:         uuid.NewString(),
		Hash:       hash,
		Filename:   filename,
		UploadedAt: time.Now().UTC(),
		Report:     report,
		Dataset:    ds,
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess
}

// Lookup returns the current session when its content hash matches,
// letting an identical re-upload hit the cache.
func (s *Store) Lookup(hash string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current != nil && s.current.Hash == hash {
		return s.current, true
	}
	return nil, false
}

// Current returns the active session.
func (s *Store) Current() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNoDataset
	}
	return s.current, nil
}
