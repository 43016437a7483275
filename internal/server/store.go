package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// upload is a parsed client workbook waiting for its mapping form.
type upload struct {
	name     string
	data     []byte
	columns  []string
	rows     int
	selected map[string]string
	// output is the workbook from the last successful process request.
	output  []byte
	expires time.Time
}

// uploadStore keeps uploads between the upload and process requests.
// Entries expire after ttl; expired entries are swept on every Put.
type uploadStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	uploads map[string]*upload
}

func newUploadStore(ttl time.Duration) *uploadStore {
	return &uploadStore{
		ttl:     ttl,
		now:     time.Now,
		uploads: make(map[string]*upload),
	}
}

func (s *uploadStore) Put(u *upload) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.uploads {
		if now.After(e.expires) {
			delete(s.uploads, id)
		}
	}

	id := uuid.NewString()
	u.expires = now.Add(s.ttl)
	s.uploads[id] = u
	return id
}

func (s *uploadStore) Get(id string) (*upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.uploads[id]
	if !ok {
		return nil, false
	}
	if s.now().After(u.expires) {
		delete(s.uploads, id)
		return nil, false
	}
	return u, true
}

// Remember records the last selections made for an upload.
func (s *uploadStore) Remember(id string, selected map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.uploads[id]; ok {
		u.selected = selected
	}
}

// Finish stores the processed workbook for an upload.
func (s *uploadStore) Finish(id string, output []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.uploads[id]; ok {
		u.output = output
	}
}

// Output returns the processed workbook of a live upload, if any.
func (s *uploadStore) Output(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.uploads[id]
	if !ok || s.now().After(u.expires) || u.output == nil {
		return nil, false
	}
	return u.output, true
}

func (s *uploadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}
