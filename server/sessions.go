package server

import (
	"sync"

	"github.com/rubiojr/livepreview/preview"
)

// SessionHeader names the edit stream a preview request belongs to.
// Requests without it share one anonymous stream.
const SessionHeader = "X-Session-ID"

// maxSessions bounds the tracked streams; the server forgets an
// arbitrary one when a new stream arrives at the limit.
const maxSessions = 1024

// sessions keeps one preview.Latest per edit stream, so sequence
// numbers are only compared within a stream.
type sessions struct {
	mu sync.Mutex
	m  map[string]*preview.Latest
}

func (s *sessions) get(id string) *preview.Latest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.m[id]; ok {
		return l
	}
	if s.m == nil {
		s.m = make(map[string]*preview.Latest)
	}
	if len(s.m) >= maxSessions {
		for k := range s.m {
			delete(s.m, k)
			break
		}
	}
	l := &preview.Latest{}
	s.m[id] = l
	return l
}

func (s *sessions) lookup(id string) (*preview.Latest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.m[id]
	return l, ok
}
