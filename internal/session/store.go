package session

import "sync"

// store is a thread-safe LRU of sessions keyed by ID.
type store struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *Session
	prev  *entry
	next  *entry
}

func newStore(maxEntries int) *store {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &store{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (s *store) get(key string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	s.moveToFront(e)
	return e.value, true
}

// put inserts value and returns the least recently used session if the
// store overflowed. The caller closes it.
func (s *store) put(key string, value *Session) (evicted *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.value = value
		s.moveToFront(e)
		return nil
	}

	e := &entry{key: key, value: value}
	s.entries[key] = e
	s.addToFront(e)

	if len(s.entries) > s.maxEntries {
		return s.evictTail()
	}
	return nil
}

func (s *store) delete(key string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	delete(s.entries, key)
	s.unlink(e)
	return e.value, true
}

// drain empties the store and returns everything it held.
func (s *store) drain() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, 0, len(s.entries))
	for e := s.head; e != nil; e = e.next {
		out = append(out, e.value)
	}
	s.entries = make(map[string]*entry)
	s.head, s.tail = nil, nil
	return out
}

func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *store) moveToFront(e *entry) {
	if e == s.head {
		return
	}
	s.unlink(e)
	s.addToFront(e)
}

func (s *store) addToFront(e *entry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *store) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (s *store) evictTail() *Session {
	if s.tail == nil {
		return nil
	}
	victim := s.tail
	delete(s.entries, victim.key)
	s.unlink(victim)
	return victim.value
}
