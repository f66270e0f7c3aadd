// Package gallery holds the list of records currently on display.
package gallery

import (
	"sort"
	"strings"
	"sync"

	"fygallery/internal/catalog"
	"fygallery/internal/shuffle"
)

// Listener is called with a snapshot of the list after every replacement.
type Listener func(records []catalog.ImageRecord)

// Store owns the displayed list. The list is only ever replaced as a whole;
// readers get copies and never observe a half-written list.
type Store struct {
	mu      sync.RWMutex // guards records and listeners
	writeMu sync.Mutex   // serializes replace-then-notify so listeners see writes in order

	records   []catalog.ImageRecord
	listeners map[int]Listener
	nextID    int
	shuffler  *shuffle.Shuffler
}

// NewStore creates an empty Store. A nil shuffler gets a clock-seeded one.
func NewStore(s *shuffle.Shuffler) *Store {
	if s == nil {
		s = shuffle.New()
	}
	return &Store{
		records:   []catalog.ImageRecord{},
		listeners: make(map[int]Listener),
		shuffler:  s,
	}
}

// Replace installs records as the displayed list and notifies listeners.
// The store keeps its own copy.
func (s *Store) Replace(records []catalog.ImageRecord) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.replaceLocked(catalog.CloneAll(records))
}

// Reshuffle installs a new random ordering of the current list.
func (s *Store) Reshuffle() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	current := s.records
	s.mu.RUnlock()

	s.replaceLocked(shuffle.Permute(s.shuffler, current))
}

// replaceLocked swaps the list in and notifies. Caller holds writeMu.
func (s *Store) replaceLocked(records []catalog.ImageRecord) {
	s.mu.Lock()
	s.records = records
	listeners := make([]Listener, 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(catalog.CloneAll(records))
	}
}

// Current returns a copy of the displayed list.
func (s *Store) Current() []catalog.ImageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.CloneAll(s.records)
}

// Len returns the number of displayed records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Lookup finds a displayed record by ID.
func (s *Store) Lookup(id int) (catalog.ImageRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return catalog.ImageRecord{}, false
}

// Subscribe registers l for future replacements and returns a function that
// removes it. l runs on the writer's goroutine and must not write to the Store.
func (s *Store) Subscribe(l Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// FilterByTag returns the records carrying tag, ignoring case. An empty tag
// returns the list unchanged.
func FilterByTag(records []catalog.ImageRecord, tag string) []catalog.ImageRecord {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return records
	}
	out := make([]catalog.ImageRecord, 0, len(records))
	for _, r := range records {
		for _, t := range r.Tags {
			if strings.EqualFold(t, tag) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
