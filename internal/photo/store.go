package photo

import "sync"

// Store holds the ordered photo collection. Every mutation swaps in a fresh
// snapshot slice, so a reader holding a snapshot never observes a
// half-applied update. The collection is append-only; updates replace an
// existing record with a merged copy matched by ID.
type Store struct {
	mu       sync.RWMutex
	snapshot []Photo
	subs     map[int]chan []Photo
	nextSub  int
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan []Photo)}
}

// Snapshot returns the current immutable snapshot. Callers must not mutate
// the returned slice or the records it contains.
func (s *Store) Snapshot() []Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Len reports the number of photos in the collection.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot)
}

// Get returns the photo with the given ID.
func (s *Store) Get(id string) (Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.snapshot {
		if p.ID == id {
			return p, true
		}
	}
	return Photo{}, false
}

// Append adds photos to the end of the collection in the order given.
func (s *Store) Append(photos ...Photo) {
	if len(photos) == 0 {
		return
	}
	s.mu.Lock()
	next := make([]Photo, 0, len(s.snapshot)+len(photos))
	next = append(next, s.snapshot...)
	next = append(next, photos...)
	s.snapshot = next
	s.publishLocked(next)
	s.mu.Unlock()
}

// UpdateByID replaces the record matching id with a merged copy. A missing id
// is a no-op, not an error: the record may have been removed by a collaborator
// outside this store's scope. Reports whether a record was updated.
func (s *Store) UpdateByID(id string, patch Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.snapshot {
		if p.ID != id {
			continue
		}
		merged := p
		if patch.VideoRef != nil {
			merged.VideoRef = *patch.VideoRef
		}
		if patch.AnimationInFlight != nil {
			merged.AnimationInFlight = *patch.AnimationInFlight
		}
		next := make([]Photo, len(s.snapshot))
		copy(next, s.snapshot)
		next[i] = merged
		s.snapshot = next
		s.publishLocked(next)
		return true
	}
	return false
}

// Subscribe registers a snapshot subscriber. Every mutation publishes the new
// snapshot; a slow subscriber only ever misses intermediate snapshots, never
// the latest one. The returned func cancels the subscription.
func (s *Store) Subscribe() (<-chan []Photo, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan []Photo, 1)
	s.subs[id] = ch
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Store) publishLocked(snapshot []Photo) {
	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale pending snapshot and replace it with the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
