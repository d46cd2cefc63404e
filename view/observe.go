package view

// Subscribe registers for state snapshots. A snapshot is published after
// every change to the collection or the active-view flags. The channel holds
// at most one pending snapshot: a slow reader skips straight to the latest
// state. Snapshots are not shared between subscribers. Calling cancel
// unregisters and closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

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

// publishLocked must be called with s.mu held for writing. Each subscriber
// gets its own copy of the state. Sends never block.
func (s *Store) publishLocked() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.snapshotLocked():
		default:
		}
	}
}
