package cas

import "time"

// SetClock replaces the clock used to stamp new entries.
func (s *FSStore) SetClock(now func() time.Time) {
	s.now = now
}
