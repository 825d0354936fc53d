package change

import (
	"strconv"
	"sync"
	"time"
)

// IDSource hands out time-based ids that strictly increase even when the
// clock stalls or steps back.
type IDSource struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

func (s *IDSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return strconv.FormatInt(ms, 10)
}

var defaultIDs = NewIDSource(time.Now)

// NewID returns the next id from the process-wide source.
func NewID() string {
	return defaultIDs.Next()
}
