// Package swma is a fixed-capacity sliding window over integer samples with a
// running sum. Storage is allocated once in NewSlidingWindow.
package swma

type SlidingWindow struct {
	window []uint16
	head   int
	count  int
	sum    uint32
}

func NewSlidingWindow(windowSize int) *SlidingWindow {
	if windowSize < 1 {
		windowSize = 1
	}
	return &SlidingWindow{
		window: make([]uint16, windowSize),
	}
}

// Push overwrites the oldest slot and updates the sum incrementally.
func (s *SlidingWindow) Push(value uint16) {
	if s.count < len(s.window) {
		s.count++
	} else {
		s.sum -= uint32(s.window[s.head])
	}
	s.window[s.head] = value
	s.sum += uint32(value)
	s.head++
	if s.head == len(s.window) {
		s.head = 0
	}
}

// Average returns sum/count truncated. ok is false for an empty window.
func (s *SlidingWindow) Average() (avg uint16, ok bool) {
	if s.count == 0 {
		return 0, false
	}
	return uint16(s.sum / uint32(s.count)), true
}

// AllSame reports whether the window is full and every slot holds the same
// value. A partially filled window is never stable.
func (s *SlidingWindow) AllSame() bool {
	if s.count < len(s.window) {
		return false
	}
	first := s.window[0]
	for _, v := range s.window[1:] {
		if v != first {
			return false
		}
	}
	return true
}

func (s *SlidingWindow) Reset() {
	s.head = 0
	s.count = 0
	s.sum = 0
}

func (s *SlidingWindow) Sum() uint32 {
	return s.sum
}

func (s *SlidingWindow) Len() int {
	return s.count
}

func (s *SlidingWindow) Full() bool {
	return s.count == len(s.window)
}

func (s *SlidingWindow) Empty() bool {
	return s.count == 0
}
