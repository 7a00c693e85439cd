package memory

// Slab is an arena for fixed-size slots of type T.
//
// Each Alloc returns a sub-range of one backing array with len 0 and cap n, so
// the caller can fill it with append without ever exceeding its reservation.
// Reset releases every range at once.
type Slab[T any] struct {
	slots []T
	off   int
	spill [][]T
}

// NewSlab creates a slab able to serve size slots before growing.
func NewSlab[T any](size int) *Slab[T] {
	if size <= 0 {
		size = 64
	}
	return &Slab[T]{slots: make([]T, size)}
}

// Alloc reserves n slots. The returned slice has len 0 and cap exactly n.
func (s *Slab[T]) Alloc(n int) []T {
	if n <= 0 {
		return nil
	}
	if s.off+n > len(s.slots) {
		size := len(s.slots) * 2
		for size < n {
			size *= 2
		}
		if s.off > 0 {
			s.spill = append(s.spill, s.slots)
		}
		s.slots = make([]T, size)
		s.off = 0
	}
	r := s.slots[s.off : s.off : s.off+n]
	s.off += n
	return r
}

// Reset releases all ranges. Slot contents are cleared so released ranges do
// not keep referenced memory alive.
func (s *Slab[T]) Reset() {
	var zero T
	for i := 0; i < s.off; i++ {
		s.slots[i] = zero
	}
	s.off = 0
	s.spill = s.spill[:0]
}

// InUse returns the number of reserved slots in the active backing array.
func (s *Slab[T]) InUse() int {
	return s.off
}
