// Package memory provides request-scoped allocation for the relay loops.
//
// An Arena hands out byte slices from a single growing block and releases all
// of them at once when the request completes. A Slab does the same for typed
// slots (header fields). Neither type is safe for concurrent use: each event
// loop owns its own instances.
package memory

const (
	// DefaultArenaSize is the initial block size of a new Arena.
	DefaultArenaSize = 4096

	// maxRetainedSize caps the block kept across Reset calls so a single large
	// response does not pin memory for the lifetime of the loop.
	maxRetainedSize = 256 * 1024
)

// Arena is a bump allocator for transient byte slices.
//
// Slices returned by Alloc, Clone and Concat are valid until the next
// Reset (or Release to an earlier mark). Callers must not retain them beyond
// the request they were allocated for.
type Arena struct {
	block []byte
	off   int

	// spill holds blocks replaced while growing. They stay reachable until
	// Reset so slices handed out from them remain valid.
	spill [][]byte

	allocs uint64
	bytes  uint64
}

// NewArena creates an arena with an initial block of size bytes.
func NewArena(size int) *Arena {
	if size <= 0 {
		size = DefaultArenaSize
	}
	return &Arena{block: make([]byte, size)}
}

// Alloc returns a zeroed-length slice with capacity n carved from the arena.
// Appending past n reallocates on the heap and leaves the arena untouched.
//
// Allocation behavior: 0 allocs/op while the block has room
func (a *Arena) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	if a.off+n > len(a.block) {
		a.grow(n)
	}
	b := a.block[a.off : a.off : a.off+n]
	a.off += n
	a.allocs++
	a.bytes += uint64(n)
	return b
}

// Clone copies src into the arena.
func (a *Arena) Clone(src []byte) []byte {
	dst := a.Alloc(len(src))
	return append(dst, src...)
}

// Concat copies all parts into one contiguous arena slice.
func (a *Arena) Concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	dst := a.Alloc(n)
	for _, p := range parts {
		dst = append(dst, p...)
	}
	return dst
}

// Mark returns the current allocation offset for a later Release.
func (a *Arena) Mark() int {
	return a.off
}

// Release rewinds the arena to mark. Memory handed out after mark becomes
// invalid. Marks taken before a grow are only honoured by Reset.
func (a *Arena) Release(mark int) {
	if len(a.spill) == 0 && mark >= 0 && mark <= a.off {
		a.off = mark
		return
	}
	a.Reset()
}

// Reset releases every allocation at once.
func (a *Arena) Reset() {
	a.off = 0
	a.spill = a.spill[:0]
	if len(a.block) > maxRetainedSize {
		a.block = make([]byte, maxRetainedSize)
	}
}

// Len returns the number of bytes currently allocated from the active block.
func (a *Arena) Len() int {
	return a.off
}

// Stats reports cumulative allocation counters.
func (a *Arena) Stats() Stats {
	return Stats{Allocs: a.allocs, Bytes: a.bytes, BlockSize: len(a.block)}
}

func (a *Arena) grow(n int) {
	size := len(a.block) * 2
	for size < n {
		size *= 2
	}
	if a.off > 0 {
		a.spill = append(a.spill, a.block)
	}
	a.block = make([]byte, size)
	a.off = 0
}

// Stats provides arena allocation statistics.
type Stats struct {
	// Allocs is the total number of Alloc calls served.
	Allocs uint64

	// Bytes is the total number of bytes handed out.
	Bytes uint64

	// BlockSize is the size of the active block.
	BlockSize int
}
