// Package mem is the physical page allocator: it owns every 4KiB frame
// of usable RAM as a LIFO freelist and hands out or reclaims single
// pages. Grounded on original_source/kernel/kalloc.c, restructured the
// way biscuit's mem.Physmem_t wraps its freelist head in a mutex rather
// than a hand-rolled spinlock.
package mem

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/nihemak/xv6-riscv-go/riscv"
)

// Frame is a physical address known to be page-aligned. It is an
// exclusive, mutable handle: the classic "intrusive freelist over
// physical memory" (spec.md §9), where a free frame's own first machine
// word is its link to the next free frame.
type Frame uintptr

// Bytes views the frame as a page of raw bytes, the same way biscuit's
// Pg2bytes/Dmap8 reinterpret a *Pg_t as a byte page. The kernel never
// runs with an MMU translating this frame's address out from under it,
// so a direct unsafe.Pointer cast is safe for as long as the caller
// owns the frame.
func (f Frame) Bytes() *[riscv.PageSize]byte {
	return (*[riscv.PageSize]byte)(unsafe.Pointer(uintptr(f)))
}

func (f Frame) next() *Frame {
	return (*Frame)(unsafe.Pointer(uintptr(f)))
}

// Allocator is the physical page allocator. The zero value must be
// initialized with Init before use.
type Allocator struct {
	mu       sync.Mutex
	freelist Frame // 0 means empty
	lo, hi   uintptr
	inited   bool
}

// junk bytes used to surface uninitialised-read and use-after-free bugs,
// per spec.md §4.1.
const (
	allocJunk = 0x05
	freeJunk  = 0x01
)

// Init places every page in [lo, hi) onto the freelist, as if each had
// been freed. lo is rounded up to the next page boundary; hi must
// already be page-aligned (it is PHYSTOP). Init must be called exactly
// once; a second call panics.
func (a *Allocator) Init(lo, hi uintptr) {
	if a.inited {
		panic("mem: Init called twice")
	}
	a.inited = true
	a.lo, a.hi = riscv.PageRoundUp(lo), hi

	for p := a.lo; p+riscv.PageSize <= a.hi; p += riscv.PageSize {
		a.free(Frame(p))
	}
}

// Alloc returns a page-aligned frame filled with junk bytes, or false if
// the allocator is empty. The allocator never zeroes memory itself —
// callers that need a zeroed page (a new page table, a new user data
// page) zero it themselves.
func (a *Allocator) Alloc() (Frame, bool) {
	a.mu.Lock()
	f := a.freelist
	if f != 0 {
		a.freelist = *f.next()
	}
	a.mu.Unlock()

	if f == 0 {
		return 0, false
	}
	for i := range f.Bytes() {
		f.Bytes()[i] = allocJunk
	}
	return f, true
}

// Free returns frame to the allocator. frame must be page-aligned and
// lie within the allocator's managed range [lo, hi); violating either is
// a kernel bug and panics rather than returning an error, per spec.md
// §7.
func (a *Allocator) Free(frame Frame) {
	if uintptr(frame)%riscv.PageSize != 0 || uintptr(frame) < a.lo || uintptr(frame) >= a.hi {
		panic(fmt.Sprintf("mem: Free: bad frame %#x", uintptr(frame)))
	}
	a.free(frame)
}

// free performs the unchecked freelist push used both by Free and by
// Init's initial sweep.
func (a *Allocator) free(frame Frame) {
	b := frame.Bytes()
	for i := range b {
		b[i] = freeJunk
	}

	a.mu.Lock()
	*frame.next() = a.freelist
	a.freelist = frame
	a.mu.Unlock()
}

// Count returns the number of frames currently on the freelist. Intended
// for tests and diagnostics, not the hot allocation path.
func (a *Allocator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for f := a.freelist; f != 0; f = *f.next() {
		n++
	}
	return n
}
