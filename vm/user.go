package vm

import (
	"github.com/nihemak/xv6-riscv-go/mem"
	"github.com/nihemak/xv6-riscv-go/riscv"
)

// userLeafFlags are the permissions every user mapping this layer
// creates carries: the VM core doesn't model per-region permissions
// beyond the guard-page case (ClearUser) — that distinction belongs
// to the process/exec subsystem, which is out of scope (spec.md §1).
const userLeafFlags = riscv.PteR | riscv.PteW | riscv.PteX | riscv.PteU

// NewUser creates an empty user address space: a zeroed root page
// table with no mappings.
func NewUser(a *mem.Allocator) (*Root, bool) {
	return NewRoot(a)
}

// InitImage is used only for the very first user process: it allocates
// one zeroed frame, maps it at VA 0 with R|W|X|U, and copies image into
// it. image must be smaller than one page.
func InitImage(a *mem.Allocator, root *Root, image []byte) {
	if len(image) >= riscv.PageSize {
		panic("vm: InitImage: image must be smaller than one page")
	}
	f, ok := a.Alloc()
	if !ok {
		panic("vm: InitImage: out of memory")
	}
	b := f.Bytes()
	for i := range b {
		b[i] = 0
	}
	if !MapRange(a, root, 0, riscv.PageSize, uintptr(f), userLeafFlags) {
		panic("vm: InitImage: map failed")
	}
	copy(b[:], image)
}

// Grow extends a user address space from oldSize to newSize bytes,
// allocating and zero-mapping one page at a time. On any allocation or
// mapping failure it rolls back to oldSize via Shrink and returns
// (oldSize, false); otherwise it returns (newSize, true).
func Grow(a *mem.Allocator, root *Root, oldSize, newSize int) (int, bool) {
	if newSize < oldSize {
		return oldSize, true
	}

	start := int(riscv.PageRoundUp(uintptr(oldSize)))
	for va := start; va < newSize; va += riscv.PageSize {
		f, ok := a.Alloc()
		if !ok {
			Shrink(a, root, va, oldSize)
			return oldSize, false
		}
		b := f.Bytes()
		for i := range b {
			b[i] = 0
		}
		if !MapRange(a, root, uintptr(va), riscv.PageSize, uintptr(f), userLeafFlags) {
			a.Free(f)
			Shrink(a, root, va, oldSize)
			return oldSize, false
		}
	}
	return newSize, true
}

// Shrink reduces a user address space from oldSize to newSize bytes,
// unmapping and freeing whichever whole pages fall strictly between the
// two rounded-up sizes, and returns the resulting size. It never grows;
// newSize >= oldSize is a no-op that returns oldSize.
func Shrink(a *mem.Allocator, root *Root, oldSize, newSize int) int {
	if newSize >= oldSize {
		return oldSize
	}
	oldUp := riscv.PageRoundUp(uintptr(oldSize))
	newUp := riscv.PageRoundUp(uintptr(newSize))
	if newUp < oldUp {
		n := int(oldUp-newUp) / riscv.PageSize
		UnmapRange(a, root, newUp, n, true)
	}
	return newSize
}

// Copy deep-copies size bytes of a parent user address space into an
// empty child: for every page in [0, size), the parent's mapping must
// be present and valid; Copy allocates a fresh frame in the child,
// copies the parent page's contents into it, and maps it with the
// parent PTE's exact flags. On any failure, every child page already
// installed is unmapped and freed and Copy returns false — nothing is
// left partially wired into the child.
func Copy(a *mem.Allocator, parent, child *Root, size int) bool {
	installed := 0
	for va := 0; va < size; va += riscv.PageSize {
		pte := walk(a, parent, uintptr(va), false)
		if pte == nil || !pte.Valid() {
			panic("vm: Copy: parent page missing or invalid")
		}
		srcPA := riscv.PteToPa(*pte)
		flags := pte.Flags() &^ riscv.PteV

		f, ok := a.Alloc()
		if !ok {
			UnmapRange(a, child, 0, installed, true)
			return false
		}
		*f.Bytes() = *mem.Frame(srcPA).Bytes()

		if !MapRange(a, child, uintptr(va), riscv.PageSize, uintptr(f), flags) {
			a.Free(f)
			UnmapRange(a, child, 0, installed, true)
			return false
		}
		installed++
	}
	return true
}

// Free unmaps and frees every user page in [0, size), then frees the
// page-table pages themselves via FreeWalk.
func Free(a *mem.Allocator, root *Root, size int) {
	if size > 0 {
		n := int(riscv.PageRoundUp(uintptr(size))) / riscv.PageSize
		UnmapRange(a, root, 0, n, true)
	}
	FreeWalk(a, root)
}

// ClearUser clears the U bit on the leaf PTE at va, without unmapping
// it. Used by exec to make the page below the user stack inaccessible
// to user mode while keeping the page-table page's other bookkeeping
// intact.
func ClearUser(a *mem.Allocator, root *Root, va uintptr) {
	pte := walk(a, root, va, false)
	if pte == nil {
		panic("vm: ClearUser: unmapped va")
	}
	*pte &^= riscv.PteU
}
