// Package vm is the page-table engine and the kernel/user address
// spaces built on top of it. Grounded on original_source/kernel/vm.c's
// walk/mappages/uvmunmap/freewalk and on biscuit's vm.Vm_t, restructured
// as three files (pte.go, kernel.go, user.go) plus copy.go matching the
// PTE/KAS/UAS component split in spec.md §4.
package vm

import (
	"fmt"
	"unsafe"

	"github.com/nihemak/xv6-riscv-go/mem"
	"github.com/nihemak/xv6-riscv-go/riscv"
)

// Root is the root page table of an address space — either the single
// kernel instance or one per user process.
type Root struct {
	alloc *mem.Allocator
	frame mem.Frame
}

// tableAt reinterprets a frame as a page table, the same way vm.walk
// follows a PTE's physical address straight into the next level.
func tableAt(f mem.Frame) *riscv.PageTable {
	return (*riscv.PageTable)(unsafe.Pointer(uintptr(f)))
}

func (r *Root) table() *riscv.PageTable {
	return tableAt(r.frame)
}

// newTable allocates and zeroes a fresh page-table page.
func newTable(a *mem.Allocator) (mem.Frame, bool) {
	f, ok := a.Alloc()
	if !ok {
		return 0, false
	}
	b := f.Bytes()
	for i := range b {
		b[i] = 0
	}
	return f, true
}

// NewRoot allocates and zeroes an empty root page table.
func NewRoot(a *mem.Allocator) (*Root, bool) {
	f, ok := newTable(a)
	if !ok {
		return nil, false
	}
	return &Root{alloc: a, frame: f}, true
}

// PA returns the physical address of the root page-table page.
func (r *Root) PA() uintptr {
	return uintptr(r.frame)
}

// walk descends the three Sv39 levels for va, returning the address of
// the leaf-level PTE slot — it does not dereference it. If create is
// true, missing interior page-table pages are allocated and zeroed
// along the way. walk panics if va is out of range (spec.md §4.2); it
// returns nil if create is false and a required interior PTE is
// invalid, or if an allocation fails.
func walk(a *mem.Allocator, root *Root, va uintptr, create bool) *riscv.PTE {
	if va >= riscv.MaxVA {
		panic(fmt.Sprintf("vm: walk: va %#x >= MaxVA", va))
	}

	table := root.table()
	for level := uint(2); level > 0; level-- {
		pte := &table[riscv.PxIndex(level, va)]
		if pte.Valid() {
			table = tableAt(mem.Frame(riscv.PteToPa(*pte)))
			continue
		}
		if !create {
			return nil
		}
		f, ok := newTable(a)
		if !ok {
			return nil
		}
		*pte = riscv.PaToPte(uintptr(f)) | riscv.PteV
		table = tableAt(f)
	}
	return &table[riscv.PxIndex(0, va)]
}

// WalkUserAddr looks up a user-accessible virtual address and returns
// the physical address it maps to, or false if va is unmapped, invalid,
// or not marked user-accessible. It is the only lookup permitted to
// return success for non-kernel callers.
func WalkUserAddr(a *mem.Allocator, root *Root, va uintptr) (uintptr, bool) {
	if va >= riscv.MaxVA {
		return 0, false
	}
	pte := walk(a, root, va, false)
	if pte == nil || !pte.Valid() || *pte&riscv.PteU == 0 {
		return 0, false
	}
	return riscv.PteToPa(*pte), true
}

// MapRange installs leaf PTEs covering every page the byte range
// [va, va+length) touches, each pointing at the corresponding page of
// pa, with the given flags ORed with V. va and pa need not be aligned;
// flags must not itself include V. MapRange panics if any covered VA is
// already validly mapped (remapping is forbidden, spec.md §3 invariant
//5), and returns false if an interior page-table allocation fails.
func MapRange(a *mem.Allocator, root *Root, va uintptr, length int, pa uintptr, flags riscv.PTE) bool {
	if flags&riscv.PteV != 0 {
		panic("vm: MapRange: flags must not include V")
	}
	if length <= 0 {
		panic("vm: MapRange: length must be positive")
	}

	start := riscv.PageRoundDown(va)
	last := riscv.PageRoundDown(va + uintptr(length) - 1)
	p := pa

	for v := start; ; v += riscv.PageSize {
		pte := walk(a, root, v, true)
		if pte == nil {
			return false
		}
		if pte.Valid() {
			panic(fmt.Sprintf("vm: MapRange: remap of va %#x", v))
		}
		*pte = riscv.PaToPte(p) | flags | riscv.PteV
		if v == last {
			break
		}
		p += riscv.PageSize
	}
	return true
}

// UnmapRange clears nPages leaf PTEs starting at the page-aligned
// address va. If freeFrames is true, each unmapped leaf's frame is
// returned to the allocator. UnmapRange panics if va is misaligned, or
// if any covered page is unmapped or not a leaf (spec.md §4.2,
// §9: a valid PTE whose flags equal exactly V is treated as an interior
// table, never a leaf, even though nothing else distinguishes "a
// reserved valid leaf with no R/W/X" from an interior pointer — see
// DESIGN.md).
func UnmapRange(a *mem.Allocator, root *Root, va uintptr, nPages int, freeFrames bool) {
	if va%riscv.PageSize != 0 {
		panic(fmt.Sprintf("vm: UnmapRange: va %#x not aligned", va))
	}

	for i := 0; i < nPages; i++ {
		v := va + uintptr(i)*riscv.PageSize
		pte := walk(a, root, v, false)
		if pte == nil {
			panic(fmt.Sprintf("vm: UnmapRange: walk: va %#x has no PTE", v))
		}
		if !pte.Valid() {
			panic(fmt.Sprintf("vm: UnmapRange: va %#x not mapped", v))
		}
		if pte.Flags() == riscv.PteV {
			panic(fmt.Sprintf("vm: UnmapRange: va %#x is not a leaf", v))
		}
		if freeFrames {
			a.Free(mem.Frame(riscv.PteToPa(*pte)))
		}
		*pte = 0
	}
}

// FreeWalk frees every interior page-table page reachable from root,
// including root itself. Every leaf mapping beneath root must already
// have been removed (e.g. via UnmapRange) — encountering a leaf panics.
func FreeWalk(a *mem.Allocator, root *Root) {
	freeWalkTable(a, root.table())
	a.Free(root.frame)
}

func freeWalkTable(a *mem.Allocator, table *riscv.PageTable) {
	for i := range table {
		pte := &table[i]
		if !pte.Valid() {
			continue
		}
		if pte.Leaf() {
			panic("vm: FreeWalk: encountered a leaf PTE")
		}
		child := tableAt(mem.Frame(riscv.PteToPa(*pte)))
		freeWalkTable(a, child)
		a.Free(mem.Frame(riscv.PteToPa(*pte)))
		*pte = 0
	}
}
