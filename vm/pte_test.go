package vm

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/nihemak/xv6-riscv-go/mem"
	"github.com/nihemak/xv6-riscv-go/riscv"
)

// newAllocator stands a mem.Allocator up over a real Go buffer, the same
// reservedPage trick mem/alloc_test.go uses: Sv39 physical addresses like
// 0x80000000 aren't dereferenceable from a hosted test process.
func newAllocator(t *testing.T, pages int) *mem.Allocator {
	t.Helper()
	buf := make([]byte, (pages+1)*riscv.PageSize)
	base := uintptr(unsafe.Pointer(&buf[0]))
	lo := riscv.PageRoundUp(base)
	hi := lo + uintptr(pages)*riscv.PageSize

	a := &mem.Allocator{}
	a.Init(lo, hi)
	return a
}

func TestWalkRejectsVAAtOrAboveMaxVA(t *testing.T) {
	a := newAllocator(t, 8)
	root, ok := NewRoot(a)
	if !ok {
		t.Fatal("NewRoot failed")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic walking va >= MaxVA")
		}
	}()
	walk(a, root, riscv.MaxVA, false)
}

func TestMapRangeExactPageCountBoundary(t *testing.T) {
	a := newAllocator(t, 16)
	root, ok := NewRoot(a)
	if !ok {
		t.Fatal("NewRoot failed")
	}

	f, ok := a.Alloc()
	if !ok {
		t.Fatal("Alloc failed")
	}

	// length = PageSize+1 must install exactly two leaf PTEs.
	if !MapRange(a, root, 0, riscv.PageSize+1, uintptr(f), riscv.PteR|riscv.PteW) {
		t.Fatal("MapRange failed")
	}
	for _, va := range []uintptr{0, riscv.PageSize} {
		pte := walk(a, root, va, false)
		if pte == nil || !pte.Valid() {
			t.Fatalf("va %#x not mapped", va)
		}
	}
	if pte := walk(a, root, 2*riscv.PageSize, false); pte != nil && pte.Valid() {
		t.Fatal("va past the range should be unmapped")
	}
}

func TestMapRangeRemapPanics(t *testing.T) {
	a := newAllocator(t, 8)
	root, ok := NewRoot(a)
	if !ok {
		t.Fatal("NewRoot failed")
	}
	f, _ := a.Alloc()
	if !MapRange(a, root, 0, riscv.PageSize, uintptr(f), riscv.PteR) {
		t.Fatal("first MapRange failed")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic remapping va 0")
		}
	}()
	f2, _ := a.Alloc()
	MapRange(a, root, 0, riscv.PageSize, uintptr(f2), riscv.PteR)
}

func TestUnmapRangeFatalOnUnmapped(t *testing.T) {
	a := newAllocator(t, 8)
	root, ok := NewRoot(a)
	if !ok {
		t.Fatal("NewRoot failed")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic unmapping an unmapped page")
		}
	}()
	UnmapRange(a, root, 0, 1, false)
}

func TestUnmapRangeFatalOnMisaligned(t *testing.T) {
	a := newAllocator(t, 8)
	root, ok := NewRoot(a)
	if !ok {
		t.Fatal("NewRoot failed")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on misaligned va")
		}
	}()
	UnmapRange(a, root, 1, 1, false)
}

// TestUnmapRangeFatalOnInterior exercises the §9 Open Question
// convention directly: a valid PTE with flags == V exactly (no R/W/X)
// is always an interior pointer, never a leaf, so UnmapRange must
// refuse to touch it.
func TestUnmapRangeFatalOnInterior(t *testing.T) {
	a := newAllocator(t, 8)
	root, ok := NewRoot(a)
	if !ok {
		t.Fatal("NewRoot failed")
	}
	// force creation of the interior page-table pages, then plant a valid
	// PTE whose flags are exactly V in the leaf-level slot for va 0.
	pte := walk(a, root, 0, true)
	f, _ := a.Alloc()
	*pte = riscv.PaToPte(uintptr(f)) | riscv.PteV

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic unmapping an interior PTE")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "not a leaf") {
			t.Fatalf("panic = %v, want the not-a-leaf check", r)
		}
	}()
	UnmapRange(a, root, 0, 1, false)
}

func TestFreeWalkFreesEveryPageTablePage(t *testing.T) {
	a := newAllocator(t, 16)
	before := a.Count()

	root, ok := NewRoot(a)
	if !ok {
		t.Fatal("NewRoot failed")
	}
	f, _ := a.Alloc()
	// one page at va 0 forces two interior pages (level 1 and level 0) below the root.
	if !MapRange(a, root, 0, riscv.PageSize, uintptr(f), riscv.PteR) {
		t.Fatal("MapRange failed")
	}
	UnmapRange(a, root, 0, 1, true)
	FreeWalk(a, root)

	if got := a.Count(); got != before {
		t.Fatalf("Count after FreeWalk = %d, want %d (no leaked frames)", got, before)
	}
}

func TestFreeWalkPanicsOnLeaf(t *testing.T) {
	a := newAllocator(t, 8)
	root, ok := NewRoot(a)
	if !ok {
		t.Fatal("NewRoot failed")
	}
	f, _ := a.Alloc()
	if !MapRange(a, root, 0, riscv.PageSize, uintptr(f), riscv.PteR) {
		t.Fatal("MapRange failed")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic: FreeWalk must not encounter a leaf")
		}
	}()
	FreeWalk(a, root)
}

func TestWalkUserAddrRequiresUBit(t *testing.T) {
	a := newAllocator(t, 8)
	root, ok := NewRoot(a)
	if !ok {
		t.Fatal("NewRoot failed")
	}
	f, _ := a.Alloc()
	if !MapRange(a, root, 0, riscv.PageSize, uintptr(f), riscv.PteR|riscv.PteW) {
		t.Fatal("MapRange failed")
	}

	if _, ok := WalkUserAddr(a, root, 0); ok {
		t.Fatal("WalkUserAddr should fail without U bit")
	}
}
