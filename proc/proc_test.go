package proc

import (
	"testing"
	"unsafe"

	"github.com/nihemak/xv6-riscv-go/mem"
	"github.com/nihemak/xv6-riscv-go/memlayout"
	"github.com/nihemak/xv6-riscv-go/riscv"
	"github.com/nihemak/xv6-riscv-go/vm"
)

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

func TestKStackLeavesAGuardPageBetweenSlots(t *testing.T) {
	s0 := KStack(0)
	s1 := KStack(1)
	if s0 <= s1 {
		t.Fatalf("stacks must descend from TRAMPOLINE: slot0=%#x slot1=%#x", s0, s1)
	}
	if s0-s1 != 2*riscv.PageSize {
		t.Fatalf("expected a one-page gap between slots, got %#x", s0-s1)
	}
	if s0 >= memlayout.TRAMPOLINE {
		t.Fatal("no kernel stack may reach the trampoline page")
	}
}

func TestMapStacksInstallsEverySlot(t *testing.T) {
	a := newAllocator(t, NProc+8)
	root, ok := vm.NewRoot(a)
	if !ok {
		t.Fatal("NewRoot failed")
	}
	MapStacks(a, root)

	for p := 0; p < NProc; p++ {
		if _, ok := vm.WalkUserAddr(a, root, KStack(p)); ok {
			t.Fatalf("slot %d: kernel stacks must not be user-accessible", p)
		}
	}

	// UnmapRange panics on a page that is not mapped, so every slot must
	// hold a mapped frame for this loop to hand all NProc frames back.
	before := a.Count()
	for p := 0; p < NProc; p++ {
		vm.UnmapRange(a, root, KStack(p), 1, true)
	}
	if got := a.Count(); got != before+NProc {
		t.Fatalf("unmapping every slot freed %d frames, want %d", got-before, NProc)
	}
}

func TestCpuidReadsThreadPointer(t *testing.T) {
	riscv.WriteTp(3)
	if got := Cpuid(); got != 3 {
		t.Fatalf("Cpuid() = %d, want 3", got)
	}
}
