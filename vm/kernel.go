package vm

import (
	"fmt"

	"github.com/nihemak/xv6-riscv-go/mem"
	"github.com/nihemak/xv6-riscv-go/memlayout"
	"github.com/nihemak/xv6-riscv-go/riscv"
)

// StackMapper installs one kernel stack per process slot into the
// kernel page table; it is supplied by the process subsystem (spec.md
// §6). BuildKernel's etext and trampolinePA parameters locate the
// kernel image and the trampoline page, both linker-provided in a real
// boot and here supplied by the caller of BuildKernel.
type StackMapper func(a *mem.Allocator, root *Root)

// BuildKernel constructs the single direct-mapped kernel page table:
// MMIO windows, kernel text (R+X), kernel data and RAM (R+W), the
// trampoline (R+X) at the fixed TRAMPOLINE address, and — via
// mapStacks — one kernel stack per process slot. etext is the address
// one past the end of kernel text; trampolinePA is the physical address
// of the trampoline code. Grounded on
// original_source/kernel/vm.c:KernalVertualMemory_make, restructured as
// a table-driven loop the way the "more explicit variant" spec.md §9
// calls out prefers descriptive per-region setup over an ad hoc
// sequence of calls.
func BuildKernel(a *mem.Allocator, etext, trampolinePA uintptr, mapStacks StackMapper) (*Root, bool) {
	root, ok := NewRoot(a)
	if !ok {
		return nil, false
	}

	regions := []struct {
		va, pa uintptr
		length int
		flags  riscv.PTE
	}{
		{memlayout.UART0, memlayout.UART0, riscv.PageSize, riscv.PteR | riscv.PteW},
		{memlayout.VIRTIO0, memlayout.VIRTIO0, riscv.PageSize, riscv.PteR | riscv.PteW},
		{memlayout.PLIC, memlayout.PLIC, memlayout.PLICSize, riscv.PteR | riscv.PteW},
		{memlayout.KERNBASE, memlayout.KERNBASE, int(etext - memlayout.KERNBASE), riscv.PteR | riscv.PteX},
		{etext, etext, int(memlayout.PHYSTOP - etext), riscv.PteR | riscv.PteW},
		{memlayout.TRAMPOLINE, trampolinePA, riscv.PageSize, riscv.PteR | riscv.PteX},
	}
	for _, r := range regions {
		if !MapRange(a, root, r.va, r.length, r.pa, r.flags) {
			panic(fmt.Sprintf("vm: BuildKernel: failed to map region at va %#x", r.va))
		}
	}

	if mapStacks != nil {
		mapStacks(a, root)
	}
	return root, true
}

// InitHart loads this hart's SATP with root's page table and Sv39 mode,
// then flushes the TLB. Every hart must call this once after the
// primary hart has finished BuildKernel — see the boot package's
// release/acquire barrier on "started".
func InitHart(root *Root) {
	riscv.WriteSatp(riscv.SatpMake(root.PA()))
	riscv.SfenceVMA()
}
